package store

import (
	"fmt"

	"github.com/ipfs/go-cid"
)

// NamedStore associates a Store with a stable backend name.
//
// Multi-backend orchestration keeps per-backend identity this way, so
// replication reports can say which backend returned which CID.
type NamedStore struct {
	Name  string
	Store Store
}

// ReplicatingStore writes to all configured backends.
//
// Reads fall back in order. Writes go to all backends and require every
// returned CID to equal the canonical CID of the bytes; any divergence is
// ErrCIDMismatch.
//
// Use PutAll when the per-backend CID mapping is needed.
type ReplicatingStore struct {
	Backends []NamedStore
}

var _ Store = ReplicatingStore{}

// PutAll writes the same bytes to every backend and returns the canonical
// CID plus a map of backend name to the CID that backend reported.
func (r ReplicatingStore) PutAll(data []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := CIDFor(data)
	if err != nil {
		return cid.Undef, nil, err
	}
	if !want.Defined() {
		return cid.Undef, nil, ErrInvalidCID
	}
	if len(r.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("store: ReplicatingStore has no backends")
	}

	out := make(map[string]cid.Cid, len(r.Backends))
	for _, b := range r.Backends {
		if b.Store == nil {
			return cid.Undef, nil, fmt.Errorf("store: nil store for backend %q", b.Name)
		}
		got, err := b.Store.Put(data)
		if err != nil {
			return cid.Undef, nil, err
		}
		out[b.Name] = got
		if got != want {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (r ReplicatingStore) Put(data []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(data)
	return id, err
}

func (r ReplicatingStore) Get(id cid.Cid) ([]byte, error) {
	for _, b := range r.Backends {
		if b.Store == nil {
			continue
		}
		out, err := b.Store.Get(id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (r ReplicatingStore) Has(id cid.Cid) bool {
	for _, b := range r.Backends {
		if b.Store != nil && b.Store.Has(id) {
			return true
		}
	}
	return false
}
