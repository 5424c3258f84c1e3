package store

import (
	"errors"

	"github.com/ipfs/go-cid"
)

// MultiStore provides deterministic, ordered read fallback across stores.
//
// Retrieval order is the slice order in Stores; callers MUST supply a fixed
// order.
//
// Put writes only to the first store.
type MultiStore struct {
	Stores []Store
}

var _ Store = MultiStore{}

func (m MultiStore) Put(data []byte) (cid.Cid, error) {
	if len(m.Stores) == 0 {
		return cid.Undef, errors.New("store: MultiStore has no stores")
	}
	return m.Stores[0].Put(data)
}

func (m MultiStore) Get(id cid.Cid) ([]byte, error) {
	for _, s := range m.Stores {
		b, err := s.Get(id)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (m MultiStore) Has(id cid.Cid) bool {
	for _, s := range m.Stores {
		if s.Has(id) {
			return true
		}
	}
	return false
}
