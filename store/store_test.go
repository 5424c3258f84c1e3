package store_test

import (
	"errors"
	"testing"

	"github.com/ipfs/go-cid"

	"github.com/danbev/in-toto-rs/store"
	"github.com/danbev/in-toto-rs/store/storetest"
)

func TestMemoryConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		return store.NewMemory()
	})
}

func TestMemoryCopiesBytes(t *testing.T) {
	m := store.NewMemory()
	data := []byte("mutable buffer")
	id, err := m.Put(data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	data[0] = 'X'

	got, err := m.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "mutable buffer" {
		t.Fatalf("stored bytes follow the caller's buffer: %q", got)
	}
	got[0] = 'Y'
	again, err := m.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(again) != "mutable buffer" {
		t.Fatalf("returned bytes alias the stored object: %q", again)
	}
}

func TestCIDForKnownVector(t *testing.T) {
	// CIDv1, raw codec, sha2-256. Independently checkable with
	// `ipfs block put --format=raw --mhtype=sha2-256 --cid-version=1`.
	id, err := store.CIDFor([]byte("hello"))
	if err != nil {
		t.Fatalf("CIDFor: %v", err)
	}
	const want = "bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq"
	if id.String() != want {
		t.Fatalf("CIDFor(hello) = %s, want %s", id, want)
	}
}

func TestMultiStoreFallback(t *testing.T) {
	primary := store.NewMemory()
	secondary := store.NewMemory()

	id, err := secondary.Put([]byte("only in secondary"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	m := store.MultiStore{Stores: []store.Store{primary, secondary}}
	got, err := m.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "only in secondary" {
		t.Fatalf("got %q", got)
	}
	if !m.Has(id) {
		t.Fatal("Has missed the secondary store")
	}

	putID, err := m.Put([]byte("written via multi"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !primary.Has(putID) {
		t.Fatal("Put skipped the first store")
	}
	if secondary.Has(putID) {
		t.Fatal("Put wrote past the first store")
	}
}

func TestMultiStoreEmpty(t *testing.T) {
	m := store.MultiStore{}
	if _, err := m.Put([]byte("x")); err == nil {
		t.Fatal("Put on empty MultiStore succeeded")
	}
	id, err := store.CIDFor([]byte("x"))
	if err != nil {
		t.Fatalf("CIDFor: %v", err)
	}
	if _, err := m.Get(id); !store.IsNotFound(err) {
		t.Fatalf("Get: err = %v, want ErrNotFound", err)
	}
}

type cidLyingStore struct {
	store.Store
}

func (s cidLyingStore) Put(data []byte) (cid.Cid, error) {
	id, err := store.CIDFor(append([]byte("tampered:"), data...))
	if err != nil {
		return cid.Undef, err
	}
	return id, nil
}

func TestReplicatingStorePutAll(t *testing.T) {
	a := store.NewMemory()
	b := store.NewMemory()
	r := store.ReplicatingStore{Backends: []store.NamedStore{
		{Name: "a", Store: a},
		{Name: "b", Store: b},
	}}

	data := []byte("replicated attestation")
	id, perBackend, err := r.PutAll(data)
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if !a.Has(id) || !b.Has(id) {
		t.Fatal("PutAll did not reach every backend")
	}
	if len(perBackend) != 2 || perBackend["a"] != id || perBackend["b"] != id {
		t.Fatalf("per-backend CIDs = %v", perBackend)
	}
}

func TestReplicatingStoreCIDMismatch(t *testing.T) {
	good := store.NewMemory()
	r := store.ReplicatingStore{Backends: []store.NamedStore{
		{Name: "good", Store: good},
		{Name: "lying", Store: cidLyingStore{Store: store.NewMemory()}},
	}}

	_, perBackend, err := r.PutAll([]byte("bytes"))
	if !errors.Is(err, store.ErrCIDMismatch) {
		t.Fatalf("err = %v, want ErrCIDMismatch", err)
	}
	if _, ok := perBackend["lying"]; !ok {
		t.Fatal("mismatching backend missing from the report")
	}
}

func TestReplicatingStoreReadFallback(t *testing.T) {
	a := store.NewMemory()
	b := store.NewMemory()
	id, err := b.Put([]byte("late copy"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	r := store.ReplicatingStore{Backends: []store.NamedStore{
		{Name: "a", Store: a},
		{Name: "b", Store: b},
	}}
	got, err := r.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "late copy" {
		t.Fatalf("got %q", got)
	}
}
