// Package storetest holds the conformance suite every Store backend runs.
package storetest

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"

	"github.com/danbev/in-toto-rs/store"
)

// NewStore constructs a fresh, empty store for one test. The returned store
// MUST be isolated from other tests.
type NewStore func(t *testing.T) store.Store

// Run exercises the Store contract against newStore.
func Run(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := []byte(`{"_type":"link","name":"build"}`)

		id, err := s.Put(want)
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		wantID, err := store.CIDFor(want)
		if err != nil {
			t.Fatalf("CIDFor: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put CID = %s, want %s", id, wantID)
		}

		got, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
		gotID, err := store.CIDFor(got)
		if err != nil {
			t.Fatalf("CIDFor(got): %v", err)
		}
		if gotID != id {
			t.Fatal("Get returned bytes not matching requested CID")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		s := newStore(t)
		b := []byte("same bytes")

		id1, err := s.Put(b)
		if err != nil {
			t.Fatalf("Put(1): %v", err)
		}
		id2, err := s.Put(b)
		if err != nil {
			t.Fatalf("Put(2): %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		s := newStore(t)
		b := []byte("missing")
		id, err := store.CIDFor(b)
		if err != nil {
			t.Fatalf("CIDFor: %v", err)
		}

		if s.Has(id) {
			t.Fatal("Has returned true for missing CID")
		}
		if _, err := s.Get(id); !store.IsNotFound(err) {
			t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
		}

		if _, err := s.Put(b); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if !s.Has(id) {
			t.Fatal("Has returned false after Put")
		}
	})

	t.Run("DistinctObjects", func(t *testing.T) {
		s := newStore(t)
		a := []byte("object a")
		b := []byte("object b")

		idA, err := s.Put(a)
		if err != nil {
			t.Fatalf("Put(a): %v", err)
		}
		idB, err := s.Put(b)
		if err != nil {
			t.Fatalf("Put(b): %v", err)
		}
		if idA == idB {
			t.Fatal("distinct bytes produced the same CID")
		}
		gotA, err := s.Get(idA)
		if err != nil {
			t.Fatalf("Get(a): %v", err)
		}
		if !bytes.Equal(gotA, a) {
			t.Fatal("object a corrupted by writing object b")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		s := newStore(t)
		var undef cid.Cid
		if s.Has(undef) {
			t.Fatal("Has should be false for the undefined CID")
		}
		if _, err := s.Get(undef); err == nil {
			t.Fatal("Get should fail for the undefined CID")
		}
	})
}
