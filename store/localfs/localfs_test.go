package localfs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danbev/in-toto-rs/store"
	"github.com/danbev/in-toto-rs/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		s, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return s
	})
}

func TestRejectsEmptyRoot(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("New accepted an empty root")
	}
}

func TestShardedLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := s.Put([]byte("sharded"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	str := id.String()
	want := filepath.Join(dir, str[:2], str)
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("object not at sharded path %s: %v", want, err)
	}
}

func TestRejectMutationByOverwrite(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	orig := []byte("original attestation bytes")
	id, err := s.Put(orig)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Corrupt the stored object out-of-band.
	path := s.pathFor(id)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := os.WriteFile(path, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := s.Get(id); !errors.Is(err, store.ErrCIDMismatch) {
		t.Fatalf("Get after corruption: err = %v, want ErrCIDMismatch", err)
	}

	// Put must not repair or overwrite the corrupted object.
	if _, err := s.Put(orig); !errors.Is(err, store.ErrImmutable) {
		t.Fatalf("Put after corruption: err = %v, want ErrImmutable", err)
	}
}

func TestPutIdempotentOnDisk(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b := []byte("twice written")
	id1, err := s.Put(b)
	if err != nil {
		t.Fatalf("Put(1): %v", err)
	}
	id2, err := s.Put(b)
	if err != nil {
		t.Fatalf("Put(2): %v", err)
	}
	if id1 != id2 {
		t.Fatalf("ids differ: %s vs %s", id1, id2)
	}
}
