package grpcstore

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/danbev/in-toto-rs/store"
	"github.com/danbev/in-toto-rs/store/storetest"
)

func newBufnetClient(t *testing.T, backend store.Store) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterAttestationStoreServer(srv, &Server{Store: backend})

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })

	return &Client{cc: cc, client: NewAttestationStoreClient(cc), Timeout: 2 * time.Second}
}

func TestGRPCStoreRoundTrip(t *testing.T) {
	client := newBufnetClient(t, store.NewMemory())

	payload := []byte(`{"_type":"link","name":"build"}`)
	id, err := client.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !id.Defined() {
		t.Fatalf("expected defined CID")
	}
	if !client.Has(id) {
		t.Fatalf("Has: expected true")
	}
	got, err := client.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestGRPCStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newBufnetClient(t, store.NewMemory())
	})
}

func TestGRPCStoreNotFoundCrossesWire(t *testing.T) {
	client := newBufnetClient(t, store.NewMemory())

	id, err := store.CIDFor([]byte("never stored"))
	if err != nil {
		t.Fatalf("CIDFor: %v", err)
	}
	if _, err := client.Get(id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	if client.Has(id) {
		t.Fatalf("Has: expected false")
	}
}

func TestGRPCStoreServerVerifiesBytesOnGet(t *testing.T) {
	// The backend hands back altered bytes; the server must refuse to
	// relay them under the requested CID.
	mem := store.NewMemory()
	id, err := mem.Put([]byte("authentic"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	client := newBufnetClient(t, corruptingStore{inner: mem})

	if _, err := client.Get(id); !errors.Is(err, store.ErrCIDMismatch) {
		t.Fatalf("Get: expected ErrCIDMismatch, got %v", err)
	}
}

// corruptingStore serves altered bytes for every Get.
type corruptingStore struct {
	inner store.Store
}

func (s corruptingStore) Put(data []byte) (cid.Cid, error) { return s.inner.Put(data) }

func (s corruptingStore) Get(id cid.Cid) ([]byte, error) {
	b, err := s.inner.Get(id)
	if err != nil {
		return nil, err
	}
	return append([]byte("corrupt:"), b...), nil
}

func (s corruptingStore) Has(id cid.Cid) bool { return s.inner.Has(id) }
