package grpcstore

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/danbev/in-toto-rs/store"
)

// mapRPC translates transport status codes back into store sentinels so
// callers can errors.Is against them regardless of backend locality.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return store.ErrNotFound
	case codes.InvalidArgument:
		// The server uses InvalidArgument for malformed or undefined CIDs.
		return store.ErrInvalidCID
	case codes.DataLoss:
		// The server uses DataLoss when bytes do not match the requested CID.
		return store.ErrCIDMismatch
	default:
		// Best-effort: preserve known sentinel messages.
		switch st.Message() {
		case store.ErrNotFound.Error():
			return store.ErrNotFound
		case store.ErrInvalidCID.Error():
			return store.ErrInvalidCID
		case store.ErrCIDMismatch.Error():
			return store.ErrCIDMismatch
		default:
			return err
		}
	}
}
