// Package store defines content-addressed storage for attestation bytes.
//
// Everything a store holds is a canonical encoding: statement bytes,
// envelope bytes, layout bytes. The address of an object is derived from
// those bytes alone, so two parties holding the same attestation always
// agree on its CID and any transport corruption is detectable on read.
package store

import (
	"errors"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Store is a minimal content-addressable store for attestation objects.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written (callers supply canonical bytes).
// - Get MUST return ErrNotFound when the CID is absent.
type Store interface {
	Put(data []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

var (
	ErrNotFound    = errors.New("store: not found")
	ErrInvalidCID  = errors.New("store: invalid cid")
	ErrCIDMismatch = errors.New("store: cid mismatch")
	ErrImmutable   = errors.New("store: immutable object mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// CIDFor derives the canonical address of data: CIDv1 with the raw codec
// over a sha2-256 multihash. Every backend and every wire transfer in this
// module uses exactly this derivation.
func CIDFor(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}
