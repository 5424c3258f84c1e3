package keys

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Artifact digest algorithm names accepted by NewHasher and DigestFor.
const (
	AlgSHA256     = "sha256"
	AlgSHA512     = "sha512"
	AlgSHA3256    = "sha3-256"
	AlgSHA3512    = "sha3-512"
	AlgBlake2b256 = "blake2b-256"
)

// DigestAlgorithms returns the supported artifact digest algorithm names in
// lexicographic order.
func DigestAlgorithms() []string {
	return []string{AlgBlake2b256, AlgSHA256, AlgSHA3256, AlgSHA3512, AlgSHA512}
}

// NewHasher returns a fresh hash state for the named algorithm.
func NewHasher(alg string) (hash.Hash, error) {
	switch alg {
	case AlgSHA256:
		return sha256.New(), nil
	case AlgSHA512:
		return sha512.New(), nil
	case AlgSHA3256:
		return sha3.New256(), nil
	case AlgSHA3512:
		return sha3.New512(), nil
	case AlgBlake2b256:
		return blake2b.New256(nil)
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %q", alg)
	}
}

// DigestFor returns the lowercase hex digest of data under the named
// algorithm.
func DigestFor(alg string, data []byte) (string, error) {
	h, err := NewHasher(alg)
	if err != nil {
		return "", err
	}
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
