package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

// SeedSize is the length of every key seed, shared by both schemes.
const SeedSize = ed25519.SeedSize

// deriveDomainTag separates role-seed derivation from any other sha256 use
// of the same root material.
const deriveDomainTag = "in-toto-keystore-v1"

// GenerateSeed reads a fresh seed from r, or crypto/rand when r is nil.
func GenerateSeed(r io.Reader) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	seed := make([]byte, SeedSize)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, err
	}
	return seed, nil
}

// PublicKeyFromSeed returns the encoded public key string for a seed under
// the given scheme.
func PublicKeyFromSeed(scheme string, seed []byte) (string, error) {
	signer, err := SignerFromSeed(scheme, seed)
	if err != nil {
		return "", err
	}
	return signer.Public().String(), nil
}

// DeriveRoleSeed deterministically derives a role-specific seed from a root
// seed. The same root and role always produce the same subkey, so a
// functionary can re-derive role keys on any machine holding the root seed.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(deriveDomainTag))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("role:"))
	_, _ = h.Write([]byte(role))
	sum := h.Sum(nil)
	if len(sum) < SeedSize {
		return nil, errors.New("kdf output too short")
	}
	out := make([]byte, SeedSize)
	copy(out, sum[:SeedSize])
	return out, nil
}
