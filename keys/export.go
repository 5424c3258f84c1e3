package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"github.com/danbev/in-toto-rs/cjson"
)

// Supported signature schemes.
const (
	SchemeEd25519    = "ed25519"
	SchemeDilithium3 = "dilithium3"
)

// Schemes returns the supported signature scheme names in preference order.
func Schemes() []string {
	return []string{SchemeEd25519, SchemeDilithium3}
}

// PublicKey is the verification half of a functionary key.
//
// The wire encoding is "<scheme>:" + base64(raw key bytes), the form carried
// in layout key maps and printed by the key management commands.
type PublicKey struct {
	scheme string
	raw    []byte
}

// ParsePublicKey decodes a "<scheme>:<base64>" public key string.
func ParsePublicKey(s string) (PublicKey, error) {
	scheme, enc, ok := strings.Cut(s, ":")
	if !ok {
		return PublicKey{}, errors.New("invalid public key encoding")
	}
	raw, err := decodeBase64(enc)
	if err != nil {
		return PublicKey{}, fmt.Errorf("invalid public key base64: %w", err)
	}
	return PublicKeyFromBytes(scheme, raw)
}

// PublicKeyFromBytes validates raw public key bytes for the given scheme.
func PublicKeyFromBytes(scheme string, raw []byte) (PublicKey, error) {
	switch scheme {
	case SchemeEd25519:
		if l := len(raw); l != ed25519.PublicKeySize {
			return PublicKey{}, fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, l)
		}
	case SchemeDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(raw); err != nil {
			return PublicKey{}, fmt.Errorf("invalid dilithium3 public key: %w", err)
		}
	default:
		return PublicKey{}, fmt.Errorf("unsupported signature scheme: %q", scheme)
	}
	return PublicKey{scheme: scheme, raw: append([]byte(nil), raw...)}, nil
}

// Scheme returns the signature scheme name.
func (pk PublicKey) Scheme() string { return pk.scheme }

// String renders the key in its wire encoding.
func (pk PublicKey) String() string {
	return pk.scheme + ":" + base64.StdEncoding.EncodeToString(pk.raw)
}

// KeyID returns the lowercase hex sha256 of the canonical JSON key document
// {"public": "<base64>", "scheme": "<scheme>"}. The ID is stable across
// re-encodings of the same key and never depends on private material.
func (pk PublicKey) KeyID() (string, error) {
	doc := map[string]any{
		"public": base64.StdEncoding.EncodeToString(pk.raw),
		"scheme": pk.scheme,
	}
	b, err := cjson.Marshal(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func decodeBase64(s string) ([]byte, error) {
	// Prefer standard padded encoding, but accept raw encoding too.
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
