package keys

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// Signer produces raw signatures over message bytes. Implementations are
// scheme-specific; the message framing (such as envelope pre-authentication
// encoding) is the caller's concern.
type Signer interface {
	// Sign returns the signature over message.
	Sign(message []byte) ([]byte, error)
	// Public returns the verification key.
	Public() PublicKey
	// KeyID returns the key ID of the verification key.
	KeyID() string
}

// Verify checks sig over message with this key. Ed25519 signs the message
// bytes directly; dilithium3 signs the sha3-256 digest of the message.
func (pk PublicKey) Verify(message, sig []byte) error {
	switch pk.scheme {
	case SchemeEd25519:
		if l := len(sig); l != ed25519.SignatureSize {
			return fmt.Errorf("ed25519 signature must be %d bytes, got %d", ed25519.SignatureSize, l)
		}
		if !ed25519.Verify(ed25519.PublicKey(pk.raw), message, sig) {
			return errors.New("signature invalid")
		}
		return nil
	case SchemeDilithium3:
		var dk mode3.PublicKey
		if err := dk.UnmarshalBinary(pk.raw); err != nil {
			return fmt.Errorf("invalid dilithium3 public key: %w", err)
		}
		if l := len(sig); l != mode3.SignatureSize {
			return fmt.Errorf("dilithium3 signature must be %d bytes, got %d", mode3.SignatureSize, l)
		}
		digest := sha3.Sum256(message)
		if !mode3.Verify(&dk, digest[:], sig) {
			return errors.New("signature invalid")
		}
		return nil
	default:
		return fmt.Errorf("unsupported signature scheme: %q", pk.scheme)
	}
}

// Ed25519Signer signs message bytes directly with an Ed25519 private key.
type Ed25519Signer struct {
	priv  ed25519.PrivateKey
	pub   PublicKey
	keyID string
}

// NewEd25519SignerFromSeed derives an Ed25519 signer from a 32-byte seed.
func NewEd25519SignerFromSeed(seed []byte) (*Ed25519Signer, error) {
	if l := len(seed); l != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, l)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub, err := PublicKeyFromBytes(SchemeEd25519, priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	keyID, err := pub.KeyID()
	if err != nil {
		return nil, err
	}
	return &Ed25519Signer{priv: priv, pub: pub, keyID: keyID}, nil
}

func (s *Ed25519Signer) Sign(message []byte) ([]byte, error) {
	if s.priv == nil {
		return nil, errors.New("missing private key")
	}
	return ed25519.Sign(s.priv, message), nil
}

func (s *Ed25519Signer) Public() PublicKey { return s.pub }

func (s *Ed25519Signer) KeyID() string { return s.keyID }

// Dilithium3Signer signs the sha3-256 digest of each message with a
// Dilithium mode3 private key.
type Dilithium3Signer struct {
	priv  *mode3.PrivateKey
	pub   PublicKey
	keyID string
}

// NewDilithium3SignerFromSeed derives a Dilithium3 signer from a 32-byte seed.
func NewDilithium3SignerFromSeed(seed []byte) (*Dilithium3Signer, error) {
	if l := len(seed); l != mode3.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", mode3.SeedSize, l)
	}
	pk, sk := mode3.NewKeyFromSeed((*[mode3.SeedSize]byte)(seed))
	raw, err := pk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode dilithium3 public key: %w", err)
	}
	pub, err := PublicKeyFromBytes(SchemeDilithium3, raw)
	if err != nil {
		return nil, err
	}
	keyID, err := pub.KeyID()
	if err != nil {
		return nil, err
	}
	return &Dilithium3Signer{priv: sk, pub: pub, keyID: keyID}, nil
}

func (s *Dilithium3Signer) Sign(message []byte) ([]byte, error) {
	if s.priv == nil {
		return nil, errors.New("missing private key")
	}
	digest := sha3.Sum256(message)
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.priv, digest[:], sig)
	return sig, nil
}

func (s *Dilithium3Signer) Public() PublicKey { return s.pub }

func (s *Dilithium3Signer) KeyID() string { return s.keyID }

// SignerFromSeed constructs a signer for the given scheme from a 32-byte seed.
func SignerFromSeed(scheme string, seed []byte) (Signer, error) {
	switch scheme {
	case SchemeEd25519:
		return NewEd25519SignerFromSeed(seed)
	case SchemeDilithium3:
		return NewDilithium3SignerFromSeed(seed)
	default:
		return nil, fmt.Errorf("unsupported signature scheme: %q", scheme)
	}
}
