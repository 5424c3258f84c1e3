package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

func TestDeriveRoleSeedDeterministic(t *testing.T) {
	root := make([]byte, SeedSize)
	for i := range root {
		root[i] = byte(i)
	}

	a, err := DeriveRoleSeed(root, "builder")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	b, err := DeriveRoleSeed(root, "builder")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected deterministic derivation")
	}

	c, err := DeriveRoleSeed(root, "packager")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if string(a) == string(c) {
		t.Fatalf("expected different roles to derive different seeds")
	}
}

func TestDeriveRoleSeedRejectsBadInput(t *testing.T) {
	if _, err := DeriveRoleSeed([]byte("short"), "builder"); err == nil {
		t.Fatalf("expected error for short root seed")
	}
	root := make([]byte, SeedSize)
	if _, err := DeriveRoleSeed(root, ""); err == nil {
		t.Fatalf("expected error for empty role")
	}
	if _, err := DeriveRoleSeed(root, "bad role"); err == nil {
		t.Fatalf("expected error for role with space")
	}
}

func TestPublicKeyFromSeedFormat(t *testing.T) {
	seed := make([]byte, SeedSize)
	for i := range seed {
		seed[i] = 0x42
	}

	edKey, err := PublicKeyFromSeed(SchemeEd25519, seed)
	if err != nil {
		t.Fatalf("PublicKeyFromSeed(ed25519): %v", err)
	}
	if !strings.HasPrefix(edKey, "ed25519:") {
		t.Fatalf("expected ed25519 prefix, got %q", edKey)
	}
	pubBytes, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(edKey, "ed25519:"))
	if err != nil {
		t.Fatalf("expected valid base64: %v", err)
	}
	if len(pubBytes) != ed25519.PublicKeySize {
		t.Fatalf("expected %d pubkey bytes, got %d", ed25519.PublicKeySize, len(pubBytes))
	}

	dKey, err := PublicKeyFromSeed(SchemeDilithium3, seed)
	if err != nil {
		t.Fatalf("PublicKeyFromSeed(dilithium3): %v", err)
	}
	if !strings.HasPrefix(dKey, "dilithium3:") {
		t.Fatalf("expected dilithium3 prefix, got %q", dKey)
	}
	pubBytes, err = base64.StdEncoding.DecodeString(strings.TrimPrefix(dKey, "dilithium3:"))
	if err != nil {
		t.Fatalf("expected valid base64: %v", err)
	}
	if len(pubBytes) != mode3.PublicKeySize {
		t.Fatalf("expected %d pubkey bytes, got %d", mode3.PublicKeySize, len(pubBytes))
	}

	if _, err := PublicKeyFromSeed("rsa", seed); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}

func TestGenerateSeed(t *testing.T) {
	seed, err := GenerateSeed(&deterministicReader{})
	if err != nil {
		t.Fatalf("GenerateSeed: %v", err)
	}
	if len(seed) != SeedSize {
		t.Fatalf("expected %d seed bytes, got %d", SeedSize, len(seed))
	}

	fromRand, err := GenerateSeed(nil)
	if err != nil {
		t.Fatalf("GenerateSeed(nil): %v", err)
	}
	if len(fromRand) != SeedSize {
		t.Fatalf("expected %d seed bytes, got %d", SeedSize, len(fromRand))
	}
}
