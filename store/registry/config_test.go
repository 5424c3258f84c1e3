package registry_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danbev/in-toto-rs/store"
	"github.com/danbev/in-toto-rs/store/registry"
)

// recorded collects every store opened through the "reg-recorder" backend
// so policy tests can observe which instance received a write.
var recorded []*store.Memory

func init() {
	registry.MustRegister(registry.Backend{
		Name:          "reg-recorder",
		Usage:         registry.UsageTool | registry.UsageDaemon,
		RegisterFlags: noFlags,
		Open: func() (store.Store, func() error, error) {
			m := store.NewMemory()
			recorded = append(recorded, m)
			return m, nil, nil
		},
	})
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     registry.Config
		wantErr string
	}{
		{
			name:    "no backends",
			cfg:     registry.Config{},
			wantErr: "at least one backend",
		},
		{
			name:    "missing backend name",
			cfg:     registry.Config{Backends: []registry.BackendConfig{{}}},
			wantErr: "name is required",
		},
		{
			name: "duplicate name",
			cfg: registry.Config{Backends: []registry.BackendConfig{
				{Name: "memory"},
				{Name: "memory"},
			}},
			wantErr: "duplicate backend id",
		},
		{
			name: "duplicate id",
			cfg: registry.Config{Backends: []registry.BackendConfig{
				{Name: "memory", ID: "a"},
				{Name: "reg-recorder", ID: "a"},
			}},
			wantErr: "duplicate backend id",
		},
		{
			name: "invalid write policy",
			cfg: registry.Config{
				WritePolicy: "quorum",
				Backends:    []registry.BackendConfig{{Name: "memory"}},
			},
			wantErr: "invalid write_policy",
		},
		{
			name: "ids disambiguate same backend",
			cfg: registry.Config{Backends: []registry.BackendConfig{
				{Name: "memory", ID: "a"},
				{Name: "memory", ID: "b"},
			}},
		},
		{
			name: "first policy",
			cfg: registry.Config{
				WritePolicy: "first",
				Backends:    []registry.BackendConfig{{Name: "memory"}},
			},
		},
		{
			name: "all policy",
			cfg: registry.Config{
				WritePolicy: "all",
				Backends:    []registry.BackendConfig{{Name: "memory"}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate: err = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "stores.json")
	data := `{"write_policy":"all","backends":[{"name":"memory","id":"a"},{"name":"memory","id":"b"}]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := registry.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.WritePolicy != "all" || len(cfg.Backends) != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if _, err := registry.LoadFile(""); err == nil {
		t.Fatal("expected error for empty path")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := registry.LoadFile(bad); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestConfigOpenSingleBackend(t *testing.T) {
	cfg := registry.Config{Backends: []registry.BackendConfig{{Name: "memory"}}}

	s, closeFn, err := cfg.Open(registry.UsageTool, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = closeFn() }()

	id, err := s.Put([]byte("single"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !s.Has(id) {
		t.Fatal("Has: expected true")
	}
}

func TestConfigOpenFirstPolicyWritesFirstOnly(t *testing.T) {
	recorded = nil
	cfg := registry.Config{
		WritePolicy: "first",
		Backends: []registry.BackendConfig{
			{Name: "reg-recorder", ID: "primary"},
			{Name: "reg-recorder", ID: "secondary"},
		},
	}

	s, closeFn, err := cfg.Open(registry.UsageTool, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = closeFn() }()
	if len(recorded) != 2 {
		t.Fatalf("opened %d backends, want 2", len(recorded))
	}

	id, err := s.Put([]byte("routed"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !recorded[0].Has(id) {
		t.Fatal("primary should hold the object")
	}
	if recorded[1].Has(id) {
		t.Fatal("secondary should not hold the object under first policy")
	}

	// Reads fall back across backends.
	id2, err := recorded[1].Put([]byte("only in secondary"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(id2); err != nil {
		t.Fatalf("Get fallback: %v", err)
	}
}

func TestConfigOpenAllPolicyReplicates(t *testing.T) {
	recorded = nil
	cfg := registry.Config{
		WritePolicy: "all",
		Backends: []registry.BackendConfig{
			{Name: "reg-recorder", ID: "a"},
			{Name: "reg-recorder", ID: "b"},
		},
	}

	s, closeFn, err := cfg.Open(registry.UsageTool, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = closeFn() }()

	id, err := s.Put([]byte("replicated"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	for i, m := range recorded {
		if !m.Has(id) {
			t.Fatalf("backend %d missing object", i)
		}
	}
}

func TestConfigOpenPreferredReorders(t *testing.T) {
	recorded = nil
	cfg := registry.Config{
		WritePolicy: "first",
		Backends: []registry.BackendConfig{
			{Name: "reg-recorder", ID: "left"},
			{Name: "reg-recorder", ID: "right"},
		},
	}

	s, closeFn, err := cfg.Open(registry.UsageTool, "right")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = closeFn() }()

	// recorded[0] is the store opened for "right" after reordering.
	id, err := s.Put([]byte("to preferred"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !recorded[0].Has(id) {
		t.Fatal("preferred backend should receive the write")
	}
	if recorded[1].Has(id) {
		t.Fatal("non-preferred backend should not receive the write")
	}

	if _, _, err := cfg.Open(registry.UsageTool, "absent"); err == nil || !strings.Contains(err.Error(), "not found in config") {
		t.Fatalf("err = %v, want not found in config", err)
	}
}
