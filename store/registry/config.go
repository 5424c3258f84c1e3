package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/danbev/in-toto-rs/store"
)

// Config describes how to open one or more store backends.
//
// WritePolicy values:
//   - "first" (default): write only to the first backend; reads fall back
//     in order
//   - "all": write to all backends and require CID equality
//     (store.ReplicatingStore)
//
// Example:
//
//	{
//	  "write_policy": "all",
//	  "backends": [
//	    {"name":"localfs", "config":{"localfs-dir":"/var/lib/in-toto/store"}},
//	    {"name":"ipfs", "config":{"ipfs-bin":"ipfs"}}
//	  ]
//	}
//
// Per-backend config keys mirror that backend's flag names.
type Config struct {
	WritePolicy string          `json:"write_policy,omitempty"`
	Backends    []BackendConfig `json:"backends"`
}

// BackendConfig selects one registered backend with its options.
type BackendConfig struct {
	// Name is the registered backend name (e.g. "localfs", "grpc").
	Name string `json:"name"`
	// ID is an optional stable alias used in per-backend CID reports.
	// If empty, Name is used.
	ID     string            `json:"id,omitempty"`
	Config map[string]string `json:"config,omitempty"`
}

// LoadFile reads and validates a JSON config.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("registry: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("registry: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("registry: backend name is required")
		}
		id := b.Name
		if b.ID != "" {
			id = b.ID
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("registry: duplicate backend id %q", id)
		}
		seen[id] = struct{}{}
	}
	switch c.WritePolicy {
	case "", "first", "all":
		return nil
	default:
		return fmt.Errorf("registry: invalid write_policy %q", c.WritePolicy)
	}
}

// Open opens a store per the config.
//
// If preferred is non-empty, backends are reordered so the named backend
// comes first and therefore receives writes under the "first" policy.
func (c Config) Open(usage Usage, preferred string) (store.Store, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	ordered := append([]BackendConfig(nil), c.Backends...)
	if preferred != "" {
		idx := -1
		for i := range ordered {
			if ordered[i].Name == preferred || ordered[i].ID == preferred {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil, fmt.Errorf("registry: preferred backend %q not found in config", preferred)
		}
		if idx != 0 {
			b := ordered[idx]
			copy(ordered[1:idx+1], ordered[0:idx])
			ordered[0] = b
		}
	}

	named := make([]store.NamedStore, 0, len(ordered))
	closers := make([]func() error, 0, len(ordered))
	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	for _, b := range ordered {
		s, closeFn, err := OpenWithConfig(b.Name, usage, b.Config)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		name := b.Name
		if b.ID != "" {
			name = b.ID
		}
		named = append(named, store.NamedStore{Name: name, Store: s})
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	if len(named) == 1 {
		return named[0].Store, closeAll, nil
	}

	switch c.WritePolicy {
	case "", "first":
		stores := make([]store.Store, 0, len(named))
		for _, n := range named {
			stores = append(stores, n.Store)
		}
		return store.MultiStore{Stores: stores}, closeAll, nil
	case "all":
		return store.ReplicatingStore{Backends: named}, closeAll, nil
	default:
		_ = closeAll()
		return nil, nil, fmt.Errorf("registry: invalid write_policy %q", c.WritePolicy)
	}
}
