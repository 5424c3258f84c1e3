// Package registry is the build-time backend registry for attestation
// stores.
//
// A backend registers itself in init(); a binary enables it by importing
// the backend package, usually as a blank import. Flags follow the
// single-pass model: RegisterFlags adds every eligible backend's flags to
// one FlagSet before parsing, because the flag package rejects unknown
// flags.
package registry

import (
	"flag"
	"fmt"
	"sort"
	"sync"

	"github.com/danbev/in-toto-rs/store"
)

// Usage restricts which programs accept a given backend.
type Usage uint8

const (
	// UsageTool marks backends for short-lived command line tools.
	UsageTool Usage = 1 << iota
	// UsageDaemon marks backends for long-running servers.
	UsageDaemon
)

func (u Usage) allows(want Usage) bool { return u&want != 0 }

// Backend is a build-time plugin that can open a store.Store.
type Backend struct {
	Name        string
	Description string
	Usage       Usage

	// RegisterFlags adds backend-specific flags to fs. Backends bind
	// package-level variables, so the same flags may be registered on any
	// number of distinct FlagSets but only once per FlagSet.
	RegisterFlags func(fs *flag.FlagSet)

	// Open constructs the store using values parsed into the registered
	// flags. It returns an optional close function.
	Open func() (store.Store, func() error, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register registers a backend.
func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("registry: backend name is required")
	}
	if b.RegisterFlags == nil {
		return fmt.Errorf("registry: backend %q missing RegisterFlags", b.Name)
	}
	if b.Open == nil {
		return fmt.Errorf("registry: backend %q missing Open", b.Name)
	}
	if b.Usage == 0 {
		return fmt.Errorf("registry: backend %q missing Usage", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("registry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns backends matching usage, sorted by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns backend names matching usage, sorted.
func Names(usage Usage) []string {
	bs := List(usage)
	n := make([]string, 0, len(bs))
	for _, b := range bs {
		n = append(n, b.Name)
	}
	return n
}

// RegisterFlags registers flags for all backends matching usage on fs.
func RegisterFlags(fs *flag.FlagSet, usage Usage) {
	for _, b := range List(usage) {
		b.RegisterFlags(fs)
	}
}

// Open opens the named backend if it exists and matches usage, using
// whatever values the process flags currently hold.
func Open(name string, usage Usage) (store.Store, func() error, error) {
	b, err := lookup(name, usage)
	if err != nil {
		return nil, nil, err
	}
	return b.Open()
}

// OpenWithConfig opens the named backend with explicit configuration
// instead of process flags. Keys are the backend's flag names; an unknown
// key is an error. Values are applied in sorted key order.
func OpenWithConfig(name string, usage Usage, config map[string]string) (store.Store, func() error, error) {
	b, err := lookup(name, usage)
	if err != nil {
		return nil, nil, err
	}

	fs := flag.NewFlagSet("registry:"+name, flag.ContinueOnError)
	b.RegisterFlags(fs)

	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if fs.Lookup(k) == nil {
			return nil, nil, fmt.Errorf("registry: backend %q has no option %q", name, k)
		}
		if err := fs.Set(k, config[k]); err != nil {
			return nil, nil, fmt.Errorf("registry: backend %q option %q: %w", name, k, err)
		}
	}
	return b.Open()
}

func lookup(name string, usage Usage) (Backend, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return Backend{}, fmt.Errorf("unknown backend %q", name)
	}
	if !b.Usage.allows(usage) {
		return Backend{}, fmt.Errorf("backend %q not supported in this binary", name)
	}
	return b, nil
}

func init() {
	// The memory backend is always linked in and needs no flags.
	MustRegister(Backend{
		Name:          "memory",
		Description:   "In-memory store (contents lost on exit)",
		Usage:         UsageTool | UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {},
		Open: func() (store.Store, func() error, error) {
			return store.NewMemory(), nil, nil
		},
	})
}
