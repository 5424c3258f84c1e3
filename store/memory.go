package store

import (
	"sync"

	"github.com/ipfs/go-cid"
)

// Memory is an in-process Store. It is safe for concurrent use and keeps
// its own copies of all bytes, so callers may reuse their buffers.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Put(data []byte) (cid.Cid, error) {
	id, err := CIDFor(data)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, ErrInvalidCID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[id.String()]; !ok {
		m.objects[id.String()] = append([]byte(nil), data...)
	}
	return id, nil
}

func (m *Memory) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	m.mu.RLock()
	data, ok := m.objects[id.String()]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	m.mu.RLock()
	_, ok := m.objects[id.String()]
	m.mu.RUnlock()
	return ok
}

// Len reports the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
