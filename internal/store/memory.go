package store

import (
	"context"
	"strings"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MemoryKV keeps values in process memory. Nothing survives a restart; it
// backs tests and the "memory" driver.
type MemoryKV struct {
	mu     sync.RWMutex
	data   *orderedmap.OrderedMap[string, string]
	closed bool
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: orderedmap.New[string, string]()}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data.Get(key)
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data.Set(key, value)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data.Delete(key)
	return nil
}

func (m *MemoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	var keys []string
	for p := m.data.Oldest(); p != nil; p = p.Next() {
		if strings.HasPrefix(p.Key, prefix) {
			keys = append(keys, p.Key)
		}
	}
	return keys, nil
}

func (m *MemoryKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
