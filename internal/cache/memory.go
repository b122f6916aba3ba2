package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// memoryBackend bounds the in-process cache with an LRU over envelope bytes.
// TTLs are enforced by the envelope expiry at read time, so the LRU only
// needs to cap memory, not track lifetimes.
type memoryBackend struct {
	entries *lru.Cache[string, []byte]
}

// NewMemoryBackend creates a capacity-bounded in-process backend.
func NewMemoryBackend(capacity int) (Backend, error) {
	if capacity <= 0 {
		capacity = 1
	}
	entries, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &memoryBackend{entries: entries}, nil
}

func (m *memoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := m.entries.Get(key)
	return value, ok, nil
}

func (m *memoryBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.entries.Add(key, value)
	return nil
}

func (m *memoryBackend) Delete(_ context.Context, key string) error {
	m.entries.Remove(key)
	return nil
}

func (m *memoryBackend) Close() error {
	m.entries.Purge()
	return nil
}

func (m *memoryBackend) Kind() string { return "memory" }
