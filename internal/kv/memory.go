package kv

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultBudget is the default size budget for the in-memory backend,
// roughly the quota browsers grant a single origin's local storage.
const DefaultBudget = 5 << 20 // 5 MiB

type memEntry struct {
	data      []byte
	writtenAt time.Time
}

// MemoryBackend implements Backend with a byte-budget capped map.
type MemoryBackend struct {
	mu      sync.RWMutex
	budget  int64
	used    int64
	entries map[string]memEntry
}

// NewMemoryBackend creates an in-memory backend with the given byte budget.
// A budget <= 0 falls back to DefaultBudget.
func NewMemoryBackend(budget int64) *MemoryBackend {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &MemoryBackend{
		budget:  budget,
		entries: make(map[string]memEntry),
	}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, exists := b.entries[key]
	if !exists {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(entry.data))
	copy(out, entry.data)
	return out, nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cost := int64(len(key) + len(value))
	var prior int64
	if old, exists := b.entries[key]; exists {
		prior = int64(len(key) + len(old.data))
	}
	if b.used-prior+cost > b.budget {
		return fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrQuotaExceeded, cost, b.used, b.budget)
	}

	data := make([]byte, len(value))
	copy(data, value)
	b.entries[key] = memEntry{data: data, writtenAt: time.Now()}
	b.used = b.used - prior + cost
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if entry, exists := b.entries[key]; exists {
		b.used -= int64(len(key) + len(entry.data))
		delete(b.entries, key)
	}
	return nil
}

func (b *MemoryBackend) Entries(_ context.Context) ([]Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	now := time.Now()
	result := make([]Entry, 0, len(b.entries))
	for key, entry := range b.entries {
		result = append(result, Entry{
			Key:  key,
			Size: int64(len(key) + len(entry.data)),
			Age:  now.Sub(entry.writtenAt),
		})
	}
	return result, nil
}

// Used reports the current byte usage, for tests and diagnostics.
func (b *MemoryBackend) Used() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.used
}
