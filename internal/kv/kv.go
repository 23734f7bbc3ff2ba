package kv

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrKeyNotFound is returned by Get for keys that were never written
	// or have been deleted.
	ErrKeyNotFound = errors.New("kv: key not found")

	// ErrQuotaExceeded is returned by Set when the backend rejects the
	// write because its size budget is exhausted.
	ErrQuotaExceeded = errors.New("kv: storage quota exceeded")
)

// Entry describes one stored key for eviction decisions. Age is the time
// since the key was last written (or, for backends that only track access,
// last touched); older entries are preferred eviction candidates.
type Entry struct {
	Key  string
	Size int64
	Age  time.Duration
}

// Backend is the size-constrained key-value substrate the session store
// persists into. Implementations must be safe for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Entries(ctx context.Context) ([]Entry, error)
}
