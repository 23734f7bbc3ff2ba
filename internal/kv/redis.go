package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisBackend implements Backend on a Redis instance. Quota exhaustion
// surfaces as the server-side OOM rejection when maxmemory is reached
// with a noeviction policy, so the session store's own recovery applies.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	err := b.client.Set(ctx, key, value, 0).Err()
	if err == nil {
		return nil
	}
	// Redis signals memory pressure with an "OOM command not allowed"
	// error when used memory exceeds maxmemory.
	if strings.HasPrefix(err.Error(), "OOM") {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("redis set failed: %w", err)
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (b *RedisBackend) Entries(ctx context.Context) ([]Entry, error) {
	var result []Entry
	iter := b.client.Scan(ctx, 0, "*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		entry := Entry{Key: key}
		if size, err := b.client.StrLen(ctx, key).Result(); err == nil {
			entry.Size = int64(len(key)) + size
		}
		// IDLETIME tracks last access rather than last write; close
		// enough to order eviction candidates oldest-first.
		if idle, err := b.client.ObjectIdleTime(ctx, key).Result(); err == nil {
			entry.Age = idle
		}
		result = append(result, entry)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan failed: %w", err)
	}
	return result, nil
}
