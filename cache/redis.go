package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"situationmonitor/types"
)

const DefaultMirrorPrefix = "situationmonitor:news:"

// RedisMirror stores each category snapshot as a JSON string with a TTL.
type RedisMirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisMirror wraps client. A ttl of zero keeps keys forever.
func NewRedisMirror(client *redis.Client, prefix string, ttl time.Duration) *RedisMirror {
	if prefix == "" {
		prefix = DefaultMirrorPrefix
	}
	return &RedisMirror{client: client, prefix: prefix, ttl: ttl}
}

func (m *RedisMirror) key(category types.Category) string {
	return m.prefix + string(category)
}

func (m *RedisMirror) Save(ctx context.Context, category types.Category, entry types.CacheEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", category, err)
	}
	if err := m.client.Set(ctx, m.key(category), b, m.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", category, err)
	}
	return nil
}

func (m *RedisMirror) LoadAll(ctx context.Context) (map[types.Category]types.CacheEntry, error) {
	out := make(map[types.Category]types.CacheEntry, len(types.Categories))
	for _, c := range types.Categories {
		b, err := m.client.Get(ctx, m.key(c)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis get %s: %w", c, err)
		}
		var entry types.CacheEntry
		if err := json.Unmarshal(b, &entry); err != nil {
			// A corrupt key is skipped, the next Save overwrites it.
			continue
		}
		out[c] = entry
	}
	return out, nil
}

// Close closes the underlying Redis client
func (m *RedisMirror) Close() error {
	return m.client.Close()
}
