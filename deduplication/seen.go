package deduplication

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeenStore remembers story keys so each one is handled once.
type SeenStore interface {
	// MarkSeen records key and reports whether it was new.
	MarkSeen(ctx context.Context, key string) (bool, error)
}

// MemorySeen is a process-local SeenStore. Entries older than ttl are pruned once the
// set grows past maxEntries.
type MemorySeen struct {
	mu         sync.Mutex
	seen       map[string]time.Time
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewMemorySeen(ttl time.Duration, maxEntries int) *MemorySeen {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &MemorySeen{
		seen:       make(map[string]time.Time),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *MemorySeen) MarkSeen(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if at, ok := m.seen[key]; ok && now.Sub(at) < m.ttl {
		return false, nil
	}
	m.seen[key] = now

	if len(m.seen) > m.maxEntries {
		for k, at := range m.seen {
			if now.Sub(at) >= m.ttl {
				delete(m.seen, k)
			}
		}
	}
	return true, nil
}

// Len is the number of remembered keys.
func (m *MemorySeen) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

// SeenConfig configures the Redis connection and key layout for RedisSeen
type SeenConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	Prefix   string // key prefix, default "situationmonitor:seen:"
	TTL      time.Duration
}

// RedisSeen is a SeenStore shared between processes. Each key is a SETNX with a TTL.
type RedisSeen struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSeen connects to Redis and verifies connectivity
func NewRedisSeen(cfg SeenConfig) (*RedisSeen, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisSeenWithClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisSeenWithClient wraps an existing client.
func NewRedisSeenWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisSeen {
	if prefix == "" {
		prefix = "situationmonitor:seen:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSeen{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisSeen) MarkSeen(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, time.Now().Unix(), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark seen: %w", err)
	}
	return ok, nil
}

// Close closes the underlying Redis client
func (r *RedisSeen) Close() error {
	return r.client.Close()
}
