// Package snapshot caches a single expensive value behind a TTL.
package snapshot

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadFunc produces a fresh value.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Loader holds the last loaded value and refreshes it when older than ttl. Concurrent
// callers that find it stale share one load.
type Loader[T any] struct {
	ttl     time.Duration
	timeout time.Duration
	load    LoadFunc[T]
	now     func() time.Time
	group   singleflight.Group

	mu       sync.RWMutex
	value    T
	loadedAt time.Time
	loaded   bool
}

func NewLoader[T any](ttl, timeout time.Duration, load LoadFunc[T]) *Loader[T] {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Loader[T]{ttl: ttl, timeout: timeout, load: load, now: time.Now}
}

// Get returns the cached value while fresh, otherwise loads a new one. When a refresh
// fails and an earlier value exists, the earlier value is returned without error.
func (l *Loader[T]) Get(ctx context.Context) (T, error) {
	if v, ok := l.fresh(); ok {
		return v, nil
	}

	res, err, _ := l.group.Do("load", func() (any, error) {
		if v, ok := l.fresh(); ok {
			return v, nil
		}
		// The load outlives any single caller; it is bounded by timeout instead.
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		v, err := l.load(lctx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.value, l.loadedAt, l.loaded = v, l.now(), true
		l.mu.Unlock()
		return v, nil
	})
	if err != nil {
		l.mu.RLock()
		defer l.mu.RUnlock()
		if l.loaded {
			return l.value, nil
		}
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// LoadedAt is the time of the last successful load, zero before the first.
func (l *Loader[T]) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}

// Invalidate forces the next Get to reload.
func (l *Loader[T]) Invalidate() {
	l.mu.Lock()
	l.loadedAt = time.Time{}
	l.mu.Unlock()
}

func (l *Loader[T]) fresh() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.loaded && l.now().Sub(l.loadedAt) < l.ttl {
		return l.value, true
	}
	var zero T
	return zero, false
}
