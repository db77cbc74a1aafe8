// Package cache holds the latest news snapshot per category.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"situationmonitor/types"
)

const mirrorTimeout = 3 * time.Second

// Mirror persists snapshots outside the process so a restart can serve them immediately.
type Mirror interface {
	Save(ctx context.Context, category types.Category, entry types.CacheEntry) error
	LoadAll(ctx context.Context) (map[types.Category]types.CacheEntry, error)
}

// Store maps category to its latest CacheEntry. Entries are replaced whole and never
// modified in place, so readers see either the old or the new snapshot.
type Store struct {
	mu      sync.RWMutex
	entries map[types.Category]types.CacheEntry

	mirror Mirror
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Store)

func WithMirror(m Mirror) Option { return func(s *Store) { s.mirror = m } }

func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.logger = l } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[types.Category]types.CacheEntry),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the entry for category, or an empty entry. It never triggers a fetch.
func (s *Store) Get(category types.Category) types.CacheEntry {
	s.mu.RLock()
	entry, ok := s.entries[category.Storage()]
	s.mu.RUnlock()
	if !ok {
		return types.CacheEntry{Items: []types.NewsItem{}}
	}
	return types.CacheEntry{Items: cloneItems(entry.Items), LastUpdated: entry.LastUpdated}
}

// Set replaces the entry for category. An empty result does not overwrite an existing
// non-empty snapshot; Set reports whether the entry was written.
func (s *Store) Set(category types.Category, items []types.NewsItem) bool {
	category = category.Storage()
	entry := types.CacheEntry{Items: cloneItems(items), LastUpdated: s.now().UnixMilli()}

	s.mu.Lock()
	if len(items) == 0 {
		if prev, ok := s.entries[category]; ok && len(prev.Items) > 0 {
			s.mu.Unlock()
			s.logger.Warn("keeping stale snapshot, cycle returned no items",
				zap.String("category", string(category)),
				zap.Int("stale_items", len(prev.Items)))
			return false
		}
	}
	s.entries[category] = entry
	s.mu.Unlock()

	if s.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := s.mirror.Save(ctx, category, entry); err != nil {
			s.logger.Warn("cache mirror save failed", zap.String("category", string(category)), zap.Error(err))
		}
	}
	return true
}

// GetAll returns every cached item, newest first.
func (s *Store) GetAll() []types.NewsItem {
	s.mu.RLock()
	total := 0
	for _, entry := range s.entries {
		total += len(entry.Items)
	}
	all := make([]types.NewsItem, 0, total)
	for _, c := range types.Categories {
		all = append(all, s.entries[c].Items...)
	}
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp > all[j].Timestamp
	})
	return all
}

// LastUpdated is the most recent update across categories, zero if nothing is cached.
func (s *Store) LastUpdated() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest int64
	for _, entry := range s.entries {
		latest = max(latest, entry.LastUpdated)
	}
	return latest
}

// Snapshot copies every entry.
func (s *Store) Snapshot() map[types.Category]types.CacheEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[types.Category]types.CacheEntry, len(s.entries))
	for c, entry := range s.entries {
		out[c] = types.CacheEntry{Items: cloneItems(entry.Items), LastUpdated: entry.LastUpdated}
	}
	return out
}

// Warm loads mirrored snapshots for categories the store does not hold yet.
func (s *Store) Warm(ctx context.Context) (int, error) {
	if s.mirror == nil {
		return 0, nil
	}
	loaded, err := s.mirror.LoadAll(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for c, entry := range loaded {
		if !c.Valid() {
			continue
		}
		if _, ok := s.entries[c]; ok {
			continue
		}
		s.entries[c] = entry
		n++
	}
	return n, nil
}

func cloneItems(items []types.NewsItem) []types.NewsItem {
	out := make([]types.NewsItem, len(items))
	copy(out, items)
	return out
}
