package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"situationmonitor/metrics"
	"situationmonitor/types"
)

const (
	DefaultTTL        = 30 * time.Minute
	DefaultPruneAge   = time.Hour
	DefaultMaxEntries = 1000
	BatchTimeout      = 30 * time.Second
)

// Cache memoizes provider results per headline. Fresh entries are reused; all misses of
// a call go to the provider as a single batch.
type Cache struct {
	provider   Provider
	ttl        time.Duration
	pruneAge   time.Duration
	maxEntries int
	timeout    time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]types.AnalysisEntry
}

type CacheOption func(*Cache)

func WithTTL(d time.Duration) CacheOption { return func(c *Cache) { c.ttl = d } }

func WithPruning(maxEntries int, age time.Duration) CacheOption {
	return func(c *Cache) { c.maxEntries, c.pruneAge = maxEntries, age }
}

func WithBatchTimeout(d time.Duration) CacheOption { return func(c *Cache) { c.timeout = d } }

func WithMetrics(m *metrics.Metrics) CacheOption { return func(c *Cache) { c.metrics = m } }

func WithCacheLogger(l *zap.Logger) CacheOption { return func(c *Cache) { c.logger = l } }

func WithCacheClock(now func() time.Time) CacheOption { return func(c *Cache) { c.now = now } }

// NewCache builds a cache over provider. A nil provider is allowed: every miss then
// resolves to the neutral result.
func NewCache(provider Provider, opts ...CacheOption) *Cache {
	c := &Cache{
		provider:   provider,
		ttl:        DefaultTTL,
		pruneAge:   DefaultPruneAge,
		maxEntries: DefaultMaxEntries,
		timeout:    BatchTimeout,
		logger:     zap.NewNop(),
		now:        time.Now,
		entries:    make(map[string]types.AnalysisEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HeadlineKey is the cache key for a headline: trimmed, lowercased, whitespace collapsed.
func HeadlineKey(headline string) string {
	return strings.Join(strings.Fields(strings.ToLower(headline)), " ")
}

// Analyze returns one result per headline, in input order. Provider failures never
// surface: the affected headlines get {5, ""} and are not cached.
func (c *Cache) Analyze(ctx context.Context, headlines []string) ([]types.AnalysisResult, error) {
	if len(headlines) == 0 {
		return nil, ErrEmptyBatch
	}

	results := make([]types.AnalysisResult, len(headlines))
	var missKeys []string
	var missText []string
	missIndex := make(map[string][]int)

	now := c.now()
	c.mu.Lock()
	for i, h := range headlines {
		key := HeadlineKey(h)
		if e, ok := c.entries[key]; ok && now.Sub(e.Timestamp) < c.ttl {
			results[i] = types.AnalysisResult{Significance: e.Significance, Summary: e.Summary, Cached: true}
			continue
		}
		if _, pending := missIndex[key]; !pending {
			missKeys = append(missKeys, key)
			missText = append(missText, strings.TrimSpace(h))
		}
		missIndex[key] = append(missIndex[key], i)
	}
	c.mu.Unlock()

	hits := len(headlines)
	for _, idx := range missIndex {
		hits -= len(idx)
	}
	c.metrics.AICacheLookups(hits, len(missKeys))
	if len(missKeys) == 0 {
		return results, nil
	}

	scored, err := c.callProvider(ctx, missText)
	if err != nil {
		c.metrics.AIBatchFailed()
		c.logger.Warn("AI batch failed, using neutral scores", zap.Int("headlines", len(missText)), zap.Error(err))
		for _, key := range missKeys {
			for _, i := range missIndex[key] {
				results[i] = types.AnalysisResult{Significance: NeutralSignificance}
			}
		}
		return results, nil
	}

	written := c.now()
	c.mu.Lock()
	for j, key := range missKeys {
		s := scored[j]
		c.entries[key] = types.AnalysisEntry{
			HeadlineKey:  key,
			Significance: s.Significance,
			Summary:      s.Summary,
			Timestamp:    written,
		}
		for _, i := range missIndex[key] {
			results[i] = types.AnalysisResult{Significance: s.Significance, Summary: s.Summary}
		}
	}
	c.pruneLocked(written)
	c.mu.Unlock()

	return results, nil
}

func (c *Cache) callProvider(ctx context.Context, headlines []string) ([]Scored, error) {
	if c.provider == nil {
		return nil, errors.New("no AI provider configured")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	scored, err := c.provider.Analyze(ctx, headlines)
	if err != nil {
		return nil, err
	}
	if len(scored) != len(headlines) {
		return nil, errors.New("AI provider returned a mismatched result count")
	}
	for i := range scored {
		scored[i].Significance = clampSignificance(scored[i].Significance)
	}
	return scored, nil
}

// pruneLocked drops entries older than pruneAge once the store exceeds maxEntries.
func (c *Cache) pruneLocked(now time.Time) {
	if len(c.entries) <= c.maxEntries {
		return
	}
	before := len(c.entries)
	for key, e := range c.entries {
		if now.Sub(e.Timestamp) > c.pruneAge {
			delete(c.entries, key)
		}
	}
	c.logger.Debug("AI cache pruned", zap.Int("before", before), zap.Int("after", len(c.entries)))
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
