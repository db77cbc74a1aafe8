package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"situationmonitor/cache"
	"situationmonitor/deduplication"
	"situationmonitor/metrics"
	"situationmonitor/rssfeeds"
	"situationmonitor/types"
)

const DefaultConcurrency = 8

// Config wires an Orchestrator. Store is required.
type Config struct {
	Fetchers    []rssfeeds.Fetcher
	Store       *cache.Store
	Archiver    Archiver
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Concurrency int
}

// Orchestrator runs scrape cycles: fetch every source, aggregate per category, write the cache.
type Orchestrator struct {
	fetchers    []rssfeeds.Fetcher
	store       *cache.Store
	archiver    Archiver
	metrics     *metrics.Metrics
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// CycleReport summarizes one RunOnce.
type CycleReport struct {
	ID         string                 `json:"id"`
	StartedAt  time.Time              `json:"startedAt"`
	Duration   time.Duration          `json:"duration"`
	Sources    int                    `json:"sources"`
	Failed     []string               `json:"failed,omitempty"`
	Categories map[types.Category]int `json:"categories"`
	// Stale lists categories whose previous snapshot was kept because the cycle found nothing.
	Stale []types.Category `json:"stale,omitempty"`
}

func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, errors.New("orchestrator: cache store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		fetchers:    cfg.Fetchers,
		store:       cfg.Store,
		archiver:    cfg.Archiver,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
		now:         time.Now,
	}, nil
}

// RunOnce executes a single scrape cycle. Source failures never fail the cycle; the
// returned error is only the context's, when it ended before the cycle finished.
func (o *Orchestrator) RunOnce(ctx context.Context) (CycleReport, error) {
	report := CycleReport{
		ID:         uuid.NewString(),
		StartedAt:  o.now(),
		Sources:    len(o.fetchers),
		Categories: make(map[types.Category]int, len(types.Categories)),
	}
	log := o.logger.With(zap.String("cycle_id", report.ID))
	log.Info("scrape cycle started", zap.Int("sources", len(o.fetchers)))

	results := o.fetchAll(ctx, o.fetchers, log)
	for _, r := range results {
		if r.Err != nil {
			report.Failed = append(report.Failed, r.Source)
		}
	}

	grouped := Aggregate(results, deduplication.MaxCacheItems)
	for _, c := range types.Categories {
		items := grouped[c]
		if !o.store.Set(c, items) {
			report.Stale = append(report.Stale, c)
		}
		report.Categories[c] = len(items)
		o.metrics.SetCategoryItems(string(c), len(o.store.Get(c).Items))
	}

	if o.archiver != nil {
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		if err := o.archiver.Archive(actx, report.ID, report.StartedAt, o.store.Snapshot()); err != nil {
			log.Warn("snapshot archive failed", zap.Error(err))
		}
		cancel()
	}

	report.Duration = o.now().Sub(report.StartedAt)
	o.metrics.ObserveCycle(len(report.Failed) < len(results), report.Duration)
	log.Info("scrape cycle complete",
		zap.Duration("duration", report.Duration),
		zap.Int("failed_sources", len(report.Failed)),
		zap.Any("categories", report.Categories))

	return report, ctx.Err()
}

// FetchCategory fetches only the sources of category and returns the ranked, deduplicated
// result capped for client display. The cache is not touched.
func (o *Orchestrator) FetchCategory(ctx context.Context, category types.Category) ([]types.NewsItem, error) {
	category = category.Storage()
	if !category.Valid() {
		return nil, fmt.Errorf("%w %q", types.ErrUnknownCategory, category)
	}
	var selected []rssfeeds.Fetcher
	for _, f := range o.fetchers {
		if f.Category().Storage() == category {
			selected = append(selected, f)
		}
	}
	results := o.fetchAll(ctx, selected, o.logger.With(zap.String("category", string(category))))
	return Aggregate(results, deduplication.MaxCategoryItems)[category], nil
}

// fetchAll runs every fetcher concurrently and waits for all of them. Results keep the
// fetchers' order, so dedup ties resolve by configuration order.
func (o *Orchestrator) fetchAll(ctx context.Context, fetchers []rssfeeds.Fetcher, log *zap.Logger) []types.FeedResult {
	results := make([]types.FeedResult, len(fetchers))
	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, f := range fetchers {
		g.Go(func() error {
			results[i] = o.fetchOne(ctx, f, log)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *Orchestrator) fetchOne(ctx context.Context, f rssfeeds.Fetcher, log *zap.Logger) (result types.FeedResult) {
	start := time.Now()
	result = types.FeedResult{Source: f.Name(), Category: f.Category()}
	defer func() {
		if r := recover(); r != nil {
			result.Items = nil
			result.Err = fmt.Errorf("fetcher panic: %v", r)
		}
		result.Duration = time.Since(start)
		if result.Err != nil {
			log.Warn("source fetch failed",
				zap.String("source", result.Source),
				zap.String("category", string(result.Category)),
				zap.Duration("duration", result.Duration),
				zap.Error(result.Err))
		} else {
			log.Debug("source fetched",
				zap.String("source", result.Source),
				zap.Int("items", len(result.Items)),
				zap.Duration("duration", result.Duration))
		}
		o.metrics.ObserveSource(result.Source, result.Err, result.Duration)
	}()

	items, err := f.Fetch(ctx)
	if err != nil {
		result.Err = err
		return result
	}
	result.Items = items
	return result
}

// Aggregate groups successful results by storage category, then dedups, ranks and caps
// each group. Every storage category is present in the result, possibly empty.
func Aggregate(results []types.FeedResult, limit int) map[types.Category][]types.NewsItem {
	raw := make(map[types.Category][]types.NewsItem, len(types.Categories))
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for _, item := range r.Items {
			c := item.Category.Storage()
			if !c.Valid() {
				c = r.Category.Storage()
			}
			item.Category = c
			raw[c] = append(raw[c], item)
		}
	}

	out := make(map[types.Category][]types.NewsItem, len(types.Categories))
	for _, c := range types.Categories {
		out[c] = deduplication.Process(raw[c], limit)
	}
	return out
}
