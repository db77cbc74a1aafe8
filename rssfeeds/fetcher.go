// Package rssfeeds adapts external news sources (RSS/Atom, GDELT, Google News) into NewsItems.
package rssfeeds

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"situationmonitor/shared/rss"
	"situationmonitor/types"
)

const DefaultMaxItems = 25

// Fetcher retrieves one source and normalizes its articles.
// A returned error means the source produced nothing this cycle.
type Fetcher interface {
	Name() string
	Category() types.Category
	Fetch(ctx context.Context) ([]types.NewsItem, error)
}

// Options are shared by every fetcher built from the same configuration.
type Options struct {
	HTTPClient *http.Client
	// Timeout bounds each request; it is clamped to 10-15s.
	Timeout  time.Duration
	MaxItems int
	Now      func() time.Time

	// GDELTLimiter spaces requests to the GDELT document API. Nil disables pacing.
	GDELTLimiter      *rate.Limiter
	GDELTBaseURL      string
	GoogleNewsBaseURL string
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	o.Timeout = ClampTimeout(o.Timeout)
	if o.MaxItems <= 0 {
		o.MaxItems = DefaultMaxItems
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.GDELTBaseURL == "" {
		o.GDELTBaseURL = DefaultGDELTBaseURL
	}
	if o.GoogleNewsBaseURL == "" {
		o.GoogleNewsBaseURL = DefaultGoogleNewsBaseURL
	}
	return o
}

// NewGDELTLimiter allows one GDELT request every interval.
func NewGDELTLimiter(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval), 1)
}

// New builds the adapter for a configured source.
func New(cfg rss.FeedConfig, opts Options) (Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	switch cfg.Kind {
	case rss.KindRSS:
		return NewRSSFetcher(cfg.Name, cfg.URL, cfg.Category, opts), nil
	case rss.KindGDELT:
		return NewGDELTFetcher(cfg.Name, cfg.Query, cfg.Category, opts), nil
	case rss.KindGoogleNews:
		return NewGoogleNewsFetcher(cfg.Name, cfg.Query, cfg.Category, opts), nil
	default:
		return nil, fmt.Errorf("unsupported feed kind %q", cfg.Kind)
	}
}

// NewAll builds a fetcher per source, failing on the first invalid entry.
func NewAll(cfgs []rss.FeedConfig, opts Options) ([]Fetcher, error) {
	fetchers := make([]Fetcher, 0, len(cfgs))
	for _, cfg := range cfgs {
		f, err := New(cfg, opts)
		if err != nil {
			return nil, err
		}
		fetchers = append(fetchers, f)
	}
	return fetchers, nil
}
