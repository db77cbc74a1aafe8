// Package datasets serves slower-moving reference data: federal contracts, layoffs,
// prediction markets and large crypto transfers.
package datasets

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"situationmonitor/metrics"
	"situationmonitor/shared/snapshot"
	"situationmonitor/types"
)

const (
	CacheTTL       = 5 * time.Minute
	RequestTimeout = 15 * time.Second
)

type Config struct {
	Contracts   func(context.Context) ([]types.Contract, error)
	Predictions func(context.Context) ([]types.Prediction, error)
	Layoffs     func(context.Context) ([]types.Layoff, error)
	Whales      func(context.Context) ([]types.WhaleTransaction, error)
	TTL         time.Duration
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// DefaultConfig wires the public USASpending and Polymarket APIs and the given layoff
// and whale endpoints, either of which may be empty.
func DefaultConfig(client *http.Client, layoffsURL, whalesURL string) Config {
	if client == nil {
		client = &http.Client{Timeout: RequestTimeout}
	}
	cfg := Config{
		Contracts:   (&USASpending{Client: client}).Contracts,
		Predictions: (&Polymarket{Client: client}).Predictions,
	}
	if layoffsURL != "" {
		cfg.Layoffs = (&JSONFeed[types.Layoff]{URL: layoffsURL, Client: client}).Fetch
	}
	if whalesURL != "" {
		cfg.Whales = (&JSONFeed[types.WhaleTransaction]{URL: whalesURL, Client: client}).Fetch
	}
	return cfg
}

type Service struct {
	cfg    Config
	loader *snapshot.Loader[types.DataSnapshot]
	now    func() time.Time
}

func NewService(cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = CacheTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &Service{cfg: cfg, now: time.Now}
	s.loader = snapshot.NewLoader(cfg.TTL, 45*time.Second, s.load)
	return s
}

// ErrUpstreamsDown is returned by a refresh in which every configured source failed.
var ErrUpstreamsDown = errors.New("all dataset upstreams failed")

// Snapshot returns the cached snapshot. A failed refresh keeps serving the previous
// snapshot, or an empty one before the first success.
func (s *Service) Snapshot(ctx context.Context) (types.DataSnapshot, error) {
	snap, err := s.loader.Get(ctx)
	if errors.Is(err, ErrUpstreamsDown) {
		empty := emptySnapshot()
		empty.LastUpdated = s.now().UnixMilli()
		return empty, nil
	}
	return snap, err
}

func emptySnapshot() types.DataSnapshot {
	return types.DataSnapshot{
		Contracts:   []types.Contract{},
		Layoffs:     []types.Layoff{},
		Predictions: []types.Prediction{},
		Whales:      []types.WhaleTransaction{},
	}
}

func (s *Service) load(ctx context.Context) (types.DataSnapshot, error) {
	snap := emptySnapshot()
	errs := make([]error, 4)

	var g errgroup.Group
	g.Go(func() error {
		snap.Contracts, errs[0] = fetch(ctx, s, "usaspending", s.cfg.Contracts, snap.Contracts)
		return nil
	})
	g.Go(func() error {
		snap.Predictions, errs[1] = fetch(ctx, s, "polymarket", s.cfg.Predictions, snap.Predictions)
		return nil
	})
	g.Go(func() error {
		snap.Layoffs, errs[2] = fetch(ctx, s, "layoffs", s.cfg.Layoffs, snap.Layoffs)
		return nil
	})
	g.Go(func() error {
		snap.Whales, errs[3] = fetch(ctx, s, "whales", s.cfg.Whales, snap.Whales)
		return nil
	})
	_ = g.Wait()

	if s.configured() > 0 && failures(errs) == s.configured() {
		return types.DataSnapshot{}, errors.Join(append([]error{ErrUpstreamsDown}, errs...)...)
	}
	snap.LastUpdated = s.now().UnixMilli()
	return snap, nil
}

func (s *Service) configured() int {
	n := 0
	if s.cfg.Contracts != nil {
		n++
	}
	if s.cfg.Predictions != nil {
		n++
	}
	if s.cfg.Layoffs != nil {
		n++
	}
	if s.cfg.Whales != nil {
		n++
	}
	return n
}

func failures(errs []error) int {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	return n
}

// fetch runs one source. On failure it returns empty along with the error.
func fetch[T any](ctx context.Context, s *Service, name string, source func(context.Context) ([]T, error), empty []T) ([]T, error) {
	if source == nil {
		return empty, nil
	}
	items, err := source(ctx)
	if err != nil {
		s.cfg.Metrics.UpstreamFailed(name)
		s.cfg.Logger.Warn("dataset upstream failed", zap.String("upstream", name), zap.Error(err))
		return empty, err
	}
	if items == nil {
		return empty, nil
	}
	return items, nil
}
