// Package markets serves a cached snapshot of crypto, index, commodity and sector prices.
package markets

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
	CacheTTL       = 60 * time.Second
	RequestTimeout = 10 * time.Second
)

// CryptoSource returns coin prices.
type CryptoSource interface {
	Prices(ctx context.Context) ([]types.CryptoItem, error)
}

type Config struct {
	Crypto      CryptoSource
	Quotes      QuoteSource
	Indices     []Instrument
	Commodities []Instrument
	Sectors     []Instrument
	TTL         time.Duration
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// Service assembles MarketsSnapshot from its sources and caches it for TTL.
type Service struct {
	cfg    Config
	loader *snapshot.Loader[types.MarketsSnapshot]
	now    func() time.Time
}

// DefaultConfig wires the public CoinGecko and chart endpoints.
func DefaultConfig(client *http.Client) Config {
	if client == nil {
		client = &http.Client{Timeout: RequestTimeout}
	}
	return Config{
		Crypto:      &CoinGecko{Client: client},
		Quotes:      &ChartQuotes{Client: client},
		Indices:     DefaultIndices,
		Commodities: DefaultCommodities,
		Sectors:     DefaultSectors,
	}
}

func NewService(cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = CacheTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &Service{cfg: cfg, now: time.Now}
	s.loader = snapshot.NewLoader(cfg.TTL, 30*time.Second, s.load)
	return s
}

// ErrUpstreamsDown is returned by a refresh in which every configured source failed.
var ErrUpstreamsDown = errors.New("all market upstreams failed")

// Snapshot returns the cached snapshot, refreshing it when older than the TTL. A failed
// refresh keeps serving the previous snapshot, or an empty one before the first success.
func (s *Service) Snapshot(ctx context.Context) (types.MarketsSnapshot, error) {
	snap, err := s.loader.Get(ctx)
	if errors.Is(err, ErrUpstreamsDown) {
		empty := emptySnapshot()
		empty.LastUpdated = s.now().UnixMilli()
		return empty, nil
	}
	return snap, err
}

func emptySnapshot() types.MarketsSnapshot {
	return types.MarketsSnapshot{
		Crypto:      []types.CryptoItem{},
		Indices:     []types.MarketItem{},
		Commodities: []types.MarketItem{},
		Sectors:     []types.SectorItem{},
	}
}

// load leaves the slices of an unavailable upstream empty. It fails only when every
// configured upstream did, so the loader keeps the previous snapshot.
func (s *Service) load(ctx context.Context) (types.MarketsSnapshot, error) {
	snap := emptySnapshot()

	var (
		g          errgroup.Group
		quotes     map[string]Quote
		cryptoErr  error
		quotesErr  error
		configured int
	)
	if s.cfg.Crypto != nil {
		configured++
		g.Go(func() error {
			items, err := s.cfg.Crypto.Prices(ctx)
			if err != nil {
				cryptoErr = err
				s.upstreamFailed("crypto", err)
				return nil
			}
			if items != nil {
				snap.Crypto = items
			}
			return nil
		})
	}
	if s.cfg.Quotes != nil {
		configured++
		g.Go(func() error {
			q, err := s.cfg.Quotes.Quotes(ctx, s.symbols())
			if err != nil {
				quotesErr = err
				s.upstreamFailed("quotes", err)
			}
			quotes = q
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range []error{cryptoErr, quotesErr} {
		if err != nil {
			failed++
		}
	}
	if configured > 0 && failed == configured {
		return types.MarketsSnapshot{}, errors.Join(ErrUpstreamsDown, cryptoErr, quotesErr)
	}

	snap.Indices = marketItems(s.cfg.Indices, quotes)
	snap.Commodities = marketItems(s.cfg.Commodities, quotes)
	for _, in := range s.cfg.Sectors {
		if q, ok := quotes[in.Symbol]; ok {
			snap.Sectors = append(snap.Sectors, types.SectorItem{Symbol: in.Symbol, Name: in.Name, Change: q.ChangePercent()})
		}
	}
	snap.LastUpdated = s.now().UnixMilli()
	return snap, nil
}

func (s *Service) symbols() []string {
	var out []string
	for _, group := range [][]Instrument{s.cfg.Indices, s.cfg.Commodities, s.cfg.Sectors} {
		for _, in := range group {
			out = append(out, in.Symbol)
		}
	}
	return out
}

func (s *Service) upstreamFailed(upstream string, err error) {
	s.cfg.Metrics.UpstreamFailed(upstream)
	s.cfg.Logger.Warn("market upstream failed", zap.String("upstream", upstream), zap.Error(err))
}

func marketItems(instruments []Instrument, quotes map[string]Quote) []types.MarketItem {
	out := []types.MarketItem{}
	for _, in := range instruments {
		q, ok := quotes[in.Symbol]
		if !ok {
			continue
		}
		out = append(out, types.MarketItem{
			Symbol:        in.Symbol,
			Name:          in.Name,
			Price:         q.Price,
			Change:        q.Change(),
			ChangePercent: q.ChangePercent(),
		})
	}
	return out
}
