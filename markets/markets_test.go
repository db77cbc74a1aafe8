package markets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"situationmonitor/metrics"
	"situationmonitor/types"
)

func TestCoinGecko_Prices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin,ethereum,solana", r.URL.Query().Get("ids"))
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":65000.5,"usd_24h_change":-1.25},"solana":{"usd":150}}`))
	}))
	defer srv.Close()

	items, err := (&CoinGecko{BaseURL: srv.URL, Client: srv.Client()}).Prices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.CryptoItem{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Price: 65000.5, Change24h: -1.25},
		{ID: "solana", Symbol: "SOL", Name: "Solana", Price: 150},
	}, items)
}

func chartServer(t *testing.T, prices map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sym := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		body, ok := prices[sym]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
}

func chartBody(price, prev string) string {
	return `{"chart":{"result":[{"meta":{"regularMarketPrice":` + price + `,"chartPreviousClose":` + prev + `}}],"error":null}}`
}

func TestChartQuotes(t *testing.T) {
	srv := chartServer(t, map[string]string{
		"^GSPC": chartBody("5100", "5000"),
		"GC=F":  chartBody("2300", "2350"),
		"XLK":   `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`,
	})
	defer srv.Close()

	q, err := (&ChartQuotes{BaseURL: srv.URL, Client: srv.Client()}).Quotes(context.Background(), []string{"^GSPC", "GC=F", "XLK", "MISSING"})
	require.NoError(t, err)
	require.Len(t, q, 2)
	assert.InDelta(t, 2.0, q["^GSPC"].ChangePercent(), 1e-9)
	assert.InDelta(t, -50.0, q["GC=F"].Change(), 1e-9)
}

func TestChartQuotes_AllFail(t *testing.T) {
	srv := chartServer(t, nil)
	defer srv.Close()

	_, err := (&ChartQuotes{BaseURL: srv.URL, Client: srv.Client()}).Quotes(context.Background(), []string{"^DJI"})
	assert.Error(t, err)
}

type fakeCrypto struct {
	calls atomic.Int32
	err   error
}

func (f *fakeCrypto) Prices(context.Context) ([]types.CryptoItem, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []types.CryptoItem{{ID: "bitcoin", Price: 1}}, nil
}

type fakeQuotes map[string]Quote

func (f fakeQuotes) Quotes(context.Context, []string) (map[string]Quote, error) { return f, nil }

func TestService_Snapshot(t *testing.T) {
	crypto := &fakeCrypto{}
	svc := NewService(Config{
		Crypto:      crypto,
		Quotes:      fakeQuotes{"^GSPC": {Symbol: "^GSPC", Price: 110, PreviousClose: 100}, "XLE": {Symbol: "XLE", Price: 99, PreviousClose: 100}},
		Indices:     []Instrument{{Symbol: "^GSPC", Name: "S&P 500"}, {Symbol: "^DJI", Name: "Dow"}},
		Commodities: DefaultCommodities,
		Sectors:     []Instrument{{Symbol: "XLE", Name: "Energy"}},
	})

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Crypto, 1)
	require.Len(t, snap.Indices, 1)
	assert.Equal(t, types.MarketItem{Symbol: "^GSPC", Name: "S&P 500", Price: 110, Change: 10, ChangePercent: 10}, snap.Indices[0])
	assert.NotNil(t, snap.Commodities)
	assert.Empty(t, snap.Commodities)
	require.Len(t, snap.Sectors, 1)
	assert.InDelta(t, -1.0, snap.Sectors[0].Change, 1e-9)
	assert.NotZero(t, snap.LastUpdated)

	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), crypto.calls.Load(), "second call within 60s is served from cache")
}

func TestService_UpstreamFailureLeavesSliceEmpty(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(Config{Crypto: &fakeCrypto{err: errors.New("429")}, Metrics: m, TTL: time.Minute})

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap.Crypto)
	assert.Empty(t, snap.Crypto)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamErrors.WithLabelValues("crypto")))
}

type flakyQuotes struct {
	quotes fakeQuotes
	down   atomic.Bool
}

func (f *flakyQuotes) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	if f.down.Load() {
		return nil, errors.New("chart api 503")
	}
	return f.quotes.Quotes(ctx, symbols)
}

func TestService_AllUpstreamsDownServesPreviousSnapshot(t *testing.T) {
	crypto := &fakeCrypto{}
	quotes := &flakyQuotes{quotes: fakeQuotes{"^GSPC": {Symbol: "^GSPC", Price: 110, PreviousClose: 100}}}
	svc := NewService(Config{
		Crypto:  crypto,
		Quotes:  quotes,
		Indices: []Instrument{{Symbol: "^GSPC", Name: "S&P 500"}},
		TTL:     time.Millisecond,
	})

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Indices, 1)

	crypto.err = errors.New("429")
	quotes.down.Store(true)
	time.Sleep(5 * time.Millisecond)

	got, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Equal(t, int32(2), crypto.calls.Load(), "the expired snapshot was refreshed")
}

func TestService_PartialFailureReplacesSnapshot(t *testing.T) {
	crypto := &fakeCrypto{}
	quotes := &flakyQuotes{quotes: fakeQuotes{"^GSPC": {Symbol: "^GSPC", Price: 110, PreviousClose: 100}}}
	svc := NewService(Config{
		Crypto:  crypto,
		Quotes:  quotes,
		Indices: []Instrument{{Symbol: "^GSPC", Name: "S&P 500"}},
		TTL:     time.Millisecond,
	})

	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	quotes.down.Store(true)
	time.Sleep(5 * time.Millisecond)

	got, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Crypto, 1)
	assert.NotNil(t, got.Indices)
	assert.Empty(t, got.Indices)
}

type nilCrypto struct{}

func (nilCrypto) Prices(context.Context) ([]types.CryptoItem, error) { return nil, nil }

func TestService_NilCryptoBecomesEmpty(t *testing.T) {
	snap, err := NewService(Config{Crypto: nilCrypto{}}).Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap.Crypto)
	assert.Empty(t, snap.Crypto)
}
