package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"situationmonitor/cache"
	"situationmonitor/scheduler"
	"situationmonitor/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type countingRefresher struct {
	calls atomic.Int32
	err   error
	onRun func()
}

func (r *countingRefresher) RefreshNow(context.Context) error {
	r.calls.Add(1)
	if r.onRun != nil {
		r.onRun()
	}
	return r.err
}

type fixedStatus struct{ status scheduler.Status }

func (f fixedStatus) Status() scheduler.Status { return f.status }

type stubMarkets struct {
	snap types.MarketsSnapshot
	err  error
}

func (s stubMarkets) Snapshot(context.Context) (types.MarketsSnapshot, error) { return s.snap, s.err }

type stubData struct {
	snap types.DataSnapshot
	err  error
}

func (s stubData) Snapshot(context.Context) (types.DataSnapshot, error) { return s.snap, s.err }

type echoAnalyzer struct {
	got []string
	err error
}

func (a *echoAnalyzer) Analyze(_ context.Context, headlines []string) ([]types.AnalysisResult, error) {
	a.got = headlines
	if a.err != nil {
		return nil, a.err
	}
	out := make([]types.AnalysisResult, len(headlines))
	for i, h := range headlines {
		out[i] = types.AnalysisResult{Significance: len(h) % 10, Summary: "s:" + h}
	}
	return out, nil
}

func perform(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func seededStore() *cache.Store {
	store := cache.NewStore()
	store.Set(types.CategoryPolitics, []types.NewsItem{
		{ID: "p1", Title: "Summit talks", Timestamp: 200, Category: types.CategoryPolitics},
	})
	store.Set(types.CategoryTech, []types.NewsItem{
		{ID: "t1", Title: "Chip export rules", Timestamp: 300, Category: types.CategoryTech},
		{ID: "t2", Title: "Model release", Timestamp: 100, Category: types.CategoryTech},
	})
	return store
}

func TestGetNewsByCategory(t *testing.T) {
	r := NewRouter(Deps{Store: seededStore()})

	w := perform(t, r, http.MethodGet, "/news?category=tech", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[NewsResponse](t, w)
	assert.Equal(t, "tech", resp.Category)
	assert.Equal(t, 2, resp.Count)
	assert.NotZero(t, resp.LastUpdated)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "t1", resp.Items[0].ID)
}

func TestGetNewsRealtimeReadsPolitics(t *testing.T) {
	r := NewRouter(Deps{Store: seededStore()})

	resp := decode[NewsResponse](t, perform(t, r, http.MethodGet, "/news?category=realtime", ""))
	assert.Equal(t, "politics", resp.Category)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "p1", resp.Items[0].ID)
}

func TestGetNewsAllCategories(t *testing.T) {
	r := NewRouter(Deps{Store: seededStore()})

	resp := decode[NewsResponse](t, perform(t, r, http.MethodGet, "/news", ""))
	assert.Equal(t, "all", resp.Category)
	assert.Equal(t, 3, resp.Count)
	ids := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"t1", "p1", "t2"}, ids)
}

func TestGetNewsEmptyCategory(t *testing.T) {
	r := NewRouter(Deps{Store: cache.NewStore()})

	w := perform(t, r, http.MethodGet, "/news?category=intel", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items":[]`)
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestGetNewsUnknownCategory(t *testing.T) {
	r := NewRouter(Deps{Store: cache.NewStore()})

	w := perform(t, r, http.MethodGet, "/news?category=sports", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown category")
}

func TestGetNewsWithRefresh(t *testing.T) {
	store := cache.NewStore()
	ref := &countingRefresher{onRun: func() {
		store.Set(types.CategoryFinance, []types.NewsItem{{ID: "f1", Title: "Rate decision", Timestamp: 1}})
	}}
	r := NewRouter(Deps{Store: store, Refresher: ref})

	resp := decode[NewsResponse](t, perform(t, r, http.MethodGet, "/news?category=finance&refresh=true", ""))
	assert.EqualValues(t, 1, ref.calls.Load())
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "f1", resp.Items[0].ID)

	perform(t, r, http.MethodGet, "/news?category=finance", "")
	assert.EqualValues(t, 1, ref.calls.Load(), "plain reads never trigger a fetch")
}

func TestGetNewsRefreshFailureStillServesCache(t *testing.T) {
	ref := &countingRefresher{err: errors.New("all feeds down")}
	r := NewRouter(Deps{Store: seededStore(), Refresher: ref})

	w := perform(t, r, http.MethodGet, "/news?category=tech&refresh=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[NewsResponse](t, w).Count)
}

func TestPostNews(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ref := &countingRefresher{}
		r := NewRouter(Deps{Store: cache.NewStore(), Refresher: ref})

		w := perform(t, r, http.MethodPost, "/news", "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[RefreshResponse](t, w)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Message)
		assert.EqualValues(t, 1, ref.calls.Load())
	})

	t.Run("failure", func(t *testing.T) {
		ref := &countingRefresher{err: errors.New("boom")}
		r := NewRouter(Deps{Store: cache.NewStore(), Refresher: ref})

		w := perform(t, r, http.MethodPost, "/news", "")
		require.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decode[RefreshResponse](t, w)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Message, "boom")
	})

	t.Run("not configured", func(t *testing.T) {
		r := NewRouter(Deps{Store: cache.NewStore()})
		assert.Equal(t, http.StatusServiceUnavailable, perform(t, r, http.MethodPost, "/news", "").Code)
	})
}

func TestMarkets(t *testing.T) {
	snap := types.MarketsSnapshot{Crypto: []types.CryptoItem{{Symbol: "BTC", Price: 65000}}}
	r := NewRouter(Deps{Store: cache.NewStore(), Markets: stubMarkets{snap: snap}})

	w := perform(t, r, http.MethodGet, "/markets", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[types.MarketsSnapshot](t, w)
	require.Len(t, got.Crypto, 1)
	assert.Equal(t, "BTC", got.Crypto[0].Symbol)

	r = NewRouter(Deps{Store: cache.NewStore(), Markets: stubMarkets{err: errors.New("upstream")}})
	assert.Equal(t, http.StatusBadGateway, perform(t, r, http.MethodGet, "/markets", "").Code)
}

func TestData(t *testing.T) {
	snap := types.DataSnapshot{Contracts: []types.Contract{{Recipient: "Acme Defense"}}}
	r := NewRouter(Deps{Store: cache.NewStore(), Data: stubData{snap: snap}})

	w := perform(t, r, http.MethodGet, "/data", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[types.DataSnapshot](t, w)
	require.Len(t, got.Contracts, 1)
	assert.Equal(t, "Acme Defense", got.Contracts[0].Recipient)

	r = NewRouter(Deps{Store: cache.NewStore()})
	assert.Equal(t, http.StatusServiceUnavailable, perform(t, r, http.MethodGet, "/data", "").Code)
}

func TestAnalyze(t *testing.T) {
	an := &echoAnalyzer{}
	r := NewRouter(Deps{Store: cache.NewStore(), Analyzer: an})

	w := perform(t, r, http.MethodPost, "/ai", `{"headlines":["first","second one"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[AnalyzeResponse](t, w)
	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "s:first", resp.Results[0].Summary)
	assert.Equal(t, "s:second one", resp.Results[1].Summary)
	assert.Equal(t, []string{"first", "second one"}, an.got)
}

func TestAnalyzeRejectsEmptyInput(t *testing.T) {
	an := &echoAnalyzer{}
	r := NewRouter(Deps{Store: cache.NewStore(), Analyzer: an})

	for _, body := range []string{`{"headlines":[]}`, `{}`, `not json`} {
		w := perform(t, r, http.MethodPost, "/ai", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), `"success":false`, body)
	}
	assert.Nil(t, an.got, "analyzer must not be called for invalid input")
}

func TestAnalyzeFailure(t *testing.T) {
	r := NewRouter(Deps{Store: cache.NewStore(), Analyzer: &echoAnalyzer{err: errors.New("provider down")}})

	w := perform(t, r, http.MethodPost, "/ai", `{"headlines":["x"]}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "provider down")
}

func TestHealthAndScheduler(t *testing.T) {
	st := scheduler.Status{State: scheduler.StateRunning, Interval: "5m0s", Runs: 3}
	r := NewRouter(Deps{Store: seededStore(), Scheduler: fixedStatus{status: st}})

	w := perform(t, r, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "running", body["scheduler"])

	w = perform(t, r, http.MethodGet, "/api/scheduler", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[scheduler.Status](t, w)
	assert.Equal(t, scheduler.StateRunning, got.State)
	assert.EqualValues(t, 3, got.Runs)
}

func TestHealthWithoutScheduler(t *testing.T) {
	r := NewRouter(Deps{Store: cache.NewStore()})

	body := decode[map[string]any](t, perform(t, r, http.MethodGet, "/api/health", ""))
	assert.Equal(t, "idle", body["scheduler"])
	assert.Equal(t, http.StatusServiceUnavailable, perform(t, r, http.MethodGet, "/api/scheduler", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "api_test_hits_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	r := NewRouter(Deps{Store: cache.NewStore(), Gatherer: reg})
	w := perform(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "api_test_hits_total 1")

	r = NewRouter(Deps{Store: cache.NewStore()})
	assert.Equal(t, http.StatusNotFound, perform(t, r, http.MethodGet, "/metrics", "").Code)
}
