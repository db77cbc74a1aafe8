package datasets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
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

func TestUSASpending_Contracts(t *testing.T) {
	var got awardSearch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/search/spending_by_award/", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"results":[
			{"Award ID":"W91-001","Recipient Name":"Acme Defense","Awarding Agency":"Department of Defense","Description":"Radar","Award Amount":125000000.5,"Start Date":"2024-04-02"},
			{"Award ID":"","Recipient Name":"skipped"}
		]}`))
	}))
	defer srv.Close()

	u := &USASpending{BaseURL: srv.URL, Client: srv.Client(), Now: func() time.Time {
		return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	}}
	contracts, err := u.Contracts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.Contract{{
		AwardID: "W91-001", Recipient: "Acme Defense", Agency: "Department of Defense",
		Description: "Radar", Amount: 125000000.5, StartDate: "2024-04-02",
	}}, contracts)

	assert.Equal(t, DefaultLimit, got.Limit)
	require.Len(t, got.Filters.TimePeriod, 1)
	assert.Equal(t, "2024-04-01", got.Filters.TimePeriod[0]["start_date"])
	assert.Equal(t, "2024-05-01", got.Filters.TimePeriod[0]["end_date"])
}

func TestPolymarket_Predictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		assert.Equal(t, "volume", r.URL.Query().Get("order"))
		_, _ = w.Write([]byte(`[
			{"id":"1","question":"Will the ceasefire hold?","slug":"ceasefire","outcomePrices":"[\"0.62\",\"0.38\"]","volume":"1500000.25","endDate":"2024-12-31"},
			{"id":"2","question":"Rate cut in June?","outcomePrices":"garbage","volume":42}
		]`))
	}))
	defer srv.Close()

	preds, err := (&Polymarket{BaseURL: srv.URL, Client: srv.Client()}).Predictions(context.Background())
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.InDelta(t, 0.62, preds[0].Probability, 1e-9)
	assert.InDelta(t, 1500000.25, preds[0].Volume, 1e-9)
	assert.Equal(t, "https://polymarket.com/event/ceasefire", preds[0].URL)
	assert.Zero(t, preds[1].Probability)
	assert.Equal(t, 42.0, preds[1].Volume)
}

func TestJSONFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"company":"Globex","count":1200,"date":"2024-04-30"}]`))
	}))
	defer srv.Close()

	layoffs, err := (&JSONFeed[types.Layoff]{URL: srv.URL, Client: srv.Client()}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.Layoff{{Company: "Globex", Count: 1200, Date: "2024-04-30"}}, layoffs)

	empty, err := (&JSONFeed[types.WhaleTransaction]{}).Fetch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestService_Snapshot(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	var calls atomic.Int32
	svc := NewService(Config{
		Contracts: func(context.Context) ([]types.Contract, error) {
			calls.Add(1)
			return []types.Contract{{AwardID: "x"}}, nil
		},
		Predictions: func(context.Context) ([]types.Prediction, error) {
			return nil, errors.New("gamma down")
		},
		Metrics: m,
	})

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Contracts, 1)
	assert.NotNil(t, snap.Predictions)
	assert.Empty(t, snap.Predictions)
	assert.NotNil(t, snap.Layoffs)
	assert.NotNil(t, snap.Whales)
	assert.NotZero(t, snap.LastUpdated)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamErrors.WithLabelValues("polymarket")))

	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "served from the five minute cache")
}

func TestFlexFloat(t *testing.T) {
	var v struct {
		A flexFloat `json:"a"`
		B flexFloat `json:"b"`
		C flexFloat `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1.5","b":2,"c":null}`), &v))
	assert.Equal(t, flexFloat(1.5), v.A)
	assert.Equal(t, flexFloat(2), v.B)
	assert.Zero(t, v.C)
	assert.Error(t, json.Unmarshal([]byte(`{"a":"abc"}`), &v))
}

func TestService_AllUpstreamsDownServesPreviousSnapshot(t *testing.T) {
	var down atomic.Bool
	svc := NewService(Config{
		Contracts: func(context.Context) ([]types.Contract, error) {
			if down.Load() {
				return nil, errors.New("usaspending 500")
			}
			return []types.Contract{{AwardID: "x"}}, nil
		},
		Predictions: func(context.Context) ([]types.Prediction, error) {
			if down.Load() {
				return nil, errors.New("gamma down")
			}
			return []types.Prediction{{ID: "p1"}}, nil
		},
		TTL: time.Millisecond,
	})

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Contracts, 1)

	down.Store(true)
	time.Sleep(5 * time.Millisecond)

	got, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestService_AllUpstreamsDownBeforeFirstLoad(t *testing.T) {
	var calls atomic.Int32
	svc := NewService(Config{
		Contracts: func(context.Context) ([]types.Contract, error) {
			calls.Add(1)
			return nil, errors.New("usaspending 500")
		},
		TTL: time.Minute,
	})

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap.Contracts)
	assert.Empty(t, snap.Contracts)
	assert.NotNil(t, snap.Predictions)

	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "a failed load is not cached")
}

func TestDefaultConfig_SkipsUnsetFeeds(t *testing.T) {
	cfg := DefaultConfig(nil, "", "https://example.com/whales.json")
	assert.NotNil(t, cfg.Contracts)
	assert.NotNil(t, cfg.Predictions)
	assert.Nil(t, cfg.Layoffs)
	assert.NotNil(t, cfg.Whales)
}
