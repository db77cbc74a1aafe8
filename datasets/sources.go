package datasets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"situationmonitor/common"
	"situationmonitor/types"
)

const (
	DefaultUSASpendingURL = "https://api.usaspending.gov"
	DefaultPolymarketURL  = "https://gamma-api.polymarket.com"
	DefaultLimit          = 10
)

// USASpending lists the largest recent contract awards.
type USASpending struct {
	BaseURL string
	Client  *http.Client
	Limit   int
	Days    int
	Now     func() time.Time
}

type awardSearch struct {
	Filters struct {
		AwardTypeCodes []string            `json:"award_type_codes"`
		TimePeriod     []map[string]string `json:"time_period"`
	} `json:"filters"`
	Fields []string `json:"fields"`
	Sort   string   `json:"sort"`
	Order  string   `json:"order"`
	Limit  int      `json:"limit"`
	Page   int      `json:"page"`
}

type awardResults struct {
	Results []struct {
		AwardID     string    `json:"Award ID"`
		Recipient   string    `json:"Recipient Name"`
		Agency      string    `json:"Awarding Agency"`
		Description string    `json:"Description"`
		Amount      flexFloat `json:"Award Amount"`
		StartDate   string    `json:"Start Date"`
	} `json:"results"`
}

func (u *USASpending) Contracts(ctx context.Context) ([]types.Contract, error) {
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	days := u.Days
	if days <= 0 {
		days = 30
	}
	end := now().UTC()
	start := end.AddDate(0, 0, -days)

	var req awardSearch
	req.Filters.AwardTypeCodes = []string{"A", "B", "C", "D"}
	req.Filters.TimePeriod = []map[string]string{{
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
	}}
	req.Fields = []string{"Award ID", "Recipient Name", "Awarding Agency", "Description", "Award Amount", "Start Date"}
	req.Sort, req.Order = "Award Amount", "desc"
	req.Limit, req.Page = limitOr(u.Limit), 1

	var resp awardResults
	if err := common.PostJSON(ctx, u.Client, baseOr(u.BaseURL, DefaultUSASpendingURL)+"/api/v2/search/spending_by_award/", req, &resp); err != nil {
		return nil, err
	}
	out := make([]types.Contract, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.AwardID == "" {
			continue
		}
		out = append(out, types.Contract{
			AwardID:     r.AwardID,
			Recipient:   r.Recipient,
			Agency:      r.Agency,
			Description: r.Description,
			Amount:      float64(r.Amount),
			StartDate:   r.StartDate,
		})
	}
	return out, nil
}

// Polymarket lists the highest-volume open markets from the gamma API.
type Polymarket struct {
	BaseURL string
	Client  *http.Client
	Limit   int
}

type gammaMarket struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Slug          string    `json:"slug"`
	OutcomePrices string    `json:"outcomePrices"`
	Volume        flexFloat `json:"volume"`
	EndDate       string    `json:"endDate"`
}

func (p *Polymarket) Predictions(ctx context.Context) ([]types.Prediction, error) {
	q := url.Values{}
	q.Set("active", "true")
	q.Set("closed", "false")
	q.Set("order", "volume")
	q.Set("ascending", "false")
	q.Set("limit", strconv.Itoa(limitOr(p.Limit)))

	var markets []gammaMarket
	if err := common.GetJSON(ctx, p.Client, baseOr(p.BaseURL, DefaultPolymarketURL)+"/markets?"+q.Encode(), &markets); err != nil {
		return nil, err
	}
	out := make([]types.Prediction, 0, len(markets))
	for _, m := range markets {
		if m.Question == "" {
			continue
		}
		pred := types.Prediction{
			ID:          m.ID,
			Question:    m.Question,
			Probability: yesProbability(m.OutcomePrices),
			Volume:      float64(m.Volume),
			EndDate:     m.EndDate,
		}
		if m.Slug != "" {
			pred.URL = "https://polymarket.com/event/" + m.Slug
		}
		out = append(out, pred)
	}
	return out, nil
}

// yesProbability reads the first entry of gamma's JSON-encoded outcomePrices string.
func yesProbability(encoded string) float64 {
	var prices []flexFloat
	if err := json.Unmarshal([]byte(encoded), &prices); err != nil || len(prices) == 0 {
		return 0
	}
	return float64(prices[0])
}

// JSONFeed decodes a JSON array of T from a configured endpoint. An empty URL yields an
// empty result.
type JSONFeed[T any] struct {
	URL    string
	Client *http.Client
}

func (f *JSONFeed[T]) Fetch(ctx context.Context) ([]T, error) {
	if f.URL == "" {
		return []T{}, nil
	}
	var out []T
	if err := common.GetJSON(ctx, f.Client, f.URL, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// flexFloat accepts both JSON numbers and numeric strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*f = flexFloat(v)
	return nil
}

func baseOr(base, def string) string {
	if base == "" {
		base = def
	}
	return strings.TrimRight(base, "/")
}

func limitOr(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}
