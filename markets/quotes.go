package markets

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"situationmonitor/common"
)

const DefaultChartURL = "https://query1.finance.yahoo.com"

// Instrument is a ticker with its display name.
type Instrument struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	Name   string `yaml:"name" json:"name"`
}

var (
	DefaultIndices = []Instrument{
		{Symbol: "^GSPC", Name: "S&P 500"},
		{Symbol: "^DJI", Name: "Dow Jones"},
		{Symbol: "^IXIC", Name: "NASDAQ"},
		{Symbol: "^VIX", Name: "VIX"},
	}
	DefaultCommodities = []Instrument{
		{Symbol: "GC=F", Name: "Gold"},
		{Symbol: "CL=F", Name: "Crude Oil"},
		{Symbol: "NG=F", Name: "Natural Gas"},
		{Symbol: "SI=F", Name: "Silver"},
	}
	DefaultSectors = []Instrument{
		{Symbol: "XLK", Name: "Technology"},
		{Symbol: "XLF", Name: "Financials"},
		{Symbol: "XLE", Name: "Energy"},
		{Symbol: "XLV", Name: "Health Care"},
		{Symbol: "XLI", Name: "Industrials"},
		{Symbol: "XLU", Name: "Utilities"},
	}
)

// Quote is the latest price and the previous close for a symbol.
type Quote struct {
	Symbol        string
	Price         float64
	PreviousClose float64
}

func (q Quote) Change() float64 { return q.Price - q.PreviousClose }

func (q Quote) ChangePercent() float64 {
	if q.PreviousClose == 0 {
		return 0
	}
	return q.Change() / q.PreviousClose * 100
}

// QuoteSource returns quotes for the symbols it could resolve; missing symbols are
// simply absent from the map.
type QuoteSource interface {
	Quotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64  `json:"chartPreviousClose"`
				PreviousClose      float64  `json:"previousClose"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// ChartQuotes reads the v8 chart endpoint, one request per symbol.
type ChartQuotes struct {
	BaseURL     string
	Client      *http.Client
	Concurrency int
}

var errNoQuotes = errors.New("no quotes resolved")

func (c *ChartQuotes) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	quotes := make([]*Quote, len(symbols))
	var g errgroup.Group
	limit := c.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)
	for i, sym := range symbols {
		g.Go(func() error {
			q, err := c.quote(ctx, sym)
			if err == nil {
				quotes[i] = q
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]Quote, len(symbols))
	for _, q := range quotes {
		if q != nil {
			out[q.Symbol] = *q
		}
	}
	if len(out) == 0 && len(symbols) > 0 {
		return out, errNoQuotes
	}
	return out, nil
}

func (c *ChartQuotes) quote(ctx context.Context, symbol string) (*Quote, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultChartURL
	}
	u := strings.TrimRight(base, "/") + "/v8/finance/chart/" + url.PathEscape(symbol) + "?interval=1d&range=5d"

	var resp chartResponse
	if err := common.GetJSON(ctx, c.Client, u, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, errors.New(resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || resp.Chart.Result[0].Meta.RegularMarketPrice == nil {
		return nil, errNoQuotes
	}
	meta := resp.Chart.Result[0].Meta
	prev := meta.ChartPreviousClose
	if prev == 0 {
		prev = meta.PreviousClose
	}
	return &Quote{Symbol: symbol, Price: *meta.RegularMarketPrice, PreviousClose: prev}, nil
}
