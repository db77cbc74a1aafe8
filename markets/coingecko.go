package markets

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"situationmonitor/common"
	"situationmonitor/types"
)

const DefaultCoinGeckoURL = "https://api.coingecko.com"

// Coin is a CoinGecko id with its display data.
type Coin struct {
	ID     string
	Symbol string
	Name   string
}

var DefaultCoins = []Coin{
	{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin"},
	{ID: "ethereum", Symbol: "ETH", Name: "Ethereum"},
	{ID: "solana", Symbol: "SOL", Name: "Solana"},
}

type coinPrice struct {
	USD       *float64 `json:"usd"`
	Change24h float64  `json:"usd_24h_change"`
}

// CoinGecko reads spot prices from the public simple/price endpoint.
type CoinGecko struct {
	BaseURL string
	Coins   []Coin
	Client  *http.Client
}

func (c *CoinGecko) Prices(ctx context.Context) ([]types.CryptoItem, error) {
	coins := c.Coins
	if len(coins) == 0 {
		coins = DefaultCoins
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultCoinGeckoURL
	}

	ids := make([]string, len(coins))
	for i, coin := range coins {
		ids[i] = coin.ID
	}
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")

	var resp map[string]coinPrice
	if err := common.GetJSON(ctx, c.Client, strings.TrimRight(base, "/")+"/api/v3/simple/price?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	out := make([]types.CryptoItem, 0, len(coins))
	for _, coin := range coins {
		p, ok := resp[coin.ID]
		if !ok || p.USD == nil {
			continue
		}
		out = append(out, types.CryptoItem{
			ID:        coin.ID,
			Symbol:    coin.Symbol,
			Name:      coin.Name,
			Price:     *p.USD,
			Change24h: p.Change24h,
		})
	}
	return out, nil
}
