package types

// CryptoItem is a spot price for one coin.
type CryptoItem struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
}

// MarketItem is a quote for an index or commodity.
type MarketItem struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// SectorItem is the daily move of a sector ETF.
type SectorItem struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Change float64 `json:"change"`
}

type MarketsSnapshot struct {
	Crypto      []CryptoItem `json:"crypto"`
	Indices     []MarketItem `json:"indices"`
	Commodities []MarketItem `json:"commodities"`
	Sectors     []SectorItem `json:"sectors"`
	LastUpdated int64        `json:"lastUpdated"`
}

// Contract is a federal award from USASpending.
type Contract struct {
	AwardID     string  `json:"awardId"`
	Recipient   string  `json:"recipient"`
	Agency      string  `json:"agency"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	StartDate   string  `json:"startDate,omitempty"`
}

type Layoff struct {
	Company  string `json:"company"`
	Count    int    `json:"count"`
	Date     string `json:"date"`
	Location string `json:"location,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Prediction is an open prediction-market question.
type Prediction struct {
	ID          string  `json:"id"`
	Question    string  `json:"question"`
	Probability float64 `json:"probability"`
	Volume      float64 `json:"volume"`
	EndDate     string  `json:"endDate,omitempty"`
	URL         string  `json:"url,omitempty"`
}

// WhaleTransaction is a large on-chain transfer.
type WhaleTransaction struct {
	Hash      string  `json:"hash"`
	Chain     string  `json:"chain"`
	Symbol    string  `json:"symbol"`
	AmountUSD float64 `json:"amountUsd"`
	From      string  `json:"from,omitempty"`
	To        string  `json:"to,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

type DataSnapshot struct {
	Contracts   []Contract         `json:"contracts"`
	Layoffs     []Layoff           `json:"layoffs"`
	Predictions []Prediction       `json:"predictions"`
	Whales      []WhaleTransaction `json:"whales"`
	LastUpdated int64              `json:"lastUpdated"`
}
