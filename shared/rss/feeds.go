package rss

import (
	"fmt"

	"situationmonitor/types"
)

// Kind selects the fetcher adapter used for a source.
type Kind string

const (
	KindRSS        Kind = "rss"
	KindGDELT      Kind = "gdelt"
	KindGoogleNews Kind = "googlenews"
)

// FeedConfig represents the configuration for a single news source
type FeedConfig struct {
	Name     string         `json:"name" yaml:"name"`
	Kind     Kind           `json:"kind" yaml:"kind"`
	Category types.Category `json:"category" yaml:"category"`
	// URL is required for rss sources.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
	// Query is the search expression for gdelt and googlenews sources.
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
}

// Validate checks that the source can be turned into a fetcher.
func (f FeedConfig) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("feed source is missing a name")
	}
	if _, err := types.ParseCategory(string(f.Category)); err != nil {
		return fmt.Errorf("feed %q: %w %q", f.Name, err, f.Category)
	}
	switch f.Kind {
	case KindRSS:
		if f.URL == "" {
			return fmt.Errorf("feed %q: rss source requires a url", f.Name)
		}
	case KindGDELT, KindGoogleNews:
		if f.Query == "" {
			return fmt.Errorf("feed %q: %s source requires a query", f.Name, f.Kind)
		}
	default:
		return fmt.Errorf("feed %q: unknown kind %q", f.Name, f.Kind)
	}
	return nil
}

// FeedPresets is the built-in source list used when no feeds file is configured
var FeedPresets = []FeedConfig{
	// politics
	{Name: "BBC World", Kind: KindRSS, Category: types.CategoryPolitics, URL: "https://feeds.bbc.co.uk/news/world/rss.xml"},
	{Name: "NPR News", Kind: KindRSS, Category: types.CategoryPolitics, URL: "https://feeds.npr.org/1001/rss.xml"},
	{Name: "The Guardian", Kind: KindRSS, Category: types.CategoryPolitics, URL: "https://www.theguardian.com/world/rss"},
	{Name: "Al Jazeera", Kind: KindRSS, Category: types.CategoryPolitics, URL: "https://www.aljazeera.com/xml/rss/all.xml"},
	{Name: "GDELT Politics", Kind: KindGDELT, Category: types.CategoryPolitics, Query: "(election OR parliament OR president OR minister) sourcelang:english"},
	{Name: "Breaking News", Kind: KindGoogleNews, Category: types.CategoryRealtime, Query: "breaking news world"},

	// tech
	{Name: "Hacker News", Kind: KindRSS, Category: types.CategoryTech, URL: "https://hnrss.org/frontpage"},
	{Name: "Ars Technica", Kind: KindRSS, Category: types.CategoryTech, URL: "https://feeds.arstechnica.com/arstechnica/index"},
	{Name: "The Verge", Kind: KindRSS, Category: types.CategoryTech, URL: "https://www.theverge.com/rss/index.xml"},
	{Name: "Technology Review", Kind: KindRSS, Category: types.CategoryTech, URL: "https://www.technologyreview.com/feed/"},

	// finance
	{Name: "CNBC", Kind: KindRSS, Category: types.CategoryFinance, URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
	{Name: "MarketWatch", Kind: KindRSS, Category: types.CategoryFinance, URL: "https://feeds.marketwatch.com/marketwatch/topstories/"},
	{Name: "Markets", Kind: KindGoogleNews, Category: types.CategoryFinance, Query: "stock market OR federal reserve OR treasury yields"},

	// gov
	{Name: "White House", Kind: KindRSS, Category: types.CategoryGov, URL: "https://www.whitehouse.gov/news/feed/"},
	{Name: "Federal Reserve", Kind: KindRSS, Category: types.CategoryGov, URL: "https://www.federalreserve.gov/feeds/press_all.xml"},
	{Name: "SEC", Kind: KindRSS, Category: types.CategoryGov, URL: "https://www.sec.gov/news/pressreleases.rss"},
	{Name: "GDELT Government", Kind: KindGDELT, Category: types.CategoryGov, Query: "(congress OR senate OR \"executive order\" OR regulation) sourcecountry:US"},

	// ai
	{Name: "OpenAI", Kind: KindRSS, Category: types.CategoryAI, URL: "https://openai.com/news/rss.xml"},
	{Name: "arXiv cs.AI", Kind: KindRSS, Category: types.CategoryAI, URL: "https://rss.arxiv.org/rss/cs.AI"},
	{Name: "AI News", Kind: KindGoogleNews, Category: types.CategoryAI, Query: "artificial intelligence"},

	// intel
	{Name: "Bellingcat", Kind: KindRSS, Category: types.CategoryIntel, URL: "https://www.bellingcat.com/feed/"},
	{Name: "War on the Rocks", Kind: KindRSS, Category: types.CategoryIntel, URL: "https://warontherocks.com/feed/"},
	{Name: "Defense One", Kind: KindRSS, Category: types.CategoryIntel, URL: "https://www.defenseone.com/rss/all/"},
	{Name: "GDELT Security", Kind: KindGDELT, Category: types.CategoryIntel, Query: "(military OR intelligence OR cyberattack OR espionage) sourcelang:english"},
}
