package rssfeeds

import (
	"context"
	"net/url"
	"strings"
	"time"

	"situationmonitor/types"
)

const DefaultGoogleNewsBaseURL = "https://news.google.com/rss/search"

// GoogleNewsFetcher reads a Google News search feed for a keyword query.
type GoogleNewsFetcher struct {
	name     string
	query    string
	category types.Category
	opts     Options
}

func NewGoogleNewsFetcher(name, query string, category types.Category, opts Options) *GoogleNewsFetcher {
	return &GoogleNewsFetcher{name: name, query: query, category: category, opts: opts.withDefaults()}
}

func (f *GoogleNewsFetcher) Name() string             { return f.name }
func (f *GoogleNewsFetcher) Category() types.Category { return f.category }

func (f *GoogleNewsFetcher) requestURL() string {
	q := url.Values{}
	q.Set("q", f.query+" when:2d")
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")
	return f.opts.GoogleNewsBaseURL + "?" + q.Encode()
}

func (f *GoogleNewsFetcher) Fetch(ctx context.Context) ([]types.NewsItem, error) {
	body, _, err := getBody(ctx, f.opts.HTTPClient, f.requestURL(), acceptXML, f.opts.Timeout)
	if err != nil {
		return nil, err
	}
	return ParseGoogleNews(body, f.name, f.category, f.opts.MaxItems, f.opts.Now())
}

// ParseGoogleNews parses a search feed. Titles arrive as "Headline - Outlet"; the
// outlet suffix is dropped when it repeats the item's <source>.
func ParseGoogleNews(body []byte, source string, category types.Category, limit int, now time.Time) ([]types.NewsItem, error) {
	raws, err := decodeFeed(body)
	if err != nil {
		return nil, err
	}
	for i := range raws {
		raws[i].title = trimOutletSuffix(CleanText(raws[i].title), CleanText(raws[i].source))
		// Descriptions are a list of related links, not a summary.
		raws[i].description = ""
	}
	return normalize(raws, source, category, limit, now), nil
}

func trimOutletSuffix(title, outlet string) string {
	if outlet == "" {
		return title
	}
	suffix := " - " + outlet
	if strings.HasSuffix(title, suffix) {
		return strings.TrimSpace(strings.TrimSuffix(title, suffix))
	}
	return title
}
