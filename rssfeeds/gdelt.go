package rssfeeds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"situationmonitor/types"
)

const (
	DefaultGDELTBaseURL = "https://api.gdeltproject.org/api/v2/doc/doc"
	gdeltDateLayout     = "20060102T150405Z"
	gdeltTimespan       = "1d"
)

// gdeltResponse is the subset of the artlist payload we rely on.
type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

type gdeltArticle struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	SeenDate      string `json:"seendate"`
	Domain        string `json:"domain"`
	Language      string `json:"language"`
	SourceCountry string `json:"sourcecountry"`
}

// GDELTFetcher runs a keyword query against the GDELT document API.
type GDELTFetcher struct {
	name     string
	query    string
	category types.Category
	opts     Options
}

func NewGDELTFetcher(name, query string, category types.Category, opts Options) *GDELTFetcher {
	return &GDELTFetcher{name: name, query: query, category: category, opts: opts.withDefaults()}
}

func (f *GDELTFetcher) Name() string             { return f.name }
func (f *GDELTFetcher) Category() types.Category { return f.category }

func (f *GDELTFetcher) requestURL() string {
	q := url.Values{}
	q.Set("query", f.query)
	q.Set("mode", "artlist")
	q.Set("format", "json")
	q.Set("maxrecords", strconv.Itoa(f.opts.MaxItems))
	q.Set("sort", "datedesc")
	q.Set("timespan", gdeltTimespan)
	return f.opts.GDELTBaseURL + "?" + q.Encode()
}

func (f *GDELTFetcher) Fetch(ctx context.Context) ([]types.NewsItem, error) {
	if f.opts.GDELTLimiter != nil {
		if err := f.opts.GDELTLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("gdelt rate limit: %w", err)
		}
	}

	body, contentType, err := getBody(ctx, f.opts.HTTPClient, f.requestURL(), "application/json", f.opts.Timeout)
	if err != nil {
		return nil, err
	}
	return ParseGDELT(body, contentType, f.name, f.category, f.opts.MaxItems, f.opts.Now())
}

// ParseGDELT decodes an artlist response. GDELT answers bad queries with a 200 and a
// plain-text message, so anything that is not a JSON object is rejected.
func ParseGDELT(body []byte, contentType, source string, category types.Category, limit int, now time.Time) ([]types.NewsItem, error) {
	trimmed := bytes.TrimSpace(body)
	if !strings.Contains(strings.ToLower(contentType), "json") && !bytes.HasPrefix(trimmed, []byte("{")) {
		return nil, fmt.Errorf("%w: %q", ErrContentType, contentType)
	}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) {
		return []types.NewsItem{}, nil
	}

	var resp gdeltResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("decode gdelt response: %w", err)
	}

	raws := make([]rawItem, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		raw := rawItem{
			title:   a.Title,
			link:    a.URL,
			pubDate: a.SeenDate,
			source:  a.Domain,
		}
		if t, ok := parseDate(a.SeenDate); ok {
			raw.published = &t
		}
		raws = append(raws, raw)
	}
	return normalize(raws, source, category, limit, now), nil
}
