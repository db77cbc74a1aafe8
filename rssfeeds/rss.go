package rssfeeds

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	gorss "github.com/mmcdole/gofeed/rss"

	"situationmonitor/keywords"
	"situationmonitor/types"
)

const acceptXML = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"

// RSSFetcher reads an RSS 2.0 or Atom feed.
type RSSFetcher struct {
	name     string
	url      string
	category types.Category
	opts     Options
}

func NewRSSFetcher(name, url string, category types.Category, opts Options) *RSSFetcher {
	return &RSSFetcher{name: name, url: url, category: category, opts: opts.withDefaults()}
}

func (f *RSSFetcher) Name() string             { return f.name }
func (f *RSSFetcher) Category() types.Category { return f.category }

// Fetch retrieves the feed and normalizes up to MaxItems entries.
func (f *RSSFetcher) Fetch(ctx context.Context) ([]types.NewsItem, error) {
	body, _, err := getBody(ctx, f.opts.HTTPClient, f.url, acceptXML, f.opts.Timeout)
	if err != nil {
		return nil, err
	}
	return ParseFeed(body, f.name, f.category, f.opts.MaxItems, f.opts.Now())
}

// rawItem is a feed entry before cleaning and scoring.
type rawItem struct {
	title       string
	link        string
	description string
	pubDate     string
	published   *time.Time
	source      string
}

// ParseFeed turns an RSS or Atom document into scored NewsItems for category.
func ParseFeed(body []byte, source string, category types.Category, limit int, now time.Time) ([]types.NewsItem, error) {
	raws, err := decodeFeed(body)
	if err != nil {
		return nil, err
	}
	return normalize(raws, source, category, limit, now), nil
}

func decodeFeed(body []byte) ([]rawItem, error) {
	switch gofeed.DetectFeedType(bytes.NewReader(body)) {
	case gofeed.FeedTypeRSS:
		return decodeRSS(body)
	case gofeed.FeedTypeAtom:
		return decodeAtom(body)
	default:
		return nil, fmt.Errorf("%w: not an rss or atom document", ErrContentType)
	}
}

func decodeRSS(body []byte) ([]rawItem, error) {
	fp := &gorss.Parser{}
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse rss: %w", err)
	}

	raws := make([]rawItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		raw := rawItem{
			title:       item.Title,
			link:        item.Link,
			description: item.Description,
			pubDate:     item.PubDate,
			published:   item.PubDateParsed,
		}
		if raw.description == "" {
			raw.description = item.Content
		}
		if raw.link == "" && item.GUID != nil && strings.HasPrefix(item.GUID.Value, "http") {
			raw.link = item.GUID.Value
		}
		if item.Source != nil {
			raw.source = strings.TrimSpace(item.Source.Title)
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

func decodeAtom(body []byte) ([]rawItem, error) {
	fp := &atom.Parser{}
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse atom: %w", err)
	}

	raws := make([]rawItem, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if entry == nil {
			continue
		}
		raw := rawItem{
			title:       entry.Title,
			link:        atomLink(entry.Links),
			description: entry.Summary,
			pubDate:     entry.Published,
			published:   entry.PublishedParsed,
		}
		if raw.description == "" && entry.Content != nil {
			raw.description = entry.Content.Value
		}
		if raw.published == nil {
			raw.pubDate = entry.Updated
			raw.published = entry.UpdatedParsed
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

func atomLink(links []*atom.Link) string {
	for _, l := range links {
		if l != nil && (l.Rel == "" || l.Rel == "alternate") && l.Href != "" {
			return l.Href
		}
	}
	for _, l := range links {
		if l != nil && l.Href != "" {
			return l.Href
		}
	}
	return ""
}

// normalize cleans raw entries, drops those without a title or link, and scores the rest.
func normalize(raws []rawItem, source string, category types.Category, limit int, now time.Time) []types.NewsItem {
	items := make([]types.NewsItem, 0, min(len(raws), max(limit, 0)))
	for i, raw := range raws {
		if limit > 0 && len(items) >= limit {
			break
		}
		title := CleanText(raw.title)
		link := strings.TrimSpace(CleanText(raw.link))
		if title == "" || link == "" {
			continue
		}

		ts := now
		if raw.published != nil && !raw.published.IsZero() {
			ts = *raw.published
		} else if parsed, ok := parseDate(raw.pubDate); ok {
			ts = parsed
		}

		outlet := source
		if raw.source != "" {
			outlet = CleanText(raw.source)
		}

		item := types.NewsItem{
			ID:          NewsID(source, link, i),
			Title:       title,
			Link:        link,
			Description: truncate(CleanText(raw.description), MaxDescriptionLen),
			PubDate:     strings.TrimSpace(raw.pubDate),
			Timestamp:   ts.UnixMilli(),
			Source:      outlet,
			Category:    category,
		}
		keywords.Annotate(&item, now)
		items = append(items, item)
	}
	return items
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
	gdeltDateLayout,
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
