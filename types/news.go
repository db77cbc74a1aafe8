package types

import (
	"errors"
	"strings"
	"time"
)

// Category partitions aggregation and caching.
type Category string

const (
	CategoryPolitics Category = "politics"
	CategoryTech     Category = "tech"
	CategoryFinance  Category = "finance"
	CategoryGov      Category = "gov"
	CategoryAI       Category = "ai"
	CategoryIntel    Category = "intel"
	// CategoryRealtime is produced by breaking-news sources and stored under politics.
	CategoryRealtime Category = "realtime"
)

// Categories lists the storage categories in display order.
var Categories = []Category{
	CategoryPolitics,
	CategoryTech,
	CategoryFinance,
	CategoryGov,
	CategoryAI,
	CategoryIntel,
}

var ErrUnknownCategory = errors.New("unknown category")

// ParseCategory accepts any storage category plus realtime.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == CategoryRealtime || c.Valid() {
		return c, nil
	}
	return "", ErrUnknownCategory
}

// Valid reports whether c is one of the storage categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Storage returns the category an item is cached under.
func (c Category) Storage() Category {
	if c == CategoryRealtime {
		return CategoryPolitics
	}
	return c
}

// NewsItem is a normalized article produced by a feed fetcher
type NewsItem struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Link           string   `json:"link"`
	Description    string   `json:"description,omitempty"`
	PubDate        string   `json:"pubDate,omitempty"`
	Timestamp      int64    `json:"timestamp"`
	Source         string   `json:"source"`
	Category       Category `json:"category"`
	IsAlert        bool     `json:"isAlert"`
	AlertKeyword   string   `json:"alertKeyword,omitempty"`
	Region         string   `json:"region,omitempty"`
	Topics         []string `json:"topics,omitempty"`
	RelevanceScore int      `json:"relevanceScore"`
}

// Time returns the item's canonical timestamp.
func (n NewsItem) Time() time.Time {
	return time.UnixMilli(n.Timestamp)
}

// CacheEntry is the stored snapshot for one category
type CacheEntry struct {
	Items       []NewsItem `json:"items"`
	LastUpdated int64      `json:"lastUpdated"`
}

// FeedResult is the outcome of a single source fetch within a scrape cycle
type FeedResult struct {
	Source   string        `json:"source"`
	Category Category      `json:"category"`
	Items    []NewsItem    `json:"items"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}
