// Package deduplication collapses repeated stories within a scrape cycle and ranks what remains.
package deduplication

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	"situationmonitor/types"
)

const (
	// TitleKeyLength is the prefix, in runes, of the normalized title used as the dedup key.
	TitleKeyLength = 50

	// MaxCacheItems caps a category in the server-side aggregate cache.
	MaxCacheItems = 50
	// MaxCategoryItems caps a client-facing category fetch.
	MaxCategoryItems = 15
)

// TitleKey is the lowercased, whitespace-collapsed title cut to TitleKeyLength runes.
// Near-duplicates with different leading text get different keys.
func TitleKey(title string) string {
	norm := normalizeTitle(title)
	runes := []rune(norm)
	if len(runes) > TitleKeyLength {
		return string(runes[:TitleKeyLength])
	}
	return norm
}

// ByTitle drops items whose TitleKey was already seen. First occurrence wins and order
// is preserved, so applying it twice changes nothing.
func ByTitle(items []types.NewsItem) []types.NewsItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]types.NewsItem, 0, len(items))
	for _, item := range items {
		key := TitleKey(item.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Rank orders items by relevance, newest first on ties, and keeps at most limit.
// A limit of zero or less keeps everything. The input slice is not modified.
func Rank(items []types.NewsItem, limit int) []types.NewsItem {
	out := make([]types.NewsItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RelevanceScore != out[j].RelevanceScore {
			return out[i].RelevanceScore > out[j].RelevanceScore
		}
		return out[i].Timestamp > out[j].Timestamp
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Process is ByTitle followed by Rank.
func Process(items []types.NewsItem, limit int) []types.NewsItem {
	return Rank(ByTitle(items), limit)
}

// ItemKey identifies a story across scrape cycles, unlike NewsItem.ID which embeds the
// item's position in its fetch. It hashes the normalized URL and title.
func ItemKey(item types.NewsItem) string {
	combined := normalizeURL(item.Link) + "|" + normalizeTitle(item.Title)
	h := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(h[:16])
}

func normalizeTitle(t string) string {
	t = strings.TrimSpace(t)
	t = strings.ToLower(t)
	// collapse multiple whitespace
	fields := strings.Fields(t)
	return strings.Join(fields, " ")
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	// Drop tracking parameters
	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || lk == "fbclid" || lk == "gclid" {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()

	return strings.TrimRight(u.String(), "/")
}
