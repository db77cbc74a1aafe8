package rssfeeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"situationmonitor/shared/rss"
	"situationmonitor/types"
)

const sampleGoogleNews = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>"ai" - Google News</title>
<item>
  <title>OpenAI ships new model - Reuters</title>
  <link>https://news.google.com/rss/articles/abc</link>
  <pubDate>Sun, 01 Mar 2026 08:00:00 GMT</pubDate>
  <description>&lt;ol&gt;&lt;li&gt;&lt;a href="x"&gt;related&lt;/a&gt;&lt;/li&gt;&lt;/ol&gt;</description>
  <source url="https://www.reuters.com">Reuters</source>
</item>
<item>
  <title>Chip exports - a long road - Tech Daily</title>
  <link>https://news.google.com/rss/articles/def</link>
</item>
</channel></rss>`

func TestParseGoogleNews(t *testing.T) {
	items, err := ParseGoogleNews([]byte(sampleGoogleNews), "AI News", types.CategoryAI, 10, fixedNow)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "OpenAI ships new model", items[0].Title)
	assert.Equal(t, "Reuters", items[0].Source)
	assert.Empty(t, items[0].Description)
	assert.Equal(t, []string{"ai"}, items[0].Topics)

	assert.Equal(t, "Chip exports - a long road - Tech Daily", items[1].Title, "suffix kept without a source element")
	assert.Equal(t, "AI News", items[1].Source)
}

func TestGoogleNewsFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("q"), "artificial intelligence")
		assert.Equal(t, "US:en", r.URL.Query().Get("ceid"))
		_, _ = w.Write([]byte(sampleGoogleNews))
	}))
	defer srv.Close()

	f, err := New(rss.FeedConfig{
		Name:     "AI News",
		Kind:     rss.KindGoogleNews,
		Category: types.CategoryAI,
		Query:    "artificial intelligence",
	}, Options{GoogleNewsBaseURL: srv.URL, Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	assert.Equal(t, "AI News", f.Name())
	assert.Equal(t, types.CategoryAI, f.Category())

	items, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []rss.FeedConfig{
		{Name: "", Kind: rss.KindRSS, Category: types.CategoryTech, URL: "https://x"},
		{Name: "a", Kind: rss.KindRSS, Category: types.CategoryTech},
		{Name: "b", Kind: rss.KindGDELT, Category: types.CategoryTech},
		{Name: "c", Kind: "carrier-pigeon", Category: types.CategoryTech, URL: "https://x"},
		{Name: "d", Kind: rss.KindRSS, Category: "sports", URL: "https://x"},
	}
	for _, cfg := range tests {
		_, err := New(cfg, Options{})
		assert.Error(t, err, cfg.Name)
	}
}

func TestNewAll_Presets(t *testing.T) {
	fetchers, err := NewAll(rss.FeedPresets, Options{})
	require.NoError(t, err)
	assert.Len(t, fetchers, len(rss.FeedPresets))
}
