package rssfeeds

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MaxDescriptionLen bounds NewsItem.Description, in runes.
	MaxDescriptionLen = 200

	DefaultTimeout = 12 * time.Second
	MinTimeout     = 10 * time.Second
	MaxTimeout     = 15 * time.Second

	maxBodyBytes = 5 << 20
	userAgent    = "situationmonitor/1.0 (+https://github.com/situationmonitor)"
)

var (
	ErrStatus      = errors.New("unexpected response status")
	ErrContentType = errors.New("unexpected content type")
)

// HashString is a 32-bit rolling multiply-add hash of s, rendered in base 36.
// It only needs to be unique within a batch.
func HashString(s string) string {
	var h uint32
	for _, r := range s {
		h = h*31 + uint32(r)
	}
	v := int64(int32(h))
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

// NewsID derives an item id from its source, link and position in the fetch.
func NewsID(source, link string, index int) string {
	return HashString(source) + "-" + HashString(link) + "-" + strconv.Itoa(index)
}

// CleanText decodes entities, drops markup and collapses whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = unwrapCDATA(s)
	if strings.Contains(s, "<") {
		s = StripHTML(s)
	}
	// A second pass catches double-encoded entities such as &amp;quot;
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

func unwrapCDATA(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "<![CDATA[") && strings.HasSuffix(t, "]]>") {
		return t[len("<![CDATA[") : len(t)-len("]]>")]
	}
	return s
}

// StripHTML returns the text content of an HTML fragment.
func StripHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return strings.TrimSpace(string(runes[:n-3])) + "..."
}

// ClampTimeout keeps feed timeouts within 10 to 15 seconds.
func ClampTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return max(MinTimeout, min(d, MaxTimeout))
}

// getBody performs a bounded GET and returns the body and its content type.
func getBody(ctx context.Context, client *http.Client, url, accept string, timeout time.Duration) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
