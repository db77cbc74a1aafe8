// Package keywords holds the static keyword tables used to flag, tag and rank headlines.
package keywords

import (
	"sort"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Keywords longer than this match anywhere in the text, so "nuclear" hits
// "thermonuclear". Shorter ones must stand as a whole word, so "ai" skips "aid".
const shortKeywordLen = 3

// matcher finds keywords from a fixed list in a single pass over the text.
type matcher struct {
	mu       sync.Mutex // ahocorasick.Matcher keeps per-call state
	keywords []string
	ac       *ahocorasick.Matcher
}

func newMatcher(keywords []string) *matcher {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		normalized = append(normalized, kw)
	}
	return &matcher{
		keywords: normalized,
		ac:       ahocorasick.NewStringMatcher(normalized),
	}
}

// matches returns the list indexes of every keyword present in text, ascending.
func (m *matcher) matches(text string) []int {
	if len(m.keywords) == 0 || text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	m.mu.Lock()
	hits := m.ac.Match([]byte(lower))
	m.mu.Unlock()

	out := make([]int, 0, len(hits))
	for _, idx := range hits {
		if idx < 0 || idx >= len(m.keywords) {
			continue
		}
		kw := m.keywords[idx]
		if !containsWord(lower, kw, len(kw) <= shortKeywordLen) {
			continue
		}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// first returns the lowest-indexed keyword present in text.
func (m *matcher) first(text string) (int, bool) {
	hits := m.matches(text)
	if len(hits) == 0 {
		return 0, false
	}
	return hits[0], true
}

func containsWord(text, word string, wholeWord bool) bool {
	start := 0
	for start <= len(text)-len(word) {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return false
		}
		i += start
		if !wholeWord || (!isWordByte(text, i-1) && !isWordByte(text, i+len(word))) {
			return true
		}
		start = i + 1
	}
	return false
}

func isWordByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')
}
