package keywords

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"situationmonitor/types"
)

var (
	alertMatcher  = newMatcher(AlertKeywords)
	regionMatcher = newMatcher(regionKeywords())
	topicMatcher  = newMatcher(topicKeywords())

	prioritySourceSet = toSet(PrioritySources)
	clickbaitRes      = compileAll(ClickbaitPatterns)
)

// ContainsAlertKeyword reports the first alert keyword found in text.
func ContainsAlertKeyword(text string) (string, bool) {
	idx, ok := alertMatcher.first(text)
	if !ok {
		return "", false
	}
	return alertMatcher.keywords[idx], true
}

// DetectRegion returns the region of the first gazetteer entry found in text, or "".
func DetectRegion(text string) string {
	idx, ok := regionMatcher.first(text)
	if !ok {
		return ""
	}
	return Regions[idx].Region
}

// DetectTopics returns every topic tag matched in text, each once, in table order.
func DetectTopics(text string) []string {
	hits := topicMatcher.matches(text)
	if len(hits) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(hits))
	topics := make([]string, 0, len(hits))
	for _, idx := range hits {
		topic := Topics[idx].Topic
		if seen[topic] {
			continue
		}
		seen[topic] = true
		topics = append(topics, topic)
	}
	return topics
}

// IsClickbait reports whether the title matches a clickbait phrase.
func IsClickbait(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, re := range clickbaitRes {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// IsPrioritySource checks the outlet name and the link's host against the priority lists.
func IsPrioritySource(source, link string) bool {
	if prioritySourceSet[strings.ToLower(strings.TrimSpace(source))] {
		return true
	}
	host := linkHost(link)
	if host == "" {
		return false
	}
	for _, domain := range PriorityDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// Annotate fills the keyword-derived fields of item and computes its relevance score.
func Annotate(item *types.NewsItem, now time.Time) {
	item.AlertKeyword, item.IsAlert = ContainsAlertKeyword(item.Title)
	item.Region = DetectRegion(item.Title)
	item.Topics = DetectTopics(item.Title)
	item.RelevanceScore = CalculateRelevanceScore(*item, now)
}

func regionKeywords() []string {
	out := make([]string, len(Regions))
	for i, r := range Regions {
		out[i] = r.Keyword
	}
	return out
}

func topicKeywords() []string {
	out := make([]string, len(Topics))
	for i, t := range Topics {
		out[i] = t.Keyword
	}
	return out
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func linkHost(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
