package keywords

import (
	"time"

	"situationmonitor/types"
)

const (
	baseScore           = 50
	prioritySourceBonus = 20
	alertBonus          = 15
	regionBonus         = 10
	perTopicBonus       = 5
	maxTopicBonus       = 15
	clickbaitPenalty    = 20

	minScore = 0
	maxScore = 100
)

// CalculateRelevanceScore sums independent ranking signals for item and clamps to [0, 100].
func CalculateRelevanceScore(item types.NewsItem, now time.Time) int {
	score := baseScore

	if IsPrioritySource(item.Source, item.Link) {
		score += prioritySourceBonus
	}
	if _, ok := ContainsAlertKeyword(item.Title); ok {
		score += alertBonus
	}
	score += RecencyBonus(now.Sub(item.Time()))
	if DetectRegion(item.Title) != "" {
		score += regionBonus
	}
	score += min(perTopicBonus*len(DetectTopics(item.Title)), maxTopicBonus)
	if IsClickbait(item.Title) {
		score -= clickbaitPenalty
	}

	return max(minScore, min(score, maxScore))
}

// RecencyBonus rewards fresh items: under 6h +15, under 24h +10, under 48h +5.
func RecencyBonus(age time.Duration) int {
	switch {
	case age < 6*time.Hour:
		return 15
	case age < 24*time.Hour:
		return 10
	case age < 48*time.Hour:
		return 5
	default:
		return 0
	}
}
