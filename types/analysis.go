package types

import "time"

// AnalysisEntry is a memoized significance score for one headline.
type AnalysisEntry struct {
	HeadlineKey  string    `json:"headlineKey"`
	Significance int       `json:"significance"`
	Summary      string    `json:"summary"`
	Timestamp    time.Time `json:"timestamp"`
}

// AnalysisResult is returned to callers in the order headlines were submitted.
type AnalysisResult struct {
	Significance int    `json:"significance"`
	Summary      string `json:"summary"`
	Cached       bool   `json:"cached"`
}

// Alert is emitted for headlines the model rates as highly significant.
type Alert struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Link         string    `json:"link"`
	Source       string    `json:"source"`
	Category     Category  `json:"category"`
	Significance int       `json:"significance"`
	Summary      string    `json:"summary"`
	DetectedAt   time.Time `json:"detectedAt"`
}
