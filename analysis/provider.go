// Package analysis scores headline significance through an LLM, memoizing results per headline.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	MinSignificance     = 1
	MaxSignificance     = 10
	NeutralSignificance = 5
)

var ErrEmptyBatch = errors.New("analysis: empty headline batch")

// Scored is one headline's provider result.
type Scored struct {
	Significance int
	Summary      string
}

// Provider scores a batch of headlines in one call. Results must line up with headlines.
type Provider interface {
	Analyze(ctx context.Context, headlines []string) ([]Scored, error)
	Name() string
}

// ProviderConfig selects and configures a Provider.
type ProviderConfig struct {
	Name    string // "cohere" or "openrouter"
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewProvider builds the configured provider. An empty key is an error; callers run
// without AI in that case.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("AI not configured: missing API key")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = BatchTimeout
	}
	client := &http.Client{Timeout: cfg.Timeout}

	switch strings.ToLower(cfg.Name) {
	case "", "cohere":
		return NewCohereProvider(cfg.APIKey, cfg.Model, client), nil
	case "openrouter":
		return NewOpenRouterProvider(cfg.APIKey, cfg.Model, cfg.BaseURL, client), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q (valid: cohere, openrouter)", cfg.Name)
	}
}

const batchPrompt = `You are a geopolitical analyst. Rate the global significance of each headline below on a scale of 1-10 (10 = major world event) and summarize it in one sentence.

Respond with exactly one line per headline, in the same order, formatted EXACTLY like this:
1. SCORE|SUMMARY

Headlines:
%s`

// BuildBatchPrompt numbers headlines from 1 in submission order.
func BuildBatchPrompt(headlines []string) string {
	var sb strings.Builder
	for i, h := range headlines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, strings.TrimSpace(h))
	}
	return fmt.Sprintf(batchPrompt, sb.String())
}

var batchLine = regexp.MustCompile(`^\s*(\d+)[.)]\s*(\d+)(?:\s*/\s*10)?\s*\|\s*(.*)$`)

// ParseBatchResponse maps "N. SCORE|SUMMARY" lines back onto n slots. Missing or
// malformed slots get the neutral score, and scores are clamped to 1-10.
func ParseBatchResponse(text string, n int) []Scored {
	out := make([]Scored, n)
	filled := make([]bool, n)
	for _, line := range strings.Split(text, "\n") {
		m := batchLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > n || filled[idx-1] {
			continue
		}
		score, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		out[idx-1] = Scored{Significance: clampSignificance(score), Summary: strings.TrimSpace(m[3])}
		filled[idx-1] = true
	}
	for i := range out {
		if !filled[i] {
			out[i] = Scored{Significance: NeutralSignificance}
		}
	}
	return out
}

func clampSignificance(v int) int {
	if v < MinSignificance {
		return MinSignificance
	}
	if v > MaxSignificance {
		return MaxSignificance
	}
	return v
}
