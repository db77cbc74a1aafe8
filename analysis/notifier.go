package analysis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"situationmonitor/deduplication"
	"situationmonitor/metrics"
	"situationmonitor/types"
)

const DefaultAlertThreshold = 8

// Analyzer is the part of Cache the notifier depends on.
type Analyzer interface {
	Analyze(ctx context.Context, headlines []string) ([]types.AnalysisResult, error)
}

// AlertSink delivers alerts somewhere a human will see them.
type AlertSink interface {
	Send(ctx context.Context, alert types.Alert) error
}

// Notifier submits each story for analysis once and raises alerts for high scores.
type Notifier struct {
	analyzer  Analyzer
	seen      deduplication.SeenStore
	sink      AlertSink
	threshold int
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

type NotifierConfig struct {
	Analyzer  Analyzer
	Seen      deduplication.SeenStore
	Sink      AlertSink
	Threshold int
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

func NewNotifier(cfg NotifierConfig) *Notifier {
	if cfg.Seen == nil {
		cfg.Seen = deduplication.NewMemorySeen(0, 0)
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultAlertThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Sink == nil {
		cfg.Sink = NewLogSink(cfg.Logger)
	}
	return &Notifier{
		analyzer:  cfg.Analyzer,
		seen:      cfg.Seen,
		sink:      cfg.Sink,
		threshold: cfg.Threshold,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// Process marks unseen items as seen, analyzes them and sends an alert for every result at
// or above the threshold. Items are marked before analysis so a concurrent call cannot
// submit them twice; a failed analysis is therefore not retried.
func (n *Notifier) Process(ctx context.Context, items []types.NewsItem) ([]types.Alert, error) {
	var fresh []types.NewsItem
	for _, item := range items {
		isNew, err := n.seen.MarkSeen(ctx, deduplication.ItemKey(item))
		if err != nil {
			n.logger.Warn("seen store unavailable, skipping item", zap.String("id", item.ID), zap.Error(err))
			continue
		}
		if isNew {
			fresh = append(fresh, item)
		}
	}
	if len(fresh) == 0 || n.analyzer == nil {
		return nil, nil
	}

	headlines := make([]string, len(fresh))
	for i, item := range fresh {
		headlines[i] = item.Title
	}
	results, err := n.analyzer.Analyze(ctx, headlines)
	if err != nil {
		return nil, err
	}

	var alerts []types.Alert
	for i, r := range results {
		if r.Significance < n.threshold {
			continue
		}
		item := fresh[i]
		alert := types.Alert{
			ID:           item.ID,
			Title:        item.Title,
			Link:         item.Link,
			Source:       item.Source,
			Category:     item.Category,
			Significance: r.Significance,
			Summary:      r.Summary,
			DetectedAt:   n.now().UTC(),
		}
		if err := n.sink.Send(ctx, alert); err != nil {
			n.logger.Warn("alert delivery failed", zap.String("id", alert.ID), zap.Error(err))
			continue
		}
		n.metrics.AlertEmitted()
		alerts = append(alerts, alert)
	}
	return alerts, nil
}
