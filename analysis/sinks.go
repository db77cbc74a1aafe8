package analysis

import (
	"context"

	"go.uber.org/zap"

	"situationmonitor/types"
)

// LogSink writes alerts to the structured log.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(_ context.Context, a types.Alert) error {
	s.logger.Info("significant headline",
		zap.String("id", a.ID),
		zap.String("title", a.Title),
		zap.String("source", a.Source),
		zap.String("category", string(a.Category)),
		zap.Int("significance", a.Significance),
		zap.String("summary", a.Summary))
	return nil
}

// Publisher is satisfied by kafka.Publisher.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// KafkaAlertSink publishes alerts as JSON keyed by item id.
type KafkaAlertSink struct {
	publisher Publisher
}

func NewKafkaAlertSink(p Publisher) *KafkaAlertSink {
	return &KafkaAlertSink{publisher: p}
}

func (s *KafkaAlertSink) Send(ctx context.Context, a types.Alert) error {
	return s.publisher.Publish(ctx, a.ID, a)
}

// MultiSink fans an alert out to every sink and returns the first error.
type MultiSink []AlertSink

func (m MultiSink) Send(ctx context.Context, a types.Alert) error {
	var first error
	for _, s := range m {
		if err := s.Send(ctx, a); err != nil && first == nil {
			first = err
		}
	}
	return first
}
