package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"situationmonitor/shared/kafka"
	"situationmonitor/types"
)

func alertsCommand() *cobra.Command {
	var (
		group      string
		fromOldest bool
	)

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Tail significance alerts from the Kafka alert topic",
		Long: `alerts joins a consumer group on KAFKA_ALERT_TOPIC and prints each alert
as one JSON line until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if len(cfg.KafkaBrokers) == 0 {
				return errors.New("KAFKA_BROKERS is not set")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
				Brokers:    cfg.KafkaBrokers,
				Topic:      cfg.KafkaAlertTopic,
				GroupID:    group,
				FromOldest: fromOldest,
				Handler:    alertPrinter(cmd.OutOrStdout(), logger),
			}, logger.Named("kafka"))
			if err != nil {
				return err
			}
			defer consumer.Close()

			return consumer.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&group, "group", "situationmonitor-alerts", "consumer group id")
	cmd.Flags().BoolVar(&fromOldest, "from-oldest", false, "replay retained alerts")
	return cmd
}

// alertPrinter writes every valid alert as a JSON line. Malformed messages are committed
// so one bad record cannot stall the group.
func alertPrinter(w io.Writer, logger *zap.Logger) *kafka.TypedMessageHandler[types.Alert] {
	enc := json.NewEncoder(w)
	return &kafka.TypedMessageHandler[types.Alert]{
		Validate: func(a *types.Alert) bool {
			if a.Title == "" {
				logger.Warn("skipping alert without title", zap.String("id", a.ID))
				return false
			}
			return true
		},
		Process: func(_ context.Context, a *types.Alert) error {
			if err := enc.Encode(a); err != nil {
				return fmt.Errorf("write alert: %w", err)
			}
			return nil
		},
		AlwaysMark: true,
	}
}
