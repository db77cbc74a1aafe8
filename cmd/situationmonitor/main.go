// Command situationmonitor serves aggregated geopolitical news, market and dataset
// snapshots, and AI significance scores.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"situationmonitor/common"
	"situationmonitor/config"
)

var (
	logLevel  string
	feedsFile string
)

var rootCmd = &cobra.Command{
	Use:   "situationmonitor",
	Short: "Geopolitical situation monitor backend",
	Long: `situationmonitor scrapes news feeds into a per-category cache, scores
significant headlines with an AI provider and serves everything over HTTP.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&feedsFile, "feeds", "", "override FEEDS_FILE")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(scrapeCommand())
	rootCmd.AddCommand(alertsCommand())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntime reads configuration, applies flag overrides and builds the logger.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if feedsFile != "" {
		cfg.FeedsFile = feedsFile
	}
	logger, err := common.NewLogger(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
