package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"situationmonitor/orchestrator"
	"situationmonitor/types"
)

func scrapeCommand() *cobra.Command {
	var analyze bool

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one scrape cycle and print per-category counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if analyze {
				if err := a.scheduler.RefreshNow(ctx); err != nil {
					return err
				}
				printCounts(cmd.OutOrStdout(), a.store.Snapshot(), nil)
				return nil
			}
			report, err := a.orch.RunOnce(ctx)
			if err != nil {
				return err
			}
			printCounts(cmd.OutOrStdout(), a.store.Snapshot(), &report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&analyze, "analyze", false, "also score alert headlines and emit alerts")
	return cmd
}

func printCounts(w io.Writer, snap map[types.Category]types.CacheEntry, report *orchestrator.CycleReport) {
	if report != nil {
		fmt.Fprintf(w, "cycle %s: %d sources, %d failed, %s\n",
			report.ID, report.Sources, len(report.Failed), report.Duration.Round(time.Millisecond))
		for _, name := range report.Failed {
			fmt.Fprintf(w, "  failed: %s\n", name)
		}
	}
	total := 0
	for _, c := range types.Categories {
		n := len(snap[c].Items)
		total += n
		fmt.Fprintf(w, "%-10s %4d\n", c, n)
	}
	fmt.Fprintf(w, "%-10s %4d\n", "total", total)
}
