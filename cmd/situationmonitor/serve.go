package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"situationmonitor/api"
)

const shutdownTimeout = 15 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background scraper",
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

			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if !a.cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Store:     a.store,
		Refresher: a.scheduler,
		Scheduler: a.scheduler,
		Markets:   a.markets,
		Data:      a.datasets,
		Analyzer:  a.analyzer,
		Gatherer:  a.registry,
		Logger:    a.logger.Named("http"),
	})

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.cfg.BackgroundScrape {
		a.scheduler.Start(ctx)
	} else {
		a.logger.Info("background scraping disabled, cache fills on POST /news or ?refresh=true")
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting API server",
			zap.String("addr", srv.Addr),
			zap.Duration("refresh_interval", a.cfg.RefreshInterval),
			zap.Bool("background_scraping", a.cfg.BackgroundScrape))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		a.scheduler.Stop()
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	a.scheduler.Stop()
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
