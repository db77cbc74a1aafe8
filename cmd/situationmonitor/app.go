package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"situationmonitor/analysis"
	"situationmonitor/cache"
	"situationmonitor/common"
	"situationmonitor/config"
	"situationmonitor/datasets"
	"situationmonitor/deduplication"
	"situationmonitor/markets"
	"situationmonitor/metrics"
	"situationmonitor/orchestrator"
	"situationmonitor/rssfeeds"
	"situationmonitor/scheduler"
	"situationmonitor/shared/kafka"
	"situationmonitor/types"
)

// gdeltSpacing keeps the GDELT doc API under its per-IP request rate.
const gdeltSpacing = 5 * time.Second

// app holds every long-lived component of the service.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	store     *cache.Store
	orch      *orchestrator.Orchestrator
	analyzer  *analysis.Cache
	notifier  *analysis.Notifier
	scheduler *scheduler.Scheduler
	markets   *markets.Service
	datasets  *datasets.Service

	closers []func() error
}

// newApp wires components from cfg. Optional backends (Redis, S3, Kafka, AI) are only
// built when configured; a configured backend that cannot be reached is an error.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) build(ctx context.Context) error {
	cfg := a.cfg

	sources, err := config.LoadSources(cfg.FeedsFile)
	if err != nil {
		return err
	}
	fetchers, err := rssfeeds.NewAll(sources, rssfeeds.Options{
		HTTPClient:   &http.Client{},
		Timeout:      cfg.FeedTimeout,
		GDELTLimiter: rssfeeds.NewGDELTLimiter(gdeltSpacing),
	})
	if err != nil {
		return fmt.Errorf("build fetchers: %w", err)
	}

	storeOpts := []cache.Option{cache.WithLogger(a.logger.Named("cache"))}
	var seen deduplication.SeenStore
	if cfg.RedisAddr != "" {
		rdb, err := a.connectRedis(ctx)
		if err != nil {
			return err
		}
		storeOpts = append(storeOpts, cache.WithMirror(cache.NewRedisMirror(rdb, "", 3*cfg.RefreshInterval)))
		seen = deduplication.NewRedisSeenWithClient(rdb, "", 24*time.Hour)
	}
	a.store = cache.NewStore(storeOpts...)
	if n, err := a.store.Warm(ctx); err != nil {
		a.logger.Warn("cache warm from redis failed", zap.Error(err))
	} else if n > 0 {
		a.logger.Info("cache warmed from redis", zap.Int("categories", n))
	}

	var archiver orchestrator.Archiver
	if cfg.S3Bucket != "" {
		s3c, err := common.NewS3(ctx, common.S3Config{
			Region:       cfg.S3Region,
			Profile:      cfg.S3Profile,
			Endpoint:     cfg.S3Endpoint,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			return fmt.Errorf("s3 client: %w", err)
		}
		arc, err := orchestrator.NewS3Archiver(s3c, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return err
		}
		archiver = arc
		a.logger.Info("snapshot archive enabled", zap.String("bucket", cfg.S3Bucket), zap.String("prefix", cfg.S3Prefix))
	}

	a.orch, err = orchestrator.New(orchestrator.Config{
		Fetchers:    fetchers,
		Store:       a.store,
		Archiver:    archiver,
		Metrics:     a.metrics,
		Logger:      a.logger.Named("orchestrator"),
		Concurrency: cfg.FetchConcurrency,
	})
	if err != nil {
		return err
	}

	var provider analysis.Provider
	if cfg.AIAPIKey == "" {
		a.logger.Warn("no AI API key configured, headlines get neutral significance")
	} else {
		provider, err = analysis.NewProvider(analysis.ProviderConfig{
			Name:    cfg.AIProvider,
			APIKey:  cfg.AIAPIKey,
			Model:   cfg.AIModel,
			BaseURL: cfg.AIBaseURL,
		})
		if err != nil {
			return err
		}
	}
	a.analyzer = analysis.NewCache(provider,
		analysis.WithMetrics(a.metrics),
		analysis.WithCacheLogger(a.logger.Named("ai")))

	sink := analysis.MultiSink{analysis.NewLogSink(a.logger.Named("alerts"))}
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := kafka.NewPublisher(kafka.ProducerConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaAlertTopic,
			ClientID: "situationmonitor",
		}, a.logger.Named("kafka"))
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pub.Close)
		sink = append(sink, analysis.NewKafkaAlertSink(pub))
	}
	a.notifier = analysis.NewNotifier(analysis.NotifierConfig{
		Analyzer:  a.analyzer,
		Seen:      seen,
		Sink:      sink,
		Threshold: cfg.AlertThreshold,
		Metrics:   a.metrics,
		Logger:    a.logger.Named("notifier"),
	})

	a.scheduler = scheduler.New(a.scrapeCycle, cfg.RefreshInterval,
		scheduler.WithLogger(a.logger.Named("scheduler")))

	mcfg := markets.DefaultConfig(nil)
	mcfg.Metrics = a.metrics
	mcfg.Logger = a.logger.Named("markets")
	a.markets = markets.NewService(mcfg)

	dcfg := datasets.DefaultConfig(nil, cfg.LayoffsURL, cfg.WhalesURL)
	dcfg.Metrics = a.metrics
	dcfg.Logger = a.logger.Named("datasets")
	a.datasets = datasets.NewService(dcfg)
	return nil
}

func (a *app) connectRedis(ctx context.Context) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", a.cfg.RedisAddr, err)
	}
	a.closers = append(a.closers, rdb.Close)
	return rdb, nil
}

// scrapeCycle refreshes the news cache, then runs keyword-flagged items through the
// significance notifier. Notifier failures are logged and do not fail the cycle.
func (a *app) scrapeCycle(ctx context.Context) error {
	if _, err := a.orch.RunOnce(ctx); err != nil {
		return err
	}

	var flagged []types.NewsItem
	for _, item := range a.store.GetAll() {
		if item.IsAlert {
			flagged = append(flagged, item)
		}
	}
	if len(flagged) == 0 {
		return nil
	}
	alerts, err := a.notifier.Process(ctx, flagged)
	if err != nil {
		a.logger.Warn("alert analysis failed", zap.Error(err))
		return nil
	}
	if len(alerts) > 0 {
		a.logger.Info("alerts emitted", zap.Int("count", len(alerts)))
	}
	return nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
