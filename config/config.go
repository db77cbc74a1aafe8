// Package config loads process configuration from the environment and an optional
// feeds file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"situationmonitor/shared/rss"
)

const (
	DefaultPort            = "8080"
	DefaultRefreshInterval = 300000 * time.Millisecond
	DefaultFeedTimeout     = 12 * time.Second
	DefaultAlertTopic      = "situation-alerts"
	DefaultAlertThreshold  = 8
)

type Config struct {
	Port     string
	LogLevel string
	LogDev   bool

	// Scheduler
	RefreshInterval  time.Duration
	BackgroundScrape bool
	FeedTimeout      time.Duration
	FeedsFile        string
	FetchConcurrency int

	// AI
	AIProvider     string
	AIAPIKey       string
	AIModel        string
	AIBaseURL      string
	AlertThreshold int

	// Redis mirror and seen set
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka alert sink
	KafkaBrokers    []string
	KafkaAlertTopic string

	// S3 snapshot archive
	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3Profile      string
	S3Endpoint     string
	S3UsePathStyle bool

	// Dataset endpoints without a public default
	LayoffsURL string
	WhalesURL  string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", DefaultPort),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogDev:           getEnvBool("LOG_DEV", false),
		RefreshInterval:  getEnvMillis("NEWS_REFRESH_INTERVAL", DefaultRefreshInterval),
		BackgroundScrape: getEnvBool("ENABLE_BACKGROUND_SCRAPING", true),
		FeedTimeout:      getEnvMillis("FEED_TIMEOUT_MS", DefaultFeedTimeout),
		FeedsFile:        strings.TrimSpace(os.Getenv("FEEDS_FILE")),
		FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 8),

		AIProvider:     strings.ToLower(getEnv("AI_PROVIDER", "cohere")),
		AIModel:        os.Getenv("AI_MODEL"),
		AIBaseURL:      os.Getenv("AI_BASE_URL"),
		AlertThreshold: getEnvInt("ALERT_THRESHOLD", DefaultAlertThreshold),

		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaAlertTopic: getEnv("KAFKA_ALERT_TOPIC", DefaultAlertTopic),

		S3Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Prefix:       getEnv("S3_PREFIX", "situationmonitor"),
		S3Region:       firstEnv("AWS_REGION", "S3_REGION"),
		S3Profile:      firstEnv("AWS_PROFILE", "S3_PROFILE"),
		S3Endpoint:     strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", false),

		LayoffsURL: os.Getenv("LAYOFFS_URL"),
		WhalesURL:  os.Getenv("WHALES_URL"),
	}

	cfg.AIAPIKey = os.Getenv("AI_API_KEY")
	if cfg.AIAPIKey == "" {
		switch cfg.AIProvider {
		case "openrouter":
			cfg.AIAPIKey = os.Getenv("OPENROUTER_API_KEY")
		default:
			cfg.AIAPIKey = os.Getenv("COHERE_API_KEY")
		}
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.RefreshInterval < time.Second {
		return fmt.Errorf("NEWS_REFRESH_INTERVAL must be at least 1000ms, got %s", c.RefreshInterval)
	}
	if c.AIProvider != "cohere" && c.AIProvider != "openrouter" {
		return fmt.Errorf("AI_PROVIDER must be 'cohere' or 'openrouter'")
	}
	if c.AlertThreshold < 1 || c.AlertThreshold > 10 {
		return fmt.Errorf("ALERT_THRESHOLD must be between 1 and 10")
	}
	if c.FetchConcurrency <= 0 {
		return errors.New("FETCH_CONCURRENCY must be positive")
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// SourcesFile is the YAML layout of FEEDS_FILE:
//
//	sources:
//	  - name: BBC World
//	    kind: rss
//	    category: politics
//	    url: https://feeds.bbc.co.uk/news/world/rss.xml
type SourcesFile struct {
	Sources []rss.FeedConfig `yaml:"sources"`
}

// LoadSources returns the sources from path, or the built-in presets when path is empty.
// Every source is validated.
func LoadSources(path string) ([]rss.FeedConfig, error) {
	if path == "" {
		return DefaultSources(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feeds file: %w", err)
	}
	defer f.Close()

	var file SourcesFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode feeds file %s: %w", path, err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("feeds file %s lists no sources", path)
	}
	for _, src := range file.Sources {
		if err := src.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Sources, nil
}

// DefaultSources is a copy of the built-in source list.
func DefaultSources() []rss.FeedConfig {
	return append([]rss.FeedConfig(nil), rss.FeedPresets...)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvMillis reads an integer millisecond count, also accepting Go duration strings.
func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
