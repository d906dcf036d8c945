package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Heartbeat policies for runs that produce no alerts.
const (
	HeartbeatDaily    = "daily"     // at most one fallback item per calendar day
	HeartbeatEveryRun = "every-run" // fallback item on every quiet run
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SourceURL    string
	FetchTimeout time.Duration

	PollInterval time.Duration
	RunOnce      bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	StatePath      string
	FeedPath       string
	ThresholdsPath string

	// Regions restricts evaluation to stations whose name carries one of
	// these province codes. Empty means every station in the threshold table.
	Regions []string

	HeartbeatPolicy string

	FeedTitle       string
	FeedDescription string

	// Kafka publishing configuration. Enabled by setting KAFKA_BROKERS;
	// KAFKA_ENABLED overrides either way.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parseDuration("POLL_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	brokers := splitList(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		SourceURL:    envOrDefault("SAIH_URL", "https://www.redhidrosurmedioambiente.es/saih/resumen/rios"),
		FetchTimeout: fetchTimeout,

		PollInterval: pollInterval,
		RunOnce:      os.Getenv("RUN_ONCE") == "true",

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StatePath:      envOrDefault("STATE_PATH", "state.json"),
		FeedPath:       envOrDefault("FEED_PATH", "rss.xml"),
		ThresholdsPath: envOrDefault("THRESHOLDS_PATH", "thresholds.yaml"),

		Regions: splitList(envOrDefault("REGIONS", "MA,CA")),

		HeartbeatPolicy: envOrDefault("HEARTBEAT_POLICY", HeartbeatDaily),

		FeedTitle:       envOrDefault("FEED_TITLE", "SAIH Hidrosur flood alerts"),
		FeedDescription: envOrDefault("FEED_DESC", "Automatic flood alerts when a gauge's mean level crosses alert level 1/2/3."),

		KafkaBrokers: brokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "river-alerts"),
		KafkaEnabled: kafkaEnabled,
	}

	if cfg.SourceURL == "" {
		return nil, errors.New("SAIH_URL is required")
	}
	if cfg.ThresholdsPath == "" {
		return nil, errors.New("THRESHOLDS_PATH is required")
	}
	if cfg.StatePath == "" {
		return nil, errors.New("STATE_PATH is required")
	}
	if cfg.FeedPath == "" {
		return nil, errors.New("FEED_PATH is required")
	}
	if cfg.HeartbeatPolicy != HeartbeatDaily && cfg.HeartbeatPolicy != HeartbeatEveryRun {
		return nil, fmt.Errorf("invalid HEARTBEAT_POLICY %q: want %q or %q", cfg.HeartbeatPolicy, HeartbeatDaily, HeartbeatEveryRun)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
