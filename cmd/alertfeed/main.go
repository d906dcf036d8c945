// Command alertfeed polls the SAIH Hidrosur river summary page, evaluates
// gauge readings against per-station alert thresholds, and publishes the
// resulting alerts as an RSS feed (and optionally to Kafka).
//
// Set RUN_ONCE=true for cron-style execution: one cycle, exit code reflects
// the run. The default is a long-running poller with health, metrics, and
// feed endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	feedadapter "github.com/couchcryptid/river-alert-feed/internal/adapter/feed"
	httpadapter "github.com/couchcryptid/river-alert-feed/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/river-alert-feed/internal/adapter/kafka"
	"github.com/couchcryptid/river-alert-feed/internal/adapter/saih"
	"github.com/couchcryptid/river-alert-feed/internal/config"
	"github.com/couchcryptid/river-alert-feed/internal/observability"
	"github.com/couchcryptid/river-alert-feed/internal/pipeline"
	"github.com/couchcryptid/river-alert-feed/internal/state"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	table, err := config.LoadThresholds(cfg.ThresholdsPath)
	if err != nil {
		logger.Error("failed to load threshold table", "path", cfg.ThresholdsPath, "error", err)
		os.Exit(1)
	}
	logger.Info("threshold table loaded",
		"path", cfg.ThresholdsPath,
		"stations", table.Len(),
		"hysteresis", table.Hysteresis(),
	)

	source := saih.NewClient(cfg.SourceURL, cfg.FetchTimeout, logger)
	emitter := feedadapter.NewWriter(cfg, logger)
	store := state.NewStore(cfg.StatePath, logger)

	// Kafka publishing is feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED.
	var publisher pipeline.AlertPublisher
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger)
		publisher = kafkaWriter
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(pipeline.Deps{
		Source:          source,
		Emitter:         emitter,
		Publisher:       publisher,
		Table:           table,
		Store:           store,
		Logger:          logger,
		Metrics:         metrics,
		PollInterval:    cfg.PollInterval,
		RunOnce:         cfg.RunOnce,
		Regions:         cfg.Regions,
		HeartbeatPolicy: cfg.HeartbeatPolicy,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunOnce {
		err := p.Run(ctx)
		closeWriter(kafkaWriter, logger)
		if err != nil {
			logger.Error("run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, cfg.FeedPath, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closeWriter(kafkaWriter, logger)

	logger.Info("shutdown complete")
}

func closeWriter(w *kafkaadapter.Writer, logger *slog.Logger) {
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
