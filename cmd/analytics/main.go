// Command analytics aggregates homophone search events.
//
// It consumes search events from Kafka, keeps running totals, latency
// percentiles and top/no-match/unknown-word rankings in memory, and serves
// them at GET /api/v1/analytics. Snapshots are written to PostgreSQL and
// restored on startup when the database is reachable.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml] [-snapshot-interval 1m]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/analytics/snapshot"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	snapshotInterval := flag.Duration("snapshot-interval", time.Minute, "how often stats are saved to postgres; 0 disables snapshots")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		fmt.Fprintln(os.Stderr, "kafka.brokers must be set for the analytics service")
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	aggregator := analytics.NewAggregator(m)
	checker := health.NewChecker()

	if *snapshotInterval > 0 {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, snapshots disabled", "error", err)
		} else {
			defer db.Close()
			checker.Register("postgres", health.Ping(db.Ping, true))
			store := snapshot.NewStore(db, 100)
			if err := store.EnsureSchema(ctx); err != nil {
				slog.Error("failed to prepare snapshot table", "error", err)
				os.Exit(1)
			}
			if _, err := store.Restore(ctx, aggregator); err != nil {
				slog.Warn("could not restore analytics snapshot", "error", err)
			}
			var bg sync.WaitGroup
			bg.Go(func() { store.Run(ctx, aggregator, *snapshotInterval) })
			defer bg.Wait()
		}
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, analytics.HandleEvent(aggregator))
	defer consumer.Close()
	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("search event consumer stopped", "error", err)
		}
	}()
	slog.Info("consuming search events", "topic", cfg.Kafka.Topics.SearchEvents, "group", cfg.Kafka.ConsumerGroup)

	analyticsHandler := analytics.NewHandler(aggregator)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", analyticsHandler.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	if m != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      middleware.Chain(mux, middleware.RequestID, middleware.CORS(middleware.DefaultCORSConfig())),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("analytics service stopped")
}
