// Command searcher serves homophone search over HTTP.
//
// The pronouncing dictionary is loaded once at startup from a file or from
// PostgreSQL. Results are cached in redis when it is configured and search
// events are published to Kafka when brokers are configured; neither is
// required.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
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
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/homophone"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "dictionary", cfg.Dictionary.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	checker := health.NewChecker()

	var db *postgres.Client
	if cfg.Dictionary.Source == config.SourcePostgres {
		db, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		checker.Register("postgres", health.Ping(db.Ping, true))
	}

	source, err := corpus.FromConfig(cfg.Dictionary, db)
	if err != nil {
		slog.Error("invalid dictionary source", "error", err)
		os.Exit(1)
	}
	loadStart := time.Now()
	table, err := source.Load(ctx)
	if err != nil {
		slog.Error("failed to load dictionary", "error", err)
		os.Exit(1)
	}
	slog.Info("dictionary loaded",
		"words", table.Len(),
		"pronunciations", table.PronunciationCount(),
		"elapsed", time.Since(loadStart),
	)
	lex := homophone.NewLexicon(table)
	if m != nil {
		m.DictionaryWords.Set(float64(table.Len()))
		m.DictionaryPronunciations.Set(float64(table.PronunciationCount()))
		m.IndexBuckets.Set(float64(lex.Index.Size()))
		m.IndexHomophoneGroups.Set(float64(len(lex.Index.Homophones())))
	}
	checker.Register("lexicon", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d words, %d pronunciations", table.Len(), lex.Index.Pairs()),
		}
	})

	searcher := homophone.NewSearcher(lex, homophone.ConfigFrom(cfg.Search), homophone.WithMetrics(m))
	opts := handler.Options{
		Metrics:    m,
		MaxPhrases: cfg.Search.MaxPhrases,
		Tracing:    cfg.Tracing.Enabled,
	}

	if cfg.Redis.Addr != "" {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			opts.Cache = cache.NewRedis[homophone.Result](redisClient, cfg.Redis, m)
			checker.Register("redis", health.Ping(redisClient.Ping, true))
			slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, analytics.CollectorConfig{Metrics: m})
		collector.Start(ctx)
		defer collector.Close()
		opts.Tracker = collector
		slog.Info("search events enabled", "topic", cfg.Kafka.Topics.SearchEvents)
	}

	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute, time.Minute)
	defer limiter.Stop()

	h := handler.New(searcher, opts)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/homophones", h.Search)
	mux.HandleFunc("GET /api/v1/words/{word}", h.Word)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.CORS(middleware.DefaultCORSConfig()),
		middleware.RateLimit(limiter, m),
	}
	if m != nil {
		mws = append(mws, middleware.Metrics(m))
	}
	mws = append(mws, middleware.Timeout(cfg.Server.RequestTimeout))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, mws...),
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

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
