// Package cache stores computed homophone results in redis. Concurrent
// misses for the same key share one computation, and a circuit breaker
// takes redis out of the request path while it is failing.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/resilience"
)

const defaultPrefix = "homophones:"

// Store is the subset of the redis client the cache uses.
type Store interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type Config struct {
	TTL       time.Duration
	Prefix    string
	OpTimeout time.Duration // per redis call
	IsMiss    func(error) bool
	Metrics   *metrics.Metrics
}

// Cache holds JSON-encoded *T values.
type Cache[T any] struct {
	store   Store
	cfg     Config
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
	errors  atomic.Int64
}

func New[T any](store Store, cfg Config) *Cache[T] {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 100 * time.Millisecond
	}
	if cfg.IsMiss == nil {
		cfg.IsMiss = func(error) bool { return false }
	}
	c := &Cache[T]{
		store:  store,
		cfg:    cfg,
		logger: slog.Default().With("component", "result-cache"),
	}
	c.breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     15 * time.Second,
		OnStateChange: func(name string, _, to resilience.State) {
			if cfg.Metrics != nil {
				cfg.Metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return c
}

// NewRedis builds a cache over the shared redis client.
func NewRedis[T any](client *pkgredis.Client, rc config.RedisConfig, m *metrics.Metrics) *Cache[T] {
	return New[T](client, Config{
		TTL:     rc.CacheTTL,
		IsMiss:  pkgredis.IsNilError,
		Metrics: m,
	})
}

// Key hashes parts into a fixed-length cache key.
func (c *Cache[T]) Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return c.cfg.Prefix + hex.EncodeToString(sum[:16])
}

// Get returns the cached value. Redis errors and an open breaker count as
// misses.
func (c *Cache[T]) Get(ctx context.Context, key string) (*T, bool) {
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = resilience.Call(ctx, c.cfg.OpTimeout, "cache-get", func(ctx context.Context) ([]byte, error) {
			return c.store.GetBytes(ctx, key)
		})
		if err != nil && c.cfg.IsMiss(err) {
			return nil
		}
		return err
	})
	if err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	if data == nil {
		c.miss()
		return nil, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Error("cache entry corrupt", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.CacheHitsTotal.Inc()
	}
	return &v, true
}

func (c *Cache[T]) miss() {
	c.misses.Add(1)
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.CacheMissesTotal.Inc()
	}
}

// Set stores v under key with the configured TTL. Failures are logged.
func (c *Cache[T]) Set(ctx context.Context, key string, v *T) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		_, err := resilience.Call(ctx, c.cfg.OpTimeout, "cache-set", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.store.Set(ctx, key, data, c.cfg.TTL)
		})
		return err
	})
	if err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached value for key or runs compute once for all
// concurrent callers of the same key. compute reports whether its result may
// be stored. The computation is detached from the first caller's
// cancellation; a caller whose ctx ends stops waiting.
func (c *Cache[T]) GetOrCompute(
	ctx context.Context,
	key string,
	compute func(ctx context.Context) (*T, bool, error),
) (*T, bool, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, true, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		detached := context.WithoutCancel(ctx)
		v, cacheable, err := compute(detached)
		if err != nil {
			return nil, err
		}
		if cacheable {
			c.Set(detached, key, v)
		}
		return v, nil
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, false, r.Err
		}
		return r.Val.(*T), false, nil
	case <-ctx.Done():
		return nil, false, fmt.Errorf("waiting for result: %w", ctx.Err())
	}
}

// Invalidate removes every entry under the cache prefix.
func (c *Cache[T]) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, c.cfg.Prefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

type Stats struct {
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	Errors       int64   `json:"errors"`
	HitRate      float64 `json:"hit_rate"`
	BreakerState string  `json:"breaker_state"`
}

func (c *Cache[T]) Stats() Stats {
	s := Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Errors:       c.errors.Load(),
		BreakerState: c.breaker.State().String(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
