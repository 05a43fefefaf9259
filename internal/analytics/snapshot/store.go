// Package snapshot persists aggregated query statistics to PostgreSQL so
// the analytics service survives restarts.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/postgres"
)

const Schema = `CREATE TABLE IF NOT EXISTS analytics_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	data        JSONB NOT NULL,
	captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// StatsSource is anything that can report current stats.
type StatsSource interface {
	Stats(n int) analytics.AggregatedStats
}

type Store struct {
	db     *postgres.Client
	top    int
	logger *slog.Logger
}

// NewStore creates a store keeping the top n rankings of every snapshot.
func NewStore(db *postgres.Client, top int) *Store {
	if top <= 0 {
		top = 100
	}
	return &Store{
		db:     db,
		top:    top,
		logger: slog.Default().With("component", "analytics-snapshot"),
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating analytics_snapshots: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, stats analytics.AggregatedStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	_, err = s.db.DB.ExecContext(ctx,
		`INSERT INTO analytics_snapshots (data, captured_at) VALUES ($1, $2)`,
		data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	s.logger.Debug("analytics snapshot saved", "total_searches", stats.TotalSearches)
	return nil
}

// Latest returns the most recent snapshot, or nil when none exist.
func (s *Store) Latest(ctx context.Context) (*analytics.AggregatedStats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM analytics_snapshots ORDER BY captured_at DESC, id DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}
	var stats analytics.AggregatedStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// Restore loads the latest snapshot into agg. It reports whether one was
// found.
func (s *Store) Restore(ctx context.Context, agg *analytics.Aggregator) (bool, error) {
	stats, err := s.Latest(ctx)
	if err != nil || stats == nil {
		return false, err
	}
	agg.Restore(*stats)
	s.logger.Info("analytics restored from snapshot",
		"total_searches", stats.TotalSearches,
		"since", stats.Since,
	)
	return true, nil
}

// Run saves a snapshot every interval and once more when ctx ends.
func (s *Store) Run(ctx context.Context, src StatsSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Save(ctx, src.Stats(s.top)); err != nil {
				s.logger.Error("periodic snapshot failed", "error", err)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if err := s.Save(shutdownCtx, src.Stats(s.top)); err != nil {
				s.logger.Error("final snapshot failed", "error", err)
			}
			cancel()
			return
		}
	}
}
