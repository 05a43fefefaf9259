package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/resilience"
)

// Schema creates the pronunciations table. variant is the 1-based position
// of the pronunciation within its word; phonemes are space separated.
const Schema = `
CREATE TABLE IF NOT EXISTS pronunciations (
    word     TEXT     NOT NULL,
    variant  SMALLINT NOT NULL,
    phonemes TEXT     NOT NULL,
    PRIMARY KEY (word, variant)
)`

// PostgresSource reads the dictionary from the pronunciations table.
// Connection failures are retried; malformed rows are not.
type PostgresSource struct {
	DB    *postgres.Client
	Retry resilience.RetryConfig
}

func (s PostgresSource) Load(ctx context.Context) (*phonetic.Table, error) {
	var table *phonetic.Table
	retry := s.Retry
	retry.Retryable = func(err error) bool {
		var le *LoadError
		return !errors.As(err, &le) && ctx.Err() == nil
	}
	err := resilience.Retry(ctx, "load-pronunciations", retry, func(ctx context.Context) error {
		t, err := s.load(ctx)
		if err != nil {
			return err
		}
		table = t
		return nil
	})
	if err != nil {
		return nil, withSource(err, "postgres")
	}
	slog.Default().With("component", "corpus").Info("dictionary loaded",
		"source", "postgres",
		"words", table.Len(),
		"pronunciations", table.PronunciationCount(),
	)
	return table, nil
}

func (s PostgresSource) load(ctx context.Context) (*phonetic.Table, error) {
	rows, err := s.DB.DB.QueryContext(ctx,
		`SELECT word, phonemes FROM pronunciations ORDER BY word, variant`)
	if err != nil {
		return nil, fmt.Errorf("querying pronunciations: %w", err)
	}
	defer rows.Close()

	entries := make(map[string][]phonetic.Pronunciation)
	for rows.Next() {
		var word, symbols string
		if err := rows.Scan(&word, &symbols); err != nil {
			return nil, fmt.Errorf("scanning pronunciation row: %w", err)
		}
		p, err := phonetic.ParsePronunciation(symbols)
		if err != nil {
			return nil, &LoadError{Source: "postgres", Err: fmt.Errorf("word %q: %w", word, err)}
		}
		entries[word] = append(entries[word], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pronunciations: %w", err)
	}
	if len(entries) == 0 {
		return nil, &LoadError{Source: "postgres", Err: errors.New("pronunciations table is empty")}
	}
	return phonetic.NewTable(entries), nil
}

// PostgresStore writes dictionaries into the pronunciations table.
type PostgresStore struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewPostgresStore(db *postgres.Client) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: slog.Default().With("component", "pronunciation-store"),
	}
}

// Import replaces the table contents with table in one transaction, using
// COPY for the bulk insert.
func (s *PostgresStore) Import(ctx context.Context, table *phonetic.Table) (int, error) {
	start := time.Now()
	var rows int
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, Schema); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `TRUNCATE pronunciations`); err != nil {
			return fmt.Errorf("truncating pronunciations: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("pronunciations", "word", "variant", "phonemes"))
		if err != nil {
			return fmt.Errorf("preparing copy: %w", err)
		}
		defer stmt.Close()

		var execErr error
		prev, variant := "", 0
		table.Each(func(word string, p phonetic.Pronunciation) bool {
			if word != prev {
				prev, variant = word, 0
			}
			variant++
			if _, execErr = stmt.ExecContext(ctx, word, variant, p.Key()); execErr != nil {
				return false
			}
			rows++
			return true
		})
		if execErr != nil {
			return fmt.Errorf("copying %q: %w", prev, execErr)
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			return fmt.Errorf("flushing copy: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("dictionary imported", "rows", rows, "duration", time.Since(start))
	return rows, nil
}
