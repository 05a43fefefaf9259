// Package homophone finds phrases that sound exactly like an input phrase.
//
// A query is resolved in four stages: per-word pronunciation lookup, Expand
// into every whole-phrase pronunciation, enumeration of every Partition of
// each pronunciation into contiguous phoneme blocks, and Reconstruct of each
// partition through the inverted index. Enumeration is bit-pattern driven and
// can be sharded across a bounded worker pool.
package homophone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/index"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/tracing"
)

const (
	TruncatedByPartitions = "partitions"
	TruncatedByDeadline   = "deadline"

	// Below this many partitions a variant is scanned on the calling
	// goroutine; sharding costs more than it saves.
	shardThreshold = 1 << 12
	// Context is polled once per this many masks.
	pollInterval = 1 << 10
)

var errPartitionBudget = errors.New("partition budget exhausted")

// Lexicon is the process-wide immutable lookup state: the pronunciation
// table and the inverted index derived from it.
type Lexicon struct {
	Table *phonetic.Table
	Index *index.Inverted
}

// NewLexicon builds the inverted index for table.
func NewLexicon(table *phonetic.Table) *Lexicon {
	start := time.Now()
	inv := index.Build(table)
	slog.Default().With("component", "lexicon").Info("inverted index built",
		"words", table.Len(),
		"pronunciations", inv.Pairs(),
		"distinct_pronunciations", inv.Size(),
		"longest", inv.LongestPronunciation(),
		"elapsed", time.Since(start),
	)
	return &Lexicon{Table: table, Index: inv}
}

// Config bounds the work a single search may do. The zero value places no
// bound beyond MaxSequenceLength and runs sequentially.
type Config struct {
	// MaxPhonemes rejects whole-phrase pronunciations longer than this.
	MaxPhonemes int
	// MaxPartitions caps partitions explored per query; the search returns
	// what it found so far when the cap is hit.
	MaxPartitions int64
	// Timeout caps wall time per query, with the same partial-result
	// behaviour as MaxPartitions.
	Timeout time.Duration
	// Workers is the enumeration pool size; 1 or less scans sequentially.
	Workers int
}

// DefaultConfig is the budget used by the binaries.
func DefaultConfig() Config {
	return Config{
		MaxPhonemes:   24,
		MaxPartitions: 1 << 22,
		Timeout:       10 * time.Second,
		Workers:       runtime.GOMAXPROCS(0),
	}
}

// ConfigFrom maps the search section of the service configuration.
func ConfigFrom(c config.SearchConfig) Config {
	return Config{
		MaxPhonemes:   c.MaxPhonemes,
		MaxPartitions: c.MaxPartitions,
		Timeout:       c.Timeout,
		Workers:       c.Workers,
	}
}

// Result is the outcome of one search. Phrases keep emission order and are
// not deduplicated.
type Result struct {
	Words              []string                 `json:"words"`
	Pronunciations     []phonetic.Pronunciation `json:"pronunciations"`
	Phrases            []string                 `json:"phrases"`
	PartitionsExplored int64                    `json:"partitions_explored"`
	PartitionsMatched  int64                    `json:"partitions_matched"`
	Truncated          bool                     `json:"truncated"`
	TruncatedBy        string                   `json:"truncated_by,omitempty"`
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithMetrics records per-query work on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Searcher) {
		s.metrics = m
	}
}

// Searcher runs queries against a shared Lexicon. It is safe for concurrent
// use.
type Searcher struct {
	lex     *Lexicon
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewSearcher(lex *Lexicon, cfg Config, opts ...Option) *Searcher {
	s := &Searcher{
		lex:    lex,
		cfg:    cfg,
		logger: slog.Default().With("component", "homophone-searcher"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the budget the searcher was built with.
func (s *Searcher) Config() Config {
	return s.cfg
}

// Lexicon returns the shared lookup state.
func (s *Searcher) Lexicon() *Lexicon {
	return s.lex
}

// Pronounce resolves each word to its pronunciations. Any unknown word fails
// the whole call with a *phonetic.UnknownWordError.
func (s *Searcher) Pronounce(words []string) ([][]phonetic.Pronunciation, error) {
	if len(words) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "no words to search")
	}
	perWord := make([][]phonetic.Pronunciation, len(words))
	for i, w := range words {
		prons, err := s.lex.Table.Lookup(w)
		if err != nil {
			return nil, err
		}
		perWord[i] = prons
	}
	return perWord, nil
}

// Search returns every phrase whose pronunciation equals some pronunciation
// of words. words must already be tokenized and lowercased.
func (s *Searcher) Search(ctx context.Context, words []string) (*Result, error) {
	start := time.Now()
	ctx, span := tracing.StartChildSpan(ctx, "homophone.search")
	defer span.End()
	span.SetAttr("words", len(words))

	perWord, err := s.Pronounce(words)
	if err != nil {
		return nil, err
	}
	variants := Expand(perWord)
	for _, v := range variants {
		if len(v) > MaxSequenceLength || (s.cfg.MaxPhonemes > 0 && len(v) > s.cfg.MaxPhonemes) {
			limit := MaxSequenceLength
			if s.cfg.MaxPhonemes > 0 && s.cfg.MaxPhonemes < limit {
				limit = s.cfg.MaxPhonemes
			}
			return nil, apperrors.Newf(apperrors.ErrInputTooLong, 0,
				"pronunciation %q has %d phonemes, limit is %d", v.Key(), len(v), limit)
		}
	}
	span.SetAttr("variants", len(variants))

	parent := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	result := &Result{
		Words:          words,
		Pronunciations: variants,
		Phrases:        make([]string, 0),
	}
	b := &budget{limit: s.cfg.MaxPartitions}

	for _, v := range variants {
		phrases, matched, scanErr := s.scanVariant(ctx, v, b)
		result.Phrases = append(result.Phrases, phrases...)
		result.PartitionsMatched += matched
		s.logger.Debug("pronunciation variant scanned",
			"pronunciation", v.Key(),
			"partitions", PartitionCount(len(v)),
			"matched", matched,
			"phrases", len(phrases),
		)
		if scanErr == nil {
			continue
		}
		switch {
		case errors.Is(scanErr, errPartitionBudget):
			result.Truncated = true
			result.TruncatedBy = TruncatedByPartitions
		case parent.Err() != nil:
			return nil, fmt.Errorf("search cancelled: %w", parent.Err())
		case errors.Is(scanErr, context.DeadlineExceeded):
			result.Truncated = true
			result.TruncatedBy = TruncatedByDeadline
		default:
			return nil, fmt.Errorf("scanning %q: %w", v.Key(), scanErr)
		}
		break
	}
	result.PartitionsExplored = b.explored()

	elapsed := time.Since(start)
	span.SetAttr("partitions_explored", result.PartitionsExplored)
	span.SetAttr("phrases", len(result.Phrases))
	s.observe(result, elapsed)
	s.logger.Info("homophone search executed",
		"words", words,
		"variants", len(variants),
		"partitions_explored", result.PartitionsExplored,
		"partitions_matched", result.PartitionsMatched,
		"phrases", len(result.Phrases),
		"truncated", result.TruncatedBy,
		"elapsed", elapsed,
	)
	return result, nil
}

// scanVariant enumerates the partitions of seq, sequentially or sharded by
// mask range. The budget only ever admits a prefix of the mask range, so the
// explored set is the lowest masks whichever way the range is scanned. Shard
// outputs are concatenated in range order, so the phrase order is the same
// either way.
func (s *Searcher) scanVariant(ctx context.Context, seq phonetic.Pronunciation, b *budget) ([]string, int64, error) {
	total := PartitionCount(len(seq))
	hi, clamped := b.admit(total)
	if s.cfg.Workers <= 1 || hi < shardThreshold {
		phrases, matched, err := s.scanRange(ctx, seq, 0, hi, b)
		return phrases, matched, budgetErr(err, clamped)
	}

	ranges := maskRanges(hi, s.cfg.Workers*4)
	type shard struct {
		phrases []string
		matched int64
	}
	shards := make([]shard, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, r := range ranges {
		g.Go(func() error {
			phrases, matched, err := s.scanRange(gctx, seq, r[0], r[1], b)
			shards[i] = shard{phrases: phrases, matched: matched}
			return err
		})
	}
	err := g.Wait()

	var n int
	var matched int64
	for _, sh := range shards {
		n += len(sh.phrases)
		matched += sh.matched
	}
	phrases := make([]string, 0, n)
	for _, sh := range shards {
		phrases = append(phrases, sh.phrases...)
	}
	return phrases, matched, budgetErr(err, clamped)
}

func budgetErr(err error, clamped bool) error {
	if err == nil && clamped {
		return errPartitionBudget
	}
	return err
}

func (s *Searcher) scanRange(ctx context.Context, seq phonetic.Pronunciation, lo, hi uint64, b *budget) ([]string, int64, error) {
	var (
		phrases []string
		scratch [][]string
		matched int64
	)
	for p := range PartitionsRange(seq, lo, hi) {
		if p.Mask()%pollInterval == 0 {
			if err := ctx.Err(); err != nil {
				return phrases, matched, err
			}
		}
		b.n.Add(1)
		before := len(phrases)
		phrases, scratch = appendPhrases(phrases, scratch, p, s.lex.Index)
		if len(phrases) > before {
			matched++
		}
	}
	return phrases, matched, nil
}

func (s *Searcher) observe(r *Result, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.SearchPartitionsExplored.Observe(float64(r.PartitionsExplored))
	s.metrics.SearchPhrasesEmitted.Observe(float64(len(r.Phrases)))
	s.metrics.SearchVariants.Observe(float64(len(r.Pronunciations)))
	s.metrics.SearchEngineLatency.Observe(elapsed.Seconds())
	if r.Truncated {
		s.metrics.SearchTruncatedTotal.WithLabelValues(r.TruncatedBy).Inc()
	}
}

// budget counts partitions across all variants and shards of one query.
// Variants are admitted one at a time, so the remaining allowance is known
// before a variant is sharded.
type budget struct {
	limit int64
	n     atomic.Int64
}

// admit returns the exclusive upper mask bound to scan out of total, and
// whether the allowance cut the range short.
func (b *budget) admit(total uint64) (uint64, bool) {
	if b.limit <= 0 {
		return total, false
	}
	remaining := max(b.limit-b.n.Load(), 0)
	if uint64(remaining) < total {
		return uint64(remaining), true
	}
	return total, false
}

func (b *budget) explored() int64 {
	return b.n.Load()
}
