package analytics

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/metrics"
)

const latencyWindow = 10000

type AggregatedStats struct {
	TotalSearches      int64             `json:"total_searches"`
	Outcomes           map[Outcome]int64 `json:"outcomes"`
	CacheHits          int64             `json:"cache_hits"`
	CacheMisses        int64             `json:"cache_misses"`
	PartitionsExplored int64             `json:"partitions_explored"`
	AvgLatencyMs       float64           `json:"avg_latency_ms"`
	P50LatencyMs       int64             `json:"p50_latency_ms"`
	P95LatencyMs       int64             `json:"p95_latency_ms"`
	P99LatencyMs       int64             `json:"p99_latency_ms"`
	TopQueries         []QueryCount      `json:"top_queries"`
	NoMatchQueries     []QueryCount      `json:"no_match_queries"`
	UnknownWords       []QueryCount      `json:"unknown_words"`
	QueriesPerMinute   float64           `json:"queries_per_minute"`
	Since              time.Time         `json:"since"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds search events into running statistics. Latency
// percentiles cover the most recent latencyWindow events.
type Aggregator struct {
	mu           sync.RWMutex
	total        int64
	outcomes     map[Outcome]int64
	cacheHits    int64
	cacheMisses  int64
	partitions   int64
	latencies    []int64
	next         int
	queryCounts  map[string]int64
	noMatch      map[string]int64
	unknownWords map[string]int64
	startTime    time.Time

	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewAggregator(m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		outcomes:     make(map[Outcome]int64),
		latencies:    make([]int64, 0, latencyWindow),
		queryCounts:  make(map[string]int64),
		noMatch:      make(map[string]int64),
		unknownWords: make(map[string]int64),
		startTime:    time.Now(),
		metrics:      m,
		logger:       slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent adapts the aggregator to a Kafka consumer. Undecodable
// messages are logged and skipped.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode search event", "key", string(key), "error", err)
			agg.count("decode_error")
			return nil
		}
		agg.Record(event)
		agg.count("consumed")
		return nil
	}
}

func (a *Aggregator) count(status string) {
	if a.metrics != nil {
		a.metrics.AnalyticsEventsTotal.WithLabelValues(status).Inc()
	}
}

func (a *Aggregator) Record(event SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	a.outcomes[event.Outcome]++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	a.partitions += event.PartitionsExplored

	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % latencyWindow
	}

	a.queryCounts[event.Query]++
	switch event.Outcome {
	case OutcomeNoMatch:
		a.noMatch[event.Query]++
	case OutcomeUnknownWord:
		if event.UnknownWord != "" {
			a.unknownWords[event.UnknownWord]++
		}
	}
}

// Restore seeds the counters from a saved snapshot.
func (a *Aggregator) Restore(s AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total += s.TotalSearches
	a.cacheHits += s.CacheHits
	a.cacheMisses += s.CacheMisses
	a.partitions += s.PartitionsExplored
	for o, n := range s.Outcomes {
		a.outcomes[o] += n
	}
	for _, q := range s.TopQueries {
		a.queryCounts[q.Query] += q.Count
	}
	for _, q := range s.NoMatchQueries {
		a.noMatch[q.Query] += q.Count
	}
	for _, q := range s.UnknownWords {
		a.unknownWords[q.Query] += q.Count
	}
	if !s.Since.IsZero() && s.Since.Before(a.startTime) {
		a.startTime = s.Since
	}
}

// Stats returns a snapshot with the top n entries per ranking.
func (a *Aggregator) Stats(n int) AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:      a.total,
		Outcomes:           make(map[Outcome]int64, len(a.outcomes)),
		CacheHits:          a.cacheHits,
		CacheMisses:        a.cacheMisses,
		PartitionsExplored: a.partitions,
		Since:              a.startTime.UTC(),
	}
	for o, c := range a.outcomes {
		stats.Outcomes[o] = c
	}
	if len(a.latencies) > 0 {
		sorted := slices.Clone(a.latencies)
		slices.Sort(sorted)
		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, n)
	stats.NoMatchQueries = topN(a.noMatch, n)
	stats.UnknownWords = topN(a.unknownWords, n)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN ranks by count, ties broken alphabetically.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	slices.SortFunc(result, func(a, b QueryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Query, b.Query)
	})
	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result
}
