// Package handler serves the homophone search HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/homophone"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/tracing"
)

// Tracker receives one event per search request.
type Tracker interface {
	Track(event analytics.SearchEvent)
}

type Options struct {
	Cache   *cache.Cache[homophone.Result]
	Tracker Tracker
	Metrics *metrics.Metrics
	// MaxPhrases caps the phrases returned per response; 0 means no cap.
	MaxPhrases int
	Tracing    bool
}

type Handler struct {
	searcher *homophone.Searcher
	opts     Options
	logger   *slog.Logger
}

func New(searcher *homophone.Searcher, opts Options) *Handler {
	return &Handler{
		searcher: searcher,
		opts:     opts,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// SearchResponse is the body of a successful homophone query. Total counts
// every phrase found; Phrases may be cut to the requested limit.
type SearchResponse struct {
	Query              string   `json:"query"`
	Words              []string `json:"words"`
	Pronunciations     []string `json:"pronunciations"`
	Phrases            []string `json:"phrases"`
	Total              int      `json:"total"`
	Truncated          bool     `json:"truncated"`
	TruncatedBy        string   `json:"truncated_by,omitempty"`
	PartitionsExplored int64    `json:"partitions_explored"`
	CacheHit           bool     `json:"cache_hit"`
	LatencyMs          int64    `json:"latency_ms"`
}

// Search serves GET /api/v1/homophones?q=<phrase>[&limit=n].
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	event := analytics.SearchEvent{
		Query:     query,
		RequestID: logger.RequestID(ctx),
	}
	defer func() {
		event.LatencyMs = time.Since(start).Milliseconds()
		event.Timestamp = time.Now().UTC()
		h.record(event, time.Since(start))
	}()

	if strings.TrimSpace(query) == "" {
		event.Outcome = analytics.OutcomeInvalid
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := h.opts.MaxPhrases
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			event.Outcome = analytics.OutcomeInvalid
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if h.opts.MaxPhrases > 0 && parsed > h.opts.MaxPhrases {
			parsed = h.opts.MaxPhrases
		}
		limit = parsed
	}

	words := tokenizer.Tokenize(query)
	event.Words = words
	if len(words) == 0 {
		event.Outcome = analytics.OutcomeInvalid
		h.writeError(w, http.StatusBadRequest, "query contains no words")
		return
	}

	if h.opts.Tracing {
		var span *tracing.Span
		ctx, span = tracing.StartSpan(ctx, "homophones.search", logger.RequestID(ctx))
		defer func() {
			span.End()
			span.Log(log)
		}()
	}

	result, cacheHit, err := h.search(ctx, words)
	event.CacheHit = cacheHit
	if err != nil {
		h.handleSearchError(w, log, query, err, &event)
		return
	}

	resp := SearchResponse{
		Query:              query,
		Words:              result.Words,
		Pronunciations:     keys(result.Pronunciations),
		Phrases:            result.Phrases,
		Total:              len(result.Phrases),
		Truncated:          result.Truncated,
		TruncatedBy:        result.TruncatedBy,
		PartitionsExplored: result.PartitionsExplored,
		CacheHit:           cacheHit,
	}
	if limit > 0 && len(resp.Phrases) > limit {
		resp.Phrases = resp.Phrases[:limit]
	}
	resp.LatencyMs = time.Since(start).Milliseconds()

	event.Variants = len(result.Pronunciations)
	event.Phrases = resp.Total
	event.Returned = len(resp.Phrases)
	event.PartitionsExplored = result.PartitionsExplored
	event.TruncatedBy = result.TruncatedBy
	switch {
	case result.Truncated:
		event.Outcome = analytics.OutcomeTruncated
	case onlyIdentity(result.Phrases, words):
		event.Outcome = analytics.OutcomeNoMatch
	default:
		event.Outcome = analytics.OutcomeMatch
	}

	log.Info("homophone search completed",
		"query", query,
		"phrases", resp.Total,
		"returned", len(resp.Phrases),
		"truncated", result.TruncatedBy,
		"cache_hit", cacheHit,
		"latency_ms", resp.LatencyMs,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

// search runs the query through the cache when one is configured. Results
// cut short by the deadline are never cached. The partition budget always
// admits the lowest masks of each variant, so budget-truncated results are.
func (h *Handler) search(ctx context.Context, words []string) (*homophone.Result, bool, error) {
	if h.opts.Cache == nil {
		res, err := h.searcher.Search(ctx, words)
		return res, false, err
	}
	cfg := h.searcher.Config()
	key := h.opts.Cache.Key(
		strings.Join(words, " "),
		fmt.Sprintf("phonemes=%d,partitions=%d", cfg.MaxPhonemes, cfg.MaxPartitions),
	)
	return h.opts.Cache.GetOrCompute(ctx, key, func(ctx context.Context) (*homophone.Result, bool, error) {
		res, err := h.searcher.Search(ctx, words)
		if err != nil {
			return nil, false, err
		}
		return res, res.TruncatedBy != homophone.TruncatedByDeadline, nil
	})
}

func (h *Handler) handleSearchError(w http.ResponseWriter, log *slog.Logger, query string, err error, event *analytics.SearchEvent) {
	status := apperrors.HTTPStatusCode(err)

	var unknown *phonetic.UnknownWordError
	switch {
	case errors.As(err, &unknown):
		event.Outcome = analytics.OutcomeUnknownWord
		event.UnknownWord = unknown.Word
		log.Info("homophone search rejected", "query", query, "unknown_word", unknown.Word)
		h.writeJSON(w, status, map[string]string{
			"error": err.Error(),
			"word":  unknown.Word,
		})
		return
	case status < http.StatusInternalServerError:
		event.Outcome = analytics.OutcomeInvalid
		log.Info("homophone search rejected", "query", query, "error", err)
		h.writeError(w, status, err.Error())
		return
	}

	event.Outcome = analytics.OutcomeError
	log.Error("homophone search failed", "query", query, "error", err)
	h.writeError(w, status, "search failed")
}

func (h *Handler) record(event analytics.SearchEvent, elapsed time.Duration) {
	if m := h.opts.Metrics; m != nil {
		m.SearchQueriesTotal.WithLabelValues(string(event.Outcome)).Inc()
		cacheStatus := "disabled"
		if h.opts.Cache != nil {
			cacheStatus = "miss"
			if event.CacheHit {
				cacheStatus = "hit"
			}
		}
		m.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
	}
	if h.opts.Tracker != nil {
		h.opts.Tracker.Track(event)
	}
}

type PronunciationInfo struct {
	Phonemes   string   `json:"phonemes"`
	Homophones []string `json:"homophones"`
}

type WordResponse struct {
	Word           string              `json:"word"`
	Pronunciations []PronunciationInfo `json:"pronunciations"`
}

// Word serves GET /api/v1/words/{word}: every pronunciation of the word
// and the other words sharing each one.
func (h *Handler) Word(w http.ResponseWriter, r *http.Request) {
	tokens := tokenizer.Tokenize(r.PathValue("word"))
	if len(tokens) != 1 {
		h.writeError(w, http.StatusBadRequest, "path must name exactly one word")
		return
	}
	word := tokens[0]

	lex := h.searcher.Lexicon()
	prons, err := lex.Table.Lookup(word)
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{
			"error": err.Error(),
			"word":  word,
		})
		return
	}

	resp := WordResponse{Word: word, Pronunciations: make([]PronunciationInfo, 0, len(prons))}
	for _, p := range prons {
		info := PronunciationInfo{Phonemes: p.Key(), Homophones: []string{}}
		bucket, _ := lex.Index.LookupKey(p.Key())
		for _, other := range bucket {
			if other != word {
				info.Homophones = append(info.Homophones, other)
			}
		}
		resp.Pronunciations = append(resp.Pronunciations, info)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.opts.Cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.opts.Cache.Stats())
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.opts.Cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.opts.Cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// onlyIdentity reports whether every phrase is the query itself.
func onlyIdentity(phrases, words []string) bool {
	query := strings.Join(words, " ")
	for _, p := range phrases {
		if p != query {
			return false
		}
	}
	return true
}

func keys(prons []phonetic.Pronunciation) []string {
	out := make([]string, len(prons))
	for i, p := range prons {
		out[i] = p.Key()
	}
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
