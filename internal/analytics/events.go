package analytics

import "time"

// Outcome classifies a homophone query.
type Outcome string

const (
	OutcomeMatch       Outcome = "match"
	OutcomeNoMatch     Outcome = "no_match"
	OutcomeTruncated   Outcome = "truncated"
	OutcomeUnknownWord Outcome = "unknown_word"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeError       Outcome = "error"
)

// SearchEvent is published once per homophone query.
type SearchEvent struct {
	Outcome            Outcome   `json:"outcome"`
	Query              string    `json:"query"`
	Words              []string  `json:"words"`
	UnknownWord        string    `json:"unknown_word,omitempty"`
	Variants           int       `json:"variants"`
	Phrases            int       `json:"phrases"`
	Returned           int       `json:"returned"`
	PartitionsExplored int64     `json:"partitions_explored"`
	TruncatedBy        string    `json:"truncated_by,omitempty"`
	LatencyMs          int64     `json:"latency_ms"`
	CacheHit           bool      `json:"cache_hit"`
	Timestamp          time.Time `json:"timestamp"`
	RequestID          string    `json:"request_id,omitempty"`
}
