package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

const defaultTop = 10

type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Stats serves GET /api/v1/analytics[?top=n].
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	top := defaultTop
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "top must be an integer between 1 and 1000"})
			return
		}
		top = n
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.aggregator.Stats(top)); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
