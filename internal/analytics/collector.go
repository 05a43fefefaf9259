package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/metrics"
)

// Publisher sends a batch of events downstream.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	Metrics       *metrics.Metrics
}

// Collector buffers search events off the request path and publishes them
// in batches, flushing when a batch fills or FlushInterval passes. Track
// never blocks; events are dropped when the buffer is full.
type Collector struct {
	publisher Publisher
	cfg       CollectorConfig
	eventCh   chan SearchEvent
	done      chan struct{}
	mu        sync.RWMutex
	closed    bool
	logger    *slog.Logger
}

func NewCollector(publisher Publisher, cfg CollectorConfig) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Collector{
		publisher: publisher,
		cfg:       cfg,
		eventCh:   make(chan SearchEvent, cfg.BufferSize),
		done:      make(chan struct{}),
		logger:    slog.Default().With("component", "analytics-collector"),
	}
}

// Start runs the publish loop until Close is called.
func (c *Collector) Start(ctx context.Context) {
	go c.run(context.WithoutCancel(ctx))
	c.logger.Info("analytics collector started",
		"buffer_size", c.cfg.BufferSize,
		"batch_size", c.cfg.BatchSize,
		"flush_interval", c.cfg.FlushInterval,
	)
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		status := "published"
		if err := c.publisher.PublishBatch(flushCtx, batch); err != nil {
			c.logger.Error("failed to publish analytics events", "count", len(batch), "error", err)
			status = "failed"
		}
		c.count(status, len(batch))
		batch = batch[:0]
	}

	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, kafka.Event{Key: event.Query, Value: event})
			if len(batch) >= c.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Track enqueues an event without blocking. Events tracked after Close are
// dropped.
func (c *Collector) Track(event SearchEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.count("dropped", 1)
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close flushes buffered events and stops the loop. It must only be called
// after Start.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.eventCh)
	c.mu.Unlock()
	<-c.done
}

func (c *Collector) count(status string, n int) {
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.AnalyticsEventsTotal.WithLabelValues(status).Add(float64(n))
	}
}
