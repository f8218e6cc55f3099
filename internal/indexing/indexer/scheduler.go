// Package indexer drives the poll-dispatch-advance cycle.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/core/watermark"
	"github.com/ara-foundation/act-indexer/internal/indexing/metrics"
	"github.com/ara-foundation/act-indexer/internal/indexing/pending"
	"github.com/ara-foundation/act-indexer/internal/indexing/processor"
	"github.com/ara-foundation/act-indexer/internal/infra/chain"
)

// State describes what the scheduler is currently doing.
type State string

const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateDispatching State = "dispatching"
	StateAdvancing   State = "advancing"
	StateSuspended   State = "suspended"
)

// Source fetches one batch of events past the given watermarks.
type Source interface {
	Fetch(ctx context.Context, watermarks map[domain.EventType]string) (*domain.EventBatch, error)
}

// Config wires the scheduler's collaborators.
type Config struct {
	Interval   time.Duration
	Source     Source
	Watermarks watermark.Store
	Handlers   map[domain.EventType]processor.Handler
	Chains     *chain.Registry
	Pending    *pending.Cache
	Logger     *slog.Logger
}

// Scheduler runs one polling cycle per tick. Cycles never overlap: the
// ticker is only consulted again after the previous cycle finished, so all
// per-type batches within a cycle run sequentially on one goroutine.
type Scheduler struct {
	cfg     Config
	running atomic.Bool
	stop    chan struct{}

	mu    sync.RWMutex
	state State
}

// NewScheduler creates a scheduler. Call Start to begin polling.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &Scheduler{
		cfg:   cfg,
		stop:  make(chan struct{}),
		state: StateIdle,
	}
}

// Start begins the polling loop and blocks until Stop or ctx cancellation.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler already running")
	}
	defer s.running.Store(false)

	if _, err := s.cfg.Watermarks.Load(ctx); err != nil {
		return fmt.Errorf("load watermarks: %w", err)
	}

	s.cfg.Logger.Info("starting event indexer", "interval", s.cfg.Interval)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// Stop ends the polling loop after the in-flight cycle completes.
func (s *Scheduler) Stop() {
	if s.running.Load() {
		close(s.stop)
	}
}

// Running reports whether the polling loop is active.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// State returns the scheduler's current phase. A scheduler whose loop is
// not running reports Suspended.
func (s *Scheduler) State() State {
	if !s.running.Load() {
		return StateSuspended
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// runCycle executes one fetch-dispatch-advance sequence.
func (s *Scheduler) runCycle(ctx context.Context) {
	s.setState(StateFetching)
	defer s.setState(StateIdle)

	marks := make(map[domain.EventType]string, len(domain.EventTypes))
	for _, t := range domain.EventTypes {
		marks[t] = s.cfg.Watermarks.Get(t)
	}

	batch, err := s.cfg.Source.Fetch(ctx, marks)
	if err != nil {
		metrics.FetchFailuresTotal.Inc()
		s.cfg.Logger.Error("event fetch failed, retrying next tick", "error", err)
		return
	}

	s.setState(StateDispatching)
	if batch.Total() > 0 {
		s.cfg.Logger.Info("dispatching events", "count", batch.Total())
	}

	for _, t := range domain.EventTypes {
		s.dispatchBatch(ctx, t, batch.Events(t))
	}

	metrics.CyclesTotal.Inc()
	metrics.PendingStashSize.Set(float64(s.cfg.Pending.Size()))
}

// dispatchBatch processes one stream's events in ascending order and
// advances the watermark past every seen event. A failed event stops its
// batch so the watermark never moves beyond it.
func (s *Scheduler) dispatchBatch(ctx context.Context, t domain.EventType, events []domain.Event) {
	if len(events) == 0 {
		return
	}

	handler, ok := s.cfg.Handlers[t]
	if !ok {
		s.cfg.Logger.Error("no handler for event type", "event_type", t)
		return
	}

	lastSeen := ""
	for _, event := range events {
		networkID, err := domain.NetworkIDFromEventID(event.EventID())
		if err != nil {
			s.cfg.Logger.Error("malformed event id", "event_type", t, "event_id", event.EventID())
			lastSeen = event.WriteTimestamp()
			continue
		}
		if !s.cfg.Chains.Supported(networkID) {
			// Not a network we track. Seen, never retried.
			lastSeen = event.WriteTimestamp()
			continue
		}

		outcome, err := handler.Process(ctx, event)
		metrics.EventsTotal.WithLabelValues(string(t), string(outcome)).Inc()
		if outcome == processor.OutcomeFailed {
			s.cfg.Logger.Error("event processing failed",
				"event_type", t, "event_id", event.EventID(), "error", err)
			break
		}
		lastSeen = event.WriteTimestamp()
	}

	if lastSeen == "" {
		return
	}

	s.setState(StateAdvancing)
	defer s.setState(StateDispatching)

	if err := s.cfg.Watermarks.Advance(ctx, t, lastSeen); err != nil {
		s.cfg.Logger.Error("failed to advance watermark", "event_type", t, "error", err)
		return
	}
	if ts, err := time.Parse("2006-01-02T15:04:05.999999", lastSeen); err == nil {
		metrics.WatermarkTimestamp.WithLabelValues(string(t)).Set(float64(ts.Unix()))
	}
}
