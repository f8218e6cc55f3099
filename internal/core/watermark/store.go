package watermark

import (
	"context"
	"fmt"
	"sync"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/infra/storage"
)

// Store tracks the per-event-type high-water timestamp. Timestamps are
// ISO-8601 strings with microsecond precision, so lexicographic order
// matches chronological order and no parsing is needed.
type Store interface {
	// Load fetches all persisted watermarks, filling in the default
	// starting timestamp for any event type without one.
	Load(ctx context.Context) (map[domain.EventType]string, error)

	// Get returns the current watermark for an event type.
	Get(eventType domain.EventType) string

	// Advance moves the watermark forward. Equal or older timestamps
	// are ignored so replays can never move a watermark back.
	Advance(ctx context.Context, eventType domain.EventType, ts string) error
}

// DefaultStore implements Store over a WatermarkRepository with an
// in-memory cache of the current values.
type DefaultStore struct {
	repo storage.WatermarkRepository

	mu      sync.RWMutex
	current map[domain.EventType]string
}

// NewStore creates a watermark store. Call Load before first use.
func NewStore(repo storage.WatermarkRepository) *DefaultStore {
	return &DefaultStore{
		repo:    repo,
		current: make(map[domain.EventType]string),
	}
}

// Load fetches all persisted watermarks and seeds missing event types
// with the default starting timestamp.
func (s *DefaultStore) Load(ctx context.Context) (map[domain.EventType]string, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load watermarks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range domain.EventTypes {
		s.current[t] = domain.DefaultWatermark
	}
	for _, row := range rows {
		s.current[row.EventType] = row.DBTimestamp
	}

	out := make(map[domain.EventType]string, len(s.current))
	for t, ts := range s.current {
		out[t] = ts
	}
	return out, nil
}

// Get returns the current watermark for an event type.
func (s *DefaultStore) Get(eventType domain.EventType) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ts, ok := s.current[eventType]; ok {
		return ts
	}
	return domain.DefaultWatermark
}

// Advance persists a new watermark if it is strictly greater than the
// current one. No-op otherwise.
func (s *DefaultStore) Advance(ctx context.Context, eventType domain.EventType, ts string) error {
	s.mu.Lock()
	cur, ok := s.current[eventType]
	if !ok {
		cur = domain.DefaultWatermark
	}
	if ts <= cur {
		s.mu.Unlock()
		return nil
	}
	s.current[eventType] = ts
	s.mu.Unlock()

	if err := s.repo.Upsert(ctx, domain.Watermark{EventType: eventType, DBTimestamp: ts}); err != nil {
		// Roll the cache back so a later retry re-persists.
		s.mu.Lock()
		s.current[eventType] = cur
		s.mu.Unlock()
		return fmt.Errorf("failed to advance watermark for %s: %w", eventType, err)
	}
	return nil
}
