package postgres

import (
	"context"
	"fmt"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
)

// ProcessedEventRepo implements storage.ProcessedEventRepository using
// PostgreSQL.
type ProcessedEventRepo struct {
	db *DB
}

// NewProcessedEventRepo creates a new PostgreSQL processed-event repository.
func NewProcessedEventRepo(db *DB) *ProcessedEventRepo {
	return &ProcessedEventRepo{db: db}
}

// Seen reports whether an event id was already applied.
func (r *ProcessedEventRepo) Seen(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1)`, eventID)
	if err != nil {
		return false, fmt.Errorf("failed to check event %s: %w", eventID, err)
	}
	return exists, nil
}

// Mark records an event id as applied. Re-marking is a no-op.
func (r *ProcessedEventRepo) Mark(ctx context.Context, eventID string, eventType domain.EventType) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO processed_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType)
	if err != nil {
		return fmt.Errorf("failed to mark event %s: %w", eventID, err)
	}
	return nil
}
