package postgres

import (
	"context"
	"fmt"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
)

// WatermarkRepo implements storage.WatermarkRepository using PostgreSQL.
type WatermarkRepo struct {
	db *DB
}

// NewWatermarkRepo creates a new PostgreSQL watermark repository.
func NewWatermarkRepo(db *DB) *WatermarkRepo {
	return &WatermarkRepo{db: db}
}

// GetAll returns every persisted watermark.
func (r *WatermarkRepo) GetAll(ctx context.Context) ([]domain.Watermark, error) {
	var rows []domain.Watermark
	err := r.db.SelectContext(ctx, &rows,
		`SELECT event_type, db_timestamp FROM watermarks`)
	if err != nil {
		return nil, fmt.Errorf("failed to load watermarks: %w", err)
	}
	return rows, nil
}

// Upsert replaces or inserts a watermark by event type.
func (r *WatermarkRepo) Upsert(ctx context.Context, w domain.Watermark) error {
	query := `
		INSERT INTO watermarks (event_type, db_timestamp)
		VALUES ($1, $2)
		ON CONFLICT (event_type) DO UPDATE SET
			db_timestamp = EXCLUDED.db_timestamp
	`

	if _, err := r.db.ExecContext(ctx, query, w.EventType, w.DBTimestamp); err != nil {
		return fmt.Errorf("failed to upsert watermark %s: %w", w.EventType, err)
	}
	return nil
}
