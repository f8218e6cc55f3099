package storage

import (
	"context"
	"errors"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicate is returned when an insert violates a natural-key
	// uniqueness constraint.
	ErrDuplicate = errors.New("duplicate document")
)

// WatermarkRepository persists per-event-type indexing watermarks.
type WatermarkRepository interface {
	// GetAll returns every persisted watermark.
	GetAll(ctx context.Context) ([]domain.Watermark, error)

	// Upsert replaces or inserts a watermark by event type.
	Upsert(ctx context.Context, w domain.Watermark) error
}

// ProjectRepository handles the V1 project projection, unique on
// (projectId, networkId).
type ProjectRepository interface {
	// GetByNetwork retrieves a project by its natural key.
	GetByNetwork(ctx context.Context, projectID, networkID int64) (*domain.Project, error)

	// GetByCheck retrieves the project whose sangha check token matches.
	GetByCheck(ctx context.Context, check string, networkID int64) (*domain.Project, error)

	// Insert creates a project and assigns its surrogate id.
	Insert(ctx context.Context, p *domain.Project) error

	// Replace overwrites a project located by its natural key.
	Replace(ctx context.Context, p *domain.Project) error
}

// CollateralRepository handles treasury collaterals, unique on
// (token, networkId).
type CollateralRepository interface {
	Get(ctx context.Context, token string, networkID int64) (*domain.Collateral, error)
	Insert(ctx context.Context, c *domain.Collateral) error
	Replace(ctx context.Context, c *domain.Collateral) error
}

// TaskRepository handles V1 tasks, unique on (projectRef, taskId).
type TaskRepository interface {
	Get(ctx context.Context, projectRef string, taskID int64) (*domain.Task, error)
	Insert(ctx context.Context, t *domain.Task) error
	Replace(ctx context.Context, t *domain.Task) error
}

// PlanRepository handles the maydone funding sub-records.
type PlanRepository interface {
	GetByProject(ctx context.Context, projectRef string) (*domain.Plan, error)
	Insert(ctx context.Context, p *domain.Plan) error
}

// ActRepository handles the development-progress sub-records.
type ActRepository interface {
	GetByProject(ctx context.Context, projectRef string) (*domain.Act, error)
	Insert(ctx context.Context, a *domain.Act) error

	// ListWithProjects joins acts with their owning projects, skipping
	// orphans.
	ListWithProjects(ctx context.Context) ([]domain.ActWithProject, error)
}

// ProcessedEventRepository records event ids whose effects are deltas
// rather than absolute state. Mint and redeem amounts accumulate, so a
// replayed batch must be able to recognise an already-applied event.
type ProcessedEventRepository interface {
	// Seen reports whether an event id was already applied.
	Seen(ctx context.Context, eventID string) (bool, error)

	// Mark records an event id as applied.
	Mark(ctx context.Context, eventID string, eventType domain.EventType) error
}

// LinkedWalletRepository reads wallet-to-user links. Links are written by the
// user-facing API, not by the indexer.
type LinkedWalletRepository interface {
	GetByWalletAddress(ctx context.Context, address string) (*domain.LinkedWallet, error)
	Save(ctx context.Context, w *domain.LinkedWallet) error
}
