package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/infra/storage"
)

// PlanRepo implements storage.PlanRepository using PostgreSQL.
type PlanRepo struct {
	db *DB
}

// NewPlanRepo creates a new PostgreSQL plan repository.
func NewPlanRepo(db *DB) *PlanRepo {
	return &PlanRepo{db: db}
}

type planRow struct {
	ID         string `db:"id"`
	ProjectRef string `db:"project_ref"`
	CostUSD    string `db:"cost_usd"`
}

// GetByProject retrieves the plan for a project.
func (r *PlanRepo) GetByProject(ctx context.Context, projectRef string) (*domain.Plan, error) {
	var row planRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, project_ref, cost_usd FROM plans WHERE project_ref = $1`, projectRef)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan for %s: %w", projectRef, err)
	}
	return &domain.Plan{ID: row.ID, ProjectRef: row.ProjectRef, CostUSD: row.CostUSD}, nil
}

// Insert creates a plan and assigns its surrogate id.
func (r *PlanRepo) Insert(ctx context.Context, p *domain.Plan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO plans (id, project_ref, cost_usd) VALUES ($1, $2, $3)`,
		p.ID, p.ProjectRef, p.CostUSD)
	if err != nil {
		return fmt.Errorf("failed to insert plan for %s: %w", p.ProjectRef, err)
	}
	return nil
}

// ActRepo implements storage.ActRepository using PostgreSQL.
type ActRepo struct {
	db *DB
}

// NewActRepo creates a new PostgreSQL act repository.
func NewActRepo(db *DB) *ActRepo {
	return &ActRepo{db: db}
}

type actRow struct {
	ID                string `db:"id"`
	ProjectRef        string `db:"project_ref"`
	TechStack         string `db:"tech_stack"`
	SourceCodeURL     string `db:"source_code_url"`
	TestURL           string `db:"test_url"`
	StartTime         int64  `db:"start_time"`
	Duration          int64  `db:"duration"`
	ForumUsername     string `db:"forum_username"`
	ForumDiscussionID int64  `db:"forum_discussion_id"`
	ForumUserID       int64  `db:"forum_user_id"`
	ForumCreatedAt    string `db:"forum_created_at"`
}

func (row *actRow) toDomain() domain.Act {
	return domain.Act{
		ID:                row.ID,
		ProjectRef:        row.ProjectRef,
		TechStack:         row.TechStack,
		SourceCodeURL:     row.SourceCodeURL,
		TestURL:           row.TestURL,
		StartTime:         row.StartTime,
		Duration:          row.Duration,
		ForumUsername:     row.ForumUsername,
		ForumDiscussionID: row.ForumDiscussionID,
		ForumUserID:       row.ForumUserID,
		ForumCreatedAt:    row.ForumCreatedAt,
	}
}

const actSelect = `
	SELECT id, project_ref, tech_stack, source_code_url, test_url, start_time,
	       duration, forum_username, forum_discussion_id, forum_user_id,
	       forum_created_at
	FROM acts
`

// GetByProject retrieves the act for a project.
func (r *ActRepo) GetByProject(ctx context.Context, projectRef string) (*domain.Act, error) {
	var row actRow
	err := r.db.GetContext(ctx, &row, actSelect+`WHERE project_ref = $1`, projectRef)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get act for %s: %w", projectRef, err)
	}
	act := row.toDomain()
	return &act, nil
}

// Insert creates an act and assigns its surrogate id.
func (r *ActRepo) Insert(ctx context.Context, a *domain.Act) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	query := `
		INSERT INTO acts (id, project_ref, tech_stack, source_code_url, test_url,
		                  start_time, duration, forum_username, forum_discussion_id,
		                  forum_user_id, forum_created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.ProjectRef, a.TechStack, a.SourceCodeURL, a.TestURL,
		a.StartTime, a.Duration, a.ForumUsername, a.ForumDiscussionID,
		a.ForumUserID, a.ForumCreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert act for %s: %w", a.ProjectRef, err)
	}
	return nil
}

// ListWithProjects joins acts with their owning projects.
func (r *ActRepo) ListWithProjects(ctx context.Context) ([]domain.ActWithProject, error) {
	type joinedRow struct {
		actRow
		ProjectID int64  `db:"project_id"`
		NetworkID int64  `db:"network_id"`
		Name      string `db:"project_name"`
	}

	var rows []joinedRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT a.id, a.project_ref, a.tech_stack, a.source_code_url, a.test_url,
		       a.start_time, a.duration, a.forum_username, a.forum_discussion_id,
		       a.forum_user_id, a.forum_created_at,
		       p.project_id, p.network_id, p.project_name
		FROM acts a
		JOIN projects_v1 p ON p.id = a.project_ref
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list acts: %w", err)
	}

	out := make([]domain.ActWithProject, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ActWithProject{
			Act: row.actRow.toDomain(),
			Project: domain.Project{
				ID:        row.ProjectRef,
				ProjectID: row.ProjectID,
				NetworkID: row.NetworkID,
				Name:      row.Name,
			},
		})
	}
	return out, nil
}

// LinkedWalletRepo implements storage.LinkedWalletRepository using PostgreSQL.
type LinkedWalletRepo struct {
	db *DB
}

// NewLinkedWalletRepo creates a new PostgreSQL linked-wallet repository.
func NewLinkedWalletRepo(db *DB) *LinkedWalletRepo {
	return &LinkedWalletRepo{db: db}
}

// GetByWalletAddress retrieves a wallet link by address.
func (r *LinkedWalletRepo) GetByWalletAddress(
	ctx context.Context,
	address string,
) (*domain.LinkedWallet, error) {
	var row struct {
		WalletAddress string `db:"wallet_address"`
		UserID        int64  `db:"user_id"`
		Username      string `db:"username"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT wallet_address, user_id, username
		FROM linked_wallets
		WHERE LOWER(wallet_address) = LOWER($1)
	`, address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get linked wallet %s: %w", address, err)
	}
	return &domain.LinkedWallet{
		UserID:        row.UserID,
		WalletAddress: row.WalletAddress,
		Username:      row.Username,
	}, nil
}

// Save upserts a wallet link by address.
func (r *LinkedWalletRepo) Save(ctx context.Context, w *domain.LinkedWallet) error {
	query := `
		INSERT INTO linked_wallets (wallet_address, user_id, username)
		VALUES ($1, $2, $3)
		ON CONFLICT (wallet_address) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			username = EXCLUDED.username
	`
	_, err := r.db.ExecContext(ctx, query, w.WalletAddress, w.UserID, w.Username)
	if err != nil {
		return fmt.Errorf("failed to save linked wallet %s: %w", w.WalletAddress, err)
	}
	return nil
}
