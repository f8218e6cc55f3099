package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/infra/storage"
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// ProjectRepo implements storage.ProjectRepository using PostgreSQL. The
// nested sangha/lungta/leader sub-records live in JSONB columns.
type ProjectRepo struct {
	db *DB
}

// NewProjectRepo creates a new PostgreSQL project repository.
func NewProjectRepo(db *DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

type projectRow struct {
	ID        string `db:"id"`
	ProjectID int64  `db:"project_id"`
	NetworkID int64  `db:"network_id"`
	Name      string `db:"project_name"`
	Sangha    []byte `db:"sangha"`
	Lungta    []byte `db:"lungta"`
	Leader    []byte `db:"leader"`
}

func (row *projectRow) toDomain() (*domain.Project, error) {
	p := &domain.Project{
		ID:        row.ID,
		ProjectID: row.ProjectID,
		NetworkID: row.NetworkID,
		Name:      row.Name,
	}
	if len(row.Sangha) > 0 {
		p.Sangha = &domain.Sangha{}
		if err := json.Unmarshal(row.Sangha, p.Sangha); err != nil {
			return nil, fmt.Errorf("failed to decode sangha: %w", err)
		}
	}
	if len(row.Lungta) > 0 {
		p.Lungta = &domain.LungtaLinks{}
		if err := json.Unmarshal(row.Lungta, p.Lungta); err != nil {
			return nil, fmt.Errorf("failed to decode lungta: %w", err)
		}
	}
	if len(row.Leader) > 0 {
		p.Leader = &domain.LinkedWallet{}
		if err := json.Unmarshal(row.Leader, p.Leader); err != nil {
			return nil, fmt.Errorf("failed to decode leader: %w", err)
		}
	}
	return p, nil
}

func marshalNullable(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func projectColumns(p *domain.Project) (sangha, lungta, leader []byte, err error) {
	if p.Sangha != nil {
		if sangha, err = marshalNullable(p.Sangha); err != nil {
			return nil, nil, nil, err
		}
	}
	if p.Lungta != nil {
		if lungta, err = marshalNullable(p.Lungta); err != nil {
			return nil, nil, nil, err
		}
	}
	if p.Leader != nil {
		if leader, err = marshalNullable(p.Leader); err != nil {
			return nil, nil, nil, err
		}
	}
	return sangha, lungta, leader, nil
}

const projectSelect = `
	SELECT id, project_id, network_id, project_name, sangha, lungta, leader
	FROM projects_v1
`

// GetByNetwork retrieves a project by its natural key.
func (r *ProjectRepo) GetByNetwork(
	ctx context.Context,
	projectID, networkID int64,
) (*domain.Project, error) {
	var row projectRow
	err := r.db.GetContext(ctx, &row,
		projectSelect+`WHERE project_id = $1 AND network_id = $2`, projectID, networkID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %d/%d: %w", projectID, networkID, err)
	}
	return row.toDomain()
}

// GetByCheck retrieves the project whose sangha check token matches.
func (r *ProjectRepo) GetByCheck(
	ctx context.Context,
	check string,
	networkID int64,
) (*domain.Project, error) {
	var row projectRow
	err := r.db.GetContext(ctx, &row,
		projectSelect+`WHERE sangha->>'check' = $1 AND network_id = $2`, check, networkID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project by check %s: %w", check, err)
	}
	return row.toDomain()
}

// Insert creates a project and assigns its surrogate id.
func (r *ProjectRepo) Insert(ctx context.Context, p *domain.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	sangha, lungta, leader, err := projectColumns(p)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}

	query := `
		INSERT INTO projects_v1 (id, project_id, network_id, project_name, sangha, lungta, leader)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.ProjectID, p.NetworkID, p.Name, sangha, lungta, leader)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert project %d/%d: %w", p.ProjectID, p.NetworkID, err)
	}
	return nil
}

// Replace overwrites a project located by its natural key.
func (r *ProjectRepo) Replace(ctx context.Context, p *domain.Project) error {
	sangha, lungta, leader, err := projectColumns(p)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}

	query := `
		UPDATE projects_v1
		SET project_name = $3, sangha = $4, lungta = $5, leader = $6
		WHERE project_id = $1 AND network_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		p.ProjectID, p.NetworkID, p.Name, sangha, lungta, leader)
	if err != nil {
		return fmt.Errorf("failed to replace project %d/%d: %w", p.ProjectID, p.NetworkID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
