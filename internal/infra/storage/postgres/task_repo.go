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

// TaskRepo implements storage.TaskRepository using PostgreSQL.
type TaskRepo struct {
	db *DB
}

// NewTaskRepo creates a new PostgreSQL task repository.
func NewTaskRepo(db *DB) *TaskRepo {
	return &TaskRepo{db: db}
}

type taskRow struct {
	ID          string `db:"id"`
	ProjectRef  string `db:"project_ref"`
	TaskID      int64  `db:"task_id"`
	CheckAmount string `db:"check_amount"`
	StartTime   int64  `db:"start_time"`
	EndTime     int64  `db:"end_time"`
	Payload     string `db:"payload"`
	Completed   bool   `db:"completed"`
	Canceled    bool   `db:"canceled"`
}

func (row *taskRow) toDomain() *domain.Task {
	return &domain.Task{
		ID:          row.ID,
		ProjectRef:  row.ProjectRef,
		TaskID:      row.TaskID,
		CheckAmount: row.CheckAmount,
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		Payload:     row.Payload,
		Completed:   row.Completed,
		Canceled:    row.Canceled,
	}
}

// Get retrieves a task by its natural key.
func (r *TaskRepo) Get(
	ctx context.Context,
	projectRef string,
	taskID int64,
) (*domain.Task, error) {
	var row taskRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, project_ref, task_id, check_amount, start_time, end_time,
		       payload, completed, canceled
		FROM tasks_v1
		WHERE project_ref = $1 AND task_id = $2
	`, projectRef, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s/%d: %w", projectRef, taskID, err)
	}
	return row.toDomain(), nil
}

// Insert creates a task and assigns its surrogate id.
func (r *TaskRepo) Insert(ctx context.Context, t *domain.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	query := `
		INSERT INTO tasks_v1 (id, project_ref, task_id, check_amount, start_time,
		                      end_time, payload, completed, canceled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.ProjectRef, t.TaskID, t.CheckAmount, t.StartTime,
		t.EndTime, t.Payload, t.Completed, t.Canceled)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert task %s/%d: %w", t.ProjectRef, t.TaskID, err)
	}
	return nil
}

// Replace overwrites a task located by its natural key.
func (r *TaskRepo) Replace(ctx context.Context, t *domain.Task) error {
	query := `
		UPDATE tasks_v1
		SET check_amount = $3, start_time = $4, end_time = $5, payload = $6,
		    completed = $7, canceled = $8
		WHERE project_ref = $1 AND task_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		t.ProjectRef, t.TaskID, t.CheckAmount, t.StartTime, t.EndTime,
		t.Payload, t.Completed, t.Canceled)
	if err != nil {
		return fmt.Errorf("failed to replace task %s/%d: %w", t.ProjectRef, t.TaskID, err)
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
