package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/repository"
)

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, org_id, to_char(task_day, 'YYYY-MM-DD'), title, message, movement_ids, attributes, created_on, updated_on`

func (r *taskRepository) GetByDay(ctx context.Context, orgID int32, day string) (*domain.OperatorTask, error) {
	query := `SELECT ` + taskColumns + ` FROM operator_tasks WHERE org_id = $1 AND task_day = $2`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, orgID, day))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *taskRepository) Upsert(ctx context.Context, t *domain.OperatorTask) error {
	attrs, err := json.Marshal(t.Attributes)
	if err != nil {
		return err
	}
	now := time.Now()
	query := `INSERT INTO operator_tasks (org_id, task_day, title, message, movement_ids, attributes, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	          ON CONFLICT (org_id, task_day) DO UPDATE
	          SET title = EXCLUDED.title, message = EXCLUDED.message, movement_ids = EXCLUDED.movement_ids,
	              attributes = EXCLUDED.attributes, updated_on = EXCLUDED.updated_on
	          RETURNING id, created_on, updated_on`
	logger.DatabaseCall("operator_tasks.Upsert", query, "org_id", t.OrgID, "day", t.Day)
	err = r.db.QueryRowContext(ctx, query, t.OrgID, t.Day, t.Title, t.Message, pq.Array(t.MovementIDs), attrs, now).
		Scan(&t.ID, &t.CreatedOn, &t.UpdatedOn)
	logger.DatabaseResult("operator_tasks.Upsert", 1, err)
	return err
}

func (r *taskRepository) ListByOrg(ctx context.Context, orgID int32, limit int32) ([]domain.OperatorTask, error) {
	if limit <= 0 {
		limit = 30
	}
	query := `SELECT ` + taskColumns + ` FROM operator_tasks WHERE org_id = $1 ORDER BY task_day DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.OperatorTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (*domain.OperatorTask, error) {
	var t domain.OperatorTask
	var attrs []byte
	if err := row.Scan(&t.ID, &t.OrgID, &t.Day, &t.Title, &t.Message, pq.Array(&t.MovementIDs), &attrs, &t.CreatedOn, &t.UpdatedOn); err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &t.Attributes); err != nil {
			return nil, err
		}
	}
	return &t, nil
}
