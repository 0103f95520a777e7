package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) error
	UpdateAssignment(ctx context.Context, id int64, assigneeID int64, status models.TaskStatus) error
	ListOpenByAssignees(ctx context.Context, userIDs []int64) (map[int64][]models.Task, error)
}

type taskRepository struct {
	q Querier
}

const taskColumns = `id, title, description, status, priority, estimated_hours,
       scheduled_at, assignee_id, creator_id, team_id, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }, t *models.Task) error {
	return row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.EstimatedHours,
		&t.ScheduledAt, &t.AssigneeID, &t.CreatorID, &t.TeamID, &t.CreatedAt, &t.UpdatedAt,
	)
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			title, description, status, priority, estimated_hours,
			scheduled_at, assignee_id, creator_id, team_id, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at, updated_at`
	return r.q.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Status, task.Priority, task.EstimatedHours,
		task.ScheduledAt, task.AssigneeID, task.CreatorID, task.TeamID,
		task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task := &models.Task{}
	err := scanTask(r.q.QueryRowContext(ctx, query, id), task)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.New(apperrors.KindNotFound, "task %d not found", id)
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`

	conditions := []string{}
	args := []any{}
	argID := 1

	if filter.TeamID != nil {
		conditions = append(conditions, fmt.Sprintf("team_id = $%d", argID))
		args = append(args, *filter.TeamID)
		argID++
	}
	if filter.AssigneeID != nil {
		conditions = append(conditions, fmt.Sprintf("assignee_id = $%d", argID))
		args = append(args, *filter.AssigneeID)
		argID++
	}
	if filter.CreatorID != nil {
		conditions = append(conditions, fmt.Sprintf("creator_id = $%d", argID))
		args = append(args, *filter.CreatorID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argID))
		args = append(args, *filter.Priority)
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC"

	rows, err := r.q.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET
			title=$1, description=$2, status=$3, priority=$4, estimated_hours=$5,
			scheduled_at=$6, assignee_id=$7, updated_at=$8
		WHERE id=$9`
	_, err := r.q.ExecContext(ctx, query,
		task.Title, task.Description, task.Status, task.Priority, task.EstimatedHours,
		task.ScheduledAt, task.AssigneeID, task.UpdatedAt, task.ID,
	)
	return err
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE tasks SET status=$1, updated_at=NOW() WHERE id=$2`, to, id)
	return err
}

func (r *taskRepository) UpdateAssignment(ctx context.Context, id int64, assigneeID int64, status models.TaskStatus) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE tasks SET assignee_id=$1, status=$2, updated_at=NOW() WHERE id=$3`,
		assigneeID, status, id)
	return err
}

// ListOpenByAssignees loads every open task for the given users in one
// query, keyed by assignee. Users with no open tasks map to an empty slice.
func (r *taskRepository) ListOpenByAssignees(ctx context.Context, userIDs []int64) (map[int64][]models.Task, error) {
	out := make(map[int64][]models.Task, len(userIDs))
	for _, id := range userIDs {
		out[id] = nil
	}
	if len(userIDs) == 0 {
		return out, nil
	}

	query := `SELECT ` + taskColumns + `
FROM tasks
WHERE assignee_id = ANY($1)
  AND status IN ('DRAFT','IN_PROGRESS','PENDING_APPROVAL')
ORDER BY created_at DESC`
	rows, err := r.q.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		if t.AssigneeID != nil {
			out[*t.AssigneeID] = append(out[*t.AssigneeID], t)
		}
	}
	return out, rows.Err()
}
