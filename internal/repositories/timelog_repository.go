package repositories

import (
	"context"

	"crewdesk/internal/models"
)

type TimeLogRepository interface {
	Store(ctx context.Context, entry *models.TimeLogEntry) error
	ListByTask(ctx context.Context, taskID int64) ([]models.TimeLogEntry, error)
	SumHoursByTask(ctx context.Context, taskID int64) (float64, error)
}

type timeLogRepository struct {
	q Querier
}

func (r *timeLogRepository) Store(ctx context.Context, entry *models.TimeLogEntry) error {
	return r.q.QueryRowContext(ctx, `
		INSERT INTO time_logs (task_id, user_id, start_time, end_time, hours_spent, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		RETURNING id, created_at`,
		entry.TaskID, entry.UserID, entry.StartTime, entry.EndTime,
		entry.HoursSpent, entry.Notes,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *timeLogRepository) ListByTask(ctx context.Context, taskID int64) ([]models.TimeLogEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, task_id, user_id, start_time, end_time, hours_spent, notes, created_at
		FROM time_logs WHERE task_id = $1 ORDER BY start_time DESC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.TimeLogEntry
	for rows.Next() {
		var e models.TimeLogEntry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.UserID, &e.StartTime, &e.EndTime,
			&e.HoursSpent, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *timeLogRepository) SumHoursByTask(ctx context.Context, taskID int64) (float64, error) {
	var total float64
	err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(hours_spent), 0) FROM time_logs WHERE task_id = $1`,
		taskID).Scan(&total)
	return total, err
}
