package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
)

type ApprovalRepository interface {
	Store(ctx context.Context, approval *models.ApprovalRequest) error
	FindByID(ctx context.Context, id int64) (*models.ApprovalRequest, error)
	FindAll(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error)
	ListByTask(ctx context.Context, taskID int64) ([]models.ApprovalRequest, error)
	// Resolve transitions a PENDING request to a terminal status. The write
	// is conditional on the stored status still being PENDING; false means
	// another resolver won the race.
	Resolve(ctx context.Context, id int64, to models.ApprovalStatus, approverID int64, at time.Time, reason string) (bool, error)
}

type approvalRepository struct {
	q Querier
}

const approvalColumns = `id, task_id, status, reason, requested_by_id, approved_by_id, approved_at, created_at`

func scanApproval(row interface{ Scan(...any) error }, a *models.ApprovalRequest) error {
	return row.Scan(&a.ID, &a.TaskID, &a.Status, &a.Reason,
		&a.RequestedByID, &a.ApprovedByID, &a.ApprovedAt, &a.CreatedAt)
}

func (r *approvalRepository) Store(ctx context.Context, approval *models.ApprovalRequest) error {
	return r.q.QueryRowContext(ctx, `
		INSERT INTO approval_requests (task_id, status, reason, requested_by_id, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`,
		approval.TaskID, approval.Status, approval.Reason,
		approval.RequestedByID, approval.CreatedAt,
	).Scan(&approval.ID, &approval.CreatedAt)
}

func (r *approvalRepository) FindByID(ctx context.Context, id int64) (*models.ApprovalRequest, error) {
	a := &models.ApprovalRequest{}
	err := scanApproval(r.q.QueryRowContext(ctx,
		`SELECT `+approvalColumns+` FROM approval_requests WHERE id = $1`, id), a)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.New(apperrors.KindNotFound, "approval request %d not found", id)
		}
		return nil, err
	}
	return a, nil
}

func (r *approvalRepository) FindAll(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error) {
	baseQuery := `SELECT a.id, a.task_id, a.status, a.reason, a.requested_by_id,
       a.approved_by_id, a.approved_at, a.created_at
FROM approval_requests a`

	conditions := []string{}
	args := []any{}
	argID := 1

	if filter.TeamID != nil {
		baseQuery += ` JOIN tasks t ON t.id = a.task_id`
		conditions = append(conditions, fmt.Sprintf("t.team_id = $%d", argID))
		args = append(args, *filter.TeamID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY a.created_at DESC"

	rows, err := r.q.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var approvals []models.ApprovalRequest
	for rows.Next() {
		var a models.ApprovalRequest
		if err := scanApproval(rows, &a); err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

func (r *approvalRepository) ListByTask(ctx context.Context, taskID int64) ([]models.ApprovalRequest, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+approvalColumns+` FROM approval_requests WHERE task_id = $1 ORDER BY created_at DESC`,
		taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var approvals []models.ApprovalRequest
	for rows.Next() {
		var a models.ApprovalRequest
		if err := scanApproval(rows, &a); err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

func (r *approvalRepository) Resolve(ctx context.Context, id int64, to models.ApprovalStatus, approverID int64, at time.Time, reason string) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE approval_requests
		SET status=$1, approved_by_id=$2, approved_at=$3, reason=$4
		WHERE id=$5 AND status='PENDING'`,
		to, approverID, at, reason, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
