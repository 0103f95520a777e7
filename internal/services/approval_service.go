package services

import (
	"context"
	"strings"
	"time"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
	"crewdesk/internal/repositories"
)

const approvalTxTimeout = 10 * time.Second

// ApprovalDecision is what an approver submits.
type ApprovalDecision struct {
	Approve bool
	// Comment is optional on approve, mandatory on reject.
	Comment string
}

// DecisionResult reports the resolved request and the task transition it
// triggered.
type DecisionResult struct {
	Approval *models.ApprovalRequest `json:"approval"`
	Task     *models.Task            `json:"task"`
	Approver *models.User            `json:"approver"`
}

// ApprovalService resolves pending approval requests and applies the
// companion task-status transition atomically.
type ApprovalService struct {
	store repositories.Store
	now   func() time.Time
}

func NewApprovalService(store repositories.Store, now func() time.Time) *ApprovalService {
	if now == nil {
		now = time.Now
	}
	return &ApprovalService{store: store, now: now}
}

func (s *ApprovalService) Get(ctx context.Context, id int64) (*models.ApprovalRequest, error) {
	return s.store.Approvals().FindByID(ctx, id)
}

func (s *ApprovalService) List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error) {
	return s.store.Approvals().FindAll(ctx, filter)
}

// RequesterOf resolves the user who raised the request.
func (s *ApprovalService) RequesterOf(ctx context.Context, approval *models.ApprovalRequest) (*models.User, error) {
	return s.store.Users().FindByID(ctx, approval.RequestedByID)
}

// Decide resolves a PENDING request exactly once. An approved request moves
// the task to IN_PROGRESS; a rejected one moves it to REJECTED and leaves
// the assignee untouched. Reason validation happens before any store access.
func (s *ApprovalService) Decide(ctx context.Context, approvalID, approverID int64, decision ApprovalDecision) (*DecisionResult, error) {
	comment := strings.TrimSpace(decision.Comment)
	if !decision.Approve && comment == "" {
		return nil, apperrors.New(apperrors.KindInvalidState, "rejection requires a reason")
	}

	result := &DecisionResult{}
	err := s.store.InTx(ctx, approvalTxTimeout, func(tx repositories.Store) error {
		approval, err := tx.Approvals().FindByID(ctx, approvalID)
		if err != nil {
			return err
		}
		if approval.Status != models.ApprovalPending {
			return apperrors.New(apperrors.KindInvalidState, "approval request %d is already %s", approvalID, strings.ToLower(string(approval.Status)))
		}

		approver, err := tx.Users().FindByID(ctx, approverID)
		if err != nil {
			return err
		}
		if !approver.Role.CanApprove() {
			return apperrors.New(apperrors.KindUnauthorized, "role %s cannot resolve approval requests", approver.Role)
		}

		task, err := tx.Tasks().FindByID(ctx, approval.TaskID)
		if err != nil {
			return err
		}
		if approver.Role != models.RoleAdmin {
			if task.TeamID == nil || approver.TeamID == nil || *approver.TeamID != *task.TeamID {
				return apperrors.New(apperrors.KindUnauthorized, "approver is not a member of the task's team")
			}
		}

		to := models.ApprovalRejected
		taskStatus := models.StatusRejected
		reason := approval.Reason + " | Rejected: " + comment
		if decision.Approve {
			to = models.ApprovalApproved
			taskStatus = models.StatusInProgress
			reason = approval.Reason
			if comment != "" {
				reason = approval.Reason + " | Approved: " + comment
			}
		}

		at := s.now()
		ok, err := tx.Approvals().Resolve(ctx, approvalID, to, approverID, at, reason)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.New(apperrors.KindInvalidState, "approval request %d is already resolved", approvalID)
		}

		if err := tx.Tasks().UpdateStatus(ctx, task.ID, taskStatus); err != nil {
			return err
		}

		approval.Status = to
		approval.Reason = reason
		approval.ApprovedByID = &approverID
		approval.ApprovedAt = &at
		task.Status = taskStatus

		result.Approval = approval
		result.Task = task
		result.Approver = approver
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
