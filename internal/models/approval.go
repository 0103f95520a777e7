package models

import "time"

// ApprovalStatus defines the lifecycle of an approval request.
// PENDING is the only non-terminal state.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// ApprovalRequest gates a task assignment until a team leader or admin
// resolves it. Once non-PENDING the record is immutable.
type ApprovalRequest struct {
	ID            int64          `json:"id"`
	TaskID        int64          `json:"task_id"`
	Status        ApprovalStatus `json:"status"`
	Reason        string         `json:"reason"`
	RequestedByID int64          `json:"requested_by_id"`
	ApprovedByID  *int64         `json:"approved_by_id,omitempty"`
	ApprovedAt    *time.Time     `json:"approved_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ApprovalFilter defines the available parameters for listing approvals.
type ApprovalFilter struct {
	Status *ApprovalStatus
	TeamID *int64
}
