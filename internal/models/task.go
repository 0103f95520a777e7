package models

import "time"

// TaskStatus defines the possible lifecycle states of a task.
type TaskStatus string

const (
	StatusDraft           TaskStatus = "DRAFT"
	StatusAssigned        TaskStatus = "ASSIGNED"
	StatusInProgress      TaskStatus = "IN_PROGRESS"
	StatusPendingApproval TaskStatus = "PENDING_APPROVAL"
	StatusApproved        TaskStatus = "APPROVED"
	StatusRejected        TaskStatus = "REJECTED"
	StatusCompleted       TaskStatus = "COMPLETED"
)

// IsOpen reports whether a task in this status still counts against its
// assignee's workload.
func (s TaskStatus) IsOpen() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusPendingApproval:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

// ValidPriority reports whether p is one of the four known priorities.
func ValidPriority(p TaskPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task represents a unit of work owned by at most one assignee.
type Task struct {
	ID             int64        `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	EstimatedHours *float64     `json:"estimated_hours,omitempty"`
	ScheduledAt    *time.Time   `json:"scheduled_at,omitempty"`
	AssigneeID     *int64       `json:"assignee_id,omitempty"`
	CreatorID      int64        `json:"creator_id"`
	TeamID         *int64       `json:"team_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// EstimatedOrZero treats a missing estimate as zero hours.
func (t *Task) EstimatedOrZero() float64 {
	if t.EstimatedHours == nil {
		return 0
	}
	return *t.EstimatedHours
}

// OverdueAt reports whether the task is past its due timestamp and not done.
func (t *Task) OverdueAt(now time.Time) bool {
	return t.ScheduledAt != nil && t.ScheduledAt.Before(now) && t.Status != StatusCompleted
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	TeamID     *int64
	AssigneeID *int64
	CreatorID  *int64
	Status     *TaskStatus
	Priority   *TaskPriority
}
