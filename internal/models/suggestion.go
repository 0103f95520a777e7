package models

import "time"

// UserRecommendation is one ranked candidate for a task.
type UserRecommendation struct {
	UserID int64  `json:"userId"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// AssignmentSuggestion is the result of a recommender run: a ranking over
// every candidate plus inferred priority and effort.
type AssignmentSuggestion struct {
	Recommendations         []UserRecommendation `json:"recommendations"`
	SuggestedPriority       TaskPriority         `json:"suggested_priority"`
	SuggestedEstimatedHours float64              `json:"suggested_estimated_hours"`
	Insights                []string             `json:"insights,omitempty"`
}

// TaskAssignmentSuggestion is the persisted audit record of a successful
// model-assisted suggestion. Best-effort side effect only.
type TaskAssignmentSuggestion struct {
	ID                      int64        `json:"id"`
	Title                   string       `json:"title"`
	Description             string       `json:"description,omitempty"`
	TeamID                  int64        `json:"team_id"`
	Recommendations         string       `json:"recommendations"` // serialized JSON
	SuggestedPriority       TaskPriority `json:"suggested_priority"`
	SuggestedEstimatedHours float64      `json:"suggested_estimated_hours"`
	RequestedByID           *int64       `json:"requested_by_id,omitempty"`
	CreatedAt               time.Time    `json:"created_at"`
}
