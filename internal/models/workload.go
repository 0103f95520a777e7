package models

// WorkloadScore is the derived per-user workload measure. Not persisted;
// recomputed on demand from the user's open tasks.
type WorkloadScore struct {
	UserID             int64   `json:"user_id"`
	UserName           string  `json:"user_name"`
	OpenEstimatedHours float64 `json:"open_estimated_hours"`
	OverdueCount       int     `json:"overdue_count"`
	Score              int     `json:"score"`
}

// WorkloadStats aggregates a team's workload distribution.
type WorkloadStats struct {
	TotalMembers        int     `json:"total_members"`
	AverageScore        float64 `json:"average_score"`
	HighestScore        int     `json:"highest_score"`
	LowestScore         int     `json:"lowest_score"`
	TotalEstimatedHours float64 `json:"total_estimated_hours"`
	TotalOverdueTasks   int     `json:"total_overdue_tasks"`
}
