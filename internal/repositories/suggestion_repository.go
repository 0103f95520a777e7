package repositories

import (
	"context"

	"crewdesk/internal/models"
)

type SuggestionRepository interface {
	Store(ctx context.Context, s *models.TaskAssignmentSuggestion) error
	ListByTeam(ctx context.Context, teamID int64, limit int) ([]models.TaskAssignmentSuggestion, error)
}

type suggestionRepository struct {
	q Querier
}

func (r *suggestionRepository) Store(ctx context.Context, s *models.TaskAssignmentSuggestion) error {
	return r.q.QueryRowContext(ctx, `
		INSERT INTO task_assignment_suggestions (
			title, description, team_id, recommendations,
			suggested_priority, suggested_estimated_hours, requested_by_id, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
		RETURNING id, created_at`,
		s.Title, s.Description, s.TeamID, s.Recommendations,
		s.SuggestedPriority, s.SuggestedEstimatedHours, s.RequestedByID,
	).Scan(&s.ID, &s.CreatedAt)
}

func (r *suggestionRepository) ListByTeam(ctx context.Context, teamID int64, limit int) ([]models.TaskAssignmentSuggestion, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, title, description, team_id, recommendations,
		       suggested_priority, suggested_estimated_hours, requested_by_id, created_at
		FROM task_assignment_suggestions
		WHERE team_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, teamID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TaskAssignmentSuggestion
	for rows.Next() {
		var s models.TaskAssignmentSuggestion
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.TeamID, &s.Recommendations,
			&s.SuggestedPriority, &s.SuggestedEstimatedHours, &s.RequestedByID, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
