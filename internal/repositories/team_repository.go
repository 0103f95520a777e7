package repositories

import (
	"context"
	"database/sql"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
)

type TeamRepository interface {
	Store(ctx context.Context, team *models.Team) error
	FindByID(ctx context.Context, id int64) (*models.Team, error)
	FindAll(ctx context.Context) ([]models.Team, error)
}

type teamRepository struct {
	q Querier
}

func (r *teamRepository) Store(ctx context.Context, team *models.Team) error {
	return r.q.QueryRowContext(ctx,
		`INSERT INTO teams (name, description) VALUES ($1,$2) RETURNING id`,
		team.Name, team.Description,
	).Scan(&team.ID)
}

func (r *teamRepository) FindByID(ctx context.Context, id int64) (*models.Team, error) {
	team := &models.Team{}
	err := r.q.QueryRowContext(ctx,
		`SELECT id, name, description FROM teams WHERE id = $1`, id,
	).Scan(&team.ID, &team.Name, &team.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.New(apperrors.KindNotFound, "team %d not found", id)
		}
		return nil, err
	}
	return team, nil
}

func (r *teamRepository) FindAll(ctx context.Context) ([]models.Team, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, name, description FROM teams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
