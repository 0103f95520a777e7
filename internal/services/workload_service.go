package services

import (
	"context"
	"math"
	"sort"
	"time"

	"crewdesk/internal/models"
	"crewdesk/internal/repositories"
)

// workloadCapacityHours is the assumed weekly capacity per member.
const workloadCapacityHours = 40.0

// ScoreOpenTasks computes the workload measure over a user's open tasks:
// open estimated hours, overdue count, and the composite score
// min(100, round((hours + 2*overdue) * 5)).
func ScoreOpenTasks(tasks []models.Task, now time.Time) (hours float64, overdue int, score int) {
	for _, t := range tasks {
		if t.Status == models.StatusCompleted {
			continue
		}
		hours += t.EstimatedOrZero()
		if t.OverdueAt(now) {
			overdue++
		}
	}
	score = int(math.Round((hours + 2*float64(overdue)) * 5))
	if score > 100 {
		score = 100
	}
	return hours, overdue, score
}

// RoundHours rounds a duration in hours to two decimals.
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

type WorkloadService interface {
	ComputeScores(ctx context.Context, teamID int64) ([]models.WorkloadScore, error)
	Stats(ctx context.Context, teamID int64) (*models.WorkloadStats, error)
	Overloaded(ctx context.Context, teamID int64, scoreThreshold int, hoursThreshold float64) ([]models.WorkloadScore, error)
}

type workloadService struct {
	store repositories.Store
	now   func() time.Time
}

func NewWorkloadService(store repositories.Store, now func() time.Time) WorkloadService {
	if now == nil {
		now = time.Now
	}
	return &workloadService{store: store, now: now}
}

// ComputeScores returns one score per team member, sorted score-descending.
// Ties are broken by ascending user ID so the ordering is stable across runs.
func (s *workloadService) ComputeScores(ctx context.Context, teamID int64) ([]models.WorkloadScore, error) {
	if _, err := s.store.Teams().FindByID(ctx, teamID); err != nil {
		return nil, err
	}
	members, err := s.store.Users().ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	openTasks, err := s.store.Tasks().ListOpenByAssignees(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	scores := make([]models.WorkloadScore, 0, len(members))
	for _, m := range members {
		hours, overdue, score := ScoreOpenTasks(openTasks[m.ID], now)
		scores = append(scores, models.WorkloadScore{
			UserID:             m.ID,
			UserName:           m.Name,
			OpenEstimatedHours: hours,
			OverdueCount:       overdue,
			Score:              score,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].UserID < scores[j].UserID
	})
	return scores, nil
}

func (s *workloadService) Stats(ctx context.Context, teamID int64) (*models.WorkloadStats, error) {
	scores, err := s.ComputeScores(ctx, teamID)
	if err != nil {
		return nil, err
	}
	stats := &models.WorkloadStats{TotalMembers: len(scores)}
	if len(scores) == 0 {
		return stats, nil
	}

	var sum int
	for _, sc := range scores {
		sum += sc.Score
		stats.TotalEstimatedHours += sc.OpenEstimatedHours
		stats.TotalOverdueTasks += sc.OverdueCount
	}
	stats.AverageScore = math.Round(float64(sum)/float64(len(scores))*100) / 100
	stats.HighestScore = scores[0].Score
	stats.LowestScore = scores[len(scores)-1].Score
	return stats, nil
}

func (s *workloadService) Overloaded(ctx context.Context, teamID int64, scoreThreshold int, hoursThreshold float64) ([]models.WorkloadScore, error) {
	scores, err := s.ComputeScores(ctx, teamID)
	if err != nil {
		return nil, err
	}
	var out []models.WorkloadScore
	for _, sc := range scores {
		if sc.Score >= scoreThreshold || sc.OpenEstimatedHours >= hoursThreshold {
			out = append(out, sc)
		}
	}
	return out, nil
}

// LoadTeamSnapshot builds the canonical per-request team view: team, members,
// and each member's open tasks loaded in one pass.
func LoadTeamSnapshot(ctx context.Context, store repositories.Store, teamID int64) (*models.TeamSnapshot, error) {
	team, err := store.Teams().FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	members, err := store.Users().ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	openTasks, err := store.Tasks().ListOpenByAssignees(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &models.TeamSnapshot{Team: *team, Members: members, OpenTasks: openTasks}, nil
}
