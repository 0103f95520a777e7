package services

import (
	"context"
	"time"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
	"crewdesk/internal/repositories"
)

const timeLogTxTimeout = 10 * time.Second

// TimeSpec is the client's description of the time spent: either an explicit
// interval or a plain duration.
type TimeSpec struct {
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	DurationHours *float64   `json:"duration_hours"`
	Notes         string     `json:"notes"`
	// CompleteIfDone asks for the auto-completion rule to be evaluated
	// after the entry is recorded.
	CompleteIfDone bool `json:"complete_if_done"`
}

// TimeLogResult reports the appended entry plus the ledger total and whether
// the task auto-completed.
type TimeLogResult struct {
	Entry         *models.TimeLogEntry `json:"entry"`
	Task          *models.Task         `json:"task"`
	TotalHours    float64              `json:"total_hours"`
	AutoCompleted bool                 `json:"auto_completed"`
}

// TimeLogService appends time entries and evaluates auto-completion.
type TimeLogService struct {
	store repositories.Store
	now   func() time.Time
}

func NewTimeLogService(store repositories.Store, now func() time.Time) *TimeLogService {
	if now == nil {
		now = time.Now
	}
	return &TimeLogService{store: store, now: now}
}

// resolveTimeSpec normalizes the two accepted input shapes into a concrete
// interval and a positive two-decimal hour count.
func resolveTimeSpec(spec TimeSpec, now time.Time) (start, end time.Time, hours float64, err error) {
	switch {
	case spec.StartTime != nil && spec.EndTime != nil:
		start, end = *spec.StartTime, *spec.EndTime
		if !end.After(start) {
			return start, end, 0, apperrors.New(apperrors.KindInvalidState, "end time must be after start time")
		}
		hours = end.Sub(start).Hours()
	case spec.DurationHours != nil:
		if *spec.DurationHours <= 0 {
			return start, end, 0, apperrors.New(apperrors.KindInvalidState, "duration must be positive")
		}
		hours = *spec.DurationHours
		end = now
		start = end.Add(-time.Duration(hours * float64(time.Hour)))
	default:
		return start, end, 0, apperrors.New(apperrors.KindInvalidState, "either start/end times or a duration is required")
	}
	return start, end, RoundHours(hours), nil
}

// LogTime appends an entry for the acting user. Authorized for the task's
// assignee, a team leader of the task's team, or an admin. When asked, the
// task auto-completes once logged hours reach the estimate.
func (s *TimeLogService) LogTime(ctx context.Context, taskID, actorID int64, spec TimeSpec) (*TimeLogResult, error) {
	start, end, hours, err := resolveTimeSpec(spec, s.now())
	if err != nil {
		return nil, err
	}

	result := &TimeLogResult{}
	err = s.store.InTx(ctx, timeLogTxTimeout, func(tx repositories.Store) error {
		task, err := tx.Tasks().FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		actor, err := tx.Users().FindByID(ctx, actorID)
		if err != nil {
			return err
		}
		if !canLogTime(actor, task) {
			return apperrors.New(apperrors.KindUnauthorized, "user %d may not log time against task %d", actorID, taskID)
		}

		entry := &models.TimeLogEntry{
			TaskID:     taskID,
			UserID:     actorID,
			StartTime:  start,
			EndTime:    end,
			HoursSpent: hours,
			Notes:      spec.Notes,
		}
		if err := tx.TimeLogs().Store(ctx, entry); err != nil {
			return err
		}

		total, err := tx.TimeLogs().SumHoursByTask(ctx, taskID)
		if err != nil {
			return err
		}
		total = RoundHours(total)

		if spec.CompleteIfDone &&
			task.EstimatedHours != nil &&
			total >= *task.EstimatedHours &&
			task.Status != models.StatusCompleted {
			if err := tx.Tasks().UpdateStatus(ctx, taskID, models.StatusCompleted); err != nil {
				return err
			}
			task.Status = models.StatusCompleted
			result.AutoCompleted = true
		}

		result.Entry = entry
		result.Task = task
		result.TotalHours = total
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Entries lists the ledger for a task, newest first.
func (s *TimeLogService) Entries(ctx context.Context, taskID int64) ([]models.TimeLogEntry, float64, error) {
	if _, err := s.store.Tasks().FindByID(ctx, taskID); err != nil {
		return nil, 0, err
	}
	entries, err := s.store.TimeLogs().ListByTask(ctx, taskID)
	if err != nil {
		return nil, 0, err
	}
	var total float64
	for _, e := range entries {
		total += e.HoursSpent
	}
	return entries, RoundHours(total), nil
}

func canLogTime(actor *models.User, task *models.Task) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if task.AssigneeID != nil && *task.AssigneeID == actor.ID {
		return true
	}
	if actor.Role == models.RoleTeamLeader && actor.TeamID != nil && task.TeamID != nil && *actor.TeamID == *task.TeamID {
		return true
	}
	return false
}
