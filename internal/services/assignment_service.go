package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
	"crewdesk/internal/repositories"
)

// Strategy selects how the orchestrator picks an assignee.
type Strategy string

const (
	StrategyAI       Strategy = "ai"
	StrategyBalanced Strategy = "balanced"
	StrategyMinLoad  Strategy = "min-load"
)

func ValidStrategy(s Strategy) bool {
	switch s {
	case StrategyAI, StrategyBalanced, StrategyMinLoad:
		return true
	}
	return false
}

const (
	autoAssignTxTimeout   = 15 * time.Second
	manualAssignTxTimeout = 10 * time.Second
)

// AssignmentResult reports what an assignment attempt did.
type AssignmentResult struct {
	Task          *models.Task            `json:"task"`
	Assignee      *models.User            `json:"assignee"`
	Approval      *models.ApprovalRequest `json:"approval,omitempty"`
	NeedsApproval bool                    `json:"needs_approval"`
	Strategy      Strategy                `json:"strategy,omitempty"`
	Rationale     string                  `json:"rationale,omitempty"`
}

// AssigneeNotifier is told about direct assignments. Best effort.
type AssigneeNotifier interface {
	NotifyAssigned(user *models.User, task *models.Task)
}

// AssignmentService resolves who a task should go to and applies the result,
// routing through the approval flow when the actor cannot assign directly.
type AssignmentService struct {
	store     repositories.Store
	ai        *AIAssignmentService
	heuristic *HeuristicRecommender
	notifier  AssigneeNotifier
	now       func() time.Time
}

func NewAssignmentService(store repositories.Store, ai *AIAssignmentService, heuristic *HeuristicRecommender, notifier AssigneeNotifier, now func() time.Time) *AssignmentService {
	if now == nil {
		now = time.Now
	}
	return &AssignmentService{store: store, ai: ai, heuristic: heuristic, notifier: notifier, now: now}
}

// AutoAssign picks an assignee for the task using the given strategy. The
// candidate resolution (including any model call) happens outside the
// transaction; only the final writes run inside it.
func (s *AssignmentService) AutoAssign(ctx context.Context, taskID int64, strategy Strategy, overrideApproval bool) (*AssignmentResult, error) {
	if !ValidStrategy(strategy) {
		return nil, apperrors.New(apperrors.KindInvalidState, "unknown assignment strategy %q", strategy)
	}

	task, err := s.store.Tasks().FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.TeamID == nil {
		return nil, apperrors.New(apperrors.KindInvalidState, "task %d has no team assigned", taskID)
	}
	snapshot, err := LoadTeamSnapshot(ctx, s.store, *task.TeamID)
	if err != nil {
		return nil, err
	}
	if len(snapshot.Members) == 0 {
		return nil, apperrors.New(apperrors.KindInvalidState, "team %d has no members to assign", snapshot.Team.ID)
	}

	chosenID, rationale, err := s.resolveCandidate(ctx, snapshot, task, strategy)
	if err != nil {
		return nil, err
	}

	chosen := snapshot.MemberByID(chosenID)
	if chosen == nil {
		// guards against a strategy returning an id outside the roster
		return nil, apperrors.New(apperrors.KindInvalidState, "selected user %d is not a member of team %d", chosenID, snapshot.Team.ID)
	}

	result := &AssignmentResult{Assignee: chosen, Strategy: strategy, Rationale: rationale}
	err = s.store.InTx(ctx, autoAssignTxTimeout, func(tx repositories.Store) error {
		current, err := tx.Tasks().FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if overrideApproval {
			if err := tx.Tasks().UpdateAssignment(ctx, taskID, chosenID, models.StatusInProgress); err != nil {
				return err
			}
			current.Status = models.StatusInProgress
		} else {
			approval := &models.ApprovalRequest{
				TaskID:        taskID,
				Status:        models.ApprovalPending,
				Reason:        fmt.Sprintf("Auto-assignment (%s) of task %q to %s", strategy, current.Title, chosen.Name),
				RequestedByID: chosenID,
				CreatedAt:     s.now(),
			}
			if err := tx.Approvals().Store(ctx, approval); err != nil {
				return err
			}
			if err := tx.Tasks().UpdateAssignment(ctx, taskID, chosenID, current.Status); err != nil {
				return err
			}
			result.Approval = approval
			result.NeedsApproval = true
		}
		current.AssigneeID = &chosenID
		result.Task = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.NeedsApproval && s.notifier != nil {
		s.notifier.NotifyAssigned(chosen, result.Task)
	}
	return result, nil
}

func (s *AssignmentService) resolveCandidate(ctx context.Context, snapshot *models.TeamSnapshot, task *models.Task, strategy Strategy) (int64, string, error) {
	switch strategy {
	case StrategyAI:
		suggestion, err := s.ai.SuggestForSnapshot(ctx, snapshot, task.Title, task.Description, nil)
		if err == nil && len(suggestion.Recommendations) > 0 {
			top := suggestion.Recommendations[0]
			return top.UserID, top.Reason, nil
		}
		if err != nil {
			log.Printf("[assignment][auto] ai strategy failed, falling back to balanced: %v", err)
		}
		id, why, ferr := s.chooseBalanced(snapshot)
		if ferr != nil {
			return 0, "", ferr
		}
		return id, "AI fallback to balanced: " + why, nil
	case StrategyBalanced:
		return s.chooseBalanced(snapshot)
	case StrategyMinLoad:
		return s.chooseMinLoad(snapshot)
	}
	return 0, "", apperrors.New(apperrors.KindInvalidState, "unknown assignment strategy %q", strategy)
}

// chooseBalanced picks the member with the lowest composite workload score.
// Ties go to the lowest user ID.
func (s *AssignmentService) chooseBalanced(snapshot *models.TeamSnapshot) (int64, string, error) {
	now := s.now()
	var bestID int64
	bestScore := -1
	var bestHours float64
	for _, m := range snapshot.Members {
		hours, _, score := ScoreOpenTasks(snapshot.OpenTasks[m.ID], now)
		if bestScore == -1 || score < bestScore || (score == bestScore && m.ID < bestID) {
			bestID, bestScore, bestHours = m.ID, score, hours
		}
	}
	if bestScore == -1 {
		return 0, "", apperrors.New(apperrors.KindInvalidState, "team %d has no members to assign", snapshot.Team.ID)
	}
	return bestID, fmt.Sprintf("Lowest workload score %d (%.1fh open)", bestScore, bestHours), nil
}

// chooseMinLoad picks by raw open estimated hours only.
func (s *AssignmentService) chooseMinLoad(snapshot *models.TeamSnapshot) (int64, string, error) {
	var bestID int64
	bestHours := -1.0
	for _, m := range snapshot.Members {
		var hours float64
		for _, t := range snapshot.OpenTasks[m.ID] {
			hours += t.EstimatedOrZero()
		}
		if bestHours < 0 || hours < bestHours || (hours == bestHours && m.ID < bestID) {
			bestID, bestHours = m.ID, hours
		}
	}
	if bestHours < 0 {
		return 0, "", apperrors.New(apperrors.KindInvalidState, "team %d has no members to assign", snapshot.Team.ID)
	}
	return bestID, fmt.Sprintf("Fewest open estimated hours (%.1fh)", bestHours), nil
}

// ManualAssign applies an explicit actor-chosen assignee. Approval is
// required when the actor asks for it or lacks the role to assign directly.
func (s *AssignmentService) ManualAssign(ctx context.Context, taskID, assigneeID, actorID int64, requestApproval bool, message string) (*AssignmentResult, error) {
	result := &AssignmentResult{}
	err := s.store.InTx(ctx, manualAssignTxTimeout, func(tx repositories.Store) error {
		task, err := tx.Tasks().FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task.TeamID == nil {
			return apperrors.New(apperrors.KindInvalidState, "task %d has no team assigned", taskID)
		}
		actor, err := tx.Users().FindByID(ctx, actorID)
		if err != nil {
			return err
		}
		assignee, err := tx.Users().FindByID(ctx, assigneeID)
		if err != nil {
			return err
		}
		if assignee.TeamID == nil || *assignee.TeamID != *task.TeamID {
			return apperrors.New(apperrors.KindInvalidState, "user %d is not a member of team %d", assigneeID, *task.TeamID)
		}

		needsApproval := requestApproval || !actor.Role.CanApprove()
		if needsApproval {
			reason := message
			if reason == "" {
				reason = fmt.Sprintf("Assignment of task %q to %s requested by %s", task.Title, assignee.Name, actor.Name)
			}
			approval := &models.ApprovalRequest{
				TaskID:        taskID,
				Status:        models.ApprovalPending,
				Reason:        reason,
				RequestedByID: actorID,
				CreatedAt:     s.now(),
			}
			if err := tx.Approvals().Store(ctx, approval); err != nil {
				return err
			}
			if err := tx.Tasks().UpdateAssignment(ctx, taskID, assigneeID, task.Status); err != nil {
				return err
			}
			result.Approval = approval
			result.NeedsApproval = true
		} else {
			status := task.Status
			if status == models.StatusDraft {
				status = models.StatusInProgress
			}
			if err := tx.Tasks().UpdateAssignment(ctx, taskID, assigneeID, status); err != nil {
				return err
			}
			task.Status = status
		}

		task.AssigneeID = &assigneeID
		result.Task = task
		result.Assignee = assignee
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.NeedsApproval && s.notifier != nil {
		s.notifier.NotifyAssigned(result.Assignee, result.Task)
	}
	return result, nil
}
