package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
	"crewdesk/internal/repositories/memstore"
)

type fakeNotifier struct {
	mu       sync.Mutex
	assigned []int64
}

func (n *fakeNotifier) NotifyAssigned(user *models.User, task *models.Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assigned = append(n.assigned, user.ID)
}

func (n *fakeNotifier) calls() []int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int64(nil), n.assigned...)
}

func newAssignmentFixture(t *testing.T, gen TextGenerator) (*memstore.Store, *AssignmentService, *fakeNotifier, models.Team, []models.User) {
	t.Helper()
	store := memstore.New()
	team, users := seedTeam(t, store)
	if gen == nil {
		gen = &fakeGenerator{response: goodResponse}
	}
	notifier := &fakeNotifier{}
	ai := NewAIAssignmentService(store, gen, testClock)
	svc := NewAssignmentService(store, ai, NewHeuristicRecommender(testClock), notifier, testClock)
	return store, svc, notifier, team, users
}

func addOpenTask(store *memstore.Store, team models.Team, assignee models.User, hours float64) models.Task {
	return store.AddTask(models.Task{
		Title:          "existing work",
		Status:         models.StatusInProgress,
		Priority:       models.PriorityMedium,
		EstimatedHours: f64(hours),
		AssigneeID:     &assignee.ID,
		CreatorID:      assignee.ID,
		TeamID:         &team.ID,
	})
}

func TestAutoAssignBalanced(t *testing.T) {
	store, svc, _, team, users := newAssignmentFixture(t, nil)
	// Alice 10h, Bob 2h, Carol 4h: balanced picks Bob.
	addOpenTask(store, team, users[0], 10)
	addOpenTask(store, team, users[1], 2)
	addOpenTask(store, team, users[2], 4)
	task := store.AddTask(models.Task{Title: "new work", Status: models.StatusDraft,
		Priority: models.PriorityMedium, CreatorID: users[0].ID, TeamID: &team.ID})

	got, err := svc.AutoAssign(context.Background(), task.ID, StrategyBalanced, false)
	if err != nil {
		t.Fatalf("AutoAssign() error: %v", err)
	}
	if got.Assignee.ID != users[1].ID {
		t.Errorf("assignee = %d, want %d", got.Assignee.ID, users[1].ID)
	}
	if !got.NeedsApproval || got.Approval == nil {
		t.Fatal("expected a pending approval request")
	}
	if got.Approval.Status != models.ApprovalPending {
		t.Errorf("approval status = %s, want PENDING", got.Approval.Status)
	}
	if got.Approval.RequestedByID != users[1].ID {
		t.Errorf("approval RequestedByID = %d, want chosen user %d", got.Approval.RequestedByID, users[1].ID)
	}
	if !strings.Contains(got.Approval.Reason, "Auto-assignment (balanced)") {
		t.Errorf("approval reason = %q", got.Approval.Reason)
	}

	// Task keeps its status until the approval resolves, but carries the
	// tentative assignee.
	stored := store.TaskByID(task.ID)
	if stored.Status != models.StatusDraft {
		t.Errorf("task status = %s, want DRAFT while pending", stored.Status)
	}
	if stored.AssigneeID == nil || *stored.AssigneeID != users[1].ID {
		t.Errorf("task assignee = %v, want %d", stored.AssigneeID, users[1].ID)
	}
}

func TestAutoAssignBalancedTieGoesToLowestID(t *testing.T) {
	store, svc, _, team, users := newAssignmentFixture(t, nil)
	task := store.AddTask(models.Task{Title: "new work", Status: models.StatusDraft,
		Priority: models.PriorityMedium, CreatorID: users[0].ID, TeamID: &team.ID})

	got, err := svc.AutoAssign(context.Background(), task.ID, StrategyBalanced, false)
	if err != nil {
		t.Fatalf("AutoAssign() error: %v", err)
	}
	if got.Assignee.ID != users[0].ID {
		t.Errorf("assignee = %d, want lowest id %d on tie", got.Assignee.ID, users[0].ID)
	}
}

func TestAutoAssignMinLoadIgnoresOverdueWeight(t *testing.T) {
	store, svc, _, team, users := newAssignmentFixture(t, nil)
	// Alice: 5h with one overdue task (balanced score 35). Bob: 6h, none
	// overdue (balanced score 30). Carol: 8h.
	overdue := addOpenTask(store, team, users[0], 5)
	overdue.ScheduledAt = tmPtr(testNow.Add(-48 * time.Hour))
	store.AddTask(overdue)
	addOpenTask(store, team, users[1], 6)
	addOpenTask(store, team, users[2], 8)
	task := store.AddTask(models.Task{Title: "new work", Status: models.StatusDraft,
		Priority: models.PriorityMedium, CreatorID: users[0].ID, TeamID: &team.ID})

	got, err := svc.AutoAssign(context.Background(), task.ID, StrategyMinLoad, false)
	if err != nil {
		t.Fatalf("AutoAssign(min-load) error: %v", err)
	}
	if got.Assignee.ID != users[0].ID {
		t.Errorf("min-load assignee = %d, want %d (fewest raw hours)", got.Assignee.ID, users[0].ID)
	}

	got, err = svc.AutoAssign(context.Background(), task.ID, StrategyBalanced, false)
	if err != nil {
		t.Fatalf("AutoAssign(balanced) error: %v", err)
	}
	if got.Assignee.ID != users[1].ID {
		t.Errorf("balanced assignee = %d, want %d (overdue penalty applies)", got.Assignee.ID, users[1].ID)
	}
}

func TestAutoAssignAIUsesTopRecommendation(t *testing.T) {
	store, svc, _, team, users := newAssignmentFixture(t, &fakeGenerator{response: goodResponse})
	task := store.AddTask(models.Task{Title: "new work", Status: models.StatusDraft,
		Priority: models.PriorityMedium, CreatorID: users[0].ID, TeamID: &team.ID})

	got, err := svc.AutoAssign(context.Background(), task.ID, StrategyAI, false)
	if err != nil {
		t.Fatalf("AutoAssign(ai) error: %v", err)
	}
	// goodResponse ranks userId 2 first, which is Alice in this fixture.
	if got.Assignee.ID != users[0].ID {
		t.Errorf("assignee = %d, want model's top pick %d", got.Assignee.ID, users[0].ID)
	}
	if got.Rationale != "Light workload" {
		t.Errorf("rationale = %q, want the model's reason", got.Rationale)
	}
	if got.Strategy != StrategyAI {
		t.Errorf("strategy = %s, want ai", got.Strategy)
	}
}

func TestAutoAssignAIFallsBackToBalanced(t *testing.T) {
	store, svc, _, team, users := newAssignmentFixture(t, &fakeGenerator{err: errors.New("model offline")})
	addOpenTask(store, team, users[0], 10)
	task := store.AddTask(models.Task{Title: "new work", Status: models.StatusDraft,
		Priority: models.PriorityMedium, CreatorID: users[0].ID, TeamID: &team.ID})

	got, err := svc.AutoAssign(context.Background(), task.ID, StrategyAI, false)
	if err != nil {
		t.Fatalf("AutoAssign(ai with broken model) error: %v", err)
	}
	if got.Assignee.ID != users[1].ID {
		t.Errorf("fallback assignee = %d, want %d", got.Assignee.ID, users[1].ID)
	}
	if !strings.HasPrefix(got.Rationale, "AI fallback to balanced: ") {
		t.Errorf("rationale = %q, want fallback prefix", got.Rationale)
	}
}

func TestAutoAssignOverrideApproval(t *testing.T) {
	store, svc, notifier, team, users := newAssignmentFixture(t, nil)
	task := store.AddTask(models.Task{Title: "new work", Status: models.StatusDraft,
		Priority: models.PriorityMedium, CreatorID: users[0].ID, TeamID: &team.ID})

	got, err := svc.AutoAssign(context.Background(), task.ID, StrategyBalanced, true)
	if err != nil {
		t.Fatalf("AutoAssign(override) error: %v", err)
	}
	if got.NeedsApproval || got.Approval != nil {
		t.Error("override must not create an approval request")
	}
	if got.Task.Status != models.StatusInProgress {
		t.Errorf("task status = %s, want IN_PROGRESS", got.Task.Status)
	}
	if stored := store.TaskByID(task.ID); stored.Status != models.StatusInProgress {
		t.Errorf("stored task status = %s, want IN_PROGRESS", stored.Status)
	}
	if calls := notifier.calls(); len(calls) != 1 || calls[0] != got.Assignee.ID {
		t.Errorf("notifier calls = %v, want one for user %d", calls, got.Assignee.ID)
	}
}

func TestAutoAssignPendingDoesNotNotify(t *testing.T) {
	store, svc, notifier, team, users := newAssignmentFixture(t, nil)
	task := store.AddTask(models.Task{Title: "new work", Status: models.StatusDraft,
		Priority: models.PriorityMedium, CreatorID: users[0].ID, TeamID: &team.ID})

	if _, err := svc.AutoAssign(context.Background(), task.ID, StrategyBalanced, false); err != nil {
		t.Fatalf("AutoAssign() error: %v", err)
	}
	if calls := notifier.calls(); len(calls) != 0 {
		t.Errorf("notifier calls = %v, want none while approval is pending", calls)
	}
}

func TestAutoAssignErrors(t *testing.T) {
	store, svc, _, team, users := newAssignmentFixture(t, nil)

	t.Run("unknown strategy", func(t *testing.T) {
		task := store.AddTask(models.Task{Title: "t", Status: models.StatusDraft,
			Priority: models.PriorityMedium, CreatorID: users[0].ID, TeamID: &team.ID})
		_, err := svc.AutoAssign(context.Background(), task.ID, Strategy("round-robin"), false)
		if !apperrors.IsInvalidState(err) {
			t.Fatalf("error = %v, want invalid-state", err)
		}
	})

	t.Run("unknown task", func(t *testing.T) {
		_, err := svc.AutoAssign(context.Background(), 9999, StrategyBalanced, false)
		if !apperrors.IsNotFound(err) {
			t.Fatalf("error = %v, want not-found", err)
		}
	})

	t.Run("task without a team", func(t *testing.T) {
		task := store.AddTask(models.Task{Title: "orphan", Status: models.StatusDraft,
			Priority: models.PriorityMedium, CreatorID: users[0].ID})
		_, err := svc.AutoAssign(context.Background(), task.ID, StrategyBalanced, false)
		if !apperrors.IsInvalidState(err) {
			t.Fatalf("error = %v, want invalid-state", err)
		}
	})

	t.Run("empty team", func(t *testing.T) {
		empty := store.AddTeam(models.Team{Name: "Ghost"})
		task := store.AddTask(models.Task{Title: "t", Status: models.StatusDraft,
			Priority: models.PriorityMedium, CreatorID: users[0].ID, TeamID: &empty.ID})
		_, err := svc.AutoAssign(context.Background(), task.ID, StrategyBalanced, false)
		if !apperrors.IsInvalidState(err) {
			t.Fatalf("error = %v, want invalid-state", err)
		}
	})
}

func TestManualAssign(t *testing.T) {
	t.Run("leader assigns directly and promotes draft", func(t *testing.T) {
		store, svc, notifier, team, users := newAssignmentFixture(t, nil)
		task := store.AddTask(models.Task{Title: "new work", Status: models.StatusDraft,
			Priority: models.PriorityMedium, CreatorID: users[0].ID, TeamID: &team.ID})

		got, err := svc.ManualAssign(context.Background(), task.ID, users[1].ID, users[0].ID, false, "")
		if err != nil {
			t.Fatalf("ManualAssign() error: %v", err)
		}
		if got.NeedsApproval || got.Approval != nil {
			t.Error("leader assignment must not require approval")
		}
		if got.Task.Status != models.StatusInProgress {
			t.Errorf("task status = %s, want IN_PROGRESS", got.Task.Status)
		}
		if calls := notifier.calls(); len(calls) != 1 || calls[0] != users[1].ID {
			t.Errorf("notifier calls = %v", calls)
		}
	})

	t.Run("direct assign keeps non-draft status", func(t *testing.T) {
		store, svc, _, team, users := newAssignmentFixture(t, nil)
		task := store.AddTask(models.Task{Title: "new work", Status: models.StatusInProgress,
			Priority: models.PriorityMedium, CreatorID: users[0].ID, TeamID: &team.ID})

		got, err := svc.ManualAssign(context.Background(), task.ID, users[1].ID, users[0].ID, false, "")
		if err != nil {
			t.Fatalf("ManualAssign() error: %v", err)
		}
		if got.Task.Status != models.StatusInProgress {
			t.Errorf("task status = %s, want IN_PROGRESS", got.Task.Status)
		}
	})

	t.Run("member needs approval regardless of request flag", func(t *testing.T) {
		store, svc, notifier, team, users := newAssignmentFixture(t, nil)
		task := store.AddTask(models.Task{Title: "new work", Status: models.StatusDraft,
			Priority: models.PriorityMedium, CreatorID: users[1].ID, TeamID: &team.ID})

		got, err := svc.ManualAssign(context.Background(), task.ID, users[2].ID, users[1].ID, false, "")
		if err != nil {
			t.Fatalf("ManualAssign() error: %v", err)
		}
		if !got.NeedsApproval || got.Approval == nil {
			t.Fatal("member assignment must route through approval")
		}
		if got.Approval.RequestedByID != users[1].ID {
			t.Errorf("RequestedByID = %d, want the acting member %d", got.Approval.RequestedByID, users[1].ID)
		}
		if !strings.Contains(got.Approval.Reason, "requested by Bob") {
			t.Errorf("reason = %q", got.Approval.Reason)
		}
		if stored := store.TaskByID(task.ID); stored.Status != models.StatusDraft {
			t.Errorf("task status = %s, want DRAFT while pending", stored.Status)
		}
		if calls := notifier.calls(); len(calls) != 0 {
			t.Errorf("notifier calls = %v, want none", calls)
		}
	})

	t.Run("leader can explicitly request approval", func(t *testing.T) {
		store, svc, _, team, users := newAssignmentFixture(t, nil)
		task := store.AddTask(models.Task{Title: "new work", Status: models.StatusDraft,
			Priority: models.PriorityMedium, CreatorID: users[0].ID, TeamID: &team.ID})

		got, err := svc.ManualAssign(context.Background(), task.ID, users[1].ID, users[0].ID, true, "handover review")
		if err != nil {
			t.Fatalf("ManualAssign() error: %v", err)
		}
		if !got.NeedsApproval || got.Approval == nil {
			t.Fatal("expected an approval request")
		}
		if got.Approval.Reason != "handover review" {
			t.Errorf("reason = %q, want the caller's message", got.Approval.Reason)
		}
	})

	t.Run("assignee outside the team", func(t *testing.T) {
		store, svc, _, team, users := newAssignmentFixture(t, nil)
		other := store.AddTeam(models.Team{Name: "Other"})
		outsider := store.AddUser(models.User{Name: "Mallory", Email: "m@x.io",
			Role: models.RoleTeamMember, TeamID: &other.ID})
		task := store.AddTask(models.Task{Title: "new work", Status: models.StatusDraft,
			Priority: models.PriorityMedium, CreatorID: users[0].ID, TeamID: &team.ID})

		_, err := svc.ManualAssign(context.Background(), task.ID, outsider.ID, users[0].ID, false, "")
		if !apperrors.IsInvalidState(err) {
			t.Fatalf("error = %v, want invalid-state", err)
		}
	})
}
