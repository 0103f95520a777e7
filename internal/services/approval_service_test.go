package services

import (
	"context"
	"sync"
	"testing"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
	"crewdesk/internal/repositories/memstore"
)

func newApprovalFixture(t *testing.T) (*memstore.Store, *ApprovalService, models.Team, []models.User, models.Task, models.ApprovalRequest) {
	t.Helper()
	store := memstore.New()
	team, users := seedTeam(t, store)
	task := store.AddTask(models.Task{
		Title:      "rollout",
		Status:     models.StatusDraft,
		Priority:   models.PriorityMedium,
		AssigneeID: &users[1].ID,
		CreatorID:  users[0].ID,
		TeamID:     &team.ID,
	})
	approval := store.AddApproval(models.ApprovalRequest{
		TaskID:        task.ID,
		Status:        models.ApprovalPending,
		Reason:        "Assignment of task \"rollout\" to Bob requested by Bob",
		RequestedByID: users[1].ID,
		CreatedAt:     testNow,
	})
	return store, NewApprovalService(store, testClock), team, users, task, approval
}

func TestDecideApprove(t *testing.T) {
	store, svc, _, users, task, approval := newApprovalFixture(t)

	got, err := svc.Decide(context.Background(), approval.ID, users[0].ID, ApprovalDecision{Approve: true, Comment: "go ahead"})
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if got.Approval.Status != models.ApprovalApproved {
		t.Errorf("approval status = %s, want APPROVED", got.Approval.Status)
	}
	if got.Approval.ApprovedByID == nil || *got.Approval.ApprovedByID != users[0].ID {
		t.Errorf("ApprovedByID = %v, want %d", got.Approval.ApprovedByID, users[0].ID)
	}
	if got.Approval.ApprovedAt == nil || !got.Approval.ApprovedAt.Equal(testNow) {
		t.Errorf("ApprovedAt = %v, want fixture clock", got.Approval.ApprovedAt)
	}
	wantReason := approval.Reason + " | Approved: go ahead"
	if got.Approval.Reason != wantReason {
		t.Errorf("reason = %q, want %q", got.Approval.Reason, wantReason)
	}
	if got.Task.Status != models.StatusInProgress {
		t.Errorf("task status = %s, want IN_PROGRESS", got.Task.Status)
	}
	if stored := store.TaskByID(task.ID); stored.Status != models.StatusInProgress {
		t.Errorf("stored task status = %s", stored.Status)
	}
}

func TestDecideApproveWithoutComment(t *testing.T) {
	_, svc, _, users, _, approval := newApprovalFixture(t)

	got, err := svc.Decide(context.Background(), approval.ID, users[0].ID, ApprovalDecision{Approve: true})
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if got.Approval.Reason != approval.Reason {
		t.Errorf("reason = %q, want unchanged %q", got.Approval.Reason, approval.Reason)
	}
}

func TestDecideReject(t *testing.T) {
	store, svc, _, users, task, approval := newApprovalFixture(t)

	got, err := svc.Decide(context.Background(), approval.ID, users[0].ID, ApprovalDecision{Approve: false, Comment: "wrong sprint"})
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if got.Approval.Status != models.ApprovalRejected {
		t.Errorf("approval status = %s, want REJECTED", got.Approval.Status)
	}
	wantReason := approval.Reason + " | Rejected: wrong sprint"
	if got.Approval.Reason != wantReason {
		t.Errorf("reason = %q, want %q", got.Approval.Reason, wantReason)
	}
	if got.Task.Status != models.StatusRejected {
		t.Errorf("task status = %s, want REJECTED", got.Task.Status)
	}

	// The tentative assignee stays on the task so the history is readable.
	stored := store.TaskByID(task.ID)
	if stored.AssigneeID == nil || *stored.AssigneeID != users[1].ID {
		t.Errorf("assignee = %v, want untouched %d", stored.AssigneeID, users[1].ID)
	}
}

func TestDecideRejectRequiresReason(t *testing.T) {
	_, svc, _, users, _, approval := newApprovalFixture(t)

	for _, comment := range []string{"", "   "} {
		_, err := svc.Decide(context.Background(), approval.ID, users[0].ID, ApprovalDecision{Approve: false, Comment: comment})
		if !apperrors.IsInvalidState(err) {
			t.Fatalf("Decide(reject, %q) error = %v, want invalid-state", comment, err)
		}
	}
}

func TestDecideAuthorization(t *testing.T) {
	t.Run("member cannot approve", func(t *testing.T) {
		_, svc, _, users, _, approval := newApprovalFixture(t)
		_, err := svc.Decide(context.Background(), approval.ID, users[1].ID, ApprovalDecision{Approve: true})
		if !apperrors.IsUnauthorized(err) {
			t.Fatalf("error = %v, want unauthorized", err)
		}
	})

	t.Run("leader of another team cannot approve", func(t *testing.T) {
		store, svc, _, _, _, approval := newApprovalFixture(t)
		other := store.AddTeam(models.Team{Name: "Other"})
		foreign := store.AddUser(models.User{Name: "Dana", Email: "dana@x.io",
			Role: models.RoleTeamLeader, TeamID: &other.ID})

		_, err := svc.Decide(context.Background(), approval.ID, foreign.ID, ApprovalDecision{Approve: true})
		if !apperrors.IsUnauthorized(err) {
			t.Fatalf("error = %v, want unauthorized", err)
		}
	})

	t.Run("admin may approve across teams", func(t *testing.T) {
		store, svc, _, _, _, approval := newApprovalFixture(t)
		admin := store.AddUser(models.User{Name: "Root", Email: "root@x.io", Role: models.RoleAdmin})

		got, err := svc.Decide(context.Background(), approval.ID, admin.ID, ApprovalDecision{Approve: true})
		if err != nil {
			t.Fatalf("Decide() error: %v", err)
		}
		if got.Approval.Status != models.ApprovalApproved {
			t.Errorf("approval status = %s", got.Approval.Status)
		}
	})

	t.Run("unknown approver", func(t *testing.T) {
		_, svc, _, _, _, approval := newApprovalFixture(t)
		_, err := svc.Decide(context.Background(), approval.ID, 9999, ApprovalDecision{Approve: true})
		if !apperrors.IsNotFound(err) {
			t.Fatalf("error = %v, want not-found", err)
		}
	})
}

func TestDecideAlreadyResolved(t *testing.T) {
	_, svc, _, users, _, approval := newApprovalFixture(t)

	if _, err := svc.Decide(context.Background(), approval.ID, users[0].ID, ApprovalDecision{Approve: true}); err != nil {
		t.Fatalf("first Decide() error: %v", err)
	}
	_, err := svc.Decide(context.Background(), approval.ID, users[0].ID, ApprovalDecision{Approve: false, Comment: "no"})
	if !apperrors.IsInvalidState(err) {
		t.Fatalf("second Decide() error = %v, want invalid-state", err)
	}
}

func TestDecideUnknownApproval(t *testing.T) {
	_, svc, _, users, _, _ := newApprovalFixture(t)
	_, err := svc.Decide(context.Background(), 9999, users[0].ID, ApprovalDecision{Approve: true})
	if !apperrors.IsNotFound(err) {
		t.Fatalf("error = %v, want not-found", err)
	}
}

// Racing deciders must resolve the request exactly once; the losers get an
// invalid-state error.
func TestDecideConcurrentExactlyOnce(t *testing.T) {
	store, svc, _, users, _, approval := newApprovalFixture(t)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Decide(context.Background(), approval.ID, users[0].ID, ApprovalDecision{Approve: true, Comment: "race"})
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case apperrors.IsInvalidState(err):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("Decide() succeeded %d times, want exactly 1", wins)
	}

	if got := store.ApprovalByID(approval.ID); got.Status != models.ApprovalApproved {
		t.Errorf("final approval status = %s, want APPROVED", got.Status)
	}
}

func TestApprovalListAndGet(t *testing.T) {
	_, svc, team, users, _, approval := newApprovalFixture(t)
	pending := models.ApprovalPending

	got, err := svc.Get(context.Background(), approval.ID)
	if err != nil || got.ID != approval.ID {
		t.Fatalf("Get() = %v, %v", got, err)
	}

	list, err := svc.List(context.Background(), models.ApprovalFilter{Status: &pending, TeamID: &team.ID})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List() returned %d requests, want 1", len(list))
	}

	requester, err := svc.RequesterOf(context.Background(), got)
	if err != nil || requester.ID != users[1].ID {
		t.Fatalf("RequesterOf() = %v, %v; want user %d", requester, err, users[1].ID)
	}
}
