// Package memstore is an in-memory repositories.Store used as a test double.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
	"crewdesk/internal/repositories"
)

// Store keeps everything in maps behind one mutex. InTx runs the closure
// against the same store; individual writes are atomic under the lock, which
// is enough for the race semantics the services rely on (conditional
// approval resolution).
type Store struct {
	mu          sync.Mutex
	users       map[int64]models.User
	teams       map[int64]models.Team
	tasks       map[int64]models.Task
	approvals   map[int64]models.ApprovalRequest
	timeLogs    []models.TimeLogEntry
	suggestions []models.TaskAssignmentSuggestion
	nextID      int64

	// FailSuggestionStore makes the audit write fail, for best-effort tests.
	FailSuggestionStore bool
}

func New() *Store {
	return &Store{
		users:     map[int64]models.User{},
		teams:     map[int64]models.Team{},
		tasks:     map[int64]models.Task{},
		approvals: map[int64]models.ApprovalRequest{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// --- seeding helpers ---

func (s *Store) AddTeam(t models.Team) models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.id()
	} else if t.ID > s.nextID {
		s.nextID = t.ID
	}
	s.teams[t.ID] = t
	return t
}

func (s *Store) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	s.users[u.ID] = u
	return u
}

func (s *Store) AddTask(t models.Task) models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.id()
	} else if t.ID > s.nextID {
		s.nextID = t.ID
	}
	s.tasks[t.ID] = t
	return t
}

func (s *Store) AddApproval(a models.ApprovalRequest) models.ApprovalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.id()
	} else if a.ID > s.nextID {
		s.nextID = a.ID
	}
	s.approvals[a.ID] = a
	return a
}

func (s *Store) TaskByID(id int64) models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id]
}

func (s *Store) ApprovalByID(id int64) models.ApprovalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.approvals[id]
}

func (s *Store) AllApprovals() []models.ApprovalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ApprovalRequest, 0, len(s.approvals))
	for _, a := range s.approvals {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) AllSuggestions() []models.TaskAssignmentSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TaskAssignmentSuggestion(nil), s.suggestions...)
}

// --- repositories.Store ---

func (s *Store) Tasks() repositories.TaskRepository             { return (*taskRepo)(s) }
func (s *Store) Users() repositories.UserRepository             { return (*userRepo)(s) }
func (s *Store) Teams() repositories.TeamRepository             { return (*teamRepo)(s) }
func (s *Store) Approvals() repositories.ApprovalRepository     { return (*approvalRepo)(s) }
func (s *Store) TimeLogs() repositories.TimeLogRepository       { return (*timeLogRepo)(s) }
func (s *Store) Suggestions() repositories.SuggestionRepository { return (*suggestionRepo)(s) }

func (s *Store) InTx(ctx context.Context, timeout time.Duration, fn func(repositories.Store) error) error {
	return fn(s)
}

// --- tasks ---

type taskRepo Store

func (r *taskRepo) store() *Store { return (*Store)(r) }

func (r *taskRepo) Store(ctx context.Context, task *models.Task) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID == 0 {
		task.ID = s.id()
	}
	s.tasks[task.ID] = *task
	return nil
}

func (r *taskRepo) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "task %d not found", id)
	}
	return &t, nil
}

func (r *taskRepo) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Task
	for _, t := range s.tasks {
		if filter.TeamID != nil && (t.TeamID == nil || *t.TeamID != *filter.TeamID) {
			continue
		}
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *taskRepo) Update(ctx context.Context, task *models.Task) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return apperrors.New(apperrors.KindNotFound, "task %d not found", task.ID)
	}
	s.tasks[task.ID] = *task
	return nil
}

func (r *taskRepo) UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return apperrors.New(apperrors.KindNotFound, "task %d not found", id)
	}
	t.Status = to
	s.tasks[id] = t
	return nil
}

func (r *taskRepo) UpdateAssignment(ctx context.Context, id int64, assigneeID int64, status models.TaskStatus) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return apperrors.New(apperrors.KindNotFound, "task %d not found", id)
	}
	t.AssigneeID = &assigneeID
	t.Status = status
	s.tasks[id] = t
	return nil
}

func (r *taskRepo) ListOpenByAssignees(ctx context.Context, userIDs []int64) (map[int64][]models.Task, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64][]models.Task, len(userIDs))
	for _, id := range userIDs {
		out[id] = nil
	}
	for _, t := range s.tasks {
		if t.AssigneeID == nil || !t.Status.IsOpen() {
			continue
		}
		if _, wanted := out[*t.AssigneeID]; wanted {
			out[*t.AssigneeID] = append(out[*t.AssigneeID], t)
		}
	}
	for id := range out {
		sort.Slice(out[id], func(i, j int) bool { return out[id][i].ID < out[id][j].ID })
	}
	return out, nil
}

// --- users ---

type userRepo Store

func (r *userRepo) store() *Store { return (*Store)(r) }

func (r *userRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "user %d not found", id)
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, apperrors.New(apperrors.KindNotFound, "user %s not found", email)
}

func (r *userRepo) FindAll(ctx context.Context, teamID *int64) ([]models.User, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if teamID != nil && (u.TeamID == nil || *u.TeamID != *teamID) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *userRepo) ListByTeam(ctx context.Context, teamID int64) ([]models.User, error) {
	return r.FindAll(ctx, &teamID)
}

// --- teams ---

type teamRepo Store

func (r *teamRepo) store() *Store { return (*Store)(r) }

func (r *teamRepo) Store(ctx context.Context, team *models.Team) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	if team.ID == 0 {
		team.ID = s.id()
	}
	s.teams[team.ID] = *team
	return nil
}

func (r *teamRepo) FindByID(ctx context.Context, id int64) (*models.Team, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "team %d not found", id)
	}
	return &t, nil
}

func (r *teamRepo) FindAll(ctx context.Context) ([]models.Team, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Team
	for _, t := range s.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- approvals ---

type approvalRepo Store

func (r *approvalRepo) store() *Store { return (*Store)(r) }

func (r *approvalRepo) Store(ctx context.Context, approval *models.ApprovalRequest) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	if approval.ID == 0 {
		approval.ID = s.id()
	}
	s.approvals[approval.ID] = *approval
	return nil
}

func (r *approvalRepo) FindByID(ctx context.Context, id int64) (*models.ApprovalRequest, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.approvals[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "approval request %d not found", id)
	}
	return &a, nil
}

func (r *approvalRepo) FindAll(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ApprovalRequest
	for _, a := range s.approvals {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.TeamID != nil {
			t, ok := s.tasks[a.TaskID]
			if !ok || t.TeamID == nil || *t.TeamID != *filter.TeamID {
				continue
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *approvalRepo) ListByTask(ctx context.Context, taskID int64) ([]models.ApprovalRequest, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ApprovalRequest
	for _, a := range s.approvals {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *approvalRepo) Resolve(ctx context.Context, id int64, to models.ApprovalStatus, approverID int64, at time.Time, reason string) (bool, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.approvals[id]
	if !ok || a.Status != models.ApprovalPending {
		return false, nil
	}
	a.Status = to
	a.ApprovedByID = &approverID
	a.ApprovedAt = &at
	a.Reason = reason
	s.approvals[id] = a
	return true, nil
}

// --- time logs ---

type timeLogRepo Store

func (r *timeLogRepo) store() *Store { return (*Store)(r) }

func (r *timeLogRepo) Store(ctx context.Context, entry *models.TimeLogEntry) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == 0 {
		entry.ID = s.id()
	}
	s.timeLogs = append(s.timeLogs, *entry)
	return nil
}

func (r *timeLogRepo) ListByTask(ctx context.Context, taskID int64) ([]models.TimeLogEntry, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TimeLogEntry
	for _, e := range s.timeLogs {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *timeLogRepo) SumHoursByTask(ctx context.Context, taskID int64) (float64, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, e := range s.timeLogs {
		if e.TaskID == taskID {
			total += e.HoursSpent
		}
	}
	return total, nil
}

// --- suggestions ---

type suggestionRepo Store

func (r *suggestionRepo) store() *Store { return (*Store)(r) }

func (r *suggestionRepo) Store(ctx context.Context, sg *models.TaskAssignmentSuggestion) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSuggestionStore {
		return apperrors.New(apperrors.KindTransient, "suggestion store unavailable")
	}
	if sg.ID == 0 {
		sg.ID = s.id()
	}
	if sg.CreatedAt.IsZero() {
		sg.CreatedAt = time.Now()
	}
	s.suggestions = append(s.suggestions, *sg)
	return nil
}

func (r *suggestionRepo) ListByTeam(ctx context.Context, teamID int64, limit int) ([]models.TaskAssignmentSuggestion, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TaskAssignmentSuggestion
	for i := len(s.suggestions) - 1; i >= 0 && len(out) < limit; i-- {
		if s.suggestions[i].TeamID == teamID {
			out = append(out, s.suggestions[i])
		}
	}
	return out, nil
}
