package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
	"crewdesk/internal/repositories"
)

// TextGenerator is the external text-generation collaborator. Its output is
// untrusted and goes through extraction and validation before use.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// AssignmentRequest describes the task to be analyzed for assignment.
type AssignmentRequest struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	TeamID        int64  `json:"team_id" binding:"required"`
	RequestedByID *int64 `json:"-"`
}

// AIAssignmentService obtains a candidate ranking from a text-generation
// model and persists successful suggestions as audit records.
type AIAssignmentService struct {
	store repositories.Store
	gen   TextGenerator
	now   func() time.Time
}

func NewAIAssignmentService(store repositories.Store, gen TextGenerator, now func() time.Time) *AIAssignmentService {
	if now == nil {
		now = time.Now
	}
	return &AIAssignmentService{store: store, gen: gen, now: now}
}

// GenerateSuggestion loads the team snapshot and runs the model path for a
// task that does not exist yet (the ad-hoc suggestion endpoint).
func (s *AIAssignmentService) GenerateSuggestion(ctx context.Context, req AssignmentRequest) (*models.AssignmentSuggestion, error) {
	snapshot, err := LoadTeamSnapshot(ctx, s.store, req.TeamID)
	if err != nil {
		return nil, err
	}
	return s.SuggestForSnapshot(ctx, snapshot, req.Title, req.Description, req.RequestedByID)
}

// SuggestForSnapshot runs the full model path against an already-loaded
// snapshot. Callers that hold a snapshot (the orchestrator) use this form so
// the model call never happens inside a transaction.
func (s *AIAssignmentService) SuggestForSnapshot(ctx context.Context, snapshot *models.TeamSnapshot, title, description string, requestedByID *int64) (*models.AssignmentSuggestion, error) {
	if len(snapshot.Members) == 0 {
		return nil, apperrors.New(apperrors.KindInvalidState, "team %d has no members to assign", snapshot.Team.ID)
	}

	systemPrompt := s.buildSystemPrompt(snapshot)
	userPrompt := fmt.Sprintf("TASK TO ASSIGN:\nTitle: %s\nDescription: %s\n\nPlease analyze this task and provide assignment recommendations for the team members.",
		title, orDefault(description, "No description provided"))

	raw, err := s.gen.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindExternalService, err, "text generation failed")
	}
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.New(apperrors.KindExternalService, "empty model response")
	}

	parsed, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	suggestion, err := validateSuggestion(parsed, snapshot.Members)
	if err != nil {
		return nil, err
	}

	s.persistAudit(ctx, snapshot.Team.ID, title, description, requestedByID, suggestion)
	return suggestion, nil
}

// History returns recent audit records for a team, newest first.
func (s *AIAssignmentService) History(ctx context.Context, teamID int64, limit int) ([]models.TaskAssignmentSuggestion, error) {
	if _, err := s.store.Teams().FindByID(ctx, teamID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.Suggestions().ListByTeam(ctx, teamID, limit)
}

type memberContext struct {
	UserID          int64   `json:"userId"`
	Name            string  `json:"name"`
	Role            string  `json:"role"`
	TotalHours      float64 `json:"totalHours"`
	ActiveTasks     int     `json:"activeTasks"`
	OverdueCount    int     `json:"overdueCount"`
	RecentTaskNames string  `json:"recentTasks"`
}

func (s *AIAssignmentService) buildSystemPrompt(snapshot *models.TeamSnapshot) string {
	now := s.now()
	roster := make([]memberContext, 0, len(snapshot.Members))
	for _, m := range snapshot.Members {
		open := snapshot.OpenTasks[m.ID]
		hours, overdue, _ := ScoreOpenTasks(open, now)

		var recent []string
		for i, t := range open {
			if i == 3 {
				break
			}
			recent = append(recent, fmt.Sprintf("%s [%s, %s]", t.Title, t.Priority, t.Status))
		}
		roster = append(roster, memberContext{
			UserID:          m.ID,
			Name:            m.Name,
			Role:            string(m.Role),
			TotalHours:      hours,
			ActiveTasks:     len(open),
			OverdueCount:    overdue,
			RecentTaskNames: strings.Join(recent, "; "),
		})
	}
	rosterJSON, _ := json.MarshalIndent(roster, "", "  ")

	ids := make([]string, len(roster))
	for i, m := range roster {
		ids[i] = fmt.Sprintf("%d", m.UserID)
	}

	return fmt.Sprintf(`You are a task assignment assistant for a project management system. Your job is to analyze team members and suggest the best assignment for a new task.

TEAM: %s
TEAM MEMBERS DATA:
%s

INSTRUCTIONS:
1. Analyze the task requirements and team member capabilities
2. Consider current workload, skills, and availability
3. Provide recommendations with scores (0-100, higher = better fit)
4. Suggest realistic priority and time estimates
5. Give clear reasons for each recommendation

RESPONSE FORMAT:
You must respond with ONLY valid JSON in this exact format:
{
  "recommendations": [
    {"userId": 1, "score": 85, "reason": "Strong backend experience, light workload."}
  ],
  "suggestedPriority": "MEDIUM",
  "suggestedEstimatedHours": 8
}

CRITICAL:
- Use EXACT userIds from the team data: %s
- Include ALL team members in recommendations (even with low scores)
- Scores must be numbers between 0-100
- Priority must be exactly "LOW", "MEDIUM", "HIGH", or "URGENT"
- Hours must be a number between 1-40
- Do not include any text outside the JSON response`,
		snapshot.Team.Name, rosterJSON, strings.Join(ids, ", "))
}

type rawRecommendation struct {
	UserID json.Number `json:"userId"`
	Score  *float64    `json:"score"`
	Reason string      `json:"reason"`
}

type rawSuggestion struct {
	Recommendations         []rawRecommendation `json:"recommendations"`
	SuggestedPriority       string              `json:"suggestedPriority"`
	SuggestedEstimatedHours *float64            `json:"suggestedEstimatedHours"`
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON pulls a JSON object out of a free-text model response. Three
// stages: direct parse, first top-level brace span, fenced code block.
func extractJSON(response string) (*rawSuggestion, error) {
	try := func(candidate string) *rawSuggestion {
		dec := json.NewDecoder(strings.NewReader(candidate))
		dec.UseNumber()
		var out rawSuggestion
		if err := dec.Decode(&out); err != nil {
			return nil
		}
		return &out
	}

	if out := try(strings.TrimSpace(response)); out != nil {
		return out, nil
	}
	if i, j := strings.Index(response, "{"), strings.LastIndex(response, "}"); i >= 0 && j > i {
		if out := try(response[i : j+1]); out != nil {
			return out, nil
		}
	}
	if m := fencedJSONRe.FindStringSubmatch(response); m != nil {
		if out := try(m[1]); out != nil {
			return out, nil
		}
	}
	return nil, apperrors.New(apperrors.KindExternalService, "no valid JSON found in model response")
}

// validateSuggestion enforces the response contract. Unknown user IDs are
// dropped; every other violation fails the suggestion as a whole. If nothing
// survives filtering, a placeholder ranking over the first members is
// synthesized instead of failing.
func validateSuggestion(raw *rawSuggestion, members []models.User) (*models.AssignmentSuggestion, error) {
	priority := models.TaskPriority(raw.SuggestedPriority)
	if !models.ValidPriority(priority) {
		return nil, apperrors.New(apperrors.KindExternalService, "invalid priority value: %q", raw.SuggestedPriority)
	}
	if raw.SuggestedEstimatedHours == nil || *raw.SuggestedEstimatedHours < 1 || *raw.SuggestedEstimatedHours > 40 {
		return nil, apperrors.New(apperrors.KindExternalService, "invalid estimated hours")
	}

	known := make(map[int64]bool, len(members))
	for _, m := range members {
		known[m.ID] = true
	}

	var recs []models.UserRecommendation
	for _, r := range raw.Recommendations {
		id, err := r.UserID.Int64()
		if err != nil || !known[id] {
			log.Printf("[ai][validate] dropping recommendation with unknown userId %q", r.UserID.String())
			continue
		}
		if r.Score == nil || *r.Score < 0 || *r.Score > 100 {
			return nil, apperrors.New(apperrors.KindExternalService, "invalid score for user %d", id)
		}
		reason := strings.TrimSpace(r.Reason)
		if reason == "" {
			return nil, apperrors.New(apperrors.KindExternalService, "missing reason for user %d", id)
		}
		recs = append(recs, models.UserRecommendation{
			UserID: id,
			Score:  int(math.Round(*r.Score)),
			Reason: reason,
		})
	}

	if len(recs) == 0 {
		for i, m := range members {
			if i == 3 {
				break
			}
			recs = append(recs, models.UserRecommendation{
				UserID: m.ID,
				Score:  80 - i*10,
				Reason: fmt.Sprintf("Team member available for assignment. Role: %s.", m.Role),
			})
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].UserID < recs[j].UserID
	})

	return &models.AssignmentSuggestion{
		Recommendations:         recs,
		SuggestedPriority:       priority,
		SuggestedEstimatedHours: RoundHours(*raw.SuggestedEstimatedHours),
	}, nil
}

// persistAudit stores the suggestion for later review. Failures are logged
// and swallowed: the audit trail must never block a response.
func (s *AIAssignmentService) persistAudit(ctx context.Context, teamID int64, title, description string, requestedByID *int64, suggestion *models.AssignmentSuggestion) {
	payload, err := json.Marshal(suggestion.Recommendations)
	if err != nil {
		log.Printf("[ai][audit] marshal recommendations: %v", err)
		return
	}
	record := &models.TaskAssignmentSuggestion{
		Title:                   title,
		Description:             description,
		TeamID:                  teamID,
		Recommendations:         string(payload),
		SuggestedPriority:       suggestion.SuggestedPriority,
		SuggestedEstimatedHours: suggestion.SuggestedEstimatedHours,
		RequestedByID:           requestedByID,
	}
	if err := s.store.Suggestions().Store(ctx, record); err != nil {
		log.Printf("[ai][audit] persist suggestion: %v", err)
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
