package services

import (
	"strings"
	"testing"
	"time"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
)

func TestAnalyzeTaskContent(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		desc       string
		wantSkills []string
		wantPrio   models.TaskPriority
		wantHours  float64
	}{
		{
			name:      "defaults with no signals",
			title:     "Weekly planning",
			wantPrio:  models.PriorityMedium,
			wantHours: 8,
		},
		{
			name:      "simple fix",
			title:     "Fix typo in footer",
			wantPrio:  models.PriorityMedium,
			wantHours: 2,
		},
		{
			name:       "urgent hotfix",
			title:      "Urgent hotfix: production down",
			wantPrio:   models.PriorityUrgent,
			wantHours:  2,
			wantSkills: nil,
		},
		{
			name:       "specialized domain multiplies hours",
			title:      "Implement endpoint token encryption",
			wantSkills: []string{"BACKEND", "SECURITY"},
			wantPrio:   models.PriorityMedium,
			wantHours:  12, // medium base 8 * 1.5
		},
		{
			name:       "multi-disciplinary coordination surcharge",
			title:      "Build react ui with rest endpoint and sql schema",
			wantSkills: []string{"FRONTEND", "BACKEND", "DATABASE"},
			wantPrio:   models.PriorityMedium,
			wantHours:  10, // medium base 8 * 1.2, rounded
		},
		{
			name:       "hours clamp at 40",
			title:      "Complete rewrite of the machine learning platform infrastructure",
			wantSkills: []string{"DEVOPS", "AI_ML"},
			wantPrio:   models.PriorityMedium,
			wantHours:  40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzeTaskContent(tt.title, tt.desc)
			if len(got.SkillsRequired) != len(tt.wantSkills) {
				t.Fatalf("SkillsRequired = %v, want %v", got.SkillsRequired, tt.wantSkills)
			}
			for i, s := range tt.wantSkills {
				if got.SkillsRequired[i] != s {
					t.Errorf("SkillsRequired[%d] = %s, want %s", i, got.SkillsRequired[i], s)
				}
			}
			if got.Priority != tt.wantPrio {
				t.Errorf("Priority = %s, want %s", got.Priority, tt.wantPrio)
			}
			if got.EstimatedHours != tt.wantHours {
				t.Errorf("EstimatedHours = %v, want %v", got.EstimatedHours, tt.wantHours)
			}
		})
	}
}

func TestSkillMatchScore(t *testing.T) {
	backendHistory := []models.Task{{Title: "Refactor API gateway"}}

	t.Run("no skills detected is neutral", func(t *testing.T) {
		score, why := skillMatchScore(nil, backendHistory, models.RoleTeamMember)
		if score != 50 {
			t.Errorf("score = %v, want 50", score)
		}
		if why != "No specific skills detected" {
			t.Errorf("reason = %q", why)
		}
	})

	t.Run("full match", func(t *testing.T) {
		score, why := skillMatchScore([]string{"BACKEND"}, backendHistory, models.RoleTeamMember)
		if score != 80 {
			t.Errorf("score = %v, want 80", score)
		}
		if !strings.Contains(why, "Strong match") {
			t.Errorf("reason = %q, want strong-match wording", why)
		}
	})

	t.Run("team leader bonus", func(t *testing.T) {
		score, _ := skillMatchScore([]string{"BACKEND"}, backendHistory, models.RoleTeamLeader)
		if score != 90 {
			t.Errorf("score = %v, want 90", score)
		}
	})

	t.Run("no evidence", func(t *testing.T) {
		score, why := skillMatchScore([]string{"MOBILE"}, backendHistory, models.RoleTeamMember)
		if score != 0 {
			t.Errorf("score = %v, want 0", score)
		}
		if !strings.Contains(why, "Limited evidence") {
			t.Errorf("reason = %q, want limited-evidence wording", why)
		}
	})
}

func TestUtilizationScore(t *testing.T) {
	t.Run("idle member", func(t *testing.T) {
		score, why := utilizationScore(nil)
		if score != 90 {
			t.Errorf("score = %v, want 90", score)
		}
		if !strings.HasPrefix(why, "Available") {
			t.Errorf("label = %q, want Available", why)
		}
	})

	t.Run("overloaded floors at 10", func(t *testing.T) {
		score, why := utilizationScore([]models.Task{{EstimatedHours: f64(38)}})
		if score != 10 {
			t.Errorf("score = %v, want 10", score)
		}
		if !strings.HasPrefix(why, "Overloaded") {
			t.Errorf("label = %q, want Overloaded", why)
		}
	})

	t.Run("busy band", func(t *testing.T) {
		_, why := utilizationScore([]models.Task{{EstimatedHours: f64(28)}})
		if !strings.HasPrefix(why, "Busy") {
			t.Errorf("label = %q, want Busy", why)
		}
	})
}

func TestAvailabilityScore(t *testing.T) {
	past := testNow.Add(-time.Hour)

	t.Run("fully available", func(t *testing.T) {
		score, why := availabilityScore(nil, testNow)
		if score != 100 || why != "Fully available" {
			t.Errorf("got (%v, %q)", score, why)
		}
	})

	t.Run("overdue penalty", func(t *testing.T) {
		tasks := []models.Task{
			{Status: models.StatusInProgress, ScheduledAt: tmPtr(past)},
			{Status: models.StatusInProgress, ScheduledAt: tmPtr(past)},
		}
		score, why := availabilityScore(tasks, testNow)
		if score != 50 {
			t.Errorf("score = %v, want 50", score)
		}
		if !strings.Contains(why, "overdue") {
			t.Errorf("reason = %q, want overdue wording", why)
		}
	})

	t.Run("high priority penalty", func(t *testing.T) {
		tasks := []models.Task{{Status: models.StatusInProgress, Priority: models.PriorityUrgent}}
		score, why := availabilityScore(tasks, testNow)
		if score != 90 {
			t.Errorf("score = %v, want 90", score)
		}
		if !strings.Contains(why, "high-priority") {
			t.Errorf("reason = %q, want high-priority wording", why)
		}
	})

	t.Run("floors at 20", func(t *testing.T) {
		var tasks []models.Task
		for i := 0; i < 5; i++ {
			tasks = append(tasks, models.Task{Status: models.StatusInProgress, ScheduledAt: tmPtr(past)})
		}
		score, _ := availabilityScore(tasks, testNow)
		if score != 20 {
			t.Errorf("score = %v, want 20", score)
		}
	})
}

func TestHeuristicSuggest(t *testing.T) {
	rec := NewHeuristicRecommender(testClock)

	t.Run("empty team", func(t *testing.T) {
		snapshot := &models.TeamSnapshot{Team: models.Team{ID: 7}}
		_, err := rec.Suggest(snapshot, "Anything", "")
		if !apperrors.IsInvalidState(err) {
			t.Fatalf("Suggest(empty team) error = %v, want invalid-state", err)
		}
	})

	t.Run("idle members tie by ascending id", func(t *testing.T) {
		snapshot := &models.TeamSnapshot{
			Team: models.Team{ID: 1, Name: "Platform"},
			Members: []models.User{
				{ID: 2, Name: "Bob", Role: models.RoleTeamMember},
				{ID: 1, Name: "Alice", Role: models.RoleTeamMember},
			},
			OpenTasks: map[int64][]models.Task{},
		}
		got, err := rec.Suggest(snapshot, "Weekly planning", "")
		if err != nil {
			t.Fatalf("Suggest() error: %v", err)
		}
		if len(got.Recommendations) != 2 {
			t.Fatalf("got %d recommendations, want 2", len(got.Recommendations))
		}
		// skill 50, load 90, availability 100: round(20 + 31.5 + 25) = 77.
		for _, r := range got.Recommendations {
			if r.Score != 77 {
				t.Errorf("score for user %d = %d, want 77", r.UserID, r.Score)
			}
			if r.Reason == "" {
				t.Errorf("empty reason for user %d", r.UserID)
			}
		}
		if got.Recommendations[0].UserID != 1 || got.Recommendations[1].UserID != 2 {
			t.Errorf("tie order = %d, %d; want ascending ids",
				got.Recommendations[0].UserID, got.Recommendations[1].UserID)
		}
		if got.SuggestedPriority != models.PriorityMedium {
			t.Errorf("SuggestedPriority = %s, want MEDIUM", got.SuggestedPriority)
		}
	})

	t.Run("busy member ranks below idle one", func(t *testing.T) {
		snapshot := &models.TeamSnapshot{
			Team: models.Team{ID: 1, Name: "Platform"},
			Members: []models.User{
				{ID: 1, Name: "Alice", Role: models.RoleTeamMember},
				{ID: 2, Name: "Bob", Role: models.RoleTeamMember},
			},
			OpenTasks: map[int64][]models.Task{
				1: {{Status: models.StatusInProgress, EstimatedHours: f64(38), Priority: models.PriorityUrgent}},
			},
		}
		got, err := rec.Suggest(snapshot, "Weekly planning", "")
		if err != nil {
			t.Fatalf("Suggest() error: %v", err)
		}
		if got.Recommendations[0].UserID != 2 {
			t.Errorf("top recommendation = user %d, want idle user 2", got.Recommendations[0].UserID)
		}
	})
}
