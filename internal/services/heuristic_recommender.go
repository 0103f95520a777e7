package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
)

// Skill taxonomy used to infer what a task requires and what a member has
// shown evidence of. Category order is fixed so analysis output is stable.
var skillCategories = []string{
	"FRONTEND", "BACKEND", "DATABASE", "DEVOPS", "SECURITY", "TESTING", "MOBILE", "AI_ML",
}

var skillKeywords = map[string][]string{
	"FRONTEND": {"react", "vue", "angular", "javascript", "typescript", "css", "html", "ui", "ux", "component", "interface", "responsive"},
	"BACKEND":  {"api", "server", "database", "node", "express", "python", "java", "authentication", "auth", "endpoint", "microservice"},
	"DATABASE": {"sql", "mongodb", "postgres", "mysql", "redis", "database", "schema", "migration", "query", "data"},
	"DEVOPS":   {"docker", "kubernetes", "aws", "deploy", "deployment", "infrastructure", "ci/cd", "pipeline", "monitoring"},
	"SECURITY": {"authentication", "authorization", "security", "encryption", "jwt", "oauth", "ssl", "vulnerability"},
	"TESTING":  {"test", "testing", "unit", "integration", "e2e", "jest", "cypress", "automation", "qa"},
	"MOBILE":   {"mobile", "ios", "android", "react native", "flutter", "swift", "kotlin", "app"},
	"AI_ML":    {"ai", "machine learning", "ml", "nlp", "recommendation", "algorithm", "data science", "neural"},
}

var priorityKeywords = []struct {
	priority models.TaskPriority
	words    []string
}{
	{models.PriorityUrgent, []string{"urgent", "critical", "emergency", "asap", "immediate", "hotfix", "production", "down", "broken"}},
	{models.PriorityHigh, []string{"important", "high", "priority", "deadline", "release", "milestone", "launch", "client", "customer"}},
	{models.PriorityMedium, []string{"feature", "enhancement", "improvement", "optimize", "refactor", "update"}},
	{models.PriorityLow, []string{"nice to have", "future", "documentation", "cleanup", "minor", "cosmetic", "polish"}},
}

var complexityKeywords = []struct {
	level     string
	baseHours float64
	words     []string
}{
	{"simple", 2, []string{"fix", "update", "change", "minor", "simple", "quick", "small"}},
	{"medium", 8, []string{"implement", "create", "add", "build", "develop", "integrate"}},
	{"complex", 20, []string{"architecture", "system", "framework", "migration", "redesign", "refactor", "optimization"}},
	{"very complex", 40, []string{"platform", "infrastructure", "security overhaul", "complete rewrite", "microservices"}},
}

// taskAnalysis is what the keyword pass extracts from title+description.
type taskAnalysis struct {
	SkillsRequired []string
	Complexity     string
	Priority       models.TaskPriority
	EstimatedHours float64
	Insights       []string
}

func analyzeTaskContent(title, description string) taskAnalysis {
	content := strings.ToLower(title + " " + description)
	out := taskAnalysis{Complexity: "medium", Priority: models.PriorityMedium, EstimatedHours: 8}

	for _, cat := range skillCategories {
		var hits []string
		for _, kw := range skillKeywords[cat] {
			if strings.Contains(content, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) > 0 {
			out.SkillsRequired = append(out.SkillsRequired, cat)
			out.Insights = append(out.Insights,
				fmt.Sprintf("Requires %s skills (detected: %s)", strings.ToLower(cat), strings.Join(hits, ", ")))
		}
	}

	best := 0
	for _, c := range complexityKeywords {
		n := 0
		for _, kw := range c.words {
			if strings.Contains(content, kw) {
				n++
			}
		}
		if n > best {
			best = n
			out.Complexity = c.level
			out.EstimatedHours = c.baseHours
		}
	}

	best = 0
	for _, p := range priorityKeywords {
		n := 0
		for _, kw := range p.words {
			if strings.Contains(content, kw) {
				n++
			}
		}
		if n > best {
			best = n
			out.Priority = p.priority
		}
	}

	specialized := false
	for _, s := range out.SkillsRequired {
		if s == "AI_ML" || s == "SECURITY" {
			specialized = true
		}
	}
	if specialized {
		out.EstimatedHours *= 1.5
		out.Insights = append(out.Insights, "Time adjusted upward for specialized domain")
	}
	if len(out.SkillsRequired) > 2 {
		out.EstimatedHours *= 1.2
		out.Insights = append(out.Insights, "Multi-disciplinary task requires additional coordination time")
	}
	out.EstimatedHours = math.Min(40, math.Max(1, math.Round(out.EstimatedHours)))
	return out
}

func skillMatchScore(required []string, memberTasks []models.Task, role models.Role) (float64, string) {
	if len(required) == 0 {
		return 50, "No specific skills detected"
	}

	var b strings.Builder
	for _, t := range memberTasks {
		b.WriteString(strings.ToLower(t.Title))
		b.WriteByte(' ')
	}
	history := b.String()

	matched := []string{}
	for _, cat := range required {
		for _, kw := range skillKeywords[cat] {
			if strings.Contains(history, kw) {
				matched = append(matched, strings.ToLower(cat))
				break
			}
		}
	}

	score := float64(len(matched)) / float64(len(required)) * 80
	if role == models.RoleTeamLeader {
		score += 10
	}
	score = math.Min(95, score)

	if len(matched) > 0 {
		return score, "Strong match: has experience with " + strings.Join(matched, ", ")
	}
	lowered := make([]string, len(required))
	for i, cat := range required {
		lowered[i] = strings.ToLower(cat)
	}
	return score, "Limited evidence of required skills (" + strings.Join(lowered, ", ") + ")"
}

func utilizationScore(openTasks []models.Task) (float64, string) {
	var hours float64
	for _, t := range openTasks {
		hours += t.EstimatedOrZero()
	}
	utilization := hours / workloadCapacityHours
	score := math.Max(10, math.Round((1-utilization)*90))

	var label string
	switch {
	case utilization > 0.8:
		label = "Overloaded"
	case utilization > 0.6:
		label = "Busy"
	default:
		label = "Available"
	}
	return score, fmt.Sprintf("%s: %gh of %gh capacity used", label, hours, workloadCapacityHours)
}

func availabilityScore(openTasks []models.Task, now time.Time) (float64, string) {
	overdue, highPriority := 0, 0
	for _, t := range openTasks {
		if t.OverdueAt(now) {
			overdue++
		}
		if t.Priority == models.PriorityHigh || t.Priority == models.PriorityUrgent {
			highPriority++
		}
	}
	score := math.Max(20, float64(100-overdue*25-highPriority*10))

	switch {
	case overdue > 0:
		return score, fmt.Sprintf("%d overdue task(s) may impact availability", overdue)
	case highPriority > 0:
		return score, fmt.Sprintf("%d high-priority task(s) in queue", highPriority)
	}
	return score, "Fully available"
}

// HeuristicRecommender ranks candidates from keyword-derived signals alone.
// It is the deterministic baseline and the fallback when the model-assisted
// path fails.
type HeuristicRecommender struct {
	now func() time.Time
}

func NewHeuristicRecommender(now func() time.Time) *HeuristicRecommender {
	if now == nil {
		now = time.Now
	}
	return &HeuristicRecommender{now: now}
}

// Suggest scores every member of the snapshot. Weights: 40% skill match,
// 35% workload, 25% availability.
func (r *HeuristicRecommender) Suggest(snapshot *models.TeamSnapshot, title, description string) (*models.AssignmentSuggestion, error) {
	if len(snapshot.Members) == 0 {
		return nil, apperrors.New(apperrors.KindInvalidState, "team %d has no members to assign", snapshot.Team.ID)
	}

	analysis := analyzeTaskContent(title, description)
	now := r.now()

	recs := make([]models.UserRecommendation, 0, len(snapshot.Members))
	for _, m := range snapshot.Members {
		open := snapshot.OpenTasks[m.ID]
		skill, skillWhy := skillMatchScore(analysis.SkillsRequired, open, m.Role)
		load, loadWhy := utilizationScore(open)
		avail, availWhy := availabilityScore(open, now)

		final := int(math.Round(skill*0.40 + load*0.35 + avail*0.25))
		recs = append(recs, models.UserRecommendation{
			UserID: m.ID,
			Score:  final,
			Reason: skillWhy + ". " + loadWhy + ". " + availWhy,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].UserID < recs[j].UserID
	})

	insights := append(analysis.Insights,
		fmt.Sprintf("Analyzed %d team members", len(snapshot.Members)),
		"Task complexity: "+analysis.Complexity,
	)

	return &models.AssignmentSuggestion{
		Recommendations:         recs,
		SuggestedPriority:       analysis.Priority,
		SuggestedEstimatedHours: analysis.EstimatedHours,
		Insights:                insights,
	}, nil
}
