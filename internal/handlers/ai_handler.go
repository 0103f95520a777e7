package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crewdesk/internal/ratelimit"
	"crewdesk/internal/services"
)

type AIHandler struct {
	ai      *services.AIAssignmentService
	limiter *ratelimit.Limiter
}

func NewAIHandler(ai *services.AIAssignmentService, limiter *ratelimit.Limiter) *AIHandler {
	return &AIHandler{ai: ai, limiter: limiter}
}

// @Summary      Suggest an assignee for a task description
// @Description  Runs the model-assisted recommender over the team roster
// @Tags         AI
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.AssignmentSuggestion
// @Failure      429  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /ai/suggest-assignment [post]
func (h *AIHandler) SuggestAssignment(c *gin.Context) {
	userID, role := getUserAndRole(c)

	if h.limiter != nil {
		key := strconv.FormatInt(userID, 10)
		if ok, resetAt := h.limiter.Allow(key); !ok {
			log.Printf("[ai][suggest][limit] userID=%d reset=%s", userID, resetAt.Format("15:04:05"))
			c.Header("Retry-After", strconv.Itoa(int(resetAt.Unix())))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
			return
		}
	}

	var req services.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[ai][suggest][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.RequestedByID = &userID
	log.Printf("[ai][suggest] call by userID=%d role=%s team=%d title=%q", userID, role, req.TeamID, req.Title)

	suggestion, err := h.ai.GenerateSuggestion(c.Request.Context(), req)
	if err != nil {
		log.Printf("[ai][suggest][err] team=%d: %v", req.TeamID, err)
		writeError(c, err)
		return
	}
	log.Printf("[ai][suggest][ok] team=%d recommendations=%d", req.TeamID, len(suggestion.Recommendations))
	c.JSON(http.StatusOK, suggestion)
}

// @Summary      Recent suggestion audit records for a team
// @Tags         AI
// @Produce      json
// @Param        team_id  query  int  true   "Team ID"
// @Param        limit    query  int  false  "Max records (default 20)"
// @Success      200  {array}  models.TaskAssignmentSuggestion
// @Router       /ai/suggest-assignment/history [get]
func (h *AIHandler) History(c *gin.Context) {
	teamID, err := parseID(c.Query("team_id"))
	if err != nil || teamID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team_id"})
		return
	}
	limit := 20
	if v, ok := c.GetQuery("limit"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	history, err := h.ai.History(c.Request.Context(), teamID, limit)
	if err != nil {
		log.Printf("[ai][history][err] team=%d: %v", teamID, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
