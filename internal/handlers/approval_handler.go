package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"crewdesk/internal/models"
	"crewdesk/internal/services"
)

type ApprovalHandler struct {
	approvals *services.ApprovalService
	notifier  *services.Notifier
}

func NewApprovalHandler(approvals *services.ApprovalService, notifier *services.Notifier) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals, notifier: notifier}
}

// @Summary      List approval requests
// @Tags         Approvals
// @Produce      json
// @Param        status   query  string  false  "PENDING | APPROVED | REJECTED"
// @Param        team_id  query  int     false  "Filter by task team"
// @Success      200  {array}  models.ApprovalRequest
// @Router       /approvals [get]
func (h *ApprovalHandler) List(c *gin.Context) {
	userID, role := getUserAndRole(c)
	log.Printf("[approval][list] call by userID=%d role=%s q=%v", userID, role, c.Request.URL.RawQuery)

	var filter models.ApprovalFilter
	if v, ok := c.GetQuery("status"); ok {
		st := models.ApprovalStatus(v)
		filter.Status = &st
	}
	if v, ok := c.GetQuery("team_id"); ok {
		if id, err := parseID(v); err == nil {
			filter.TeamID = &id
		} else {
			log.Printf("[approval][list][warn] bad team_id=%q: %v", v, err)
		}
	}

	approvals, err := h.approvals.List(c.Request.Context(), filter)
	if err != nil {
		log.Printf("[approval][list][err] %v", err)
		writeError(c, err)
		return
	}
	log.Printf("[approval][list][ok] count=%d", len(approvals))
	c.JSON(http.StatusOK, approvals)
}

// @Summary      Get an approval request
// @Tags         Approvals
// @Produce      json
// @Param        id   path      int  true  "Approval ID"
// @Success      200  {object}  models.ApprovalRequest
// @Failure      404  {object}  map[string]string
// @Router       /approvals/{id} [get]
func (h *ApprovalHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	approval, err := h.approvals.Get(c.Request.Context(), id)
	if err != nil {
		log.Printf("[approval][getByID][err] id=%d: %v", id, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, approval)
}

// @Summary      Approve a request
// @Tags         Approvals
// @Accept       json
// @Produce      json
// @Param        id   path      int  true  "Approval ID"
// @Success      200  {object}  services.DecisionResult
// @Failure      409  {object}  map[string]string
// @Router       /approvals/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.decide(c, true)
}

// @Summary      Reject a request
// @Tags         Approvals
// @Accept       json
// @Produce      json
// @Param        id   path      int  true  "Approval ID"
// @Success      200  {object}  services.DecisionResult
// @Failure      409  {object}  map[string]string
// @Router       /approvals/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	h.decide(c, false)
}

func (h *ApprovalHandler) decide(c *gin.Context, approve bool) {
	userID, role := getUserAndRole(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Comment string `json:"comment"`
		Reason  string `json:"reason"` // accepted alias on reject
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Printf("[approval][decide][bind][err] %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	comment := req.Comment
	if comment == "" {
		comment = req.Reason
	}
	log.Printf("[approval][decide] call by userID=%d role=%s id=%d approve=%v", userID, role, id, approve)

	result, err := h.approvals.Decide(c.Request.Context(), id, userID, services.ApprovalDecision{
		Approve: approve,
		Comment: comment,
	})
	if err != nil {
		log.Printf("[approval][decide][err] id=%d: %v", id, err)
		writeError(c, err)
		return
	}
	log.Printf("[approval][decide][ok] id=%d status=%s task=%d task_status=%s",
		id, result.Approval.Status, result.Task.ID, result.Task.Status)
	c.JSON(http.StatusOK, result)

	h.notifyRequester(c, result, approve)
}

func (h *ApprovalHandler) notifyRequester(c *gin.Context, result *services.DecisionResult, approved bool) {
	if h.notifier == nil {
		return
	}
	requester, err := h.approvals.RequesterOf(c.Request.Context(), result.Approval)
	if err != nil {
		log.Printf("[approval][notify] requester lookup failed: %v", err)
		return
	}
	h.notifier.NotifyApprovalDecided(requester, result.Task, approved, result.Approval.Reason)
}
