package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crewdesk/internal/models"
	"crewdesk/internal/services"
)

type TaskHandler struct {
	tasks      services.TaskService
	assignment *services.AssignmentService
	timeLogs   *services.TimeLogService
}

func NewTaskHandler(tasks services.TaskService, assignment *services.AssignmentService, timeLogs *services.TimeLogService) *TaskHandler {
	return &TaskHandler{tasks: tasks, assignment: assignment, timeLogs: timeLogs}
}

// @Summary      Create a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Success      201  {object}  models.Task
// @Failure      400  {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID, role := getUserAndRole(c)
	log.Printf("[task][create] call by userID=%d role=%s", userID, role)

	var req struct {
		Title          string              `json:"title" binding:"required"`
		Description    string              `json:"description"`
		Priority       models.TaskPriority `json:"priority"`
		EstimatedHours *float64            `json:"estimated_hours"`
		ScheduledAt    *string             `json:"scheduled_at"` // RFC3339
		TeamID         *int64              `json:"team_id"`
		AssigneeID     *int64              `json:"assignee_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var scheduledAt *time.Time
	if req.ScheduledAt != nil && *req.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			log.Printf("[task][create][err] invalid scheduled_at=%q: %v", *req.ScheduledAt, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduled_at (RFC3339)"})
			return
		}
		scheduledAt = &t
	}

	task := &models.Task{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		EstimatedHours: req.EstimatedHours,
		ScheduledAt:    scheduledAt,
		AssigneeID:     req.AssigneeID,
		TeamID:         req.TeamID,
		CreatorID:      userID,
	}
	created, err := h.tasks.Create(c.Request.Context(), task)
	if err != nil {
		log.Printf("[task][create][err] %v", err)
		writeError(c, err)
		return
	}
	log.Printf("[task][create][ok] id=%d title=%q", created.ID, created.Title)
	c.JSON(http.StatusCreated, created)
}

// @Summary      List tasks
// @Tags         Tasks
// @Produce      json
// @Success      200  {array}  models.Task
// @Router       /tasks [get]
func (h *TaskHandler) GetAll(c *gin.Context) {
	userID, role := getUserAndRole(c)
	log.Printf("[task][list] call by userID=%d role=%s q=%v", userID, role, c.Request.URL.RawQuery)

	var filter models.TaskFilter
	if v, ok := c.GetQuery("team_id"); ok {
		if id, err := parseID(v); err == nil {
			filter.TeamID = &id
		} else {
			log.Printf("[task][list][warn] bad team_id=%q: %v", v, err)
		}
	}
	if v, ok := c.GetQuery("assignee_id"); ok {
		if id, err := parseID(v); err == nil {
			filter.AssigneeID = &id
		} else {
			log.Printf("[task][list][warn] bad assignee_id=%q: %v", v, err)
		}
	}
	if v, ok := c.GetQuery("creator_id"); ok {
		if id, err := parseID(v); err == nil {
			filter.CreatorID = &id
		} else {
			log.Printf("[task][list][warn] bad creator_id=%q: %v", v, err)
		}
	}
	if v, ok := c.GetQuery("status"); ok {
		st := models.TaskStatus(v)
		filter.Status = &st
	}
	if v, ok := c.GetQuery("priority"); ok {
		p := models.TaskPriority(v)
		filter.Priority = &p
	}

	tasks, err := h.tasks.GetAll(c.Request.Context(), filter)
	if err != nil {
		log.Printf("[task][list][err] %v", err)
		writeError(c, err)
		return
	}
	log.Printf("[task][list][ok] count=%d", len(tasks))
	c.JSON(http.StatusOK, tasks)
}

// @Summary      Get a task
// @Tags         Tasks
// @Produce      json
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  models.Task
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[task][getByID][err] id=%d: %v", id, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Update a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  models.Task
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	userID, role := getUserAndRole(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	log.Printf("[task][update] call by userID=%d role=%s id=%d", userID, role, id)

	current, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[task][update][err] get current id=%d: %v", id, err)
		writeError(c, err)
		return
	}

	var req struct {
		Title          *string              `json:"title"`
		Description    *string              `json:"description"`
		Priority       *models.TaskPriority `json:"priority"`
		EstimatedHours *float64             `json:"estimated_hours"`
		ScheduledAt    *string              `json:"scheduled_at"` // RFC3339, "" clears
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][update][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := *current
	if req.Title != nil {
		update.Title = *req.Title
	}
	if req.Description != nil {
		update.Description = *req.Description
	}
	if req.Priority != nil {
		update.Priority = *req.Priority
	}
	if req.EstimatedHours != nil {
		update.EstimatedHours = req.EstimatedHours
	}
	if req.ScheduledAt != nil {
		if *req.ScheduledAt == "" {
			update.ScheduledAt = nil
		} else {
			t, err := time.Parse(time.RFC3339, *req.ScheduledAt)
			if err != nil {
				log.Printf("[task][update][err] invalid scheduled_at=%q: %v", *req.ScheduledAt, err)
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduled_at"})
				return
			}
			update.ScheduledAt = &t
		}
	}

	updated, err := h.tasks.Update(c.Request.Context(), &update)
	if err != nil {
		log.Printf("[task][update][err] save id=%d: %v", id, err)
		writeError(c, err)
		return
	}
	log.Printf("[task][update][ok] id=%d", id)
	c.JSON(http.StatusOK, updated)
}

// @Summary      Auto-assign a task
// @Description  Picks an assignee via the requested strategy (ai, balanced, min-load)
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  services.AssignmentResult
// @Failure      409  {object}  map[string]string
// @Router       /tasks/{id}/auto-assign [post]
func (h *TaskHandler) AutoAssign(c *gin.Context) {
	userID, role := getUserAndRole(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Strategy         string `json:"strategy"`
		OverrideApproval bool   `json:"override_approval"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][auto-assign][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Strategy == "" {
		req.Strategy = string(services.StrategyBalanced)
	}
	log.Printf("[task][auto-assign] call by userID=%d role=%s id=%d strategy=%s override=%v",
		userID, role, id, req.Strategy, req.OverrideApproval)

	// only approvers can skip the approval step
	if req.OverrideApproval && !role.CanApprove() {
		log.Printf("[task][auto-assign][deny] role=%s tried override", role)
		c.JSON(http.StatusForbidden, gin.H{"error": "only a team leader or admin can override approval"})
		return
	}

	result, err := h.assignment.AutoAssign(c.Request.Context(), id, services.Strategy(req.Strategy), req.OverrideApproval)
	if err != nil {
		log.Printf("[task][auto-assign][err] id=%d: %v", id, err)
		writeError(c, err)
		return
	}
	log.Printf("[task][auto-assign][ok] id=%d assignee=%d approval=%v", id, result.Assignee.ID, result.NeedsApproval)
	c.JSON(http.StatusOK, result)
}

// @Summary      Assign a task to a user
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  services.AssignmentResult
// @Router       /tasks/{id}/assign [post]
func (h *TaskHandler) Assign(c *gin.Context) {
	userID, role := getUserAndRole(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		AssigneeID      int64  `json:"assignee_id" binding:"required"`
		RequestApproval bool   `json:"request_approval"`
		Message         string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][assign][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[task][assign] call by userID=%d role=%s id=%d assignee=%d request_approval=%v",
		userID, role, id, req.AssigneeID, req.RequestApproval)

	result, err := h.assignment.ManualAssign(c.Request.Context(), id, req.AssigneeID, userID, req.RequestApproval, req.Message)
	if err != nil {
		log.Printf("[task][assign][err] id=%d: %v", id, err)
		writeError(c, err)
		return
	}
	log.Printf("[task][assign][ok] id=%d assignee=%d approval=%v", id, req.AssigneeID, result.NeedsApproval)
	c.JSON(http.StatusOK, result)
}

// @Summary      Log time against a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id   path      int  true  "Task ID"
// @Success      201  {object}  services.TimeLogResult
// @Router       /tasks/{id}/log-time [post]
func (h *TaskHandler) LogTime(c *gin.Context) {
	userID, role := getUserAndRole(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var spec services.TimeSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		log.Printf("[task][log-time][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[task][log-time] call by userID=%d role=%s id=%d", userID, role, id)

	result, err := h.timeLogs.LogTime(c.Request.Context(), id, userID, spec)
	if err != nil {
		log.Printf("[task][log-time][err] id=%d: %v", id, err)
		writeError(c, err)
		return
	}
	log.Printf("[task][log-time][ok] id=%d hours=%.2f total=%.2f completed=%v",
		id, result.Entry.HoursSpent, result.TotalHours, result.AutoCompleted)
	c.JSON(http.StatusCreated, result)
}

// @Summary      Time entries of a task
// @Tags         Tasks
// @Produce      json
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /tasks/{id}/time-logs [get]
func (h *TaskHandler) TimeLogs(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	entries, total, err := h.timeLogs.Entries(c.Request.Context(), id)
	if err != nil {
		log.Printf("[task][time-logs][err] id=%d: %v", id, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total_hours": total})
}

// @Summary      Assignment history of a task
// @Tags         Tasks
// @Produce      json
// @Param        id   path      int  true  "Task ID"
// @Success      200  {array}  models.ApprovalRequest
// @Router       /tasks/{id}/assignment-history [get]
func (h *TaskHandler) AssignmentHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	history, err := h.tasks.AssignmentHistory(c.Request.Context(), id)
	if err != nil {
		log.Printf("[task][history][err] id=%d: %v", id, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
