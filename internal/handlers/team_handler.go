package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"crewdesk/internal/models"
	"crewdesk/internal/repositories"
)

type TeamHandler struct {
	store repositories.Store
}

func NewTeamHandler(store repositories.Store) *TeamHandler {
	return &TeamHandler{store: store}
}

// @Summary      List teams
// @Tags         Teams
// @Produce      json
// @Success      200  {array}  models.Team
// @Router       /teams [get]
func (h *TeamHandler) List(c *gin.Context) {
	teams, err := h.store.Teams().FindAll(c.Request.Context())
	if err != nil {
		log.Printf("[team][list][err] %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

// @Summary      Get a team with its members
// @Tags         Teams
// @Produce      json
// @Param        id   path      int  true  "Team ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /teams/{id} [get]
func (h *TeamHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	team, err := h.store.Teams().FindByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[team][getByID][err] id=%d: %v", id, err)
		writeError(c, err)
		return
	}
	members, err := h.store.Users().ListByTeam(c.Request.Context(), id)
	if err != nil {
		log.Printf("[team][getByID][err] members id=%d: %v", id, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": team, "members": members})
}

// @Summary      Create a team
// @Tags         Teams
// @Accept       json
// @Produce      json
// @Success      201  {object}  models.Team
// @Router       /teams [post]
func (h *TeamHandler) Create(c *gin.Context) {
	userID, role := getUserAndRole(c)
	log.Printf("[team][create] call by userID=%d role=%s", userID, role)

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[team][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team := &models.Team{Name: req.Name, Description: req.Description}
	if err := h.store.Teams().Store(c.Request.Context(), team); err != nil {
		log.Printf("[team][create][err] %v", err)
		writeError(c, err)
		return
	}
	log.Printf("[team][create][ok] id=%d name=%q", team.ID, team.Name)
	c.JSON(http.StatusCreated, team)
}
