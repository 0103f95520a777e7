package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"crewdesk/internal/repositories"
)

type UserHandler struct {
	store repositories.Store
}

func NewUserHandler(store repositories.Store) *UserHandler {
	return &UserHandler{store: store}
}

// @Summary      List users
// @Tags         Users
// @Produce      json
// @Param        team_id  query  int  false  "Filter by team"
// @Success      200  {array}  models.User
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var teamID *int64
	if v, ok := c.GetQuery("team_id"); ok {
		if id, err := parseID(v); err == nil {
			teamID = &id
		} else {
			log.Printf("[user][list][warn] bad team_id=%q: %v", v, err)
		}
	}

	users, err := h.store.Users().FindAll(c.Request.Context(), teamID)
	if err != nil {
		log.Printf("[user][list][err] %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary      Get a user
// @Tags         Users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  models.User
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.store.Users().FindByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[user][getByID][err] id=%d: %v", id, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
