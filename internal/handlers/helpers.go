package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
)

// tolerant of the types middlewares may put in (int64 / int / float64 / string)
func getInt64FromCtx(c *gin.Context, key string) (int64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getUserAndRole(c *gin.Context) (userID int64, role models.Role) {
	if id, ok := getInt64FromCtx(c, "user_id"); ok {
		userID = id
	}
	if v, ok := c.Get("role"); ok {
		if s, ok := v.(string); ok {
			role = models.Role(s)
		}
	}
	return
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// writeError maps the error taxonomy onto HTTP statuses. Unknown errors
// become 500 with a generic body.
func writeError(c *gin.Context, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.KindInvalidState:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperrors.KindUnauthorized:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperrors.KindExternalService:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case apperrors.KindTransient:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
