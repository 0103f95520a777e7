package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"crewdesk/internal/pdf"
	"crewdesk/internal/repositories"
	"crewdesk/internal/services"
)

const (
	overloadedScoreThreshold = 50
	overloadedHoursThreshold = 40.0
)

type WorkloadHandler struct {
	workload services.WorkloadService
	store    repositories.Store
	reports  pdf.ReportGenerator
}

func NewWorkloadHandler(workload services.WorkloadService, store repositories.Store, reports pdf.ReportGenerator) *WorkloadHandler {
	return &WorkloadHandler{workload: workload, store: store, reports: reports}
}

// @Summary      Team workload scores
// @Tags         Workload
// @Produce      json
// @Param        team_id  path  int  true  "Team ID"
// @Success      200  {array}  models.WorkloadScore
// @Failure      404  {object}  map[string]string
// @Router       /workload/{team_id} [get]
func (h *WorkloadHandler) Scores(c *gin.Context) {
	teamID, ok := pathID(c, "team_id")
	if !ok {
		return
	}
	scores, err := h.workload.ComputeScores(c.Request.Context(), teamID)
	if err != nil {
		log.Printf("[workload][scores][err] team=%d: %v", teamID, err)
		writeError(c, err)
		return
	}
	log.Printf("[workload][scores][ok] team=%d members=%d", teamID, len(scores))
	c.JSON(http.StatusOK, scores)
}

// @Summary      Team workload statistics
// @Tags         Workload
// @Produce      json
// @Param        team_id  path  int  true  "Team ID"
// @Success      200  {object}  models.WorkloadStats
// @Router       /workload/{team_id}/stats [get]
func (h *WorkloadHandler) Stats(c *gin.Context) {
	teamID, ok := pathID(c, "team_id")
	if !ok {
		return
	}
	stats, err := h.workload.Stats(c.Request.Context(), teamID)
	if err != nil {
		log.Printf("[workload][stats][err] team=%d: %v", teamID, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary      Overloaded team members
// @Tags         Workload
// @Produce      json
// @Param        team_id          path   int  true   "Team ID"
// @Param        score_threshold  query  int  false  "Score threshold (default 50)"
// @Success      200  {array}  models.WorkloadScore
// @Router       /workload/{team_id}/overloaded [get]
func (h *WorkloadHandler) Overloaded(c *gin.Context) {
	teamID, ok := pathID(c, "team_id")
	if !ok {
		return
	}

	scoreThreshold := overloadedScoreThreshold
	if v, ok := c.GetQuery("score_threshold"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			scoreThreshold = n
		} else {
			log.Printf("[workload][overloaded][warn] bad score_threshold=%q", v)
		}
	}
	hoursThreshold := overloadedHoursThreshold
	if v, ok := c.GetQuery("hours_threshold"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			hoursThreshold = f
		} else {
			log.Printf("[workload][overloaded][warn] bad hours_threshold=%q", v)
		}
	}

	scores, err := h.workload.Overloaded(c.Request.Context(), teamID, scoreThreshold, hoursThreshold)
	if err != nil {
		log.Printf("[workload][overloaded][err] team=%d: %v", teamID, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, scores)
}

// @Summary      Team workload report as PDF
// @Tags         Workload
// @Produce      application/pdf
// @Param        team_id  path  int  true  "Team ID"
// @Success      200  {file}  binary
// @Router       /workload/{team_id}/report.pdf [get]
func (h *WorkloadHandler) ReportPDF(c *gin.Context) {
	teamID, ok := pathID(c, "team_id")
	if !ok {
		return
	}
	team, err := h.store.Teams().FindByID(c.Request.Context(), teamID)
	if err != nil {
		log.Printf("[workload][report][err] team=%d: %v", teamID, err)
		writeError(c, err)
		return
	}
	scores, err := h.workload.ComputeScores(c.Request.Context(), teamID)
	if err != nil {
		log.Printf("[workload][report][err] scores team=%d: %v", teamID, err)
		writeError(c, err)
		return
	}

	out, err := h.reports.WorkloadReport(team, scores, time.Now())
	if err != nil {
		log.Printf("[workload][report][err] render team=%d: %v", teamID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render report"})
		return
	}
	log.Printf("[workload][report][ok] team=%d bytes=%d", teamID, len(out))
	c.Header("Content-Disposition", `attachment; filename="workload_report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", out)
}
