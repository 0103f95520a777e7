package routes

import (
	"github.com/gin-gonic/gin"

	"crewdesk/internal/authz"
	"crewdesk/internal/handlers"
	"crewdesk/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	teamHandler *handlers.TeamHandler,
	taskHandler *handlers.TaskHandler,
	approvalHandler *handlers.ApprovalHandler,
	workloadHandler *handlers.WorkloadHandler,
	aiHandler *handlers.AIHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)

	// ---- protected
	r.Use(middleware.AuthMiddleware(jwtSecret))

	// USERS (read-only directory)
	users := r.Group("/users")
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.GetByID)
	}

	// TEAMS
	teams := r.Group("/teams")
	{
		teams.GET("", teamHandler.List)
		teams.GET("/:id", teamHandler.GetByID)
		teams.POST("", middleware.RequireRoles(authz.Admins()...), teamHandler.Create)
	}

	// TASKS
	tasks := r.Group("/tasks")
	{
		tasks.POST("", taskHandler.Create)
		tasks.GET("", taskHandler.GetAll)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.POST("/:id/auto-assign", taskHandler.AutoAssign)
		tasks.POST("/:id/assign", taskHandler.Assign)
		tasks.POST("/:id/log-time", taskHandler.LogTime)
		tasks.GET("/:id/time-logs", taskHandler.TimeLogs)
		tasks.GET("/:id/assignment-history", taskHandler.AssignmentHistory)
	}

	// APPROVALS (resolution is leader/admin only)
	approvals := r.Group("/approvals")
	{
		approvals.GET("", approvalHandler.List)
		approvals.GET("/:id", approvalHandler.GetByID)
		approvals.POST("/:id/approve", middleware.RequireRoles(authz.Approvers()...), approvalHandler.Approve)
		approvals.POST("/:id/reject", middleware.RequireRoles(authz.Approvers()...), approvalHandler.Reject)
	}

	// WORKLOAD
	workload := r.Group("/workload")
	{
		workload.GET("/:team_id", workloadHandler.Scores)
		workload.GET("/:team_id/stats", workloadHandler.Stats)
		workload.GET("/:team_id/overloaded", workloadHandler.Overloaded)
		workload.GET("/:team_id/report.pdf", workloadHandler.ReportPDF)
	}

	// AI
	ai := r.Group("/ai")
	{
		ai.POST("/suggest-assignment", aiHandler.SuggestAssignment)
		ai.GET("/suggest-assignment/history", aiHandler.History)
	}

	return r
}
