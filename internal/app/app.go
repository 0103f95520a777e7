package app

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"crewdesk/internal/config"
	"crewdesk/internal/handlers"
	"crewdesk/internal/llm"
	"crewdesk/internal/pdf"
	"crewdesk/internal/ratelimit"
	"crewdesk/internal/repositories"
	"crewdesk/internal/routes"
	"crewdesk/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "crewdesk/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	store := repositories.NewStore(db)

	// === External collaborators ===
	generator := llm.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model)

	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	telegramService, err := services.NewTelegramService(cfg.Telegram.BotToken)
	if err != nil {
		log.Printf("telegram disabled: %v", err)
	}
	notifier := services.NewNotifier(emailService, telegramService)

	limiter := ratelimit.NewLimiter(cfg.RateLimit.MaxRequests,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second, nil)
	limiter.StartCleanup(time.Minute, make(chan struct{}))

	// === Services ===
	taskService := services.NewTaskService(store, nil)
	workloadService := services.NewWorkloadService(store, nil)
	heuristic := services.NewHeuristicRecommender(nil)
	aiService := services.NewAIAssignmentService(store, generator, nil)
	assignmentService := services.NewAssignmentService(store, aiService, heuristic, notifier, nil)
	approvalService := services.NewApprovalService(store, nil)
	timeLogService := services.NewTimeLogService(store, nil)

	reportGen := pdf.NewReportGenerator()

	// === Handlers ===
	secret := []byte(cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(store, secret)
	userHandler := handlers.NewUserHandler(store)
	teamHandler := handlers.NewTeamHandler(store)
	taskHandler := handlers.NewTaskHandler(taskService, assignmentService, timeLogService)
	approvalHandler := handlers.NewApprovalHandler(approvalService, notifier)
	workloadHandler := handlers.NewWorkloadHandler(workloadService, store, reportGen)
	aiHandler := handlers.NewAIHandler(aiService, limiter)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		secret,
		authHandler,
		userHandler,
		teamHandler,
		taskHandler,
		approvalHandler,
		workloadHandler,
		aiHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("failed to start server: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
