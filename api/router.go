package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/tubescribe/api/handlers"
	"github.com/yourusername/tubescribe/api/middleware"
	"github.com/yourusername/tubescribe/internal/app"
	"github.com/yourusername/tubescribe/internal/domain"
	"github.com/yourusername/tubescribe/internal/infrastructure"
	"github.com/yourusername/tubescribe/pkg/logger"
)

// SetupRouter sets up the HTTP router
func SetupRouter(
	orchestrator *app.Orchestrator,
	transcriptionMgr *app.TranscriptionManager,
	repo domain.JobRepository,
	ytdlp *infrastructure.YTDLPClient,
	transcriber *infrastructure.TranscriptionClient,
	jobsConfig domain.JobsConfig,
	logAdapter *logger.LoggerAdapter,
) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.LoggerWithAdapter(logAdapter))
	router.Use(middleware.RecoveryWithAdapter(logAdapter))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(ytdlp, transcriber)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Job endpoints
		jobHandler := handlers.NewJobHandler(orchestrator, transcriptionMgr, repo, ytdlp, jobsConfig, logAdapter.Error())
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.StartJob)
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/stats", jobHandler.GetStats)
			jobs.GET("/:id", jobHandler.GetJob)
		}

		// Slot endpoints
		slots := v1.Group("/slots")
		{
			slots.GET("", jobHandler.ListSlots)
			slots.POST("/:slot/cancel", jobHandler.CancelSlot)
		}

		// Metadata lookup
		v1.GET("/metadata", jobHandler.GetMetadata)

		// Event stream (WebSocket)
		eventHandler := handlers.NewEventWebSocketHandler(orchestrator, logAdapter.Error())
		v1.GET("/events/:slot", eventHandler.HandleWebSocket)

		// Log endpoints
		logHandler := handlers.NewLogHandler(logAdapter.GetMultiLogger().GetLogsDir())
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/stream", handlers.NewLogWebSocketHandler(logAdapter.GetMultiLogger().GetLogsDir(), logAdapter.Error()).HandleWebSocket)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	return router
}
