package cmd

import (
	"log"
	"os"
	"strconv"

	"waveclip/config"
	"waveclip/handlers"
	"waveclip/middleware"
	"waveclip/services"
	"waveclip/websocket"

	"github.com/gin-gonic/gin"
)

// StartWebServer starts the web server
func StartWebServer(port int) {
	// Set production mode if not specified
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize services
	hub := websocket.NewHub()
	go hub.Run()

	jobQueue := services.NewJobQueue(2, hub, config.GetFFmpegPath())
	jobQueue.Start()

	sessions := services.NewSessionService()

	r := NewRouter(sessions, jobQueue, hub)

	// Start server
	portStr := strconv.Itoa(port)
	if serverPort := os.Getenv("SERVER_PORT"); serverPort != "" {
		portStr = serverPort
	}

	log.Printf("Waveclip web server starting on port %s", portStr)
	if err := r.Run(":" + portStr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// NewRouter builds the gin engine with all middleware and routes. Shared by
// the server entrypoint and the test harness.
func NewRouter(sessions services.SessionService, jobQueue services.JobQueue, hub websocket.Hub) *gin.Engine {
	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(sessions, jobQueue, hub)
	clipHandler := handlers.NewClipHandler(sessions, jobQueue)
	jobHandler := handlers.NewJobHandler(jobQueue)
	healthHandler := handlers.NewHealthHandler()

	// Setup router
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply middleware
	r.Use(middleware.CORS())
	r.Use(middleware.Logging())
	r.Use(middleware.Security())

	setupRoutes(r, sessionHandler, clipHandler, jobHandler, healthHandler)
	return r
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, sessionHandler *handlers.SessionHandler, clipHandler *handlers.ClipHandler, jobHandler *handlers.JobHandler, healthHandler *handlers.HealthHandler) {
	// Health check endpoint
	r.GET("/health", healthHandler.HealthCheck)

	// API routes group
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		// Session lifecycle and timeline input
		sessionsGroup := apiGroup.Group("/sessions")
		{
			sessionsGroup.POST("", sessionHandler.CreateSession)
			sessionsGroup.GET("/:id", sessionHandler.GetSession)
			sessionsGroup.DELETE("/:id", sessionHandler.DeleteSession)

			// Source upload and pointer/playback events
			sessionsGroup.POST("/:id/source", sessionHandler.UploadSource)
			sessionsGroup.POST("/:id/input", sessionHandler.ApplyInput)

			// Clip export, listing, preview and download
			sessionsGroup.POST("/:id/clips", clipHandler.ExportClip)
			sessionsGroup.GET("/:id/clips", clipHandler.ListClips)
			sessionsGroup.GET("/:id/clips/:clipId/download", clipHandler.DownloadClip)
			sessionsGroup.GET("/:id/clips/:clipId/stream", clipHandler.StreamClip)
		}

		// Background job inspection
		jobsGroup := apiGroup.Group("/jobs")
		{
			jobsGroup.GET("", jobHandler.GetAllJobs)
			jobsGroup.GET("/:jobId", jobHandler.GetJob)
		}

		// WebSocket endpoint for realtime state and gestures
		wsGroup := apiGroup.Group("/ws")
		{
			wsGroup.GET("/sessions/:id", sessionHandler.HandleWebSocketConnection)
		}
	}
}
