package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"focustrack/internal/api/handlers"
	"focustrack/internal/api/middleware"
	"focustrack/internal/core"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the shared API key
const APIKeyHeader = "X-Focus-Key"

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig holds dependencies for the API router
type RouterConfig struct {
	Timer     core.TimerInterface
	Events    handlers.EventSource
	Store     Pinger // optional
	Timezone  *time.Location
	APIKey    string
	KeepAlive time.Duration // SSE keep-alive, defaults to 15s
	Logger    *slog.Logger
}

// NewRouter creates and configures the Gin router
func NewRouter(config RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(config.Logger))
	router.Use(middleware.Logging(config.Logger))
	router.Use(middleware.NoiseFilter(config.Logger))
	router.Use(middleware.ContentType())

	// Health check (no auth)
	var ping func() error
	if config.Store != nil {
		ping = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return config.Store.Ping(ctx)
		}
	}
	healthHandler := handlers.NewHealthHandler(ping)
	router.GET("/health", healthHandler.GetHealth)

	v1 := router.Group("/v1")
	v1.Use(authMiddleware(config.APIKey))
	{
		sessionsHandler := handlers.NewSessionsHandler(config.Timer, config.Timezone, config.Logger)
		v1.GET("/sessions", sessionsHandler.ListSessions)
		v1.POST("/sessions", sessionsHandler.CreateSession)
		v1.GET("/sessions/:id", sessionsHandler.GetSession)
		v1.PATCH("/sessions/:id", sessionsHandler.UpdateSession)
		v1.DELETE("/sessions/:id", sessionsHandler.DeleteSession)
		v1.POST("/sessions/:id/start", sessionsHandler.StartSession)
		v1.POST("/sessions/:id/pause", sessionsHandler.PauseSession)
		v1.POST("/sessions/:id/complete", sessionsHandler.CompleteSession)
		v1.POST("/sessions/:id/reset", sessionsHandler.ResetSession)

		tasksHandler := handlers.NewTasksHandler(config.Timer, config.Logger)
		v1.POST("/sessions/:id/tasks", tasksHandler.AddTask)
		v1.PATCH("/tasks/:id", tasksHandler.UpdateTask)
		v1.DELETE("/tasks/:id", tasksHandler.DeleteTask)

		timerHandler := handlers.NewTimerHandler(config.Timer, config.Logger)
		v1.GET("/timer", timerHandler.GetTimer)

		statsHandler := handlers.NewStatsHandler(config.Timer, config.Logger)
		v1.GET("/stats/today", statsHandler.GetTodayStats)

		if config.Events != nil {
			eventsHandler := handlers.NewEventsHandler(config.Events, config.KeepAlive, config.Logger)
			v1.GET("/events", eventsHandler.Stream)
		}
	}

	return router
}

// authMiddleware verifies API key authentication
func authMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader(APIKeyHeader)
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
				"code":  "UNAUTHORIZED",
			})
			return
		}
		c.Set(middleware.AuthenticatedKey, true)
		c.Next()
	}
}
