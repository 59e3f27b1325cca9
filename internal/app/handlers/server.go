package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kalpovskii/checklist-ai/internal/app/models"
)

const requestIDHeader = "X-Request-ID"

// TaskService is what the HTTP layer needs from services.TaskService.
type TaskService interface {
	List(ctx context.Context) ([]models.Task, error)
	Get(ctx context.Context, rawID string) (models.Task, error)
	Create(ctx context.Context, title, description string) (models.Task, error)
	Update(ctx context.Context, rawID string, patch models.TaskPatch) (models.Task, error)
	Delete(ctx context.Context, rawID string) error
	Suggest(ctx context.Context, rawID string) (models.Suggestion, error)
}

type Server struct {
	tasks  TaskService
	logger *slog.Logger
	router *gin.Engine
}

func NewServer(tasks TaskService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	s := &Server{
		tasks:  tasks,
		logger: logger,
		router: router,
	}

	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(s.requestLogger())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{requestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", s.handleHealth)

	tasksGroup := router.Group("/tasks")
	{
		tasksGroup.POST("", s.handleCreate)
		tasksGroup.GET("", s.handleList)
		tasksGroup.GET("/:id", s.handleGet)
		tasksGroup.PATCH("/:id", s.handleUpdate)
		tasksGroup.DELETE("/:id", s.handleDelete)
		tasksGroup.POST("/:id/suggest", s.handleSuggest)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
		)
	}
}
