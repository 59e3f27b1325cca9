package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kalpovskii/checklist-ai/internal/app/models"
	"github.com/kalpovskii/checklist-ai/internal/app/repositories"
	"github.com/kalpovskii/checklist-ai/internal/app/services"
	"github.com/kalpovskii/checklist-ai/internal/app/suggest"
)

const (
	msgTaskNotFound     = "Task not found"
	msgSuggestionFailed = "AI suggestion failed"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCreate(c *gin.Context) {
	var req createTaskRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	task, err := s.tasks.Create(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleList(c *gin.Context) {
	tasks, err := s.tasks.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleGet(c *gin.Context) {
	task, err := s.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleUpdate(c *gin.Context) {
	var patch models.TaskPatch
	if !bindOptionalJSON(c, &patch) {
		return
	}

	task, err := s.tasks.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDelete(c *gin.Context) {
	if err := s.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSuggest(c *gin.Context) {
	suggestion, err := s.tasks.Suggest(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

// bindOptionalJSON decodes the request body into dst. An empty body leaves
// dst untouched. It writes a 400 and returns false on malformed JSON.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: msgTaskNotFound})
	case errors.Is(err, services.ErrInvalidTask):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, suggest.ErrSuggestionFailed):
		details := err.Error()
		var se *suggest.Error
		if errors.As(err, &se) {
			details = se.Err.Error()
		}
		s.logger.Error("suggestion failed", "path", c.Request.URL.Path, "error", details)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: msgSuggestionFailed, Details: details})
	default:
		s.logger.Error("task store failure", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
