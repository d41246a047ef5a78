package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"focustrack/internal/core"

	"github.com/gin-gonic/gin"
)

// TasksHandler handles checklist requests
type TasksHandler struct {
	timer  core.TimerInterface
	logger *slog.Logger
}

// NewTasksHandler creates a new tasks handler
func NewTasksHandler(timer core.TimerInterface, logger *slog.Logger) *TasksHandler {
	return &TasksHandler{
		timer:  timer,
		logger: logger,
	}
}

// AddTask appends a task to a session
// POST /sessions/:id/tasks
func (h *TasksHandler) AddTask(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.timer.AddTask(c.Request.Context(), sessionID, req.Title)
	if err != nil {
		respondError(c, h.logger, err, "Failed to add task", "session_id", sessionID)
		return
	}

	c.JSON(http.StatusCreated, formatTaskResponse(task))
}

// UpdateTask marks a task done or not done
// PATCH /tasks/:id
func (h *TasksHandler) UpdateTask(c *gin.Context) {
	taskID := c.Param("id")

	var req struct {
		Completed *bool `json:"completed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Completed == nil {
		badRequest(c, errors.New("completed is required"))
		return
	}

	if err := h.timer.SetTaskCompleted(c.Request.Context(), taskID, *req.Completed); err != nil {
		respondError(c, h.logger, err, "Failed to update task", "task_id", taskID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        taskID,
		"completed": *req.Completed,
	})
}

// DeleteTask removes a task
// DELETE /tasks/:id
func (h *TasksHandler) DeleteTask(c *gin.Context) {
	taskID := c.Param("id")

	if err := h.timer.DeleteTask(c.Request.Context(), taskID); err != nil {
		respondError(c, h.logger, err, "Failed to delete task", "task_id", taskID)
		return
	}

	c.Status(http.StatusNoContent)
}
