package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"focustrack/internal/core"

	"github.com/gin-gonic/gin"
)

const timeFormat = time.RFC3339

// respondError maps domain errors to HTTP responses. Anything unrecognized is
// logged and reported as a 500.
func respondError(c *gin.Context, logger *slog.Logger, err error, message string, attrs ...any) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"

	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		status, code = http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.Is(err, core.ErrTaskNotFound):
		status, code = http.StatusNotFound, "TASK_NOT_FOUND"
	case errors.Is(err, core.ErrInvalidTitle):
		status, code = http.StatusBadRequest, "INVALID_TITLE"
	case errors.Is(err, core.ErrInvalidPlannedMinutes):
		status, code = http.StatusBadRequest, "INVALID_PLANNED_MINUTES"
	case errors.Is(err, core.ErrInvalidElapsed), errors.Is(err, core.ErrInvalidStatus):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, core.ErrTimerFieldsPatch):
		status, code = http.StatusBadRequest, "TIMER_FIELDS_READ_ONLY"
	}

	if status == http.StatusInternalServerError {
		logger.Error(message, append(attrs, "component", "api", "error", err)...)
		c.JSON(status, gin.H{
			"error": message,
			"code":  code,
		})
		return
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  code,
	})
}

// badRequest reports a malformed request body or parameter
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"code":    "INVALID_REQUEST",
		"details": err.Error(),
	})
}

func formatSessionResponse(session *core.FocusSession, snap core.TimerSnapshot) gin.H {
	tasks := make([]gin.H, 0, len(session.Tasks))
	for _, task := range session.Tasks {
		tasks = append(tasks, formatTaskResponse(task))
	}

	return gin.H{
		"id":                     session.ID,
		"session_date":           session.SessionDate.Format(time.DateOnly),
		"title":                  session.Title,
		"goal":                   session.Goal,
		"notes":                  session.Notes,
		"planned_minutes":        session.PlannedMinutes,
		"actual_minutes":         session.ActualMinutes,
		"status":                 string(session.Status),
		"is_running":             session.IsRunning,
		"started_at":             formatOptionalTime(session.StartedAt),
		"stored_elapsed_seconds": session.ElapsedSeconds,
		"elapsed_seconds":        snap.ElapsedSeconds,
		"formatted":              snap.Formatted,
		"progress_percent":       snap.ProgressPercent,
		"tasks":                  tasks,
		"tasks_completed":        session.CompletedTasks(),
		"created_at":             session.CreatedAt.Format(timeFormat),
		"updated_at":             session.UpdatedAt.Format(timeFormat),
	}
}

func formatTaskResponse(task *core.FocusTask) gin.H {
	return gin.H{
		"id":           task.ID,
		"session_id":   task.SessionID,
		"title":        task.Title,
		"completed":    task.Completed,
		"metric_label": task.MetricLabel,
		"target_value": task.TargetValue,
		"result_value": task.ResultValue,
		"sort_order":   task.SortOrder,
		"created_at":   task.CreatedAt.Format(timeFormat),
	}
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(timeFormat)
}
