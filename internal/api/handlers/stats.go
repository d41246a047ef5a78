package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"focustrack/internal/core"

	"github.com/gin-gonic/gin"
)

// StatsHandler handles statistics-related requests
type StatsHandler struct {
	timer  core.TimerInterface
	logger *slog.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(timer core.TimerInterface, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		timer:  timer,
		logger: logger,
	}
}

// GetTodayStats returns today's focus totals
// GET /stats/today
func (h *StatsHandler) GetTodayStats(c *gin.Context) {
	stats, err := h.timer.TodayStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve statistics")
		return
	}

	response := gin.H{
		"date":              stats.Date.Format(time.DateOnly),
		"sessions":          stats.Sessions,
		"completed":         stats.CompletedCount,
		"in_progress":       stats.InProgressCount,
		"focused_seconds":   stats.FocusedSeconds,
		"focused_formatted": core.FormatDuration(stats.FocusedSeconds),
		"focused_minutes":   core.MinutesFromSeconds(stats.FocusedSeconds),
		"planned_minutes":   stats.PlannedMinutes,
		"tasks_total":       stats.TasksTotal,
		"tasks_completed":   stats.TasksCompleted,
		"plan_percent":      calculatePlanPercent(stats.FocusedSeconds, stats.PlannedMinutes),
	}
	if stats.RunningSessionID != "" {
		response["running_session_id"] = stats.RunningSessionID
	}

	c.JSON(http.StatusOK, response)
}

func calculatePlanPercent(focusedSeconds, plannedMinutes int) int {
	if plannedMinutes == 0 {
		return 0
	}
	percent := (focusedSeconds * 100) / (plannedMinutes * 60)
	if percent > 100 {
		return 100
	}
	return percent
}
