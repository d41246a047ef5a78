package handlers

import (
	"log/slog"
	"net/http"

	"focustrack/internal/core"

	"github.com/gin-gonic/gin"
)

// TimerHandler reports the live timer state
type TimerHandler struct {
	timer  core.TimerInterface
	logger *slog.Logger
}

// NewTimerHandler creates a new timer handler
func NewTimerHandler(timer core.TimerInterface, logger *slog.Logger) *TimerHandler {
	return &TimerHandler{
		timer:  timer,
		logger: logger,
	}
}

// GetTimer returns the snapshot of the running session, if any
// GET /timer
func (h *TimerHandler) GetTimer(c *gin.Context) {
	session, err := h.timer.ActiveSession(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve timer")
		return
	}

	if session == nil {
		c.JSON(http.StatusOK, gin.H{
			"running":  false,
			"snapshot": nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"running":  true,
		"snapshot": h.timer.Snapshot(session),
	})
}
