package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"focustrack/internal/core"

	"github.com/gin-gonic/gin"
)

// SessionsHandler handles session-related requests
type SessionsHandler struct {
	timer    core.TimerInterface
	timezone *time.Location
	logger   *slog.Logger
}

// NewSessionsHandler creates a new sessions handler. Dates in requests are
// read as calendar days in timezone.
func NewSessionsHandler(timer core.TimerInterface, timezone *time.Location, logger *slog.Logger) *SessionsHandler {
	if timezone == nil {
		timezone = time.UTC
	}
	return &SessionsHandler{
		timer:    timer,
		timezone: timezone,
		logger:   logger,
	}
}

// ListSessions returns sessions, newest day first
// GET /sessions?date=&running=
func (h *SessionsHandler) ListSessions(c *gin.Context) {
	var filterDate *time.Time
	if dateStr := c.Query("date"); dateStr != "" {
		d, err := time.ParseInLocation(time.DateOnly, dateStr, h.timezone)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid date format. Use YYYY-MM-DD",
				"code":  "INVALID_DATE_FORMAT",
			})
			return
		}
		filterDate = &d
	}
	runningOnly := c.Query("running") == "true"

	sessions, err := h.timer.ListSessions(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve sessions")
		return
	}

	response := make([]gin.H, 0, len(sessions))
	for _, session := range sessions {
		if filterDate != nil && session.SessionDate.Format(time.DateOnly) != filterDate.Format(time.DateOnly) {
			continue
		}
		if runningOnly && !session.IsRunning {
			continue
		}
		response = append(response, formatSessionResponse(session, h.timer.Snapshot(session)))
	}

	c.JSON(http.StatusOK, response)
}

// CreateSession plans a new session
// POST /sessions
func (h *SessionsHandler) CreateSession(c *gin.Context) {
	var req struct {
		Title          string  `json:"title" binding:"required"`
		Goal           *string `json:"goal"`
		PlannedMinutes *int    `json:"planned_minutes"`
		SessionDate    *string `json:"session_date"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	in := core.CreateSessionInput{
		Title:          req.Title,
		Goal:           req.Goal,
		PlannedMinutes: req.PlannedMinutes,
	}
	if req.SessionDate != nil {
		d, err := h.parseDate(*req.SessionDate)
		if err != nil {
			badRequest(c, err)
			return
		}
		in.SessionDate = &d
	}

	session, err := h.timer.CreateSession(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create session", "title", req.Title)
		return
	}

	c.JSON(http.StatusCreated, formatSessionResponse(session, h.timer.Snapshot(session)))
}

// GetSession returns a single session by ID
// GET /sessions/:id
func (h *SessionsHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("id")

	session, err := h.timer.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve session", "session_id", sessionID)
		return
	}

	c.JSON(http.StatusOK, formatSessionResponse(session, h.timer.Snapshot(session)))
}

// UpdateSession edits the descriptive fields of a session. A JSON null clears
// goal, notes or planned_minutes. Timer fields are refused.
// PATCH /sessions/:id
func (h *SessionsHandler) UpdateSession(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		Title          *string                  `json:"title"`
		Goal           core.Nullable[string]    `json:"goal"`
		Notes          core.Nullable[string]    `json:"notes"`
		PlannedMinutes core.Nullable[int]       `json:"planned_minutes"`
		SessionDate    *string                  `json:"session_date"`
		Status         *core.SessionStatus      `json:"status"`
		IsRunning      *bool                    `json:"is_running"`
		StartedAt      core.Nullable[time.Time] `json:"started_at"`
		ElapsedSeconds *int                     `json:"elapsed_seconds"`
		ActualMinutes  core.Nullable[int]       `json:"actual_minutes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	patch := core.SessionPatch{
		Title:          req.Title,
		Goal:           req.Goal,
		Notes:          req.Notes,
		PlannedMinutes: req.PlannedMinutes,
		Status:         req.Status,
		IsRunning:      req.IsRunning,
		StartedAt:      req.StartedAt,
		ElapsedSeconds: req.ElapsedSeconds,
		ActualMinutes:  req.ActualMinutes,
	}
	if req.SessionDate != nil {
		d, err := h.parseDate(*req.SessionDate)
		if err != nil {
			badRequest(c, err)
			return
		}
		patch.SessionDate = &d
	}

	session, err := h.timer.UpdateSession(c.Request.Context(), sessionID, patch)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update session", "session_id", sessionID)
		return
	}

	c.JSON(http.StatusOK, formatSessionResponse(session, h.timer.Snapshot(session)))
}

// DeleteSession removes a session and its tasks
// DELETE /sessions/:id
func (h *SessionsHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")

	if err := h.timer.DeleteSession(c.Request.Context(), sessionID); err != nil {
		respondError(c, h.logger, err, "Failed to delete session", "session_id", sessionID)
		return
	}

	c.Status(http.StatusNoContent)
}

// StartSession makes the session the running one
// POST /sessions/:id/start
func (h *SessionsHandler) StartSession(c *gin.Context) {
	h.transition(c, "start", h.timer.Start)
}

// PauseSession stops the timer and keeps the accumulated time
// POST /sessions/:id/pause
func (h *SessionsHandler) PauseSession(c *gin.Context) {
	h.transition(c, "pause", h.timer.Pause)
}

// CompleteSession stops the timer and marks the session completed
// POST /sessions/:id/complete
func (h *SessionsHandler) CompleteSession(c *gin.Context) {
	h.transition(c, "complete", h.timer.Complete)
}

// ResetSession clears the accumulated time
// POST /sessions/:id/reset
func (h *SessionsHandler) ResetSession(c *gin.Context) {
	h.transition(c, "reset", h.timer.Reset)
}

func (h *SessionsHandler) transition(c *gin.Context, action string, fn func(ctx context.Context, id string) (*core.FocusSession, error)) {
	sessionID := c.Param("id")

	session, err := fn(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, err, fmt.Sprintf("Failed to %s session", action), "session_id", sessionID)
		return
	}

	c.JSON(http.StatusOK, formatSessionResponse(session, h.timer.Snapshot(session)))
}

func (h *SessionsHandler) parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, s, h.timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("session_date must be YYYY-MM-DD: %w", err)
	}
	return d, nil
}
