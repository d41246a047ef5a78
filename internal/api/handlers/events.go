package handlers

import (
	"io"
	"log/slog"
	"time"

	"focustrack/internal/events"

	"github.com/gin-gonic/gin"
)

// EventSource is the subscribe side of the change broker
type EventSource interface {
	Subscribe(buffer int) (<-chan events.Event, func())
}

// EventsHandler streams broker events as Server-Sent Events
type EventsHandler struct {
	source    EventSource
	keepAlive time.Duration
	logger    *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(source EventSource, keepAlive time.Duration, logger *slog.Logger) *EventsHandler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &EventsHandler{
		source:    source,
		keepAlive: keepAlive,
		logger:    logger,
	}
}

// Stream sends every change and tick until the client goes away
// GET /events
func (h *EventsHandler) Stream(c *gin.Context) {
	ch, cancel := h.source.Subscribe(32)
	defer cancel()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	h.logger.Debug("Event stream opened",
		"component", "api",
		"client_ip", c.ClientIP())

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC().Format(timeFormat)})
			return true
		}
	})

	h.logger.Debug("Event stream closed",
		"component", "api",
		"client_ip", c.ClientIP())
}
