package bot

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

const updateErrorKey = "update_error"

// updateSummary is the part of a Telegram update worth logging
type updateSummary struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			Username string `json:"username"`
		} `json:"from"`
		Text string `json:"text"`
	} `json:"message"`
	CallbackQuery *struct {
		From struct {
			Username string `json:"username"`
		} `json:"from"`
		Data string `json:"data"`
	} `json:"callback_query"`
}

// BotLoggingMiddleware logs webhook requests with the chat, user and command
// of the update they carry
func BotLoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var summary updateSummary
		if c.Request.Body != nil && c.Request.ContentLength > 0 {
			bodyBytes, err := io.ReadAll(c.Request.Body)
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
				_ = json.Unmarshal(bodyBytes, &summary)
			}
		}

		c.Next()

		logAttrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.String("duration", time.Since(start).String()),
			slog.String("client_ip", c.ClientIP()),
		}

		if summary.UpdateID != 0 {
			logAttrs = append(logAttrs, slog.Int64("update_id", summary.UpdateID))
		}
		switch {
		case summary.Message != nil:
			logAttrs = append(logAttrs,
				slog.String("update_type", "message"),
				slog.Int64("chat_id", summary.Message.Chat.ID),
				slog.String("username", summary.Message.From.Username),
				slog.String("command_or_callback", summary.Message.Text),
			)
		case summary.CallbackQuery != nil:
			logAttrs = append(logAttrs,
				slog.String("update_type", "callback_query"),
				slog.String("username", summary.CallbackQuery.From.Username),
				slog.String("command_or_callback", summary.CallbackQuery.Data),
			)
		}

		if updateErr := c.GetString(updateErrorKey); updateErr != "" {
			logAttrs = append(logAttrs, slog.String("error", updateErr))
			logger.LogAttrs(c.Request.Context(), slog.LevelError, "Bot webhook request", logAttrs...)
			return
		}
		logger.LogAttrs(c.Request.Context(), slog.LevelInfo, "Bot webhook request", logAttrs...)
	}
}
