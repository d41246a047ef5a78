package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"focustrack/internal/client"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	errNewUsage  = errors.New("usage: /new <minutes> <title> or /new <title>")
	errTaskUsage = errors.New("usage: /task <title> (adds to the running session)")
	errNoRunning = errors.New("no session is running")
)

// handleStart handles the /start command
func (b *Bot) handleStart(ctx context.Context, chatID int64) error {
	text := `👋 *Welcome to Focus Bot!*

I track your focus sessions.

*Commands:*

📋 /sessions - Today's sessions
⏱ /timer - Running session
📊 /today - Today's totals
➕ /new <minutes> <title> - Plan a session
✔️ /task <title> - Add a task to the running session`

	return b.sendMessage(chatID, text, BuildQuickActionsButtons())
}

// handleSessions lists today's sessions
func (b *Bot) handleSessions(ctx context.Context, chatID int64) error {
	stats, err := b.client.GetTodayStats(ctx)
	if err != nil {
		return b.sendMessage(chatID, FormatError(err), BuildQuickActionsButtons())
	}

	sessions, err := b.client.ListSessions(ctx, stats.Date, false)
	if err != nil {
		return b.sendMessage(chatID, FormatError(err), BuildQuickActionsButtons())
	}

	return b.sendMessage(chatID, FormatSessionList(sessions), BuildSessionListButtons(sessions))
}

// handleTimer shows the running session
func (b *Bot) handleTimer(ctx context.Context, chatID int64) error {
	state, err := b.client.GetTimer(ctx)
	if err != nil {
		return b.sendMessage(chatID, FormatError(err), BuildQuickActionsButtons())
	}

	if !state.Running || state.Snapshot == nil {
		return b.sendMessage(chatID, FormatTimer(state), BuildQuickActionsButtons())
	}

	session, err := b.client.GetSession(ctx, state.Snapshot.SessionID)
	if err != nil {
		return b.sendMessage(chatID, FormatTimer(state), BuildQuickActionsButtons())
	}
	return b.sendMessage(chatID, FormatSession(*session), BuildSessionButtons(*session))
}

// handleToday handles the /today command
func (b *Bot) handleToday(ctx context.Context, chatID int64) error {
	stats, err := b.client.GetTodayStats(ctx)
	if err != nil {
		return b.sendMessage(chatID, FormatError(err), BuildQuickActionsButtons())
	}

	return b.sendMessage(chatID, FormatTodayStats(stats), BuildQuickActionsButtons())
}

// handleNew plans a session from "/new [minutes] title"
func (b *Bot) handleNew(ctx context.Context, chatID int64, args string) error {
	req, err := ParseNewArgs(args)
	if err != nil {
		return b.sendMessage(chatID, FormatError(err), nil)
	}

	session, err := b.client.CreateSession(ctx, req)
	if err != nil {
		return b.sendMessage(chatID, FormatError(err), BuildQuickActionsButtons())
	}

	return b.sendMessage(chatID, "➕ *Planned*\n\n"+FormatSession(*session), BuildSessionButtons(*session))
}

// handleTask adds a task to the running session
func (b *Bot) handleTask(ctx context.Context, chatID int64, args string) error {
	title := strings.TrimSpace(args)
	if title == "" {
		return b.sendMessage(chatID, FormatError(errTaskUsage), nil)
	}

	state, err := b.client.GetTimer(ctx)
	if err != nil {
		return b.sendMessage(chatID, FormatError(err), BuildQuickActionsButtons())
	}
	if !state.Running || state.Snapshot == nil {
		return b.sendMessage(chatID, FormatError(errNoRunning), BuildQuickActionsButtons())
	}

	sessionID := state.Snapshot.SessionID
	if _, err := b.client.AddTask(ctx, sessionID, title); err != nil {
		return b.sendMessage(chatID, FormatError(err), BuildQuickActionsButtons())
	}

	session, err := b.client.GetSession(ctx, sessionID)
	if err != nil {
		return b.sendMessage(chatID, FormatError(err), BuildQuickActionsButtons())
	}
	return b.sendMessage(chatID, FormatSession(*session), BuildSessionButtons(*session))
}

// handleView refreshes a session card in place
func (b *Bot) handleView(ctx context.Context, message *tgbotapi.Message, sessionID string) error {
	session, err := b.client.GetSession(ctx, sessionID)
	if err != nil {
		return b.sendMessage(message.Chat.ID, FormatError(err), BuildQuickActionsButtons())
	}

	return b.editMessage(message.Chat.ID, message.MessageID, FormatSession(*session), BuildSessionButtons(*session))
}

// handleTransition runs a timer action and redraws the session card
func (b *Bot) handleTransition(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	var (
		session *client.Session
		err     error
	)
	switch data.Action {
	case ActionStart:
		session, err = b.client.StartSession(ctx, data.SessionID)
	case ActionPause:
		session, err = b.client.PauseSession(ctx, data.SessionID)
	case ActionComplete:
		session, err = b.client.CompleteSession(ctx, data.SessionID)
	case ActionReset:
		session, err = b.client.ResetSession(ctx, data.SessionID)
	default:
		return b.sendMessage(message.Chat.ID, "Unknown action.", nil)
	}
	if err != nil {
		b.logger.Error("Session action failed",
			"action", data.Action,
			"session_id", data.SessionID,
			"error", err,
		)
		return b.sendMessage(message.Chat.ID, FormatError(err), BuildQuickActionsButtons())
	}

	b.logger.Info("Session action applied",
		"action", data.Action,
		"session_id", data.SessionID,
		"status", session.Status,
	)

	return b.editMessage(message.Chat.ID, message.MessageID, FormatSession(*session), BuildSessionButtons(*session))
}

// ParseNewArgs reads "[minutes] title". A leading integer is the planned
// duration; everything else is the title.
func ParseNewArgs(args string) (client.CreateSessionRequest, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return client.CreateSessionRequest{}, errNewUsage
	}

	var req client.CreateSessionRequest
	if minutes, err := strconv.Atoi(fields[0]); err == nil {
		if minutes <= 0 {
			return client.CreateSessionRequest{}, errNewUsage
		}
		req.PlannedMinutes = &minutes
		fields = fields[1:]
	}

	req.Title = strings.Join(fields, " ")
	if req.Title == "" {
		return client.CreateSessionRequest{}, errNewUsage
	}
	return req, nil
}
