package bot

import (
	"errors"
	"fmt"
	"strings"

	"focustrack/internal/client"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback actions
const (
	ActionStart    = "start"
	ActionPause    = "pause"
	ActionComplete = "complete"
	ActionReset    = "reset"
	ActionView     = "view"
	ActionSessions = "sessions"
	ActionTimer    = "timer"
	ActionToday    = "today"
)

// maxCallbackData is Telegram's limit on callback_data
const maxCallbackData = 64

var errBadCallback = errors.New("unrecognized button")

// CallbackData represents the data embedded in callback buttons
type CallbackData struct {
	Action    string
	SessionID string
}

// MarshalCallback encodes data as "action" or "action:session_id"
func MarshalCallback(data CallbackData) string {
	if data.SessionID == "" {
		return data.Action
	}
	return data.Action + ":" + data.SessionID
}

// ParseCallback decodes callback data produced by MarshalCallback
func ParseCallback(data string) (*CallbackData, error) {
	if data == "" || len(data) > maxCallbackData {
		return nil, errBadCallback
	}

	action, sessionID, hasID := strings.Cut(data, ":")
	switch action {
	case ActionSessions, ActionTimer, ActionToday:
		if hasID {
			return nil, errBadCallback
		}
	case ActionStart, ActionPause, ActionComplete, ActionReset, ActionView:
		if sessionID == "" {
			return nil, errBadCallback
		}
	default:
		return nil, errBadCallback
	}

	return &CallbackData{Action: action, SessionID: sessionID}, nil
}

func callbackButton(label, action, sessionID string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, MarshalCallback(CallbackData{
		Action:    action,
		SessionID: sessionID,
	}))
}

// BuildSessionButtons creates the control row for one session. Only the
// transitions that make sense for its current state are offered.
func BuildSessionButtons(session client.Session) *tgbotapi.InlineKeyboardMarkup {
	var controls []tgbotapi.InlineKeyboardButton
	switch {
	case session.IsRunning:
		controls = append(controls,
			callbackButton("⏸ Pause", ActionPause, session.ID),
			callbackButton("✅ Complete", ActionComplete, session.ID),
		)
	case session.Status == "completed":
		controls = append(controls, callbackButton("▶️ Resume", ActionStart, session.ID))
	default:
		controls = append(controls,
			callbackButton("▶️ Start", ActionStart, session.ID),
			callbackButton("✅ Complete", ActionComplete, session.ID),
		)
	}
	if session.ElapsedSeconds > 0 {
		controls = append(controls, callbackButton("↺ Reset", ActionReset, session.ID))
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		controls,
		tgbotapi.NewInlineKeyboardRow(
			callbackButton("🔄 Refresh", ActionView, session.ID),
			callbackButton("📋 Sessions", ActionSessions, ""),
		),
	)
	return &markup
}

// BuildSessionListButtons creates one button per session that opens its card
func BuildSessionListButtons(sessions []client.Session) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for i, session := range sessions {
		label := fmt.Sprintf("%d. %s %s", i+1, statusEmoji(session), session.Title)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			callbackButton(label, ActionView, session.ID),
		))
	}

	rows = append(rows, quickActionsRow())
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// BuildQuickActionsButtons creates compact action buttons for attaching to responses
func BuildQuickActionsButtons() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(quickActionsRow())
	return &markup
}

func quickActionsRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		callbackButton("⏱ Timer", ActionTimer, ""),
		callbackButton("📋 Sessions", ActionSessions, ""),
		callbackButton("📊 Today", ActionToday, ""),
	)
}
