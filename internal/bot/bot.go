package bot

import (
	"context"
	"fmt"
	"log/slog"

	"focustrack/config"
	"focustrack/internal/client"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Messenger is the subset of the Telegram Bot API the bot talks to
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// FocusClient is the subset of the focusd API the bot drives
type FocusClient interface {
	ListSessions(ctx context.Context, date string, runningOnly bool) ([]client.Session, error)
	GetSession(ctx context.Context, sessionID string) (*client.Session, error)
	CreateSession(ctx context.Context, req client.CreateSessionRequest) (*client.Session, error)
	StartSession(ctx context.Context, sessionID string) (*client.Session, error)
	PauseSession(ctx context.Context, sessionID string) (*client.Session, error)
	CompleteSession(ctx context.Context, sessionID string) (*client.Session, error)
	ResetSession(ctx context.Context, sessionID string) (*client.Session, error)
	AddTask(ctx context.Context, sessionID, title string) (*client.Task, error)
	GetTimer(ctx context.Context) (*client.TimerState, error)
	GetTodayStats(ctx context.Context) (*client.TodayStats, error)
}

// Bot represents the Telegram bot
type Bot struct {
	api     Messenger
	client  FocusClient
	allowed func(userID int64) bool
	logger  *slog.Logger
}

// New wires a bot from its collaborators
func New(api Messenger, focus FocusClient, allowed func(userID int64) bool, logger *slog.Logger) *Bot {
	return &Bot{
		api:     api,
		client:  focus,
		allowed: allowed,
		logger:  logger.With("component", "bot"),
	}
}

// Telegram owns the Bot API connection and the webhook registration
type Telegram struct {
	*tgbotapi.BotAPI
	logger *slog.Logger
}

// NewTelegram connects to the Bot API with the configured token
func NewTelegram(cfg *config.BotConfig, logger *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	return &Telegram{BotAPI: api, logger: logger}, nil
}

// SetWebhook points Telegram at url
func (t *Telegram) SetWebhook(url string) error {
	webhookConfig, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}

	if _, err := t.Request(webhookConfig); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	info, err := t.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("failed to get webhook info: %w", err)
	}

	t.logger.Info("Webhook configured",
		"url", info.URL,
		"pending_updates", info.PendingUpdateCount,
	)

	return nil
}

// NewBot creates a bot connected to Telegram and the focusd API
func NewBot(cfg *config.BotConfig, logger *slog.Logger) (*Bot, *Telegram, error) {
	telegram, err := NewTelegram(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	focus := client.NewFocusAPI(cfg.Focus.BaseURL, cfg.Focus.APIKey, cfg.Focus.Timeout.Std(), logger)
	return New(telegram, focus, cfg.IsUserAllowed, logger), telegram, nil
}

// HandleUpdate processes a Telegram update
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	var userID int64
	switch {
	case update.Message != nil && update.Message.From != nil:
		userID = update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		userID = update.CallbackQuery.From.ID
	default:
		return nil
	}

	if !b.allowed(userID) {
		b.logger.Warn("Unauthorized access attempt",
			"user_id", userID,
		)
		return b.sendUnauthorizedMessage(update)
	}

	if update.Message != nil {
		return b.handleMessage(ctx, update.Message)
	}
	return b.handleCallback(ctx, update.CallbackQuery)
}

// handleMessage processes incoming messages
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	b.logger.Info("Received message",
		"user_id", message.From.ID,
		"username", message.From.UserName,
		"text", message.Text,
	)

	if !message.IsCommand() {
		return nil
	}

	switch message.Command() {
	case "start", "help":
		return b.handleStart(ctx, message.Chat.ID)
	case "sessions":
		return b.handleSessions(ctx, message.Chat.ID)
	case "timer":
		return b.handleTimer(ctx, message.Chat.ID)
	case "today":
		return b.handleToday(ctx, message.Chat.ID)
	case "new":
		return b.handleNew(ctx, message.Chat.ID, message.CommandArguments())
	case "task":
		return b.handleTask(ctx, message.Chat.ID, message.CommandArguments())
	default:
		return b.sendMessage(message.Chat.ID,
			"Unknown command. Use /start to see available commands.", nil)
	}
}

// handleCallback processes callback queries from inline buttons
func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	b.logger.Info("Received callback",
		"user_id", callback.From.ID,
		"data", callback.Data,
	)

	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Error("Failed to answer callback", "error", err)
	}

	if callback.Message == nil {
		return nil
	}
	chatID := callback.Message.Chat.ID

	data, err := ParseCallback(callback.Data)
	if err != nil {
		b.logger.Warn("Failed to parse callback data",
			"raw_data", callback.Data,
			"error", err,
		)
		return b.sendMessage(chatID, FormatError(err), nil)
	}

	switch data.Action {
	case ActionSessions:
		return b.handleSessions(ctx, chatID)
	case ActionTimer:
		return b.handleTimer(ctx, chatID)
	case ActionToday:
		return b.handleToday(ctx, chatID)
	case ActionView:
		return b.handleView(ctx, callback.Message, data.SessionID)
	default:
		return b.handleTransition(ctx, callback.Message, data)
	}
}

// sendMessage sends a text message
func (b *Bot) sendMessage(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			"chat_id", chatID,
			"error", err,
		)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// editMessage replaces the text and keyboard of an existing message
func (b *Bot) editMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboard

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to edit message",
			"chat_id", chatID,
			"message_id", messageID,
			"error", err,
		)
		return fmt.Errorf("failed to edit message: %w", err)
	}

	return nil
}

// sendUnauthorizedMessage sends an unauthorized access message
func (b *Bot) sendUnauthorizedMessage(update tgbotapi.Update) error {
	var chatID int64
	switch {
	case update.Message != nil:
		chatID = update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		chatID = update.CallbackQuery.Message.Chat.ID
	default:
		return nil
	}

	return b.sendMessage(chatID, "⛔ You are not authorized to use this bot.", nil)
}
