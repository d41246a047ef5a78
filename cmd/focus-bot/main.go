package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focustrack/config"
	"focustrack/internal/bot"
	"focustrack/internal/logging"
)

const (
	defaultConfigPath = "bot-config.yaml"
	shutdownTimeout   = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file (JSON or YAML)")
	flag.Parse()

	cfg, err := config.LoadBotConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(logging.LoggerConfig{
		Format: cfg.Logging.Format,
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"webhook_url", cfg.Telegram.WebhookURL,
		"focus_url", cfg.Focus.BaseURL,
		"allowed_users", len(cfg.Telegram.AllowedUsers),
	)

	telegramBot, telegram, err := bot.NewBot(cfg, logger)
	if err != nil {
		return err
	}

	if err := telegram.SetWebhook(cfg.Telegram.WebhookURL); err != nil {
		return err
	}

	router := bot.NewRouter(bot.RouterConfig{
		Bot:           telegramBot,
		WebhookSecret: cfg.Telegram.WebhookSecret,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down bot")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("Bot stopped")
	return nil
}
