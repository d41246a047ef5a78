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
	"focustrack/internal/api"
	"focustrack/internal/core"
	"focustrack/internal/events"
	"focustrack/internal/logging"
	"focustrack/internal/storage"
	"focustrack/internal/storage/postgres"
	"focustrack/internal/storage/sqlite"
	"focustrack/internal/ticker"
)

const (
	shutdownTimeout   = 10 * time.Second
	defaultConfigPath = "config.yaml"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file (JSON or YAML)")
	useEnv := flag.Bool("env", false, "Load configuration from environment variables")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *useEnv {
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.Load(*configPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(logging.LoggerConfig{
		Format: cfg.Logging.Format,
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"driver", cfg.Database.Driver,
		"timezone", cfg.Timezone,
		"start_policy", cfg.Timer.StartPolicy,
	)

	broker := events.NewBroker()

	store, err := openStore(cfg, broker)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	clock := core.RealClock{}
	focusTimer := core.NewFocusTimer(store, core.TimerConfig{
		Clock:    clock,
		Policy:   core.StartPolicy(cfg.Timer.StartPolicy),
		Timezone: cfg.Location(),
		Logger:   logger,
	})
	timer := logging.NewTimerLogger(focusTimer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tick := ticker.NewTicker(store, broker, clock, cfg.Timer.TickInterval.Std(), logger)
	tickerDone := make(chan struct{})
	go func() {
		defer close(tickerDone)
		tick.Run(ctx)
	}()

	router := api.NewRouter(api.RouterConfig{
		Timer:    timer,
		Events:   broker,
		Store:    store,
		Timezone: cfg.Location(),
		APIKey:   cfg.Security.APIKey,
		Logger:   logger,
	})

	// No WriteTimeout: the event stream is long-lived.
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown does not cancel request contexts; closing the broker ends open event streams.
	server.RegisterOnShutdown(broker.Close)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		tick.Stop()
		<-tickerDone
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("Shutdown signal received, starting graceful shutdown")

		tick.Stop()
		<-tickerDone

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		logger.Info("Graceful shutdown complete")
	}

	return nil
}

func openStore(cfg *config.Config, broker *events.Broker) (storage.Storage, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		return postgres.New(cfg.Database.DSN, cfg.Location(), broker)
	default:
		return sqlite.New(cfg.Database.Path, cfg.Location(), broker)
	}
}
