package ticker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"focustrack/internal/core"
	"focustrack/internal/events"
)

// DefaultInterval is how often a running session is re-published
const DefaultInterval = time.Second

// Storage interface for ticker operations
type Storage interface {
	ListRunningSessions(ctx context.Context) ([]*core.FocusSession, error)
}

// Broker is where the ticker learns about changes and publishes snapshots
type Broker interface {
	events.Publisher
	Subscribe(buffer int) (<-chan events.Event, func())
}

// Ticker publishes live elapsed snapshots while a session is running.
// The underlying time.Ticker only exists while some session runs.
type Ticker struct {
	storage  Storage
	broker   Broker
	clock    core.Clock
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger

	mu     sync.Mutex
	active *time.Ticker
}

// NewTicker creates a new ticker
func NewTicker(storage Storage, broker Broker, clock core.Clock, interval time.Duration, logger *slog.Logger) *Ticker {
	if clock == nil {
		clock = core.RealClock{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{
		storage:  storage,
		broker:   broker,
		clock:    clock,
		interval: interval,
		stopChan: make(chan struct{}),
		logger:   logger.With("component", "ticker"),
	}
}

// Run reconciles on every change event and ticks while a session runs.
// It blocks until ctx is cancelled or Stop is called.
func (t *Ticker) Run(ctx context.Context) {
	changes, cancel := t.broker.Subscribe(64)
	defer cancel()
	defer t.halt()

	t.logger.Info("Ticker started", "interval", t.interval)
	t.reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Ticker stopped")
			return
		case <-t.stopChan:
			t.logger.Info("Ticker stopped")
			return
		case event, ok := <-changes:
			if !ok {
				return
			}
			if event.Type == events.Tick {
				continue
			}
			t.reconcile(ctx)
		case <-t.tickC():
			t.tick(ctx)
		}
	}
}

// Stop stops the ticker loop
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopChan)
	})
}

// Active reports whether ticks are currently scheduled
func (t *Ticker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active != nil
}

// tickC returns the active ticker's channel, or nil so the select skips it
func (t *Ticker) tickC() <-chan time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return nil
	}
	return t.active.C
}

// reconcile starts ticking when a session runs and stops when none does
func (t *Ticker) reconcile(ctx context.Context) {
	sessions, err := t.storage.ListRunningSessions(ctx)
	if err != nil {
		t.logger.Error("Failed to list running sessions", "error", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case len(sessions) > 0 && t.active == nil:
		t.active = t.clock.NewTicker(t.interval)
		t.logger.Debug("Ticking started", "session_id", latest(sessions).ID)
	case len(sessions) == 0 && t.active != nil:
		t.active.Stop()
		t.active = nil
		t.logger.Debug("Ticking stopped")
	}
}

// tick performs one cycle of the ticker
func (t *Ticker) tick(ctx context.Context) {
	sessions, err := t.storage.ListRunningSessions(ctx)
	if err != nil {
		t.logger.Error("Failed to list running sessions", "error", err)
		return
	}

	session := latest(sessions)
	if session == nil {
		t.reconcile(ctx)
		return
	}

	now := t.clock.Now()
	snap := core.NewSnapshot(session, now)

	t.logger.Debug("Ticker tick",
		"session_id", session.ID,
		"elapsed_seconds", snap.ElapsedSeconds,
		"running_sessions", len(sessions))

	t.broker.Publish(events.Event{
		Type:      events.Tick,
		SessionID: session.ID,
		Snapshot:  &snap,
		At:        now,
	})
}

func (t *Ticker) halt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil {
		t.active.Stop()
		t.active = nil
	}
}

// latest picks the most recently started session
func latest(sessions []*core.FocusSession) *core.FocusSession {
	var found *core.FocusSession
	for _, s := range sessions {
		if found == nil {
			found = s
			continue
		}
		if s.StartedAt != nil && (found.StartedAt == nil || s.StartedAt.After(*found.StartedAt)) {
			found = s
		}
	}
	return found
}
