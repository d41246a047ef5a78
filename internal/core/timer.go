package core

import (
	"context"
	"errors"
	"fmt"
	"focustrack/internal/idgen"
	"log/slog"
	"strings"
	"time"
)

// Storage defines the persistence operations the timer relies on
type Storage interface {
	CreateSession(ctx context.Context, session *FocusSession) error
	GetSession(ctx context.Context, id string) (*FocusSession, error)
	ListSessions(ctx context.Context) ([]*FocusSession, error)
	UpdateSession(ctx context.Context, id string, patch SessionPatch) error
	DeleteSession(ctx context.Context, id string) error

	CreateTask(ctx context.Context, task *FocusTask) error
	SetTaskCompleted(ctx context.Context, id string, completed bool) error
	DeleteTask(ctx context.Context, id string) error
}

// Transactor is implemented by stores that can run several writes atomically
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Storage) error) error
}

// StartPolicy decides what Start does when stopping another running session fails
type StartPolicy string

const (
	// StartPolicyBestEffort logs failed stops and still starts the target
	StartPolicyBestEffort StartPolicy = "best_effort"
	// StartPolicyStrict starts the target only if every stop succeeded, inside
	// one transaction when the store supports it
	StartPolicyStrict StartPolicy = "strict"
)

// ErrTimerFieldsPatch is returned when a plain update tries to write timer state
var ErrTimerFieldsPatch = errors.New("timer fields can only change through start, pause, complete or reset")

// TimerConfig holds the timer's collaborators. Zero fields get defaults.
type TimerConfig struct {
	Clock    Clock
	Policy   StartPolicy
	Timezone *time.Location
	Logger   *slog.Logger
}

// FocusTimer owns the start/pause/complete/reset transitions over a session
// collection. It never caches which session is running: every transition
// scans the store at call time.
type FocusTimer struct {
	storage  Storage
	clock    Clock
	policy   StartPolicy
	timezone *time.Location
	logger   *slog.Logger
}

// NewFocusTimer creates a new focus timer
func NewFocusTimer(storage Storage, cfg TimerConfig) *FocusTimer {
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	if cfg.Policy == "" {
		cfg.Policy = StartPolicyBestEffort
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &FocusTimer{
		storage:  storage,
		clock:    cfg.Clock,
		policy:   cfg.Policy,
		timezone: cfg.Timezone,
		logger:   cfg.Logger.With("component", "timer"),
	}
}

// CreateSession plans a new session with no elapsed time
func (t *FocusTimer) CreateSession(ctx context.Context, in CreateSessionInput) (*FocusSession, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	date := t.today()
	if in.SessionDate != nil {
		date = normalizeDate(*in.SessionDate, t.timezone)
	}

	session := &FocusSession{
		ID:             idgen.NewSession(),
		SessionDate:    date,
		Title:          strings.TrimSpace(in.Title),
		Goal:           in.Goal,
		PlannedMinutes: in.PlannedMinutes,
		Status:         SessionStatusPlanned,
	}

	if err := t.storage.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// GetSession retrieves a session by ID
func (t *FocusTimer) GetSession(ctx context.Context, sessionID string) (*FocusSession, error) {
	return t.storage.GetSession(ctx, sessionID)
}

// ListSessions retrieves every session, newest day first
func (t *FocusTimer) ListSessions(ctx context.Context) ([]*FocusSession, error) {
	return t.storage.ListSessions(ctx)
}

// UpdateSession edits descriptive fields of a session
func (t *FocusTimer) UpdateSession(ctx context.Context, sessionID string, patch SessionPatch) (*FocusSession, error) {
	if patch.IsRunning != nil || patch.StartedAt.Set || patch.ElapsedSeconds != nil || patch.ActualMinutes.Set {
		return nil, ErrTimerFieldsPatch
	}
	if patch.Status != nil {
		return nil, ErrTimerFieldsPatch
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if patch.SessionDate != nil {
		date := normalizeDate(*patch.SessionDate, t.timezone)
		patch.SessionDate = &date
	}

	if !patch.IsEmpty() {
		if err := t.storage.UpdateSession(ctx, sessionID, patch); err != nil {
			return nil, err
		}
	}

	return t.storage.GetSession(ctx, sessionID)
}

// DeleteSession removes a session and its tasks
func (t *FocusTimer) DeleteSession(ctx context.Context, sessionID string) error {
	return t.storage.DeleteSession(ctx, sessionID)
}

// AddTask appends a task to the end of a session's checklist
func (t *FocusTimer) AddTask(ctx context.Context, sessionID, title string) (*FocusTask, error) {
	session, err := t.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	task := &FocusTask{
		ID:        idgen.NewTask(),
		SessionID: session.ID,
		Title:     strings.TrimSpace(title),
		SortOrder: len(session.Tasks),
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := t.storage.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	return task, nil
}

// SetTaskCompleted marks a task done or not done
func (t *FocusTimer) SetTaskCompleted(ctx context.Context, taskID string, completed bool) error {
	return t.storage.SetTaskCompleted(ctx, taskID, completed)
}

// DeleteTask removes a task
func (t *FocusTimer) DeleteTask(ctx context.Context, taskID string) error {
	return t.storage.DeleteTask(ctx, taskID)
}

// Start makes sessionID the one running session. Every other running
// session is stopped first with its elapsed time preserved.
func (t *FocusTimer) Start(ctx context.Context, sessionID string) (*FocusSession, error) {
	sessions, err := t.storage.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	target := findSession(sessions, sessionID)
	if target == nil {
		return nil, ErrSessionNotFound
	}

	var others []*FocusSession
	for _, s := range FindRunning(sessions) {
		if s.ID != sessionID {
			others = append(others, s)
		}
	}

	now := t.clock.Now()

	if t.policy == StartPolicyStrict {
		if tx, ok := t.storage.(Transactor); ok {
			err = tx.WithinTx(ctx, func(ctx context.Context, store Storage) error {
				return t.startSequence(ctx, store, others, target, now, true)
			})
		} else {
			err = t.startSequence(ctx, t.storage, others, target, now, true)
		}
	} else {
		err = t.startSequence(ctx, t.storage, others, target, now, false)
	}
	if err != nil {
		return nil, err
	}

	return target, nil
}

// startSequence issues stop-others then start-target as independent writes
func (t *FocusTimer) startSequence(ctx context.Context, store Storage, others []*FocusSession, target *FocusSession, now time.Time, strict bool) error {
	var stopErrs []error
	for _, other := range others {
		patch := stopPatch(other, now)
		if err := store.UpdateSession(ctx, other.ID, patch); err != nil {
			if strict {
				return fmt.Errorf("failed to stop running session %s: %w", other.ID, err)
			}
			t.logger.Warn("Failed to stop running session before start",
				"session_id", other.ID,
				"target_id", target.ID,
				"error", err)
			stopErrs = append(stopErrs, fmt.Errorf("failed to stop running session %s: %w", other.ID, err))
			continue
		}
		t.logger.Info("Auto-paused running session",
			"session_id", other.ID,
			"elapsed_seconds", *patch.ElapsedSeconds,
			"target_id", target.ID)
	}

	// An already running target keeps its StartedAt so no time is lost
	patch := SessionPatch{
		IsRunning: ptr(true),
		Status:    ptr(SessionStatusInProgress),
	}
	if !target.IsRunning || target.StartedAt == nil {
		patch.StartedAt = SetTo(now)
	}

	if err := store.UpdateSession(ctx, target.ID, patch); err != nil {
		startErr := fmt.Errorf("failed to start session %s: %w", target.ID, err)
		return errors.Join(append([]error{startErr}, stopErrs...)...)
	}

	patch.Apply(target)
	return nil
}

// Pause stops the session and folds the running interval into ElapsedSeconds
func (t *FocusTimer) Pause(ctx context.Context, sessionID string) (*FocusSession, error) {
	return t.stop(ctx, sessionID, nil)
}

// Complete stops the session like Pause and marks it completed
func (t *FocusTimer) Complete(ctx context.Context, sessionID string) (*FocusSession, error) {
	return t.stop(ctx, sessionID, ptr(SessionStatusCompleted))
}

func (t *FocusTimer) stop(ctx context.Context, sessionID string, status *SessionStatus) (*FocusSession, error) {
	session, err := t.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	patch := stopPatch(session, t.clock.Now())
	patch.Status = status

	if err := t.storage.UpdateSession(ctx, session.ID, patch); err != nil {
		return nil, fmt.Errorf("failed to stop session %s: %w", session.ID, err)
	}

	patch.Apply(session)
	return session, nil
}

// Reset returns the session to planned with no elapsed time
func (t *FocusTimer) Reset(ctx context.Context, sessionID string) (*FocusSession, error) {
	session, err := t.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	patch := SessionPatch{
		IsRunning:      ptr(false),
		StartedAt:      SetNull[time.Time](),
		ElapsedSeconds: ptr(0),
		ActualMinutes:  SetNull[int](),
		Status:         ptr(SessionStatusPlanned),
	}

	if err := t.storage.UpdateSession(ctx, session.ID, patch); err != nil {
		return nil, fmt.Errorf("failed to reset session %s: %w", session.ID, err)
	}

	patch.Apply(session)
	return session, nil
}

// ActiveSession returns the running session, or nil when none is running.
// If a failed stop left several running, the most recently started wins.
func (t *FocusTimer) ActiveSession(ctx context.Context) (*FocusSession, error) {
	sessions, err := t.storage.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	var active *FocusSession
	for _, s := range FindRunning(sessions) {
		if active == nil || startedAfter(s, active) {
			active = s
		}
	}
	return active, nil
}

// ComputeElapsed reconciles a session's elapsed time against the timer's clock
func (t *FocusTimer) ComputeElapsed(session *FocusSession) int {
	return ComputeElapsed(session, t.clock.Now())
}

// Snapshot builds the live display state of a session
func (t *FocusTimer) Snapshot(session *FocusSession) TimerSnapshot {
	return NewSnapshot(session, t.clock.Now())
}

// TodayStats summarizes today's sessions in the configured timezone
func (t *FocusTimer) TodayStats(ctx context.Context) (*DayStats, error) {
	sessions, err := t.storage.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	stats := ComputeDayStats(sessions, t.today(), t.clock.Now())
	return &stats, nil
}

// lookup finds a session in the current collection
func (t *FocusTimer) lookup(ctx context.Context, sessionID string) (*FocusSession, error) {
	sessions, err := t.storage.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	session := findSession(sessions, sessionID)
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (t *FocusTimer) today() time.Time {
	return normalizeDate(t.clock.Now(), t.timezone)
}

// stopPatch folds the running interval of s into its stored total
func stopPatch(s *FocusSession, now time.Time) SessionPatch {
	elapsed := ComputeElapsed(s, now)
	return SessionPatch{
		IsRunning:      ptr(false),
		StartedAt:      SetNull[time.Time](),
		ElapsedSeconds: ptr(elapsed),
		ActualMinutes:  SetTo(MinutesFromSeconds(elapsed)),
	}
}

func findSession(sessions []*FocusSession, id string) *FocusSession {
	for _, s := range sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func startedAfter(a, b *FocusSession) bool {
	if a.StartedAt == nil {
		return false
	}
	if b.StartedAt == nil {
		return true
	}
	return a.StartedAt.After(*b.StartedAt)
}

func normalizeDate(t time.Time, loc *time.Location) time.Time {
	inTZ := t.In(loc)
	year, month, day := inTZ.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func ptr[T any](v T) *T {
	return &v
}
