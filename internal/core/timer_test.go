package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type mockStorage struct {
	sessions   map[string]*FocusSession
	order      []string
	tasks      map[string]*FocusTask
	failList   bool
	failUpdate map[string]bool
	updates    []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		sessions:   make(map[string]*FocusSession),
		tasks:      make(map[string]*FocusTask),
		failUpdate: make(map[string]bool),
	}
}

func (m *mockStorage) CreateSession(ctx context.Context, session *FocusSession) error {
	m.sessions[session.ID] = cloneSession(session)
	m.order = append(m.order, session.ID)
	return nil
}

func (m *mockStorage) GetSession(ctx context.Context, id string) (*FocusSession, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (m *mockStorage) ListSessions(ctx context.Context) ([]*FocusSession, error) {
	if m.failList {
		return nil, errors.New("list failed")
	}
	sessions := make([]*FocusSession, 0, len(m.order))
	for _, id := range m.order {
		if s, ok := m.sessions[id]; ok {
			sessions = append(sessions, cloneSession(s))
		}
	}
	return sessions, nil
}

func (m *mockStorage) UpdateSession(ctx context.Context, id string, patch SessionPatch) error {
	if m.failUpdate[id] {
		return errors.New("update failed")
	}
	session, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	patch.Apply(session)
	m.updates = append(m.updates, id)
	return nil
}

func (m *mockStorage) DeleteSession(ctx context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockStorage) CreateTask(ctx context.Context, task *FocusTask) error {
	session, ok := m.sessions[task.SessionID]
	if !ok {
		return ErrSessionNotFound
	}
	m.tasks[task.ID] = task
	session.Tasks = append(session.Tasks, task)
	return nil
}

func (m *mockStorage) SetTaskCompleted(ctx context.Context, id string, completed bool) error {
	task, ok := m.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	task.Completed = completed
	return nil
}

func (m *mockStorage) DeleteTask(ctx context.Context, id string) error {
	if _, ok := m.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

// put stores a session directly, bypassing the timer
func (m *mockStorage) put(s *FocusSession) {
	if s.Status == "" {
		s.Status = SessionStatusPlanned
	}
	m.sessions[s.ID] = s
	m.order = append(m.order, s.ID)
}

// mockTxStorage adds all-or-nothing transactions on top of mockStorage
type mockTxStorage struct {
	*mockStorage
	txCalls int
}

func (m *mockTxStorage) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Storage) error) error {
	m.txCalls++
	saved := make(map[string]*FocusSession, len(m.sessions))
	for id, s := range m.sessions {
		saved[id] = cloneSession(s)
	}
	if err := fn(ctx, m.mockStorage); err != nil {
		m.sessions = saved
		return err
	}
	return nil
}

func cloneSession(s *FocusSession) *FocusSession {
	c := *s
	c.Tasks = append([]*FocusTask(nil), s.Tasks...)
	return &c
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testEpoch = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func newTestTimer(storage Storage, policy StartPolicy) (*FocusTimer, *MockClock) {
	clock := NewMockClock(testEpoch)
	timer := NewFocusTimer(storage, TimerConfig{
		Clock:  clock,
		Policy: policy,
		Logger: quietLogger(),
	})
	return timer, clock
}

func TestFocusTimer_CreateSession(t *testing.T) {
	storage := newMockStorage()
	timer, _ := newTestTimer(storage, "")

	planned := 25
	session, err := timer.CreateSession(context.Background(), CreateSessionInput{
		Title:          "  Write report  ",
		PlannedMinutes: &planned,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "Write report", session.Title)
	assert.Equal(t, SessionStatusPlanned, session.Status)
	assert.False(t, session.IsRunning)
	assert.Nil(t, session.StartedAt)
	assert.Equal(t, 0, session.ElapsedSeconds)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), session.SessionDate)

	_, err = timer.CreateSession(context.Background(), CreateSessionInput{Title: ""})
	assert.ErrorIs(t, err, ErrInvalidTitle)

	zero := 0
	_, err = timer.CreateSession(context.Background(), CreateSessionInput{Title: "x", PlannedMinutes: &zero})
	assert.ErrorIs(t, err, ErrInvalidPlannedMinutes)
}

func TestFocusTimer_CreateSessionUsesTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	clock := NewMockClock(time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC))
	timer := NewFocusTimer(newMockStorage(), TimerConfig{Clock: clock, Timezone: loc, Logger: quietLogger()})

	session, err := timer.CreateSession(context.Background(), CreateSessionInput{Title: "late"})
	require.NoError(t, err)

	year, month, day := session.SessionDate.Date()
	assert.Equal(t, 2026, year)
	assert.Equal(t, time.October, month)
	assert.Equal(t, 17, day)
}

func TestFocusTimer_StartPauseScenario(t *testing.T) {
	storage := newMockStorage()
	timer, clock := newTestTimer(storage, StartPolicyBestEffort)
	ctx := context.Background()

	planned := 25
	storage.put(&FocusSession{ID: "s1", Title: "Deep work", PlannedMinutes: &planned})

	started, err := timer.Start(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, started.IsRunning)
	assert.Equal(t, SessionStatusInProgress, started.Status)
	require.NotNil(t, started.StartedAt)
	assert.Equal(t, testEpoch, *started.StartedAt)

	clock.Advance(900 * time.Second)
	snap := timer.Snapshot(started)
	assert.Equal(t, 900, snap.ElapsedSeconds)
	assert.Equal(t, "00:15:00", snap.Formatted)
	require.NotNil(t, snap.ProgressPercent)
	assert.InDelta(t, 60.0, *snap.ProgressPercent, 0.0001)

	paused, err := timer.Pause(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, paused.IsRunning)
	assert.Nil(t, paused.StartedAt)
	assert.Equal(t, 900, paused.ElapsedSeconds)
	require.NotNil(t, paused.ActualMinutes)
	assert.Equal(t, 15, *paused.ActualMinutes)
	assert.Equal(t, SessionStatusInProgress, paused.Status)

	// Paused time does not count
	clock.Advance(time.Hour)
	stored, err := storage.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 900, timer.ComputeElapsed(stored))

	_, err = timer.Start(ctx, "s1")
	require.NoError(t, err)
	clock.Advance(60 * time.Second)

	completed, err := timer.Complete(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, SessionStatusCompleted, completed.Status)
	assert.Equal(t, 960, completed.ElapsedSeconds)
	assert.Equal(t, 16, *completed.ActualMinutes)
}

func TestFocusTimer_StartAutoPausesOtherSession(t *testing.T) {
	storage := newMockStorage()
	timer, clock := newTestTimer(storage, StartPolicyBestEffort)
	ctx := context.Background()

	storage.put(&FocusSession{ID: "a", Title: "A"})
	storage.put(&FocusSession{ID: "b", Title: "B"})

	_, err := timer.Start(ctx, "a")
	require.NoError(t, err)

	clock.Advance(125 * time.Second)
	_, err = timer.Start(ctx, "b")
	require.NoError(t, err)

	a, _ := storage.GetSession(ctx, "a")
	b, _ := storage.GetSession(ctx, "b")

	assert.False(t, a.IsRunning)
	assert.Nil(t, a.StartedAt)
	assert.Equal(t, 125, a.ElapsedSeconds)
	assert.Equal(t, 2, *a.ActualMinutes)
	assert.Equal(t, SessionStatusInProgress, a.Status)

	assert.True(t, b.IsRunning)
	assert.Equal(t, clock.Now(), *b.StartedAt)

	// Stop-others is issued before start-target
	assert.Equal(t, []string{"a", "a", "b"}, storage.updates)

	active, err := timer.ActiveSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "b", active.ID)
}

func TestFocusTimer_StartAlreadyRunningKeepsStartedAt(t *testing.T) {
	storage := newMockStorage()
	timer, clock := newTestTimer(storage, StartPolicyBestEffort)
	ctx := context.Background()

	storage.put(&FocusSession{ID: "s1", Title: "A"})

	_, err := timer.Start(ctx, "s1")
	require.NoError(t, err)
	clock.Advance(30 * time.Second)

	again, err := timer.Start(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, testEpoch, *again.StartedAt)
	assert.Equal(t, 30, timer.ComputeElapsed(again))
}

func TestFocusTimer_StartCompletedSessionResumes(t *testing.T) {
	storage := newMockStorage()
	timer, _ := newTestTimer(storage, StartPolicyBestEffort)

	storage.put(&FocusSession{ID: "s1", Title: "A", Status: SessionStatusCompleted, ElapsedSeconds: 600})

	session, err := timer.Start(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, SessionStatusInProgress, session.Status)
	assert.Equal(t, 600, session.ElapsedSeconds)
}

func TestFocusTimer_Reset(t *testing.T) {
	storage := newMockStorage()
	timer, clock := newTestTimer(storage, StartPolicyBestEffort)
	ctx := context.Background()

	storage.put(&FocusSession{ID: "s1", Title: "A"})
	_, err := timer.Start(ctx, "s1")
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)

	reset, err := timer.Reset(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, reset.IsRunning)
	assert.Nil(t, reset.StartedAt)
	assert.Equal(t, 0, reset.ElapsedSeconds)
	assert.Nil(t, reset.ActualMinutes)
	assert.Equal(t, SessionStatusPlanned, reset.Status)

	active, err := timer.ActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestFocusTimer_UnknownSession(t *testing.T) {
	storage := newMockStorage()
	timer, _ := newTestTimer(storage, StartPolicyBestEffort)
	ctx := context.Background()

	storage.put(&FocusSession{ID: "s1", Title: "A", IsRunning: true, StartedAt: &testEpoch})

	_, err := timer.Start(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = timer.Pause(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = timer.Complete(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = timer.Reset(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Nothing was written
	assert.Empty(t, storage.updates)
	s1, _ := storage.GetSession(ctx, "s1")
	assert.True(t, s1.IsRunning)
}

func TestFocusTimer_ListFailure(t *testing.T) {
	storage := newMockStorage()
	storage.failList = true
	timer, _ := newTestTimer(storage, StartPolicyBestEffort)

	_, err := timer.Start(context.Background(), "s1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestFocusTimer_StartBestEffortIgnoresFailedStop(t *testing.T) {
	storage := newMockStorage()
	timer, clock := newTestTimer(storage, StartPolicyBestEffort)
	ctx := context.Background()

	storage.put(&FocusSession{ID: "a", Title: "A", IsRunning: true, StartedAt: &testEpoch, Status: SessionStatusInProgress})
	storage.put(&FocusSession{ID: "b", Title: "B"})
	storage.failUpdate["a"] = true
	clock.Advance(time.Second)

	started, err := timer.Start(ctx, "b")
	require.NoError(t, err)
	assert.True(t, started.IsRunning)

	// Both are left running; the latest start wins
	a, _ := storage.GetSession(ctx, "a")
	assert.True(t, a.IsRunning)

	active, err := timer.ActiveSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", active.ID)
}

func TestFocusTimer_StartBestEffortReportsAllFailures(t *testing.T) {
	storage := newMockStorage()
	timer, _ := newTestTimer(storage, StartPolicyBestEffort)

	storage.put(&FocusSession{ID: "a", Title: "A", IsRunning: true, StartedAt: &testEpoch})
	storage.put(&FocusSession{ID: "b", Title: "B"})
	storage.failUpdate["a"] = true
	storage.failUpdate["b"] = true

	_, err := timer.Start(context.Background(), "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start session b")
	assert.Contains(t, err.Error(), "failed to stop running session a")
}

func TestFocusTimer_StartStrictWithoutTransactions(t *testing.T) {
	storage := newMockStorage()
	timer, _ := newTestTimer(storage, StartPolicyStrict)
	ctx := context.Background()

	storage.put(&FocusSession{ID: "a", Title: "A", IsRunning: true, StartedAt: &testEpoch})
	storage.put(&FocusSession{ID: "b", Title: "B"})
	storage.failUpdate["a"] = true

	_, err := timer.Start(ctx, "b")
	require.Error(t, err)

	b, _ := storage.GetSession(ctx, "b")
	assert.False(t, b.IsRunning, "target must not start after a failed stop")
}

func TestFocusTimer_StartStrictRollsBack(t *testing.T) {
	storage := &mockTxStorage{mockStorage: newMockStorage()}
	timer, clock := newTestTimer(storage, StartPolicyStrict)
	ctx := context.Background()

	storage.put(&FocusSession{ID: "a", Title: "A", IsRunning: true, StartedAt: &testEpoch})
	storage.put(&FocusSession{ID: "b", Title: "B"})
	storage.failUpdate["b"] = true
	clock.Advance(time.Minute)

	_, err := timer.Start(ctx, "b")
	require.Error(t, err)
	assert.Equal(t, 1, storage.txCalls)

	// The stop of a was rolled back with the failed start
	a, _ := storage.GetSession(ctx, "a")
	assert.True(t, a.IsRunning)
	assert.Equal(t, testEpoch, *a.StartedAt)

	delete(storage.failUpdate, "b")
	_, err = timer.Start(ctx, "b")
	require.NoError(t, err)

	a, _ = storage.GetSession(ctx, "a")
	assert.False(t, a.IsRunning)
	assert.Equal(t, 60, a.ElapsedSeconds)
}

func TestFocusTimer_UpdateSession(t *testing.T) {
	storage := newMockStorage()
	timer, _ := newTestTimer(storage, StartPolicyBestEffort)
	ctx := context.Background()

	storage.put(&FocusSession{ID: "s1", Title: "A"})

	title := "Renamed"
	notes := "went well"
	updated, err := timer.UpdateSession(ctx, "s1", SessionPatch{
		Title: &title,
		Notes: SetTo(notes),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "went well", *updated.Notes)

	tests := []struct {
		name  string
		patch SessionPatch
	}{
		{"is_running", SessionPatch{IsRunning: ptr(true)}},
		{"started_at", SessionPatch{StartedAt: SetTo(testEpoch)}},
		{"elapsed", SessionPatch{ElapsedSeconds: ptr(5)}},
		{"actual minutes", SessionPatch{ActualMinutes: SetTo(5)}},
		{"status", SessionPatch{Status: ptr(SessionStatusCompleted)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := timer.UpdateSession(ctx, "s1", tt.patch)
			assert.ErrorIs(t, err, ErrTimerFieldsPatch)
		})
	}

	padded := "  Trimmed  "
	updated, err = timer.UpdateSession(ctx, "s1", SessionPatch{Title: &padded})
	require.NoError(t, err)
	assert.Equal(t, "Trimmed", updated.Title)
	assert.Equal(t, "Trimmed", storage.sessions["s1"].Title)
	assert.Equal(t, "  Trimmed  ", padded, "caller's title is left untouched")

	empty := " "
	_, err = timer.UpdateSession(ctx, "s1", SessionPatch{Title: &empty})
	assert.ErrorIs(t, err, ErrInvalidTitle)

	_, err = timer.UpdateSession(ctx, "missing", SessionPatch{Title: &title})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFocusTimer_Tasks(t *testing.T) {
	storage := newMockStorage()
	timer, _ := newTestTimer(storage, StartPolicyBestEffort)
	ctx := context.Background()

	storage.put(&FocusSession{ID: "s1", Title: "A"})

	first, err := timer.AddTask(ctx, "s1", "outline")
	require.NoError(t, err)
	second, err := timer.AddTask(ctx, "s1", " draft ")
	require.NoError(t, err)

	assert.Equal(t, 0, first.SortOrder)
	assert.Equal(t, 1, second.SortOrder)
	assert.Equal(t, "draft", second.Title)

	_, err = timer.AddTask(ctx, "s1", "")
	assert.ErrorIs(t, err, ErrInvalidTitle)
	_, err = timer.AddTask(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, timer.SetTaskCompleted(ctx, first.ID, true))
	assert.True(t, storage.tasks[first.ID].Completed)

	require.NoError(t, timer.DeleteTask(ctx, second.ID))
	assert.ErrorIs(t, timer.DeleteTask(ctx, second.ID), ErrTaskNotFound)
}

func TestFocusTimer_TodayStats(t *testing.T) {
	storage := newMockStorage()
	timer, clock := newTestTimer(storage, StartPolicyBestEffort)
	ctx := context.Background()

	today := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	storage.put(&FocusSession{ID: "a", Title: "A", SessionDate: today, ElapsedSeconds: 300, Status: SessionStatusCompleted})
	storage.put(&FocusSession{ID: "b", Title: "B", SessionDate: today})
	storage.put(&FocusSession{ID: "old", Title: "Old", SessionDate: today.AddDate(0, 0, -2), ElapsedSeconds: 5000})

	_, err := timer.Start(ctx, "b")
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	stats, err := timer.TodayStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sessions)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 420, stats.FocusedSeconds)
	assert.Equal(t, "b", stats.RunningSessionID)
}

// TestFocusTimer_RandomTransitions drives random transitions and checks that
// the running state stays consistent after every step.
func TestFocusTimer_RandomTransitions(t *testing.T) {
	storage := newMockStorage()
	timer, clock := newTestTimer(storage, StartPolicyBestEffort)
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		storage.put(&FocusSession{ID: id, Title: id})
	}

	rng := rand.New(rand.NewSource(42))
	lastElapsed := make(map[string]int)

	for step := 0; step < 500; step++ {
		id := ids[rng.Intn(len(ids))]
		op := rng.Intn(4)

		var err error
		switch op {
		case 0:
			_, err = timer.Start(ctx, id)
		case 1:
			_, err = timer.Pause(ctx, id)
		case 2:
			_, err = timer.Complete(ctx, id)
		case 3:
			_, err = timer.Reset(ctx, id)
			lastElapsed[id] = 0
		}
		require.NoError(t, err)

		clock.Advance(time.Duration(rng.Intn(120)) * time.Second)

		sessions, err := storage.ListSessions(ctx)
		require.NoError(t, err)

		running := 0
		for _, s := range sessions {
			if s.IsRunning {
				running++
				assert.NotNil(t, s.StartedAt, "running session %s without start time", s.ID)
			} else {
				assert.Nil(t, s.StartedAt, "stopped session %s with start time", s.ID)
			}

			elapsed := timer.ComputeElapsed(s)
			assert.GreaterOrEqual(t, elapsed, lastElapsed[s.ID], "elapsed of %s went backwards", s.ID)
			lastElapsed[s.ID] = elapsed
		}
		assert.LessOrEqual(t, running, 1, "step %d left %d sessions running", step, running)
	}
}
