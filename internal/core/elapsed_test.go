package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeElapsed_StoppedSessionIgnoresClock(t *testing.T) {
	startedAt := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	session := &FocusSession{ElapsedSeconds: 420, IsRunning: false, StartedAt: &startedAt}

	for _, now := range []time.Time{
		startedAt.Add(-time.Hour),
		startedAt,
		startedAt.Add(5 * time.Hour),
	} {
		assert.Equal(t, 420, ComputeElapsed(session, now))
	}
}

func TestComputeElapsed_RunningSession(t *testing.T) {
	t0 := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	session := &FocusSession{ElapsedSeconds: 100, IsRunning: true, StartedAt: &t0}

	tests := []struct {
		name     string
		offset   time.Duration
		expected int
	}{
		{"at start", 0, 100},
		{"one second", time.Second, 101},
		{"partial seconds floor", 2*time.Second + 999*time.Millisecond, 102},
		{"fifteen minutes", 900 * time.Second, 1000},
		{"clock skew clamps to zero", -30 * time.Second, 100},
		{"sub-second skew", -500 * time.Millisecond, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeElapsed(session, t0.Add(tt.offset)))
		})
	}
}

func TestComputeElapsed_RunningWithoutStartedAt(t *testing.T) {
	session := &FocusSession{ElapsedSeconds: 12, IsRunning: true}
	assert.Equal(t, 12, ComputeElapsed(session, time.Now()))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{86399, "23:59:59"},
		{99*3600 + 59*60 + 59, "99:59:59"},
		{100 * 3600, "100:00:00"},
		{-5, "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.seconds))
		})
	}
}

func TestMinutesFromSeconds(t *testing.T) {
	assert.Equal(t, 0, MinutesFromSeconds(0))
	assert.Equal(t, 0, MinutesFromSeconds(29))
	assert.Equal(t, 1, MinutesFromSeconds(30))
	assert.Equal(t, 1, MinutesFromSeconds(89))
	assert.Equal(t, 2, MinutesFromSeconds(90))
	assert.Equal(t, 15, MinutesFromSeconds(900))
}

func TestProgress(t *testing.T) {
	planned := 25
	session := &FocusSession{PlannedMinutes: &planned}

	percent, ok := Progress(session, 900)
	require.True(t, ok)
	assert.InDelta(t, 60.0, percent, 0.0001)

	percent, ok = Progress(session, 25*60*3)
	require.True(t, ok)
	assert.Equal(t, 100.0, percent, "progress is capped")

	_, ok = Progress(&FocusSession{}, 900)
	assert.False(t, ok, "no plan, no progress")
}

func TestNewSnapshot(t *testing.T) {
	t0 := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	planned := 50
	session := &FocusSession{
		ID:             "fs_1",
		Title:          "Deep work",
		IsRunning:      true,
		StartedAt:      &t0,
		ElapsedSeconds: 60,
		PlannedMinutes: &planned,
	}

	snap := NewSnapshot(session, t0.Add(1440*time.Second))
	assert.Equal(t, "fs_1", snap.SessionID)
	assert.Equal(t, 1500, snap.ElapsedSeconds)
	assert.Equal(t, "00:25:00", snap.Formatted)
	require.NotNil(t, snap.ProgressPercent)
	assert.InDelta(t, 50.0, *snap.ProgressPercent, 0.0001)
	assert.True(t, snap.IsRunning)

	session.PlannedMinutes = nil
	snap = NewSnapshot(session, t0)
	assert.Nil(t, snap.ProgressPercent)
}

func TestComputeDayStats(t *testing.T) {
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	now := day.Add(10 * time.Hour)
	startedAt := now.Add(-5 * time.Minute)
	planned := 25

	sessions := []*FocusSession{
		{
			ID: "done", SessionDate: day, Status: SessionStatusCompleted, ElapsedSeconds: 1500,
			PlannedMinutes: &planned,
			Tasks:          []*FocusTask{{Completed: true}, {Completed: false}},
		},
		{
			ID: "running", SessionDate: day, Status: SessionStatusInProgress, ElapsedSeconds: 60,
			IsRunning: true, StartedAt: &startedAt,
		},
		{ID: "planned", SessionDate: day, Status: SessionStatusPlanned},
		{ID: "yesterday", SessionDate: day.AddDate(0, 0, -1), Status: SessionStatusCompleted, ElapsedSeconds: 999},
	}

	stats := ComputeDayStats(sessions, day, now)
	assert.Equal(t, 3, stats.Sessions)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 1, stats.InProgressCount)
	assert.Equal(t, 1500+60+300, stats.FocusedSeconds)
	assert.Equal(t, 25, stats.PlannedMinutes)
	assert.Equal(t, 2, stats.TasksTotal)
	assert.Equal(t, 1, stats.TasksCompleted)
	assert.Equal(t, "running", stats.RunningSessionID)
}

func TestSessionPatch_Apply(t *testing.T) {
	startedAt := time.Now()
	goal := "old goal"
	session := &FocusSession{Goal: &goal, StartedAt: &startedAt, IsRunning: true}

	patch := SessionPatch{
		IsRunning:      ptr(false),
		StartedAt:      SetNull[time.Time](),
		ElapsedSeconds: ptr(42),
		ActualMinutes:  SetTo(1),
	}
	assert.False(t, patch.IsEmpty())
	patch.Apply(session)

	assert.False(t, session.IsRunning)
	assert.Nil(t, session.StartedAt)
	assert.Equal(t, 42, session.ElapsedSeconds)
	require.NotNil(t, session.ActualMinutes)
	assert.Equal(t, 1, *session.ActualMinutes)
	require.NotNil(t, session.Goal, "unset Nullable leaves the field alone")
	assert.Equal(t, "old goal", *session.Goal)

	assert.True(t, SessionPatch{}.IsEmpty())
}

func TestFocusSession_Validate(t *testing.T) {
	zero := 0
	tests := []struct {
		name    string
		session FocusSession
		wantErr error
	}{
		{"valid", FocusSession{Title: "ok", Status: SessionStatusPlanned}, nil},
		{"empty title", FocusSession{Title: " ", Status: SessionStatusPlanned}, ErrInvalidTitle},
		{"zero planned", FocusSession{Title: "ok", Status: SessionStatusPlanned, PlannedMinutes: &zero}, ErrInvalidPlannedMinutes},
		{"negative elapsed", FocusSession{Title: "ok", Status: SessionStatusPlanned, ElapsedSeconds: -1}, ErrInvalidElapsed},
		{"bad status", FocusSession{Title: "ok", Status: "paused"}, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
