package core

import (
	"fmt"
	"math"
	"time"
)

// ComputeElapsed returns the effective elapsed seconds of a session at now.
// A stopped session reports its stored total. A running one adds the whole
// seconds since StartedAt, clamped to zero when StartedAt lies in the future.
func ComputeElapsed(s *FocusSession, now time.Time) int {
	base := s.ElapsedSeconds
	if base < 0 {
		base = 0
	}
	if !s.IsRunning || s.StartedAt == nil {
		return base
	}

	delta := int(math.Floor(now.Sub(*s.StartedAt).Seconds()))
	if delta < 0 {
		delta = 0
	}
	return base + delta
}

// MinutesFromSeconds rounds seconds to the nearest minute, halves rounding up
func MinutesFromSeconds(seconds int) int {
	return int(math.Floor(float64(seconds)/60 + 0.5))
}

// FormatDuration renders seconds as HH:MM:SS. Hours grow past two digits only
// once they exceed 99.
func FormatDuration(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// Progress returns how much of the planned duration elapsed covers, as a
// percentage capped at 100. ok is false when the session has no plan.
func Progress(s *FocusSession, elapsed int) (percent float64, ok bool) {
	if s.PlannedMinutes == nil || *s.PlannedMinutes <= 0 {
		return 0, false
	}
	fraction := float64(elapsed) / float64(*s.PlannedMinutes*60)
	return math.Min(fraction, 1.0) * 100, true
}

// NewSnapshot captures what a live display shows for s at now
func NewSnapshot(s *FocusSession, now time.Time) TimerSnapshot {
	elapsed := ComputeElapsed(s, now)
	snap := TimerSnapshot{
		SessionID:      s.ID,
		Title:          s.Title,
		ElapsedSeconds: elapsed,
		Formatted:      FormatDuration(elapsed),
		IsRunning:      s.IsRunning,
		At:             now,
	}
	if percent, ok := Progress(s, elapsed); ok {
		snap.ProgressPercent = &percent
	}
	return snap
}

// FindRunning returns every running session in the collection
func FindRunning(sessions []*FocusSession) []*FocusSession {
	var running []*FocusSession
	for _, s := range sessions {
		if s.IsRunning {
			running = append(running, s)
		}
	}
	return running
}

// DayStats summarizes focus work for one calendar day
type DayStats struct {
	Date             time.Time
	Sessions         int
	CompletedCount   int
	InProgressCount  int
	FocusedSeconds   int
	PlannedMinutes   int
	TasksTotal       int
	TasksCompleted   int
	RunningSessionID string
}

// ComputeDayStats aggregates the sessions whose SessionDate falls on day.
// Running sessions contribute their reconciled elapsed time at now.
func ComputeDayStats(sessions []*FocusSession, day time.Time, now time.Time) DayStats {
	stats := DayStats{Date: day}
	for _, s := range sessions {
		if !sameDay(s.SessionDate, day) {
			continue
		}
		stats.Sessions++
		switch s.Status {
		case SessionStatusCompleted:
			stats.CompletedCount++
		case SessionStatusInProgress:
			stats.InProgressCount++
		}
		stats.FocusedSeconds += ComputeElapsed(s, now)
		if s.PlannedMinutes != nil {
			stats.PlannedMinutes += *s.PlannedMinutes
		}
		stats.TasksTotal += len(s.Tasks)
		stats.TasksCompleted += s.CompletedTasks()
		if s.IsRunning {
			stats.RunningSessionID = s.ID
		}
	}
	return stats
}

// sameDay compares calendar components as stored, without zone conversion
func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
