package logging

import (
	"context"
	"log/slog"
	"time"

	"focustrack/internal/core"
)

// TimerLogger wraps a focus timer and logs every mutating call with its
// duration. Reads are logged at debug level.
type TimerLogger struct {
	timer  core.TimerInterface
	logger *slog.Logger
}

// NewTimerLogger creates a new logging decorator for the focus timer
func NewTimerLogger(timer core.TimerInterface, logger *slog.Logger) core.TimerInterface {
	return &TimerLogger{
		timer:  timer,
		logger: logger.With("interface", "FocusTimer"),
	}
}

// transition logs a call that returns the affected session
func (l *TimerLogger) transition(name, sessionID string, call func() (*core.FocusSession, error)) (*core.FocusSession, error) {
	start := time.Now()
	l.logger.Info(name+" called", "session_id", sessionID)

	session, err := call()
	duration := time.Since(start)

	if err != nil {
		l.logger.Error(name+" failed",
			"session_id", sessionID,
			"duration", duration,
			"error", err)
		return nil, err
	}

	l.logger.Info(name+" completed",
		"session_id", session.ID,
		"status", session.Status,
		"is_running", session.IsRunning,
		"elapsed_seconds", session.ElapsedSeconds,
		"duration", duration)

	return session, nil
}

func (l *TimerLogger) CreateSession(ctx context.Context, in core.CreateSessionInput) (*core.FocusSession, error) {
	start := time.Now()
	l.logger.Info("CreateSession called", "title", in.Title)

	session, err := l.timer.CreateSession(ctx, in)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("CreateSession failed",
			"title", in.Title,
			"duration", duration,
			"error", err)
		return nil, err
	}

	l.logger.Info("CreateSession completed",
		"session_id", session.ID,
		"session_date", session.SessionDate.Format(time.DateOnly),
		"duration", duration)

	return session, nil
}

func (l *TimerLogger) GetSession(ctx context.Context, sessionID string) (*core.FocusSession, error) {
	l.logger.Debug("GetSession called", "session_id", sessionID)
	return l.timer.GetSession(ctx, sessionID)
}

func (l *TimerLogger) ListSessions(ctx context.Context) ([]*core.FocusSession, error) {
	sessions, err := l.timer.ListSessions(ctx)
	if err != nil {
		l.logger.Error("ListSessions failed", "error", err)
		return nil, err
	}
	l.logger.Debug("ListSessions completed", "count", len(sessions))
	return sessions, nil
}

func (l *TimerLogger) UpdateSession(ctx context.Context, sessionID string, patch core.SessionPatch) (*core.FocusSession, error) {
	return l.transition("UpdateSession", sessionID, func() (*core.FocusSession, error) {
		return l.timer.UpdateSession(ctx, sessionID, patch)
	})
}

func (l *TimerLogger) DeleteSession(ctx context.Context, sessionID string) error {
	start := time.Now()
	l.logger.Info("DeleteSession called", "session_id", sessionID)

	err := l.timer.DeleteSession(ctx, sessionID)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("DeleteSession failed",
			"session_id", sessionID,
			"duration", duration,
			"error", err)
		return err
	}

	l.logger.Info("DeleteSession completed",
		"session_id", sessionID,
		"duration", duration)

	return nil
}

func (l *TimerLogger) AddTask(ctx context.Context, sessionID, title string) (*core.FocusTask, error) {
	start := time.Now()
	l.logger.Info("AddTask called",
		"session_id", sessionID,
		"title", title)

	task, err := l.timer.AddTask(ctx, sessionID, title)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("AddTask failed",
			"session_id", sessionID,
			"duration", duration,
			"error", err)
		return nil, err
	}

	l.logger.Info("AddTask completed",
		"session_id", sessionID,
		"task_id", task.ID,
		"duration", duration)

	return task, nil
}

func (l *TimerLogger) SetTaskCompleted(ctx context.Context, taskID string, completed bool) error {
	err := l.timer.SetTaskCompleted(ctx, taskID, completed)
	if err != nil {
		l.logger.Error("SetTaskCompleted failed",
			"task_id", taskID,
			"completed", completed,
			"error", err)
		return err
	}
	l.logger.Info("SetTaskCompleted completed",
		"task_id", taskID,
		"completed", completed)
	return nil
}

func (l *TimerLogger) DeleteTask(ctx context.Context, taskID string) error {
	err := l.timer.DeleteTask(ctx, taskID)
	if err != nil {
		l.logger.Error("DeleteTask failed", "task_id", taskID, "error", err)
		return err
	}
	l.logger.Info("DeleteTask completed", "task_id", taskID)
	return nil
}

func (l *TimerLogger) Start(ctx context.Context, sessionID string) (*core.FocusSession, error) {
	return l.transition("Start", sessionID, func() (*core.FocusSession, error) {
		return l.timer.Start(ctx, sessionID)
	})
}

func (l *TimerLogger) Pause(ctx context.Context, sessionID string) (*core.FocusSession, error) {
	return l.transition("Pause", sessionID, func() (*core.FocusSession, error) {
		return l.timer.Pause(ctx, sessionID)
	})
}

func (l *TimerLogger) Complete(ctx context.Context, sessionID string) (*core.FocusSession, error) {
	return l.transition("Complete", sessionID, func() (*core.FocusSession, error) {
		return l.timer.Complete(ctx, sessionID)
	})
}

func (l *TimerLogger) Reset(ctx context.Context, sessionID string) (*core.FocusSession, error) {
	return l.transition("Reset", sessionID, func() (*core.FocusSession, error) {
		return l.timer.Reset(ctx, sessionID)
	})
}

func (l *TimerLogger) ActiveSession(ctx context.Context) (*core.FocusSession, error) {
	session, err := l.timer.ActiveSession(ctx)
	if err != nil {
		l.logger.Error("ActiveSession failed", "error", err)
		return nil, err
	}
	if session != nil {
		l.logger.Debug("ActiveSession completed", "session_id", session.ID)
	}
	return session, nil
}

func (l *TimerLogger) Snapshot(session *core.FocusSession) core.TimerSnapshot {
	return l.timer.Snapshot(session)
}

func (l *TimerLogger) TodayStats(ctx context.Context) (*core.DayStats, error) {
	stats, err := l.timer.TodayStats(ctx)
	if err != nil {
		l.logger.Error("TodayStats failed", "error", err)
		return nil, err
	}
	l.logger.Debug("TodayStats completed",
		"sessions", stats.Sessions,
		"focused_seconds", stats.FocusedSeconds)
	return stats, nil
}

var _ core.TimerInterface = (*TimerLogger)(nil)
