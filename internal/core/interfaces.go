package core

import "context"

// TimerInterface defines the contract for focus session management
type TimerInterface interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*FocusSession, error)
	GetSession(ctx context.Context, sessionID string) (*FocusSession, error)
	ListSessions(ctx context.Context) ([]*FocusSession, error)
	UpdateSession(ctx context.Context, sessionID string, patch SessionPatch) (*FocusSession, error)
	DeleteSession(ctx context.Context, sessionID string) error

	AddTask(ctx context.Context, sessionID, title string) (*FocusTask, error)
	SetTaskCompleted(ctx context.Context, taskID string, completed bool) error
	DeleteTask(ctx context.Context, taskID string) error

	Start(ctx context.Context, sessionID string) (*FocusSession, error)
	Pause(ctx context.Context, sessionID string) (*FocusSession, error)
	Complete(ctx context.Context, sessionID string) (*FocusSession, error)
	Reset(ctx context.Context, sessionID string) (*FocusSession, error)

	ActiveSession(ctx context.Context) (*FocusSession, error)
	Snapshot(session *FocusSession) TimerSnapshot
	TodayStats(ctx context.Context) (*DayStats, error)
}
