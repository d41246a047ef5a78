package storage

import (
	"context"
	"focustrack/internal/core"
)

// Storage defines the interface for data persistence. Every backend also
// implements core.Transactor.
type Storage interface {
	core.Storage
	core.Transactor

	// ListRunningSessions returns the sessions flagged as running
	ListRunningSessions(ctx context.Context) ([]*core.FocusSession, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
