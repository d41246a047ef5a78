package postgres

import (
	"fmt"
	"focustrack/internal/events"
	"focustrack/internal/storage/sqlstore"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
	CREATE TABLE IF NOT EXISTS focus_sessions (
		id TEXT PRIMARY KEY,
		session_date TEXT NOT NULL,
		title TEXT NOT NULL,
		goal TEXT,
		notes TEXT,
		planned_minutes INTEGER,
		actual_minutes INTEGER,
		status TEXT NOT NULL DEFAULT 'planned',
		is_running BOOLEAN NOT NULL DEFAULT FALSE,
		started_at TIMESTAMPTZ,
		elapsed_seconds INTEGER NOT NULL DEFAULT 0 CHECK (elapsed_seconds >= 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS focus_session_tasks (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES focus_sessions(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		metric_label TEXT,
		target_value DOUBLE PRECISION,
		result_value DOUBLE PRECISION,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_focus_sessions_date ON focus_sessions(session_date, created_at);
	CREATE INDEX IF NOT EXISTS idx_focus_sessions_running ON focus_sessions(is_running);
	CREATE INDEX IF NOT EXISTS idx_focus_session_tasks_session ON focus_session_tasks(session_id);
`

// Dialect is the PostgreSQL flavour of the shared SQL store
var Dialect = sqlstore.Dialect{
	DriverName:           "postgres",
	Schema:               schema,
	NumberedPlaceholders: true,
}

// New connects to PostgreSQL using a lib/pq connection string
func New(connStr string, timezone *time.Location, publisher events.Publisher) (*sqlstore.Store, error) {
	if connStr == "" {
		return nil, fmt.Errorf("postgres connection string cannot be empty")
	}

	store, err := sqlstore.Open(Dialect, connStr, sqlstore.Options{
		Timezone:  timezone,
		Publisher: publisher,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return store, nil
}
