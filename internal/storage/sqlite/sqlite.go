package sqlite

import (
	"fmt"
	"focustrack/internal/events"
	"focustrack/internal/storage/sqlstore"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
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
		is_running BOOLEAN NOT NULL DEFAULT 0,
		started_at DATETIME,
		elapsed_seconds INTEGER NOT NULL DEFAULT 0 CHECK (elapsed_seconds >= 0),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS focus_session_tasks (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		title TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT 0,
		metric_label TEXT,
		target_value REAL,
		result_value REAL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES focus_sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_focus_sessions_date ON focus_sessions(session_date, created_at);
	CREATE INDEX IF NOT EXISTS idx_focus_sessions_running ON focus_sessions(is_running);
	CREATE INDEX IF NOT EXISTS idx_focus_session_tasks_session ON focus_session_tasks(session_id);
`

// Dialect is the SQLite flavour of the shared SQL store
var Dialect = sqlstore.Dialect{
	DriverName:     "sqlite3",
	Schema:         schema,
	InitStatements: []string{"PRAGMA foreign_keys = ON"},
}

// New opens (or creates) the SQLite database at dbPath
func New(dbPath string, timezone *time.Location, publisher events.Publisher) (*sqlstore.Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}

	store, err := sqlstore.Open(Dialect, dsn(dbPath), sqlstore.Options{
		Timezone:  timezone,
		Publisher: publisher,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return store, nil
}

// dsn turns foreign keys on for every pooled connection, not just the first
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}
