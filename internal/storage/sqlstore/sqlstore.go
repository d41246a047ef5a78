package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"focustrack/internal/core"
	"focustrack/internal/events"
	"focustrack/internal/storage"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

const sessionColumns = `id, session_date, title, goal, notes, planned_minutes, actual_minutes,
	status, is_running, started_at, elapsed_seconds, created_at, updated_at`

const taskColumns = `id, session_id, title, completed, metric_label, target_value, result_value,
	sort_order, created_at`

var _ storage.Storage = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Options configures a Store
type Options struct {
	// Timezone is used to interpret session dates. Defaults to UTC.
	Timezone *time.Location
	// Publisher receives a change event after every successful write
	Publisher events.Publisher
}

// Store implements storage.Storage on top of database/sql
type Store struct {
	db        *sql.DB
	q         querier
	dialect   Dialect
	timezone  *time.Location
	publisher events.Publisher
	pending   *[]events.Event // non-nil inside a transaction
}

// Open opens the database, runs the dialect's init statements and creates the schema
func Open(dialect Dialect, dsn string, opts Options) (*Store, error) {
	if opts.Timezone == nil {
		opts.Timezone = time.UTC
	}

	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, stmt := range dialect.InitStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	if _, err := db.Exec(dialect.Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{
		db:        db,
		q:         db,
		dialect:   dialect,
		timezone:  opts.Timezone,
		publisher: opts.Publisher,
	}, nil
}

// CreateSession inserts a new session
func (s *Store) CreateSession(ctx context.Context, session *core.FocusSession) error {
	if err := session.Validate(); err != nil {
		return err
	}

	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.SessionDate.IsZero() {
		session.SessionDate = s.normalizeDate(now)
	}

	_, err := s.q.ExecContext(ctx, s.dialect.Rebind(`
		INSERT INTO focus_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), session.ID, session.SessionDate.Format(dateLayout), session.Title,
		nullString(session.Goal), nullString(session.Notes),
		nullInt(session.PlannedMinutes), nullInt(session.ActualMinutes),
		string(session.Status), session.IsRunning, nullTime(session.StartedAt),
		session.ElapsedSeconds, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return err
	}

	s.publish(events.Event{Type: events.SessionCreated, SessionID: session.ID})
	return nil
}

// GetSession retrieves a session and its ordered tasks
func (s *Store) GetSession(ctx context.Context, id string) (*core.FocusSession, error) {
	row := s.q.QueryRowContext(ctx, s.dialect.Rebind(`
		SELECT `+sessionColumns+` FROM focus_sessions WHERE id = ?
	`), id)

	session, err := s.scanSession(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	tasks, err := s.listTasks(ctx, "WHERE session_id = ?", id)
	if err != nil {
		return nil, err
	}
	session.Tasks = tasks[id]

	return session, nil
}

// ListSessions retrieves every session, newest day first
func (s *Store) ListSessions(ctx context.Context) ([]*core.FocusSession, error) {
	return s.listSessionsByCondition(ctx, "1=1")
}

// ListRunningSessions retrieves sessions whose timer is running
func (s *Store) ListRunningSessions(ctx context.Context) ([]*core.FocusSession, error) {
	return s.listSessionsByCondition(ctx, "is_running = ?", true)
}

// UpdateSession writes only the fields present in patch
func (s *Store) UpdateSession(ctx context.Context, id string, patch core.SessionPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Goal.Set {
		set("goal", nullString(patch.Goal.Value))
	}
	if patch.Notes.Set {
		set("notes", nullString(patch.Notes.Value))
	}
	if patch.PlannedMinutes.Set {
		set("planned_minutes", nullInt(patch.PlannedMinutes.Value))
	}
	if patch.ActualMinutes.Set {
		set("actual_minutes", nullInt(patch.ActualMinutes.Value))
	}
	if patch.SessionDate != nil {
		set("session_date", patch.SessionDate.Format(dateLayout))
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.IsRunning != nil {
		set("is_running", *patch.IsRunning)
	}
	if patch.StartedAt.Set {
		set("started_at", nullTime(patch.StartedAt.Value))
	}
	if patch.ElapsedSeconds != nil {
		set("elapsed_seconds", *patch.ElapsedSeconds)
	}
	set("updated_at", time.Now())
	args = append(args, id)

	result, err := s.q.ExecContext(ctx, s.dialect.Rebind(
		"UPDATE focus_sessions SET "+strings.Join(sets, ", ")+" WHERE id = ?"), args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrSessionNotFound
	}

	s.publish(events.Event{Type: events.SessionUpdated, SessionID: id})
	return nil
}

// DeleteSession deletes a session; its tasks go with it
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result, err := s.q.ExecContext(ctx, s.dialect.Rebind("DELETE FROM focus_sessions WHERE id = ?"), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrSessionNotFound
	}

	s.publish(events.Event{Type: events.SessionDeleted, SessionID: id})
	return nil
}

// CreateTask inserts a task for an existing session
func (s *Store) CreateTask(ctx context.Context, task *core.FocusTask) error {
	if err := task.Validate(); err != nil {
		return err
	}

	var exists bool
	err := s.q.QueryRowContext(ctx, s.dialect.Rebind(
		"SELECT EXISTS(SELECT 1 FROM focus_sessions WHERE id = ?)"), task.SessionID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return core.ErrSessionNotFound
	}

	task.CreatedAt = time.Now()

	_, err = s.q.ExecContext(ctx, s.dialect.Rebind(`
		INSERT INTO focus_session_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), task.ID, task.SessionID, task.Title, task.Completed, nullString(task.MetricLabel),
		nullFloat(task.TargetValue), nullFloat(task.ResultValue), task.SortOrder, task.CreatedAt)
	if err != nil {
		return err
	}

	s.publish(events.Event{Type: events.TaskChanged, SessionID: task.SessionID, TaskID: task.ID})
	return nil
}

// SetTaskCompleted toggles a task's completion flag
func (s *Store) SetTaskCompleted(ctx context.Context, id string, completed bool) error {
	result, err := s.q.ExecContext(ctx, s.dialect.Rebind(
		"UPDATE focus_session_tasks SET completed = ? WHERE id = ?"), completed, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrTaskNotFound
	}

	s.publish(events.Event{Type: events.TaskChanged, TaskID: id})
	return nil
}

// DeleteTask deletes a task
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	result, err := s.q.ExecContext(ctx, s.dialect.Rebind("DELETE FROM focus_session_tasks WHERE id = ?"), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrTaskNotFound
	}

	s.publish(events.Event{Type: events.TaskChanged, TaskID: id})
	return nil
}

// WithinTx runs fn against a store bound to one transaction. Change events
// are held back until the transaction commits.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx core.Storage) error) error {
	if s.pending != nil {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var pending []events.Event
	txStore := &Store{
		db:        s.db,
		q:         tx,
		dialect:   s.dialect,
		timezone:  s.timezone,
		publisher: s.publisher,
		pending:   &pending,
	}

	if err := fn(ctx, txStore); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, ev := range pending {
		s.publish(ev)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Helper functions

func (s *Store) publish(ev events.Event) {
	if s.pending != nil {
		*s.pending = append(*s.pending, ev)
		return
	}
	if s.publisher != nil {
		s.publisher.Publish(ev)
	}
}

func (s *Store) listSessionsByCondition(ctx context.Context, condition string, args ...any) ([]*core.FocusSession, error) {
	rows, err := s.q.QueryContext(ctx, s.dialect.Rebind(`
		SELECT `+sessionColumns+` FROM focus_sessions
		WHERE `+condition+`
		ORDER BY session_date DESC, created_at DESC
	`), args...)
	if err != nil {
		return nil, err
	}

	var sessions []*core.FocusSession
	for rows.Next() {
		session, err := s.scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(sessions) == 0 {
		return sessions, nil
	}

	// Load the tasks of the returned sessions only, in batches
	for start := 0; start < len(sessions); start += maxInArgs {
		batch := sessions[start:min(start+maxInArgs, len(sessions))]
		ids := make([]any, len(batch))
		for i, session := range batch {
			ids[i] = session.ID
		}

		tasks, err := s.listTasks(ctx, "WHERE session_id IN ("+placeholders(len(ids))+")", ids...)
		if err != nil {
			return nil, err
		}
		for _, session := range batch {
			session.Tasks = tasks[session.ID]
		}
	}

	return sessions, nil
}

func (s *Store) listTasks(ctx context.Context, condition string, args ...any) (map[string][]*core.FocusTask, error) {
	rows, err := s.q.QueryContext(ctx, s.dialect.Rebind(`
		SELECT `+taskColumns+` FROM focus_session_tasks
		`+condition+`
		ORDER BY session_id, sort_order, created_at
	`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make(map[string][]*core.FocusTask)
	for rows.Next() {
		var task core.FocusTask
		var metricLabel sql.NullString
		var targetValue, resultValue sql.NullFloat64

		if err := rows.Scan(&task.ID, &task.SessionID, &task.Title, &task.Completed, &metricLabel,
			&targetValue, &resultValue, &task.SortOrder, &task.CreatedAt); err != nil {
			return nil, err
		}

		if metricLabel.Valid {
			task.MetricLabel = &metricLabel.String
		}
		if targetValue.Valid {
			task.TargetValue = &targetValue.Float64
		}
		if resultValue.Valid {
			task.ResultValue = &resultValue.Float64
		}

		tasks[task.SessionID] = append(tasks[task.SessionID], &task)
	}

	return tasks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanSession(row scanner) (*core.FocusSession, error) {
	var session core.FocusSession
	var sessionDate, status string
	var goal, notes sql.NullString
	var plannedMinutes, actualMinutes sql.NullInt64
	var startedAt sql.NullTime

	if err := row.Scan(&session.ID, &sessionDate, &session.Title, &goal, &notes,
		&plannedMinutes, &actualMinutes, &status, &session.IsRunning, &startedAt,
		&session.ElapsedSeconds, &session.CreatedAt, &session.UpdatedAt); err != nil {
		return nil, err
	}

	date, err := time.ParseInLocation(dateLayout, sessionDate, s.timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session date %q: %w", sessionDate, err)
	}
	session.SessionDate = date
	session.Status = core.SessionStatus(status)

	if goal.Valid {
		session.Goal = &goal.String
	}
	if notes.Valid {
		session.Notes = &notes.String
	}
	if plannedMinutes.Valid {
		v := int(plannedMinutes.Int64)
		session.PlannedMinutes = &v
	}
	if actualMinutes.Valid {
		v := int(actualMinutes.Int64)
		session.ActualMinutes = &v
	}
	if startedAt.Valid {
		session.StartedAt = &startedAt.Time
	}

	return &session, nil
}

func (s *Store) normalizeDate(t time.Time) time.Time {
	inTZ := t.In(s.timezone)
	year, month, day := inTZ.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, s.timezone)
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

var _ core.Transactor = (*Store)(nil)
