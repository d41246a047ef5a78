package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// SessionStatus represents where a focus session is in its lifecycle
type SessionStatus string

const (
	SessionStatusPlanned    SessionStatus = "planned"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
)

// Valid reports whether s is one of the known statuses
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusPlanned, SessionStatusInProgress, SessionStatusCompleted:
		return true
	}
	return false
}

// FocusSession is one planned, ongoing or completed unit of focused work.
//
// IsRunning and StartedAt move together: a running session always carries the
// instant its current interval began, a stopped one never does. ElapsedSeconds
// holds everything accumulated before that interval.
type FocusSession struct {
	ID             string
	SessionDate    time.Time // calendar day, normalized to midnight
	Title          string
	Goal           *string
	Notes          *string
	PlannedMinutes *int
	ActualMinutes  *int // recomputed from ElapsedSeconds whenever the timer stops
	Status         SessionStatus
	IsRunning      bool
	StartedAt      *time.Time
	ElapsedSeconds int
	Tasks          []*FocusTask
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FocusTask is a checklist item attached to a session
type FocusTask struct {
	ID          string
	SessionID   string
	Title       string
	Completed   bool
	MetricLabel *string
	TargetValue *float64
	ResultValue *float64
	SortOrder   int
	CreatedAt   time.Time
}

// Validation and lookup errors
var (
	ErrInvalidTitle          = errors.New("title cannot be empty")
	ErrInvalidPlannedMinutes = errors.New("planned minutes must be positive")
	ErrInvalidElapsed        = errors.New("elapsed seconds cannot be negative")
	ErrInvalidStatus         = errors.New("invalid session status")
	ErrSessionNotFound       = errors.New("session not found")
	ErrTaskNotFound          = errors.New("task not found")
)

// Validate validates a FocusSession
func (s *FocusSession) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrInvalidTitle
	}
	if s.PlannedMinutes != nil && *s.PlannedMinutes <= 0 {
		return ErrInvalidPlannedMinutes
	}
	if s.ElapsedSeconds < 0 {
		return ErrInvalidElapsed
	}
	if !s.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Validate validates a FocusTask
func (t *FocusTask) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrInvalidTitle
	}
	return nil
}

// CompletedTasks counts finished tasks
func (s *FocusSession) CompletedTasks() int {
	n := 0
	for _, task := range s.Tasks {
		if task.Completed {
			n++
		}
	}
	return n
}

// Nullable is a patch value for a column that may be explicitly cleared.
// The zero value leaves the column untouched.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a Nullable that writes v
func SetTo[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// SetNull returns a Nullable that clears the column
func SetNull[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// UnmarshalJSON marks the field as set. A JSON null clears it; an absent key
// never reaches here and leaves it unset.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// SessionPatch is a partial update of a session. Nil pointers and unset
// Nullables are left as they are in the store.
type SessionPatch struct {
	Title          *string
	Goal           Nullable[string]
	Notes          Nullable[string]
	PlannedMinutes Nullable[int]
	ActualMinutes  Nullable[int]
	SessionDate    *time.Time
	Status         *SessionStatus
	IsRunning      *bool
	StartedAt      Nullable[time.Time]
	ElapsedSeconds *int
}

// IsEmpty reports whether the patch would change nothing
func (p SessionPatch) IsEmpty() bool {
	return p.Title == nil && !p.Goal.Set && !p.Notes.Set && !p.PlannedMinutes.Set &&
		!p.ActualMinutes.Set && p.SessionDate == nil && p.Status == nil && p.IsRunning == nil &&
		!p.StartedAt.Set && p.ElapsedSeconds == nil
}

// Validate rejects patches that would break the session model
func (p SessionPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrInvalidTitle
	}
	if p.PlannedMinutes.Value != nil && *p.PlannedMinutes.Value <= 0 {
		return ErrInvalidPlannedMinutes
	}
	if p.ElapsedSeconds != nil && *p.ElapsedSeconds < 0 {
		return ErrInvalidElapsed
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Apply copies the patched fields onto s
func (p SessionPatch) Apply(s *FocusSession) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Goal.Set {
		s.Goal = p.Goal.Value
	}
	if p.Notes.Set {
		s.Notes = p.Notes.Value
	}
	if p.PlannedMinutes.Set {
		s.PlannedMinutes = p.PlannedMinutes.Value
	}
	if p.ActualMinutes.Set {
		s.ActualMinutes = p.ActualMinutes.Value
	}
	if p.SessionDate != nil {
		s.SessionDate = *p.SessionDate
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.IsRunning != nil {
		s.IsRunning = *p.IsRunning
	}
	if p.StartedAt.Set {
		s.StartedAt = p.StartedAt.Value
	}
	if p.ElapsedSeconds != nil {
		s.ElapsedSeconds = *p.ElapsedSeconds
	}
}

// CreateSessionInput carries the fields accepted when planning a new session
type CreateSessionInput struct {
	Title          string
	Goal           *string
	PlannedMinutes *int
	SessionDate    *time.Time
}

// Validate validates a CreateSessionInput
func (in CreateSessionInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrInvalidTitle
	}
	if in.PlannedMinutes != nil && *in.PlannedMinutes <= 0 {
		return ErrInvalidPlannedMinutes
	}
	return nil
}

// TimerSnapshot is what a live display renders for one session
type TimerSnapshot struct {
	SessionID       string    `json:"session_id"`
	Title           string    `json:"title"`
	ElapsedSeconds  int       `json:"elapsed_seconds"`
	Formatted       string    `json:"formatted"`
	ProgressPercent *float64  `json:"progress_percent"`
	IsRunning       bool      `json:"is_running"`
	At              time.Time `json:"at"`
}
