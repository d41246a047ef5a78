package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIKeyHeader carries the shared API key
const APIKeyHeader = "X-Focus-Key"

// FocusAPI is a client for the focusd REST API
type FocusAPI struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewFocusAPI creates a new focusd API client. A zero timeout means 30s.
func NewFocusAPI(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *FocusAPI {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FocusAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Session represents a focus session as returned by the API
type Session struct {
	ID                   string   `json:"id"`
	SessionDate          string   `json:"session_date"`
	Title                string   `json:"title"`
	Goal                 *string  `json:"goal"`
	Notes                *string  `json:"notes"`
	PlannedMinutes       *int     `json:"planned_minutes"`
	ActualMinutes        *int     `json:"actual_minutes"`
	Status               string   `json:"status"`
	IsRunning            bool     `json:"is_running"`
	StartedAt            *string  `json:"started_at"`
	StoredElapsedSeconds int      `json:"stored_elapsed_seconds"`
	ElapsedSeconds       int      `json:"elapsed_seconds"`
	Formatted            string   `json:"formatted"`
	ProgressPercent      *float64 `json:"progress_percent"`
	Tasks                []Task   `json:"tasks"`
	TasksCompleted       int      `json:"tasks_completed"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
}

// Task represents a checklist item
type Task struct {
	ID          string   `json:"id"`
	SessionID   string   `json:"session_id"`
	Title       string   `json:"title"`
	Completed   bool     `json:"completed"`
	MetricLabel *string  `json:"metric_label"`
	TargetValue *float64 `json:"target_value"`
	ResultValue *float64 `json:"result_value"`
	SortOrder   int      `json:"sort_order"`
	CreatedAt   string   `json:"created_at"`
}

// Snapshot is the live display state of the running session
type Snapshot struct {
	SessionID       string   `json:"session_id"`
	Title           string   `json:"title"`
	ElapsedSeconds  int      `json:"elapsed_seconds"`
	Formatted       string   `json:"formatted"`
	ProgressPercent *float64 `json:"progress_percent"`
	IsRunning       bool     `json:"is_running"`
	At              string   `json:"at"`
}

// TimerState is the response of GET /v1/timer
type TimerState struct {
	Running  bool      `json:"running"`
	Snapshot *Snapshot `json:"snapshot"`
}

// TodayStats represents today's focus totals
type TodayStats struct {
	Date             string `json:"date"`
	Sessions         int    `json:"sessions"`
	Completed        int    `json:"completed"`
	InProgress       int    `json:"in_progress"`
	FocusedSeconds   int    `json:"focused_seconds"`
	FocusedFormatted string `json:"focused_formatted"`
	FocusedMinutes   int    `json:"focused_minutes"`
	PlannedMinutes   int    `json:"planned_minutes"`
	TasksTotal       int    `json:"tasks_total"`
	TasksCompleted   int    `json:"tasks_completed"`
	PlanPercent      int    `json:"plan_percent"`
	RunningSessionID string `json:"running_session_id,omitempty"`
}

// CreateSessionRequest represents a request to plan a session
type CreateSessionRequest struct {
	Title          string  `json:"title"`
	Goal           *string `json:"goal,omitempty"`
	PlannedMinutes *int    `json:"planned_minutes,omitempty"`
	SessionDate    string  `json:"session_date,omitempty"`
}

// UpdateSessionRequest edits descriptive fields; nil fields are not sent
type UpdateSessionRequest struct {
	Title          *string `json:"title,omitempty"`
	Goal           *string `json:"goal,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	PlannedMinutes *int    `json:"planned_minutes,omitempty"`
	SessionDate    string  `json:"session_date,omitempty"`
}

// APIError represents an API error response
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d: %s (%s)", e.StatusCode, e.Message, e.Code)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// ListSessions retrieves sessions, newest day first. An empty date lists all days.
func (a *FocusAPI) ListSessions(ctx context.Context, date string, runningOnly bool) ([]Session, error) {
	query := url.Values{}
	if date != "" {
		query.Set("date", date)
	}
	if runningOnly {
		query.Set("running", "true")
	}
	path := "/v1/sessions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var sessions []Session
	if err := a.doRequest(ctx, http.MethodGet, path, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession retrieves one session
func (a *FocusAPI) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	if err := a.doRequest(ctx, http.MethodGet, "/v1/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateSession plans a new session
func (a *FocusAPI) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	var session Session
	if err := a.doRequest(ctx, http.MethodPost, "/v1/sessions", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSession edits a session
func (a *FocusAPI) UpdateSession(ctx context.Context, sessionID string, req UpdateSessionRequest) (*Session, error) {
	var session Session
	if err := a.doRequest(ctx, http.MethodPatch, "/v1/sessions/"+url.PathEscape(sessionID), req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession removes a session and its tasks
func (a *FocusAPI) DeleteSession(ctx context.Context, sessionID string) error {
	return a.doRequest(ctx, http.MethodDelete, "/v1/sessions/"+url.PathEscape(sessionID), nil, nil)
}

// StartSession makes the session the running one
func (a *FocusAPI) StartSession(ctx context.Context, sessionID string) (*Session, error) {
	return a.action(ctx, sessionID, "start")
}

// PauseSession stops the timer
func (a *FocusAPI) PauseSession(ctx context.Context, sessionID string) (*Session, error) {
	return a.action(ctx, sessionID, "pause")
}

// CompleteSession stops the timer and marks the session completed
func (a *FocusAPI) CompleteSession(ctx context.Context, sessionID string) (*Session, error) {
	return a.action(ctx, sessionID, "complete")
}

// ResetSession clears the accumulated time
func (a *FocusAPI) ResetSession(ctx context.Context, sessionID string) (*Session, error) {
	return a.action(ctx, sessionID, "reset")
}

func (a *FocusAPI) action(ctx context.Context, sessionID, action string) (*Session, error) {
	var session Session
	path := "/v1/sessions/" + url.PathEscape(sessionID) + "/" + action
	if err := a.doRequest(ctx, http.MethodPost, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// AddTask appends a task to a session
func (a *FocusAPI) AddTask(ctx context.Context, sessionID, title string) (*Task, error) {
	req := struct {
		Title string `json:"title"`
	}{
		Title: title,
	}

	var task Task
	if err := a.doRequest(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(sessionID)+"/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetTaskCompleted marks a task done or not done
func (a *FocusAPI) SetTaskCompleted(ctx context.Context, taskID string, completed bool) error {
	req := struct {
		Completed bool `json:"completed"`
	}{
		Completed: completed,
	}
	return a.doRequest(ctx, http.MethodPatch, "/v1/tasks/"+url.PathEscape(taskID), req, nil)
}

// DeleteTask removes a task
func (a *FocusAPI) DeleteTask(ctx context.Context, taskID string) error {
	return a.doRequest(ctx, http.MethodDelete, "/v1/tasks/"+url.PathEscape(taskID), nil, nil)
}

// GetTimer retrieves the running session's snapshot
func (a *FocusAPI) GetTimer(ctx context.Context) (*TimerState, error) {
	var state TimerState
	if err := a.doRequest(ctx, http.MethodGet, "/v1/timer", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetTodayStats retrieves today's statistics
func (a *FocusAPI) GetTodayStats(ctx context.Context) (*TodayStats, error) {
	var stats TodayStats
	if err := a.doRequest(ctx, http.MethodGet, "/v1/stats/today", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// doRequest performs an HTTP request to the focusd API
func (a *FocusAPI) doRequest(ctx context.Context, method, path string, body any, result any) error {
	endpoint := a.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(APIKeyHeader, a.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	a.logger.Debug("API request",
		"method", method,
		"url", endpoint,
	)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
