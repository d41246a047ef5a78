package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method      string
	Path        string
	Query       string
	Key         string
	ContentType string
	Body        map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*FocusAPI, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.RawQuery,
			Key:         r.Header.Get(APIKeyHeader),
			ContentType: r.Header.Get("Content-Type"),
		}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		requests = append(requests, rec)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFocusAPI(server.URL+"/", "secret", time.Second, logger), &requests
}

func TestFocusAPI_RequestShapes(t *testing.T) {
	ctx := context.Background()
	planned := 25

	tests := []struct {
		name       string
		call       func(api *FocusAPI) error
		wantMethod string
		wantPath   string
		wantQuery  string
		wantBody   map[string]any
	}{
		{
			name: "list all",
			call: func(api *FocusAPI) error {
				_, err := api.ListSessions(ctx, "", false)
				return err
			},
			wantMethod: http.MethodGet,
			wantPath:   "/v1/sessions",
		},
		{
			name: "list filtered",
			call: func(api *FocusAPI) error {
				_, err := api.ListSessions(ctx, "2026-10-16", true)
				return err
			},
			wantMethod: http.MethodGet,
			wantPath:   "/v1/sessions",
			wantQuery:  "date=2026-10-16&running=true",
		},
		{
			name: "create",
			call: func(api *FocusAPI) error {
				_, err := api.CreateSession(ctx, CreateSessionRequest{Title: "Deep work", PlannedMinutes: &planned})
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/v1/sessions",
			wantBody:   map[string]any{"title": "Deep work", "planned_minutes": float64(25)},
		},
		{
			name: "start",
			call: func(api *FocusAPI) error {
				_, err := api.StartSession(ctx, "fs_1")
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/v1/sessions/fs_1/start",
		},
		{
			name: "pause",
			call: func(api *FocusAPI) error {
				_, err := api.PauseSession(ctx, "fs_1")
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/v1/sessions/fs_1/pause",
		},
		{
			name: "complete",
			call: func(api *FocusAPI) error {
				_, err := api.CompleteSession(ctx, "fs_1")
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/v1/sessions/fs_1/complete",
		},
		{
			name: "reset",
			call: func(api *FocusAPI) error {
				_, err := api.ResetSession(ctx, "fs_1")
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/v1/sessions/fs_1/reset",
		},
		{
			name: "add task",
			call: func(api *FocusAPI) error {
				_, err := api.AddTask(ctx, "fs_1", "outline")
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/v1/sessions/fs_1/tasks",
			wantBody:   map[string]any{"title": "outline"},
		},
		{
			name: "task done",
			call: func(api *FocusAPI) error {
				return api.SetTaskCompleted(ctx, "fst_1", false)
			},
			wantMethod: http.MethodPatch,
			wantPath:   "/v1/tasks/fst_1",
			wantBody:   map[string]any{"completed": false},
		},
		{
			name: "delete task",
			call: func(api *FocusAPI) error {
				return api.DeleteTask(ctx, "fst_1")
			},
			wantMethod: http.MethodDelete,
			wantPath:   "/v1/tasks/fst_1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, requests := newTestServer(t, http.StatusOK, `{}`)
			if tt.wantMethod == http.MethodGet && tt.wantPath == "/v1/sessions" {
				api, requests = newTestServer(t, http.StatusOK, `[]`)
			}

			require.NoError(t, tt.call(api))
			require.Len(t, *requests, 1)

			got := (*requests)[0]
			assert.Equal(t, tt.wantMethod, got.Method)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantQuery, got.Query)
			assert.Equal(t, "secret", got.Key)
			assert.Equal(t, tt.wantBody, got.Body)
			if tt.wantBody != nil {
				assert.Equal(t, "application/json", got.ContentType)
			} else {
				assert.Empty(t, got.ContentType)
			}
		})
	}
}

func TestFocusAPI_DecodesSession(t *testing.T) {
	api, _ := newTestServer(t, http.StatusOK, `{
		"id": "fs_1",
		"title": "Deep work",
		"status": "in_progress",
		"is_running": true,
		"elapsed_seconds": 900,
		"formatted": "00:15:00",
		"progress_percent": 60,
		"planned_minutes": 25,
		"tasks": [{"id": "fst_1", "title": "outline", "completed": true}]
	}`)

	session, err := api.GetSession(context.Background(), "fs_1")
	require.NoError(t, err)
	assert.Equal(t, "fs_1", session.ID)
	assert.True(t, session.IsRunning)
	assert.Equal(t, 900, session.ElapsedSeconds)
	require.NotNil(t, session.ProgressPercent)
	assert.Equal(t, 60.0, *session.ProgressPercent)
	require.Len(t, session.Tasks, 1)
	assert.True(t, session.Tasks[0].Completed)
}

func TestFocusAPI_Timer(t *testing.T) {
	api, _ := newTestServer(t, http.StatusOK, `{"running": false, "snapshot": null}`)

	state, err := api.GetTimer(context.Background())
	require.NoError(t, err)
	assert.False(t, state.Running)
	assert.Nil(t, state.Snapshot)
}

func TestFocusAPI_Errors(t *testing.T) {
	api, _ := newTestServer(t, http.StatusNotFound, `{"error": "session not found", "code": "SESSION_NOT_FOUND"}`)

	_, err := api.StartSession(context.Background(), "fs_missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "SESSION_NOT_FOUND")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "SESSION_NOT_FOUND", apiErr.Code)

	api, _ = newTestServer(t, http.StatusBadGateway, `upstream down`)
	_, err = api.GetTodayStats(context.Background())
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "upstream down")
}

func TestFocusAPI_NoContent(t *testing.T) {
	api, _ := newTestServer(t, http.StatusNoContent, ``)
	assert.NoError(t, api.DeleteSession(context.Background(), "fs_1"))
}
