package bot

import (
	"errors"
	"strings"
	"testing"

	"focustrack/internal/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data    string
		want    *CallbackData
		wantErr bool
	}{
		{data: "start:fs_1", want: &CallbackData{Action: ActionStart, SessionID: "fs_1"}},
		{data: "view:fs_1", want: &CallbackData{Action: ActionView, SessionID: "fs_1"}},
		{data: "today", want: &CallbackData{Action: ActionToday}},
		{data: "sessions", want: &CallbackData{Action: ActionSessions}},
		{data: "", wantErr: true},
		{data: "start", wantErr: true},
		{data: "start:", wantErr: true},
		{data: "today:fs_1", wantErr: true},
		{data: "delete:fs_1", wantErr: true},
		{data: "start:" + strings.Repeat("x", 64), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := ParseCallback(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.data, MarshalCallback(*got))
		})
	}
}

func TestBuildSessionButtons(t *testing.T) {
	tests := []struct {
		name    string
		session client.Session
		want    []string
	}{
		{
			name:    "planned",
			session: client.Session{ID: "fs_1", Status: "planned"},
			want:    []string{"start:fs_1", "complete:fs_1"},
		},
		{
			name:    "running",
			session: client.Session{ID: "fs_1", Status: "in_progress", IsRunning: true, ElapsedSeconds: 60},
			want:    []string{"pause:fs_1", "complete:fs_1", "reset:fs_1"},
		},
		{
			name:    "completed",
			session: client.Session{ID: "fs_1", Status: "completed", ElapsedSeconds: 60},
			want:    []string{"start:fs_1", "reset:fs_1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markup := BuildSessionButtons(tt.session)
			require.Len(t, markup.InlineKeyboard, 2)

			var got []string
			for _, btn := range markup.InlineKeyboard[0] {
				got = append(got, *btn.CallbackData)
				assert.LessOrEqual(t, len(*btn.CallbackData), maxCallbackData)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNewArgs(t *testing.T) {
	tests := []struct {
		args        string
		wantTitle   string
		wantMinutes *int
		wantErr     bool
	}{
		{args: "25 Write report", wantTitle: "Write report", wantMinutes: ptr(25)},
		{args: "Write report", wantTitle: "Write report"},
		{args: "  90   Deep   work ", wantTitle: "Deep work", wantMinutes: ptr(90)},
		{args: "", wantErr: true},
		{args: "25", wantErr: true},
		{args: "0 Nothing", wantErr: true},
		{args: "-5 Nothing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			req, err := ParseNewArgs(tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, errNewUsage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, req.Title)
			assert.Equal(t, tt.wantMinutes, req.PlannedMinutes)
		})
	}
}

func TestFormatSession(t *testing.T) {
	progress := 60.0
	planned := 25
	goal := "first_draft"

	text := FormatSession(client.Session{
		ID:              "fs_1",
		Title:           "Write *report*",
		SessionDate:     "2026-10-16",
		Goal:            &goal,
		Status:          "in_progress",
		IsRunning:       true,
		Formatted:       "00:15:00",
		PlannedMinutes:  &planned,
		ProgressPercent: &progress,
		Tasks: []client.Task{
			{Title: "outline", Completed: true},
			{Title: "intro"},
		},
		TasksCompleted: 1,
	})

	assert.Contains(t, text, `🟢 *Write \*report\**`)
	assert.Contains(t, text, `Goal: first\_draft`)
	assert.Contains(t, text, "`00:15:00` of 25 min")
	assert.Contains(t, text, "▰▰▰▰▰▰▱▱▱▱ 60%")
	assert.Contains(t, text, "Tasks 1/2")
	assert.Contains(t, text, "✔️ outline")
	assert.Contains(t, text, "▫️ intro")
}

func TestFormatTodayStats(t *testing.T) {
	empty := FormatTodayStats(&client.TodayStats{Date: "2026-10-16"})
	assert.Contains(t, empty, "No sessions today")

	text := FormatTodayStats(&client.TodayStats{
		Date:             "2026-10-16",
		Sessions:         3,
		Completed:        1,
		InProgress:       1,
		FocusedFormatted: "01:05:00",
		FocusedMinutes:   65,
		PlannedMinutes:   100,
		PlanPercent:      65,
		TasksTotal:       4,
		TasksCompleted:   2,
		RunningSessionID: "fs_1",
	})
	assert.Contains(t, text, "Planned: 100 min (65%)")
	assert.Contains(t, text, "Sessions: 3 (1 completed, 1 in progress)")
	assert.Contains(t, text, "Tasks: 2/4")
	assert.Contains(t, text, "A session is running")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "▱▱▱▱▱▱▱▱▱▱", ProgressBar(0))
	assert.Equal(t, "▰▰▰▰▰▱▱▱▱▱", ProgressBar(55))
	assert.Equal(t, "▰▰▰▰▰▰▰▰▰▰", ProgressBar(100))
	assert.Equal(t, "▰▰▰▰▰▰▰▰▰▰", ProgressBar(250))
	assert.Equal(t, "▱▱▱▱▱▱▱▱▱▱", ProgressBar(-3))
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "❌ *Error*\n\nbad\\_thing", FormatError(errors.New("bad_thing")))
}

func ptr[T any](v T) *T {
	return &v
}
