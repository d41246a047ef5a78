package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"focustrack/internal/client"
)

// render writes v as indented JSON under --json, otherwise calls pretty
func (a *app) render(v any, pretty func()) error {
	if !a.json {
		pretty()
		return nil
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSession(w io.Writer, s *client.Session) {
	fmt.Fprintf(w, "%s %s  %s\n", statusMark(*s), color.New(color.Bold).Sprint(s.Title), color.HiBlackString(s.ID))
	fmt.Fprintf(w, "  Date:     %s\n", s.SessionDate)
	fmt.Fprintf(w, "  Status:   %s\n", statusText(*s))
	if s.Goal != nil {
		fmt.Fprintf(w, "  Goal:     %s\n", *s.Goal)
	}

	elapsed := s.Formatted
	if s.PlannedMinutes != nil {
		elapsed += fmt.Sprintf(" / %d min", *s.PlannedMinutes)
	}
	if s.ProgressPercent != nil {
		elapsed += fmt.Sprintf(" (%.0f%%)", *s.ProgressPercent)
	}
	fmt.Fprintf(w, "  Elapsed:  %s\n", elapsed)

	if s.ActualMinutes != nil {
		fmt.Fprintf(w, "  Actual:   %d min\n", *s.ActualMinutes)
	}
	if s.Notes != nil {
		fmt.Fprintf(w, "  Notes:    %s\n", *s.Notes)
	}

	if len(s.Tasks) > 0 {
		fmt.Fprintf(w, "  Tasks:    %d/%d\n", s.TasksCompleted, len(s.Tasks))
		for _, t := range s.Tasks {
			mark := "[ ]"
			if t.Completed {
				mark = color.GreenString("[x]")
			}
			fmt.Fprintf(w, "    %s %s  %s\n", mark, t.Title, color.HiBlackString(t.ID))
		}
	}
}

func printSessionList(w io.Writer, sessions []client.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found")
		return
	}

	day := ""
	for _, s := range sessions {
		if s.SessionDate != day {
			day = s.SessionDate
			fmt.Fprintln(w, color.CyanString(day))
		}
		planned := ""
		if s.PlannedMinutes != nil {
			planned = fmt.Sprintf(" / %d min", *s.PlannedMinutes)
		}
		fmt.Fprintf(w, "  %s %-32s %s%s  %s\n", statusMark(s), truncate(s.Title, 32), s.Formatted, planned, color.HiBlackString(s.ID))
	}
}

func printTimer(w io.Writer, state *client.TimerState) {
	if state == nil || !state.Running || state.Snapshot == nil {
		fmt.Fprintln(w, "No session is running")
		return
	}

	snap := state.Snapshot
	line := fmt.Sprintf("%s %s  %s", color.GreenString("●"), color.New(color.Bold).Sprint(snap.Title), snap.Formatted)
	if snap.ProgressPercent != nil {
		line += fmt.Sprintf(" (%.0f%%)", *snap.ProgressPercent)
	}
	fmt.Fprintln(w, line)
}

func printStats(w io.Writer, stats *client.TodayStats) {
	fmt.Fprintln(w, color.CyanString("Today %s", stats.Date))
	fmt.Fprintf(w, "  Focused:   %s (%d min)\n", stats.FocusedFormatted, stats.FocusedMinutes)
	if stats.PlannedMinutes > 0 {
		fmt.Fprintf(w, "  Planned:   %d min (%d%%)\n", stats.PlannedMinutes, stats.PlanPercent)
	}
	fmt.Fprintf(w, "  Sessions:  %d (%d completed, %d in progress)\n", stats.Sessions, stats.Completed, stats.InProgress)
	if stats.TasksTotal > 0 {
		fmt.Fprintf(w, "  Tasks:     %d/%d\n", stats.TasksCompleted, stats.TasksTotal)
	}
	if stats.RunningSessionID != "" {
		fmt.Fprintf(w, "  Running:   %s\n", stats.RunningSessionID)
	}
}

func printDone(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

func statusMark(s client.Session) string {
	switch {
	case s.IsRunning:
		return color.GreenString("●")
	case s.Status == "completed":
		return color.GreenString("✓")
	case s.Status == "in_progress":
		return color.YellowString("‖")
	default:
		return color.HiBlackString("○")
	}
}

func statusText(s client.Session) string {
	if s.IsRunning {
		return color.GreenString("running")
	}
	return strings.ReplaceAll(s.Status, "_", " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
