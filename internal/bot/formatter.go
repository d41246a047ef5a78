package bot

import (
	"fmt"
	"strings"

	"focustrack/internal/client"
)

const progressBarWidth = 10

// FormatSession formats a session card
func FormatSession(session client.Session) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s *%s*\n", statusEmoji(session), escapeMarkdown(session.Title))
	fmt.Fprintf(&sb, "Date: %s\n", session.SessionDate)
	if session.Goal != nil && *session.Goal != "" {
		fmt.Fprintf(&sb, "Goal: %s\n", escapeMarkdown(*session.Goal))
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "⏱ `%s`", session.Formatted)
	if session.PlannedMinutes != nil {
		fmt.Fprintf(&sb, " of %d min", *session.PlannedMinutes)
	}
	sb.WriteString("\n")

	if session.ProgressPercent != nil {
		fmt.Fprintf(&sb, "%s %.0f%%\n", ProgressBar(*session.ProgressPercent), *session.ProgressPercent)
	}

	if len(session.Tasks) > 0 {
		fmt.Fprintf(&sb, "\nTasks %d/%d\n", session.TasksCompleted, len(session.Tasks))
		for _, task := range session.Tasks {
			mark := "▫️"
			if task.Completed {
				mark = "✔️"
			}
			fmt.Fprintf(&sb, "%s %s\n", mark, escapeMarkdown(task.Title))
		}
	}

	return sb.String()
}

// FormatSessionList formats a list of sessions
func FormatSessionList(sessions []client.Session) string {
	var sb strings.Builder

	sb.WriteString("📋 *Sessions*\n\n")

	if len(sessions) == 0 {
		sb.WriteString("No sessions planned. Use /new <minutes> <title> to plan one.\n")
		return sb.String()
	}

	for i, session := range sessions {
		fmt.Fprintf(&sb, "%d. %s %s · `%s`", i+1, statusEmoji(session), escapeMarkdown(session.Title), session.Formatted)
		if session.PlannedMinutes != nil {
			fmt.Fprintf(&sb, " / %d min", *session.PlannedMinutes)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatTimer formats the live timer state
func FormatTimer(state *client.TimerState) string {
	if state == nil || !state.Running || state.Snapshot == nil {
		return "⏸ *No session is running*\n"
	}

	snap := state.Snapshot
	var sb strings.Builder
	fmt.Fprintf(&sb, "🟢 *%s*\n\n", escapeMarkdown(snap.Title))
	fmt.Fprintf(&sb, "⏱ `%s`\n", snap.Formatted)
	if snap.ProgressPercent != nil {
		fmt.Fprintf(&sb, "%s %.0f%%\n", ProgressBar(*snap.ProgressPercent), *snap.ProgressPercent)
	}
	return sb.String()
}

// FormatTodayStats formats today's statistics into a Telegram message
func FormatTodayStats(stats *client.TodayStats) string {
	var sb strings.Builder

	sb.WriteString("📊 *Today's Focus*\n")
	fmt.Fprintf(&sb, "Date: %s\n\n", stats.Date)

	if stats.Sessions == 0 {
		sb.WriteString("No sessions today.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Focused: `%s` (%d min)\n", stats.FocusedFormatted, stats.FocusedMinutes)
	if stats.PlannedMinutes > 0 {
		fmt.Fprintf(&sb, "Planned: %d min (%d%%)\n", stats.PlannedMinutes, stats.PlanPercent)
	}
	fmt.Fprintf(&sb, "Sessions: %d (%d completed, %d in progress)\n", stats.Sessions, stats.Completed, stats.InProgress)
	if stats.TasksTotal > 0 {
		fmt.Fprintf(&sb, "Tasks: %d/%d\n", stats.TasksCompleted, stats.TasksTotal)
	}
	if stats.RunningSessionID != "" {
		sb.WriteString("\n🟢 A session is running\n")
	}

	return sb.String()
}

// FormatError formats an error message
func FormatError(err error) string {
	return fmt.Sprintf("❌ *Error*\n\n%s", escapeMarkdown(err.Error()))
}

// ProgressBar renders percent as a fixed-width bar
func ProgressBar(percent float64) string {
	filled := int(percent * progressBarWidth / 100)
	filled = max(0, min(progressBarWidth, filled))
	return strings.Repeat("▰", filled) + strings.Repeat("▱", progressBarWidth-filled)
}

func statusEmoji(session client.Session) string {
	switch {
	case session.IsRunning:
		return "🟢"
	case session.Status == "completed":
		return "✅"
	case session.Status == "in_progress":
		return "⏸"
	default:
		return "🗓"
	}
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown escapes user text for legacy Markdown parse mode
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
