package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"focustrack/internal/client"
)

func sessionCmds(a *app) []*cobra.Command {
	// focusctl list [--date 2026-10-16|today] [--running]
	var date string
	var running bool
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sessions, newest day first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "today" {
				date = time.Now().Format(time.DateOnly)
			}
			sessions, err := a.api.ListSessions(cmd.Context(), date, running)
			if err != nil {
				return err
			}
			return a.render(sessions, func() { printSessionList(a.out, sessions) })
		},
	}
	listCmd.Flags().StringVar(&date, "date", "", "Only sessions on this day (YYYY-MM-DD or today)")
	listCmd.Flags().BoolVar(&running, "running", false, "Only the running session")

	// focusctl new "Write report" --minutes 25
	var req client.CreateSessionRequest
	var minutes int
	var goal string
	newCmd := &cobra.Command{
		Use:   "new <title...>",
		Short: "Plan a session",
		Long: `Plan a new session for today or --date.

Examples:
  focusctl new Write report --minutes 25
  focusctl new "Read paper" --goal "notes on section 3" --date 2026-10-17`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Title = strings.Join(args, " ")
			if cmd.Flags().Changed("minutes") {
				req.PlannedMinutes = &minutes
			}
			if cmd.Flags().Changed("goal") {
				req.Goal = &goal
			}
			session, err := a.api.CreateSession(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.render(session, func() { printSession(a.out, session) })
		},
	}
	newCmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "Planned duration in minutes")
	newCmd.Flags().StringVarP(&goal, "goal", "g", "", "What done looks like")
	newCmd.Flags().StringVar(&req.SessionDate, "date", "", "Calendar day (YYYY-MM-DD), defaults to today")

	showCmd := &cobra.Command{
		Use:   "show <session_id>",
		Short: "Show a session with its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.api.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(session, func() { printSession(a.out, session) })
		},
	}

	var edit struct {
		title, goal, notes, date string
		minutes                  int
	}
	editCmd := &cobra.Command{
		Use:   "edit <session_id>",
		Short: "Change a session's title, goal, notes, plan or day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch client.UpdateSessionRequest
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &edit.title
			}
			if flags.Changed("goal") {
				patch.Goal = &edit.goal
			}
			if flags.Changed("notes") {
				patch.Notes = &edit.notes
			}
			if flags.Changed("minutes") {
				patch.PlannedMinutes = &edit.minutes
			}
			patch.SessionDate = edit.date
			if patch == (client.UpdateSessionRequest{}) {
				return fmt.Errorf("nothing to change: pass at least one flag")
			}

			session, err := a.api.UpdateSession(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return a.render(session, func() { printSession(a.out, session) })
		},
	}
	editCmd.Flags().StringVar(&edit.title, "title", "", "New title")
	editCmd.Flags().StringVarP(&edit.goal, "goal", "g", "", "New goal")
	editCmd.Flags().StringVar(&edit.notes, "notes", "", "New notes")
	editCmd.Flags().IntVarP(&edit.minutes, "minutes", "m", 0, "New planned duration in minutes")
	editCmd.Flags().StringVar(&edit.date, "date", "", "Move to another day (YYYY-MM-DD)")

	deleteCmd := &cobra.Command{
		Use:     "delete <session_id>",
		Aliases: []string{"rm"},
		Short:   "Delete a session and its tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			printDone(a.out, "Deleted %s", args[0])
			return nil
		},
	}

	return []*cobra.Command{
		listCmd,
		newCmd,
		showCmd,
		editCmd,
		deleteCmd,
		transitionCmd(a, "start", "Start (or resume) a session, pausing any other", a.startSession),
		transitionCmd(a, "pause", "Pause a session, keeping its time", a.pauseSession),
		transitionCmd(a, "complete", "Stop a session and mark it completed", a.completeSession),
		transitionCmd(a, "reset", "Clear a session's time", a.resetSession),
	}
}

type transitionFunc func(ctx context.Context, sessionID string) (*client.Session, error)

func transitionCmd(a *app, use, short string, fn transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <session_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := fn(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(session, func() { printSession(a.out, session) })
		},
	}
}

// The client is built in PersistentPreRunE, so transitions resolve it late.
func (a *app) startSession(ctx context.Context, id string) (*client.Session, error) {
	return a.api.StartSession(ctx, id)
}

func (a *app) pauseSession(ctx context.Context, id string) (*client.Session, error) {
	return a.api.PauseSession(ctx, id)
}

func (a *app) completeSession(ctx context.Context, id string) (*client.Session, error) {
	return a.api.CompleteSession(ctx, id)
}

func (a *app) resetSession(ctx context.Context, id string) (*client.Session, error) {
	return a.api.ResetSession(ctx, id)
}
