package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func taskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage a session's checklist",
	}

	addCmd := &cobra.Command{
		Use:   "add <session_id> <title...>",
		Short: "Append a task to a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.api.AddTask(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return a.render(task, func() { printDone(a.out, "Added %s %s", task.ID, task.Title) })
		},
	}

	setCompleted := func(use, short string, completed bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <task_id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.api.SetTaskCompleted(cmd.Context(), args[0], completed); err != nil {
					return err
				}
				printDone(a.out, "Updated %s", args[0])
				return nil
			},
		}
	}

	rmCmd := &cobra.Command{
		Use:   "rm <task_id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			printDone(a.out, "Deleted %s", args[0])
			return nil
		},
	}

	cmd.AddCommand(
		addCmd,
		setCompleted("done", "Mark a task done", true),
		setCompleted("undo", "Mark a task not done", false),
		rmCmd,
	)
	return cmd
}
