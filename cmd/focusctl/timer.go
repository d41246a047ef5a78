package main

import (
	"github.com/spf13/cobra"
)

func timerCmds(a *app) []*cobra.Command {
	timerCmd := &cobra.Command{
		Use:   "timer",
		Short: "Show the running session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := a.api.GetTimer(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(state, func() { printTimer(a.out, state) })
		},
	}

	todayCmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.api.GetTodayStats(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(stats, func() { printStats(a.out, stats) })
		},
	}

	return []*cobra.Command{timerCmd, todayCmd}
}
