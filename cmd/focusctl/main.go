// Command focusctl drives a focusd server from the terminal.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"focustrack/internal/client"
	"focustrack/internal/logging"
)

const (
	envURL = "FOCUSTRACK_URL"
	envKey = "FOCUSTRACK_API_KEY"

	defaultURL = "http://localhost:8080"
)

// app carries what every subcommand needs
type app struct {
	api     *client.FocusAPI
	out     io.Writer
	json    bool
	url     string
	key     string
	timeout time.Duration
	verbose bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:   "focusctl",
		Short: "Plan and time focus sessions",
		Long: `focusctl talks to a focusd server.

The server URL and API key come from --url/--key or the
FOCUSTRACK_URL and FOCUSTRACK_API_KEY environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.url == "" {
				a.url = envOr(envURL, defaultURL)
			}
			if a.key == "" {
				a.key = os.Getenv(envKey)
			}
			if a.key == "" {
				return fmt.Errorf("API key required: pass --key or set %s", envKey)
			}

			level := "error"
			if a.verbose {
				level = "debug"
			}
			logger := logging.NewLogger(logging.LoggerConfig{
				Format: "text",
				Level:  logging.ParseLevel(level),
				Output: os.Stderr,
			})
			a.api = client.NewFocusAPI(a.url, a.key, a.timeout, logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.url, "url", "", "focusd base URL (default "+defaultURL+")")
	rootCmd.PersistentFlags().StringVar(&a.key, "key", "", "API key")
	rootCmd.PersistentFlags().BoolVar(&a.json, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log requests to stderr")

	rootCmd.AddGroup(
		&cobra.Group{ID: "sessions", Title: "Sessions:"},
		&cobra.Group{ID: "timer", Title: "Timer:"},
	)

	for _, cmd := range sessionCmds(a) {
		cmd.GroupID = "sessions"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range timerCmds(a) {
		cmd.GroupID = "timer"
		rootCmd.AddCommand(cmd)
	}
	tasks := taskCmd(a)
	tasks.GroupID = "sessions"
	rootCmd.AddCommand(tasks)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

