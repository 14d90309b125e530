package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danmuck/cictl/internal/logging"
)

// exitCode carries the run outcome out of cobra: 0 clean, 1 when
// failures were recorded. Fatal setup errors take the error path in
// main instead.
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "cictl",
	Short: "Change-driven CI orchestrator for a multi-gem monorepo",
	Long: `cictl maps a git diff onto the package directories that own the
changed files, runs the configured CI tasks in each one, and reports
every failure without stopping at the first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.ConfigureRuntime()
	},
}

func init() {
	rootCmd.AddCommand(runCmd, listCmd, configCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "cictl: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
