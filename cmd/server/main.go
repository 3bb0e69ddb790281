// Package main implements the entry point for the TaskSync API server,
// which manages users, their managers and the tasks assigned between them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd runs the server when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:           "tasksync",
	Short:         "TaskSync task management API",
	Long:          "TaskSync serves the task management REST API: accounts with admin, manager and user roles, JWT sessions with logout revocation, and task assignment with email and realtime notifications.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); environment variables override it")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
