package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "devclock",
		Short:         "Project time tracking with dev and wait timers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newUsersCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newStartDevCmd())
	rootCmd.AddCommand(newStartWaitCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newAssignCmd())
	rootCmd.AddCommand(newAssignAllCmd())
	rootCmd.AddCommand(newUnassignCmd())
	rootCmd.AddCommand(newTimelineCmd())

	return rootCmd
}
