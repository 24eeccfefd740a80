package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "campusbook",
	Short:         "Campusbook is a small student/teacher records service.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, usersCmd)
}
