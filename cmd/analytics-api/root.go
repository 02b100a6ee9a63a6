package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "analytics-api",
	Short: "Spark job analytics service",
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(generateCmd)
}
