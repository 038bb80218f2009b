package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "factoryctl",
	Short: "Offline tools for grid factory levels.",
	Long: `factoryctl checks level files and simulates a layout without a server, ` +
		`printing the grid as text after every tick.`,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
