package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var migrationsDir string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the storefront database schema",
	Long:          "Runs goose migrations against the configured database. Without --dir the migrations bundled into the binary are used.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "", "migrations root containing postgres/, mysql/ and sqlite/ (default: embedded)")

	// Database
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)

	// Authoring
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(validateCmd)
}
