// Package main provides the entry point for the hirezaa server and admin CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "hirezaa",
	Short:         "Hirezaa hiring API server and tools",
	Long:          "Hirezaa shortlists applicants, sends technical assessments and scores them. The serve command runs the REST API; the other commands operate on the same database.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file applied over environment settings")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print a readable summary to stderr")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
