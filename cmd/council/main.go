// Package main provides the entry point for the Resume Council CLI and
// HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "council",
	Short: "Resume Council pipeline",
	Long:  "Resume Council tailors a resume to a job description by drafting with a council of model backends, anonymized peer ranking, and a final synthesis pass.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
