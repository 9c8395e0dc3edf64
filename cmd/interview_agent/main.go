// Package main provides the entry point for the Interview Coach API server
// and its offline tooling.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "interview_agent",
	Short: "Interview Coach API Server",
	Long:  "Interview Coach runs mock interview sessions: it generates question sets, grades spoken answers against their model answers, and analyzes delivery from the transcript.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
