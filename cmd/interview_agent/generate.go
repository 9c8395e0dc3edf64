package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/questions"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an interview question set",
	Long:  "Generates a question set for a position and prints it as JSON, without storing an interview. Requires GEMINI_API_KEY.",
	RunE:  runGenerate,
}

var (
	generatePosition    string
	generateDescription string
	generatePostingURL  string
	generateTechStack   string
	generateExperience  int
	generateCount       int
)

func init() {
	generateCmd.Flags().StringVarP(&generatePosition, "position", "p", "", "Position title (required)")
	generateCmd.Flags().StringVarP(&generateDescription, "description", "d", "", "Job description text")
	generateCmd.Flags().StringVarP(&generatePostingURL, "posting-url", "u", "", "Job posting URL to fetch the description from")
	generateCmd.Flags().StringVarP(&generateTechStack, "tech-stack", "s", "", "Comma-separated tech stack (required)")
	generateCmd.Flags().IntVarP(&generateExperience, "experience", "e", 0, "Years of experience")
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 0, "Number of questions (default 5)")
	_ = generateCmd.MarkFlagRequired("position")
	_ = generateCmd.MarkFlagRequired("tech-stack")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	ctx := cmd.Context()
	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close()

	description := generateDescription
	if description == "" && generatePostingURL != "" {
		description, err = questions.FetchPostingText(ctx, generatePostingURL)
		if err != nil {
			return fmt.Errorf("failed to fetch job posting: %w", err)
		}
	}

	generated, err := questions.NewGenerator(client).Generate(ctx, questions.Request{
		Position:    generatePosition,
		Description: description,
		TechStack:   generateTechStack,
		Experience:  generateExperience,
		Count:       generateCount,
	})
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(generated)
}
