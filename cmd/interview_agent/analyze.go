package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/interview-coach/internal/grading"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/types"
	"github.com/jonathan/interview-coach/internal/voice"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Grade and analyze a transcript offline",
	Long:  "Runs the grading and voice analysis phases on a saved transcript and prints the combined result as JSON. Without GEMINI_API_KEY the grade degrades to its error result and voice analysis falls back to the deterministic heuristic.",
	RunE:  runAnalyze,
}

var (
	analyzeQuestion       string
	analyzeAnswer         string
	analyzeTranscript     string
	analyzeTranscriptFile string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeQuestion, "question", "q", "", "Interview question (required)")
	analyzeCmd.Flags().StringVarP(&analyzeAnswer, "answer", "a", "", "Model answer to grade against")
	analyzeCmd.Flags().StringVarP(&analyzeTranscript, "transcript", "t", "", "Transcript text")
	analyzeCmd.Flags().StringVarP(&analyzeTranscriptFile, "transcript-file", "f", "", "Path to transcript file (- for stdin)")
	_ = analyzeCmd.MarkFlagRequired("question")
	rootCmd.AddCommand(analyzeCmd)
}

// analyzeResult is the combined offline pipeline output.
type analyzeResult struct {
	Grade         types.GradeResult         `json:"grade"`
	GradeDegraded bool                      `json:"grade_degraded,omitempty"`
	VoiceAnalysis types.VoiceAnalysisResult `json:"voice_analysis"`
	VoiceSource   string                    `json:"voice_source"`
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	transcript, err := loadTranscript()
	if err != nil {
		return err
	}
	if transcript == "" {
		return fmt.Errorf("a transcript is required: pass --transcript or --transcript-file")
	}

	ctx := cmd.Context()
	var client llm.Client
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		client, err = llm.NewGeminiClient(ctx, llm.DefaultConfig(), apiKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer client.Close()
	} else {
		fmt.Fprintln(os.Stderr, "GEMINI_API_KEY not set, running in degraded mode")
	}

	grader := grading.NewGrader(client)
	analyzer := voice.NewAnalyzer(client)

	// The two phases are independent model calls; run them concurrently.
	// A grading failure degrades the result rather than aborting.
	var result analyzeResult
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		question := types.Question{Question: analyzeQuestion, Answer: analyzeAnswer}
		grade, err := grader.Grade(gctx, question, transcript)
		result.Grade = grade
		result.GradeDegraded = err != nil
		return nil
	})
	group.Go(func() error {
		analysis, source := analyzer.Analyze(gctx, analyzeQuestion, transcript, analyzeAnswer)
		result.VoiceAnalysis = analysis
		result.VoiceSource = string(source)
		return nil
	})
	if err := group.Wait(); err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func loadTranscript() (string, error) {
	if analyzeTranscript != "" {
		return strings.TrimSpace(analyzeTranscript), nil
	}
	if analyzeTranscriptFile == "" {
		return "", nil
	}
	if analyzeTranscriptFile == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	data, err := os.ReadFile(analyzeTranscriptFile)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
