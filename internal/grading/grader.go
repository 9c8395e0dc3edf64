// Package grading compares a candidate's transcribed answer against the
// reference answer and produces a rating with feedback.
package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/types"
)

// Sentinel feedback strings for degraded grading. A rating of 0 with one of
// these means "could not grade"; the flow continues with the sentinel rather
// than failing.
const (
	FeedbackParseFailure     = "Error generating feedback"
	FeedbackTransportFailure = "Unable to generate feedback"
)

// Grader produces a GradeResult for one answer attempt.
type Grader struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewGrader creates a Grader backed by the given client. A nil client is
// allowed and behaves like a permanently unreachable remote.
func NewGrader(client llm.Client) *Grader {
	return &Grader{client: client, tier: llm.TierLite}
}

// Grade sends (question, reference answer, candidate answer) to the model and
// parses its verdict. It never returns an unusable result: on any failure the
// returned GradeResult is the appropriate sentinel, and the error carries the
// diagnostic cause for logging only.
func (g *Grader) Grade(ctx context.Context, question types.Question, userAnswer string) (types.GradeResult, error) {
	prompt := buildGradePrompt(question.Question, question.Answer, userAnswer)

	metrics := observability.DefaultMetrics

	if g.client == nil {
		metrics.Gradings.WithLabelValues("degraded").Inc()
		return types.GradeResult{Ratings: 0, Feedback: FeedbackTransportFailure},
			fmt.Errorf("no LLM client configured")
	}

	start := time.Now()
	responseText, err := g.client.GenerateContent(ctx, prompt, g.tier)
	metrics.ModelLatency.WithLabelValues("grade").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Gradings.WithLabelValues("degraded").Inc()
		return types.GradeResult{Ratings: 0, Feedback: FeedbackTransportFailure},
			fmt.Errorf("grading call failed: %w", err)
	}

	result := parseGradeResponse(responseText)
	if result.Feedback == FeedbackParseFailure {
		metrics.Gradings.WithLabelValues("degraded").Inc()
	} else {
		metrics.Gradings.WithLabelValues("ok").Inc()
	}
	return result, nil
}

// buildGradePrompt constructs the grading prompt from the embedded template.
func buildGradePrompt(question, correctAnswer, userAnswer string) string {
	template := prompts.MustGet("grading.json", "grade-answer")
	return prompts.Format(template, map[string]string{
		"Question":      question,
		"UserAnswer":    userAnswer,
		"CorrectAnswer": correctAnswer,
	})
}

// parseGradeResponse extracts the JSON verdict from free-form model output.
// The response may carry markdown fences or surrounding prose; only the
// outermost object is parsed. Any parse failure yields the sentinel result.
func parseGradeResponse(responseText string) types.GradeResult {
	jsonText := llm.ExtractJSONObject(responseText)
	if jsonText == "" {
		return types.GradeResult{Ratings: 0, Feedback: FeedbackParseFailure}
	}

	var raw struct {
		Ratings  float64 `json:"ratings"`
		Feedback string  `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return types.GradeResult{Ratings: 0, Feedback: FeedbackParseFailure}
	}

	return types.GradeResult{
		Ratings:  clampRating(raw.Ratings),
		Feedback: raw.Feedback,
	}
}

// clampRating truncates and bounds a model-returned rating into 0..10.
func clampRating(v float64) int {
	r := int(v)
	if r < 0 {
		return 0
	}
	if r > 10 {
		return 10
	}
	return r
}
