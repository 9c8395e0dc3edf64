// Package questions generates mock-interview question sets from a role
// description.
package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/types"
)

// DefaultQuestionCount is how many questions a generated interview carries
// when the request does not say otherwise.
const DefaultQuestionCount = 5

// GenerateError indicates the question set could not be produced.
type GenerateError struct {
	Message string
	Cause   error
}

func (e *GenerateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("question generation failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("question generation failed: %s", e.Message)
}

func (e *GenerateError) Unwrap() error {
	return e.Cause
}

// Request describes the interview to generate questions for.
type Request struct {
	Position    string `json:"position" validate:"required"`
	Description string `json:"description"`
	TechStack   string `json:"tech_stack" validate:"required"`
	Experience  int    `json:"experience" validate:"gte=0,lte=50"`
	Count       int    `json:"count" validate:"gte=0,lte=20"`
}

// Generator produces question sets via the model.
type Generator struct {
	client   llm.Client
	tier     llm.ModelTier
	validate *validator.Validate
}

func NewGenerator(client llm.Client) *Generator {
	return &Generator{
		client:   client,
		tier:     llm.TierAdvanced,
		validate: validator.New(),
	}
}

// Generate asks the model for a question set matching the request. Unlike
// grading and voice analysis there is no degraded fallback: without questions
// there is no interview, so failures are returned to the caller.
func (g *Generator) Generate(ctx context.Context, req Request) ([]types.Question, error) {
	if err := g.validate.Struct(req); err != nil {
		return nil, &GenerateError{Message: "invalid request", Cause: err}
	}
	if g.client == nil {
		return nil, &GenerateError{Message: "no LLM client configured"}
	}
	count := req.Count
	if count == 0 {
		count = DefaultQuestionCount
	}

	template := prompts.MustGet("questions.json", "generate-questions")
	prompt := prompts.Format(template, map[string]string{
		"Position":    req.Position,
		"Description": req.Description,
		"TechStack":   req.TechStack,
		"Experience":  strconv.Itoa(req.Experience),
		"Count":       strconv.Itoa(count),
	})

	start := time.Now()
	responseText, err := g.client.GenerateContent(ctx, prompt, g.tier)
	observability.DefaultMetrics.ModelLatency.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &GenerateError{Message: "model call failed", Cause: err}
	}

	return parseQuestions(responseText)
}

// parseQuestions extracts the question array from free-form model output.
func parseQuestions(responseText string) ([]types.Question, error) {
	jsonText := llm.ExtractJSONArray(responseText)
	if jsonText == "" {
		return nil, &GenerateError{Message: "no JSON array in response"}
	}

	var questions []types.Question
	if err := json.Unmarshal([]byte(jsonText), &questions); err != nil {
		return nil, &GenerateError{Message: "invalid JSON", Cause: err}
	}

	valid := questions[:0]
	for _, q := range questions {
		if q.Question != "" && q.Answer != "" {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		return nil, &GenerateError{Message: "response carried no usable questions"}
	}
	return valid, nil
}
