// Package voice analyzes the transcription of a candidate's answer to provide
// unbiased feedback on sentiment, domain knowledge, and voice tone. When the
// remote model is unavailable or returns something unusable, a deterministic
// heuristic produces an equivalent-shaped result so callers never observe an
// unhandled failure.
package voice

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/schemas"
	"github.com/jonathan/interview-coach/internal/types"
	"github.com/rs/zerolog/log"
)

// MinTranscriptLength is the minimum trimmed transcript length (in runes)
// worth analyzing. Anything shorter short-circuits without a remote call.
const MinTranscriptLength = 30

//go:embed schema.json
var responseSchema string

// Source identifies how an analysis result was produced.
type Source string

const (
	// SourceRemote means the remote model produced the result.
	SourceRemote Source = "remote"
	// SourceHeuristic means the deterministic fallback produced the result.
	SourceHeuristic Source = "heuristic"
	// SourceInsufficient means the transcript was too short to analyze.
	SourceInsufficient Source = "insufficient"
)

// ParseError indicates the model response could not be turned into a result.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("voice analysis parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("voice analysis parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Analyzer produces a VoiceAnalysisResult for one answer attempt.
type Analyzer struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewAnalyzer creates an Analyzer backed by the given client. A nil client is
// allowed: every analysis then runs through the heuristic path.
func NewAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{client: client, tier: llm.TierStandard}
}

// Analyze inspects the candidate's transcription against the question and the
// expected answer. It never fails: the result is always fully populated, and
// the returned Source tells the caller whether it came from the remote model,
// the deterministic heuristic, or the too-short short-circuit.
func (a *Analyzer) Analyze(ctx context.Context, question, transcription, expectedAnswer string) (types.VoiceAnalysisResult, Source) {
	cleaned := strings.TrimSpace(transcription)
	metrics := observability.DefaultMetrics

	if utf8.RuneCountInString(cleaned) < MinTranscriptLength {
		metrics.Analyses.WithLabelValues(string(SourceInsufficient)).Inc()
		return types.VoiceAnalysisResult{
			Sentiment:         "Neutral",
			DomainKnowledge:   "Insufficient data",
			VoiceTone:         "Insufficient data",
			ConfidenceScore:   0,
			OverallAssessment: "The response is too short to analyze properly.",
		}, SourceInsufficient
	}

	if a.client == nil {
		log.Warn().Msg("voice analysis has no API client, using heuristic")
		metrics.Analyses.WithLabelValues(string(SourceHeuristic)).Inc()
		return Heuristic(cleaned), SourceHeuristic
	}

	prompt := buildAnalysisPrompt(question, cleaned, expectedAnswer)
	start := time.Now()
	responseText, err := a.client.GenerateContent(ctx, prompt, a.tier)
	metrics.ModelLatency.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	if err != nil {
		log.Warn().Err(err).Msg("voice analysis call failed, using heuristic")
		metrics.Analyses.WithLabelValues(string(SourceHeuristic)).Inc()
		return Heuristic(cleaned), SourceHeuristic
	}

	result, err := parseAnalysisResponse(responseText)
	if err != nil {
		log.Warn().Err(err).Msg("voice analysis response unusable, using heuristic")
		metrics.Analyses.WithLabelValues(string(SourceHeuristic)).Inc()
		return Heuristic(cleaned), SourceHeuristic
	}

	metrics.Analyses.WithLabelValues(string(SourceRemote)).Inc()
	return result, SourceRemote
}

// buildAnalysisPrompt constructs the analysis prompt from the embedded template.
func buildAnalysisPrompt(question, transcription, expectedAnswer string) string {
	template := prompts.MustGet("voice.json", "analyze-response")
	return prompts.Format(template, map[string]string{
		"Question":       question,
		"Transcription":  transcription,
		"ExpectedAnswer": expectedAnswer,
	})
}

// parseAnalysisResponse extracts and validates the five-field JSON judgment
// from free-form model output. Missing string fields get neutral placeholders;
// the confidence score is defaulted to 5 when absent or non-numeric and
// clamped into [0,10]. Structurally wrong output (not an object, wrong field
// types) is an error so the caller can fall back.
func parseAnalysisResponse(responseText string) (types.VoiceAnalysisResult, error) {
	jsonText := llm.ExtractJSONObject(responseText)
	if jsonText == "" {
		return types.VoiceAnalysisResult{}, &ParseError{Message: "no JSON object in response"}
	}

	if err := schemas.ValidateJSONString(responseSchema, jsonText); err != nil {
		return types.VoiceAnalysisResult{}, &ParseError{Message: "response failed schema validation", Cause: err}
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return types.VoiceAnalysisResult{}, &ParseError{Message: "invalid JSON", Cause: err}
	}

	confidenceScore := 5.0
	if v, ok := raw["confidenceScore"]; ok {
		if n, ok := v.(float64); ok {
			confidenceScore = n
		}
	}
	if confidenceScore < 0 {
		confidenceScore = 0
	}
	if confidenceScore > 10 {
		confidenceScore = 10
	}

	return types.VoiceAnalysisResult{
		Sentiment:         stringField(raw, "sentiment", "Neutral"),
		DomainKnowledge:   stringField(raw, "domainKnowledge", "No assessment available"),
		VoiceTone:         stringField(raw, "voiceTone", "No assessment available"),
		ConfidenceScore:   confidenceScore,
		OverallAssessment: stringField(raw, "overallAssessment", "No overall assessment available"),
	}, nil
}

func stringField(raw map[string]any, key, fallback string) string {
	if v, ok := raw[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
