package voice

import (
	"strings"
	"unicode/utf8"

	"github.com/jonathan/interview-coach/internal/types"
)

// Word lists for the lexical sentiment signal. Matching is case-insensitive
// on whitespace-split tokens.
var (
	positiveWords = []string{"good", "great", "excellent", "best", "confident", "sure", "definitely", "absolutely"}
	negativeWords = []string{"not", "cannot", "difficult", "hard", "problem", "issue", "unfortunately", "however"}
)

// Heuristic produces a voice analysis from the transcript alone, with no I/O.
// It substitutes for the remote model when no credential is configured or a
// remote call fails, and is deterministic: the same transcript always yields
// the same result.
func Heuristic(transcription string) types.VoiceAnalysisResult {
	transcription = strings.TrimSpace(transcription)
	length := utf8.RuneCountInString(transcription)

	// Longer answers earn a higher base confidence score.
	confidenceScore := 5
	switch {
	case length > 500:
		confidenceScore = 8
	case length > 300:
		confidenceScore = 7
	case length > 100:
		confidenceScore = 6
	case length < 50:
		confidenceScore = 2
	}

	positiveCount := 0
	negativeCount := 0
	for _, word := range strings.Fields(strings.ToLower(transcription)) {
		if containsWord(positiveWords, word) {
			positiveCount++
		}
		if containsWord(negativeWords, word) {
			negativeCount++
		}
	}

	var sentiment, domainKnowledge, voiceTone, overallAssessment string
	switch {
	case confidenceScore >= 7:
		sentiment = "Positive"
		domainKnowledge = "The candidate demonstrates strong understanding of the topic."
		voiceTone = "Professional, clear, and confident"
		overallAssessment = "The candidate provided a " + pick(length > 300, "detailed", "comprehensive") +
			" response that thoroughly addresses the question."
	case confidenceScore >= 5:
		sentiment = "Slightly Positive"
		domainKnowledge = "The candidate demonstrates adequate understanding of the topic."
		voiceTone = "Professional with some clarity"
		overallAssessment = "The candidate provided a " + pick(length > 200, "detailed", "reasonable") +
			" response that addresses most aspects of the question."
	case confidenceScore >= 3:
		sentiment = "Neutral"
		domainKnowledge = "The candidate demonstrates basic understanding of the topic."
		voiceTone = "Somewhat hesitant but clear"
		overallAssessment = "The candidate provided a brief response that partially addresses the question."
	default:
		sentiment = "Slightly Negative"
		domainKnowledge = "The candidate demonstrates limited understanding of the topic."
		voiceTone = "Uncertain or hesitant"
		overallAssessment = "The candidate provided a minimal response that may not fully address the question."
	}

	// A strong lexical signal overrides the length-based sentiment, but only
	// when it does not contradict the confidence score.
	if positiveCount > negativeCount*3 && confidenceScore >= 5 {
		sentiment = "Positive"
	} else if negativeCount > positiveCount*3 && confidenceScore <= 5 {
		sentiment = "Negative"
	}

	return types.VoiceAnalysisResult{
		Sentiment:         sentiment,
		DomainKnowledge:   domainKnowledge,
		VoiceTone:         voiceTone,
		ConfidenceScore:   float64(confidenceScore),
		OverallAssessment: overallAssessment,
	}
}

func containsWord(words []string, w string) bool {
	for _, candidate := range words {
		if candidate == w {
			return true
		}
	}
	return false
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
