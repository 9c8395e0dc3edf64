// Package types defines the shared domain types for the interview coach.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Question pairs an interview question with its reference answer.
// The exact question text doubles as the natural key for answer idempotency.
type Question struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// Interview is a generated mock-interview question set for one user.
type Interview struct {
	ID          uuid.UUID  `json:"id"`
	Position    string     `json:"position"`
	Description string     `json:"description"`
	TechStack   string     `json:"tech_stack"`
	Experience  int        `json:"experience"`
	Questions   []Question `json:"questions"`
	UserID      string     `json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

// GradeResult is the correctness assessment for one answer attempt.
// Ratings is on a 0-10 scale; 0 together with an explanatory Feedback string
// is the "could not grade" sentinel, not an error.
type GradeResult struct {
	Ratings  int    `json:"ratings"`
	Feedback string `json:"feedback"`
}

// VoiceAnalysisResult is the secondary structured judgment of an answer.
// Once analysis has run it is always fully populated, either from the remote
// model or from the deterministic heuristic.
type VoiceAnalysisResult struct {
	Sentiment         string  `json:"sentiment"`
	DomainKnowledge   string  `json:"domainKnowledge"`
	VoiceTone         string  `json:"voiceTone"`
	ConfidenceScore   float64 `json:"confidenceScore"`
	OverallAssessment string  `json:"overallAssessment"`
}

// UserAnswer is the persisted record of one graded answer. Write-once per
// (UserID, Question) pair.
type UserAnswer struct {
	ID            uuid.UUID            `json:"id"`
	InterviewID   *uuid.UUID           `json:"interview_id,omitempty"`
	Question      string               `json:"question"`
	CorrectAnswer string               `json:"correct_answer"`
	UserAnswer    string               `json:"user_answer"`
	Feedback      string               `json:"feedback"`
	Rating        int                  `json:"rating"`
	VoiceAnalysis *VoiceAnalysisResult `json:"voice_analysis,omitempty"`
	UserID        string               `json:"user_id"`
	CreatedAt     time.Time            `json:"created_at"`
}
