package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/interview-coach/internal/types"
)

// FindUserAnswer retrieves a user's answer to a question by exact question
// text, or nil when the user has not answered it.
func (db *DB) FindUserAnswer(ctx context.Context, userID, question string) (*types.UserAnswer, error) {
	var (
		a             types.UserAnswer
		analysisBytes []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT id, interview_id, question, correct_answer, user_answer, feedback, rating, voice_analysis, user_id, created_at
		 FROM user_answers WHERE user_id = $1 AND question = $2
		 ORDER BY created_at ASC LIMIT 1`,
		userID, question,
	).Scan(&a.ID, &a.InterviewID, &a.Question, &a.CorrectAnswer, &a.UserAnswer,
		&a.Feedback, &a.Rating, &analysisBytes, &a.UserID, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user answer: %w", err)
	}

	if len(analysisBytes) > 0 {
		var analysis types.VoiceAnalysisResult
		if err := json.Unmarshal(analysisBytes, &analysis); err != nil {
			return nil, fmt.Errorf("failed to decode voice analysis: %w", err)
		}
		a.VoiceAnalysis = &analysis
	}
	return &a, nil
}

// SaveUserAnswer inserts a graded answer and returns it with the
// server-assigned id and timestamp. Idempotency per (user, question) is the
// caller's responsibility via FindUserAnswer; no uniqueness constraint is
// assumed here.
func (db *DB) SaveUserAnswer(ctx context.Context, answer types.UserAnswer) (types.UserAnswer, error) {
	var analysisBytes []byte
	if answer.VoiceAnalysis != nil {
		encoded, err := json.Marshal(answer.VoiceAnalysis)
		if err != nil {
			return types.UserAnswer{}, fmt.Errorf("failed to encode voice analysis: %w", err)
		}
		analysisBytes = encoded
	}

	saved := answer
	err := db.pool.QueryRow(ctx,
		`INSERT INTO user_answers (interview_id, question, correct_answer, user_answer, feedback, rating, voice_analysis, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 RETURNING id, created_at`,
		answer.InterviewID, answer.Question, answer.CorrectAnswer, answer.UserAnswer,
		answer.Feedback, answer.Rating, analysisBytes, answer.UserID,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return types.UserAnswer{}, fmt.Errorf("failed to save user answer: %w", err)
	}
	return saved, nil
}

// ListUserAnswers retrieves all answers a user has saved for one interview.
func (db *DB) ListUserAnswers(ctx context.Context, userID string, interviewID string) ([]types.UserAnswer, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, interview_id, question, correct_answer, user_answer, feedback, rating, voice_analysis, user_id, created_at
		 FROM user_answers WHERE user_id = $1 AND interview_id = $2
		 ORDER BY created_at ASC`,
		userID, interviewID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user answers: %w", err)
	}
	defer rows.Close()

	var answers []types.UserAnswer
	for rows.Next() {
		var (
			a             types.UserAnswer
			analysisBytes []byte
		)
		if err := rows.Scan(&a.ID, &a.InterviewID, &a.Question, &a.CorrectAnswer, &a.UserAnswer,
			&a.Feedback, &a.Rating, &analysisBytes, &a.UserID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user answer: %w", err)
		}
		if len(analysisBytes) > 0 {
			var analysis types.VoiceAnalysisResult
			if err := json.Unmarshal(analysisBytes, &analysis); err != nil {
				return nil, fmt.Errorf("failed to decode voice analysis: %w", err)
			}
			a.VoiceAnalysis = &analysis
		}
		answers = append(answers, a)
	}
	return answers, nil
}
