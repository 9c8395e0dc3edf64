package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/interview-coach/internal/types"
)

// CreateInterview stores a generated interview and returns it with the
// server-assigned id and timestamp.
func (db *DB) CreateInterview(ctx context.Context, interview types.Interview) (types.Interview, error) {
	questionsBytes, err := json.Marshal(interview.Questions)
	if err != nil {
		return types.Interview{}, fmt.Errorf("failed to encode questions: %w", err)
	}

	saved := interview
	err = db.pool.QueryRow(ctx,
		`INSERT INTO interviews (position, description, tech_stack, experience, questions, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 RETURNING id, created_at`,
		interview.Position, interview.Description, interview.TechStack,
		interview.Experience, questionsBytes, interview.UserID,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return types.Interview{}, fmt.Errorf("failed to create interview: %w", err)
	}
	return saved, nil
}

// GetInterview retrieves an interview by id, or nil when absent.
func (db *DB) GetInterview(ctx context.Context, id uuid.UUID) (*types.Interview, error) {
	var (
		interview      types.Interview
		questionsBytes []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT id, position, description, tech_stack, experience, questions, user_id, created_at
		 FROM interviews WHERE id = $1`,
		id,
	).Scan(&interview.ID, &interview.Position, &interview.Description, &interview.TechStack,
		&interview.Experience, &questionsBytes, &interview.UserID, &interview.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}

	if len(questionsBytes) > 0 {
		if err := json.Unmarshal(questionsBytes, &interview.Questions); err != nil {
			return nil, fmt.Errorf("failed to decode questions: %w", err)
		}
	}
	return &interview, nil
}

// ListInterviews retrieves a user's interviews, newest first.
func (db *DB) ListInterviews(ctx context.Context, userID string) ([]types.Interview, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, position, description, tech_stack, experience, questions, user_id, created_at
		 FROM interviews WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer rows.Close()

	var interviews []types.Interview
	for rows.Next() {
		var (
			interview      types.Interview
			questionsBytes []byte
		)
		if err := rows.Scan(&interview.ID, &interview.Position, &interview.Description, &interview.TechStack,
			&interview.Experience, &questionsBytes, &interview.UserID, &interview.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		if len(questionsBytes) > 0 {
			if err := json.Unmarshal(questionsBytes, &interview.Questions); err != nil {
				return nil, fmt.Errorf("failed to decode questions: %w", err)
			}
		}
		interviews = append(interviews, interview)
	}
	return interviews, nil
}
