package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resource-curator/internal/store"
	"github.com/jonathan/resource-curator/internal/types"
)

// SaveAnswers stores a questionnaire submission for a user
func (db *DB) SaveAnswers(ctx context.Context, userID string, sub store.Submission) (string, error) {
	uid, ok := parseID(userID)
	if !ok {
		return "", store.ErrNotFound
	}

	answers := sub.Answers
	if answers == nil {
		answers = []types.Answer{}
	}
	jsonBytes, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("failed to marshal answers: %w", err)
	}

	submittedAt := sub.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO question_answers (user_id, email, answers, submitted_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		uid, sub.Email, jsonBytes, submittedAt,
	).Scan(&id)
	if err != nil {
		if hasCode(err, foreignKeyViolation) {
			return "", store.ErrNotFound
		}
		return "", fmt.Errorf("failed to save answers: %w", err)
	}
	return id.String(), nil
}

// ListAnswers returns a user's submissions, newest first
func (db *DB) ListAnswers(ctx context.Context, userID string) ([]store.Submission, error) {
	subs := []store.Submission{}
	uid, ok := parseID(userID)
	if !ok {
		return subs, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, email, answers, submitted_at
		 FROM question_answers WHERE user_id = $1
		 ORDER BY submitted_at DESC`,
		uid,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s store.Submission
		var id uuid.UUID
		var content []byte
		if err := rows.Scan(&id, &s.Email, &content, &s.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		if err := json.Unmarshal(content, &s.Answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}
		s.ID = id.String()
		s.SubmittedAt = s.SubmittedAt.UTC()
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return subs, nil
}
