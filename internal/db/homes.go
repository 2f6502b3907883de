package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resource-curator/internal/store"
	"github.com/jonathan/resource-curator/internal/types"
)

// SaveHome stores a pipeline result as a new home record
func (db *DB) SaveHome(ctx context.Context, userID string, result *types.PipelineResult) (string, error) {
	profileJSON, err := json.Marshal(result.UserProfile)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}
	queriesJSON, err := json.Marshal(result.SearchQueries)
	if err != nil {
		return "", fmt.Errorf("failed to marshal queries: %w", err)
	}
	resourcesJSON, err := json.Marshal(result.Resources)
	if err != nil {
		return "", fmt.Errorf("failed to marshal resources: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO home (user_id, user_profile, search_queries, total_resources, resources, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		userID, profileJSON, queriesJSON, result.TotalResources, resourcesJSON, result.GeneratedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to save home: %w", err)
	}
	return id.String(), nil
}

// LatestHome retrieves the most recent home record for a user
func (db *DB) LatestHome(ctx context.Context, userID string) (*store.HomeRecord, error) {
	var rec store.HomeRecord
	var id uuid.UUID
	var profileJSON, queriesJSON, resourcesJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, user_profile, search_queries, total_resources, resources, generated_at, created_at
		 FROM home WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		userID,
	).Scan(&id, &rec.UserID, &profileJSON, &queriesJSON, &rec.TotalResources,
		&resourcesJSON, &rec.GeneratedAt, &rec.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get home: %w", err)
	}

	if err := json.Unmarshal(profileJSON, &rec.UserProfile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	if err := json.Unmarshal(queriesJSON, &rec.SearchQueries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queries: %w", err)
	}
	if err := json.Unmarshal(resourcesJSON, &rec.Resources); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resources: %w", err)
	}

	rec.ID = id.String()
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}
