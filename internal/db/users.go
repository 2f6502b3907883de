package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resource-curator/internal/store"
)

const userColumns = `id, name, email, age, created_at, updated_at`

func scanUser(row pgx.Row) (*store.User, error) {
	var u store.User
	var id uuid.UUID
	if err := row.Scan(&id, &u.Name, &u.Email, &u.Age, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ID = id.String()
	return &u, nil
}

// ListUsers returns every user, oldest first
func (db *DB) ListUsers(ctx context.Context) ([]store.User, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []store.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id string) (*store.User, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	u, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, uid))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by e-mail address
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user
func (db *DB) CreateUser(ctx context.Context, in store.UserInput) (*store.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, age)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		in.Name, in.Email, in.Age,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// UpdateUser replaces a user's writable fields
func (db *DB) UpdateUser(ctx context.Context, id string, in store.UserInput) (*store.User, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	u, err := scanUser(db.pool.QueryRow(ctx,
		`UPDATE users SET name = $2, email = $3, age = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		uid, in.Name, in.Email, in.Age,
	))
	if err != nil {
		switch {
		case err == pgx.ErrNoRows:
			return nil, store.ErrNotFound
		case isUniqueViolation(err):
			return nil, store.ErrConflict
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

// DeleteUser deletes a user and their submissions (via cascade)
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	uid, ok := parseID(id)
	if !ok {
		return store.ErrNotFound
	}
	result, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
