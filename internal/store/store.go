// Package store defines persistence for users, questionnaire submissions and
// generated home records.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/jonathan/resource-curator/internal/types"
)

var (
	// ErrNotFound is returned by mutations that target a missing record.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("conflict")
)

// User is a registered learner.
type User struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	Email     string    `json:"email" firestore:"email"`
	Age       *int      `json:"age" firestore:"age"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at"`
}

// UserInput carries the writable user fields.
type UserInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Age   *int   `json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
}

// Submission is one questionnaire submission.
type Submission struct {
	ID          string         `json:"submission_id" firestore:"-"`
	Email       string         `json:"email" firestore:"email"`
	Answers     []types.Answer `json:"answers" firestore:"answers"`
	SubmittedAt time.Time      `json:"submitted_at" firestore:"submitted_at"`
}

// HomeRecord is a persisted pipeline result.
type HomeRecord struct {
	ID     string `json:"home_doc_id" firestore:"-"`
	UserID string `json:"user_id" firestore:"user_id"`
	types.PipelineResult
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}

// Store is implemented by the memory, PostgreSQL and Firestore backends.
//
// Getters return (nil, nil) when nothing matches. Mutations of a missing
// record return ErrNotFound.
type Store interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, in UserInput) (*User, error)
	UpdateUser(ctx context.Context, id string, in UserInput) (*User, error)
	DeleteUser(ctx context.Context, id string) error

	// SaveAnswers stores a submission for an existing user and returns its ID.
	SaveAnswers(ctx context.Context, userID string, sub Submission) (string, error)
	// ListAnswers returns a user's submissions, newest first.
	ListAnswers(ctx context.Context, userID string) ([]Submission, error)

	// SaveHome stores a new home record; earlier records are kept.
	SaveHome(ctx context.Context, userID string, result *types.PipelineResult) (string, error)
	// LatestHome returns the most recent home record for a user.
	LatestHome(ctx context.Context, userID string) (*HomeRecord, error)

	Close() error
}

// NameFromEmail derives a display name from an e-mail's local part,
// title-casing each word: "jane.doe@x.io" becomes "Jane.Doe".
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	upperNext := true
	for _, r := range local {
		isLetter := unicode.IsLetter(r)
		switch {
		case isLetter && upperNext:
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
		case isLetter:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
			upperNext = true
		}
	}
	return b.String()
}
