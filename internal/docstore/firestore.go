// Package docstore provides the Firestore implementation of store.Store.
//
// Layout:
//
//	users/{id}
//	users/{id}/question_answers/{id}
//	home/{id}
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jonathan/resource-curator/internal/store"
	"github.com/jonathan/resource-curator/internal/types"
)

// Collection names.
const (
	UsersCollection   = "users"
	AnswersCollection = "question_answers"
	HomeCollection    = "home"
)

// Store persists curator data in Firestore.
type Store struct {
	client *firestore.Client
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates a Firestore client for projectID. FIRESTORE_EMULATOR_HOST is
// honoured by the client library.
func New(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return NewFromClient(client), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *firestore.Client) *Store {
	return &Store{client: client, now: time.Now}
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) users() *firestore.CollectionRef {
	return s.client.Collection(UsersCollection)
}

func (s *Store) answers(userID string) *firestore.CollectionRef {
	return s.users().Doc(userID).Collection(AnswersCollection)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func userFromSnapshot(doc *firestore.DocumentSnapshot) (*store.User, error) {
	var u store.User
	if err := doc.DataTo(&u); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", doc.Ref.ID, err)
	}
	u.ID = doc.Ref.ID
	return &u, nil
}

// ListUsers returns every user, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]store.User, error) {
	iter := s.users().OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	users := []store.User{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		u, err := userFromSnapshot(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

// GetUser retrieves a user by document ID.
func (s *Store) GetUser(ctx context.Context, id string) (*store.User, error) {
	if id == "" {
		return nil, nil
	}
	doc, err := s.users().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return userFromSnapshot(doc)
}

// GetUserByEmail retrieves the first user with the given e-mail.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	docs, err := s.users().Where("email", "==", email).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return userFromSnapshot(docs[0])
}

// CreateUser adds a user document, rejecting duplicate e-mails.
func (s *Store) CreateUser(ctx context.Context, in store.UserInput) (*store.User, error) {
	now := s.now().UTC()
	u := store.User{Name: in.Name, Email: in.Email, Age: in.Age, CreatedAt: now, UpdatedAt: now}
	ref := s.users().NewDoc()

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		taken, err := s.emailTaken(tx, in.Email, "")
		if err != nil {
			return err
		}
		if taken {
			return store.ErrConflict
		}
		return tx.Create(ref, u)
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, store.ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = ref.ID
	return &u, nil
}

// UpdateUser replaces a user's writable fields.
func (s *Store) UpdateUser(ctx context.Context, id string, in store.UserInput) (*store.User, error) {
	if id == "" {
		return nil, store.ErrNotFound
	}
	ref := s.users().Doc(id)

	var updated *store.User
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return store.ErrNotFound
			}
			return err
		}
		u, err := userFromSnapshot(doc)
		if err != nil {
			return err
		}
		taken, err := s.emailTaken(tx, in.Email, id)
		if err != nil {
			return err
		}
		if taken {
			return store.ErrConflict
		}

		u.Name, u.Email, u.Age = in.Name, in.Email, in.Age
		u.UpdatedAt = s.now().UTC()
		updated = u
		return tx.Set(ref, *u)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

// DeleteUser removes a user and their submissions.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return store.ErrNotFound
	}
	ref := s.users().Doc(id)
	if _, err := ref.Get(ctx); err != nil {
		if isNotFound(err) {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	refs, err := s.answers(id).DocumentRefs(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("failed to list submissions: %w", err)
	}
	for _, r := range refs {
		if _, err := r.Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete submission %s: %w", r.ID, err)
		}
	}

	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *Store) emailTaken(tx *firestore.Transaction, email, exceptID string) (bool, error) {
	docs, err := tx.Documents(s.users().Where("email", "==", email).Limit(2)).GetAll()
	if err != nil {
		return false, fmt.Errorf("failed to query user by email: %w", err)
	}
	for _, d := range docs {
		if d.Ref.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

// SaveAnswers adds a submission under the user's document.
func (s *Store) SaveAnswers(ctx context.Context, userID string, sub store.Submission) (string, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", store.ErrNotFound
	}

	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = s.now().UTC()
	}
	if sub.Answers == nil {
		sub.Answers = []types.Answer{}
	}

	ref, _, err := s.answers(userID).Add(ctx, sub)
	if err != nil {
		return "", fmt.Errorf("failed to save answers: %w", err)
	}
	return ref.ID, nil
}

// ListAnswers returns a user's submissions, newest first.
func (s *Store) ListAnswers(ctx context.Context, userID string) ([]store.Submission, error) {
	subs := []store.Submission{}
	if userID == "" {
		return subs, nil
	}

	iter := s.answers(userID).OrderBy("submitted_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list answers: %w", err)
		}
		var sub store.Submission
		if err := doc.DataTo(&sub); err != nil {
			return nil, fmt.Errorf("failed to decode submission %s: %w", doc.Ref.ID, err)
		}
		sub.ID = doc.Ref.ID
		subs = append(subs, sub)
	}
	return subs, nil
}

// SaveHome adds a home document for the user.
func (s *Store) SaveHome(ctx context.Context, userID string, result *types.PipelineResult) (string, error) {
	rec := store.HomeRecord{
		UserID:         userID,
		PipelineResult: *result,
		CreatedAt:      s.now().UTC(),
	}
	ref, _, err := s.client.Collection(HomeCollection).Add(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("failed to save home: %w", err)
	}
	return ref.ID, nil
}

// LatestHome returns the user's newest home document. Ordering is done
// client-side so the query needs no composite index.
func (s *Store) LatestHome(ctx context.Context, userID string) (*store.HomeRecord, error) {
	iter := s.client.Collection(HomeCollection).Where("user_id", "==", userID).Documents(ctx)
	defer iter.Stop()

	var latest *store.HomeRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query home: %w", err)
		}
		var rec store.HomeRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode home %s: %w", doc.Ref.ID, err)
		}
		rec.ID = doc.Ref.ID
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = &rec
		}
	}
	return latest, nil
}
