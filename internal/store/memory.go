package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resource-curator/internal/types"
)

// Memory is an in-process Store. Data is lost on restart.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]User
	order   []string
	answers map[string][]Submission
	homes   map[string][]HomeRecord
	now     func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]User),
		answers: make(map[string][]Submission),
		homes:   make(map[string][]HomeRecord),
		now:     time.Now,
	}
}

func (m *Memory) ListUsers(_ context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]User, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.users[id])
	}
	return out, nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		if u := m.users[id]; u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *Memory) CreateUser(_ context.Context, in UserInput) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(in.Email, "") {
		return nil, ErrConflict
	}

	now := m.now().UTC()
	u := User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Age:       in.Age,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.users[u.ID] = u
	m.order = append(m.order, u.ID)
	return &u, nil
}

func (m *Memory) UpdateUser(_ context.Context, id string, in UserInput) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.emailTaken(in.Email, id) {
		return nil, ErrConflict
	}

	u.Name, u.Email, u.Age = in.Name, in.Email, in.Age
	u.UpdatedAt = m.now().UTC()
	m.users[id] = u
	return &u, nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	delete(m.answers, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) SaveAnswers(_ context.Context, userID string, sub Submission) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return "", ErrNotFound
	}

	sub.ID = uuid.NewString()
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = m.now().UTC()
	}
	sub.Answers = append([]types.Answer(nil), sub.Answers...)
	m.answers[userID] = append(m.answers[userID], sub)
	return sub.ID, nil
}

func (m *Memory) ListAnswers(_ context.Context, userID string) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs := m.answers[userID]
	out := make([]Submission, len(subs))
	// Stored in insertion order; reverse so equal timestamps keep newest first.
	for i, s := range subs {
		out[len(subs)-1-i] = s
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

func (m *Memory) SaveHome(_ context.Context, userID string, result *types.PipelineResult) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := HomeRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		PipelineResult: *result,
		CreatedAt:      m.now().UTC(),
	}
	m.homes[userID] = append(m.homes[userID], rec)
	return rec.ID, nil
}

func (m *Memory) LatestHome(_ context.Context, userID string) (*HomeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := m.homes[userID]
	if len(recs) == 0 {
		return nil, nil
	}
	latest := recs[len(recs)-1]
	return &latest, nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) emailTaken(email, exceptID string) bool {
	for id, u := range m.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

var _ Store = (*Memory)(nil)
