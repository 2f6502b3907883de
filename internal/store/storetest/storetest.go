// Package storetest holds a behavioural suite every store.Store backend must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resource-curator/internal/store"
	"github.com/jonathan/resource-curator/internal/types"
)

// Run exercises s against the Store contract. Records are created with
// unique e-mails so the suite can run against a shared database.
func Run(t *testing.T, s store.Store) {
	t.Helper()

	t.Run("UserLifecycle", func(t *testing.T) { testUserLifecycle(t, s) })
	t.Run("MissingUser", func(t *testing.T) { testMissingUser(t, s) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, s) })
	t.Run("Answers", func(t *testing.T) { testAnswers(t, s) })
	t.Run("Homes", func(t *testing.T) { testHomes(t, s) })
}

func uniqueEmail() string {
	return "learner-" + uuid.NewString()[:8] + "@example.com"
}

func createUser(t *testing.T, s store.Store) *store.User {
	t.Helper()
	age := 21
	u, err := s.CreateUser(context.Background(), store.UserInput{
		Name:  "Test Learner",
		Email: uniqueEmail(),
		Age:   &age,
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	return u
}

func testUserLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := createUser(t, s)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Email, got.Email)
	require.NotNil(t, got.Age)
	assert.Equal(t, 21, *got.Age)

	byEmail, err := s.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	var found bool
	for _, lu := range users {
		if lu.ID == u.ID {
			found = true
		}
	}
	assert.True(t, found, "created user should be listed")

	newEmail := uniqueEmail()
	updated, err := s.UpdateUser(ctx, u.ID, store.UserInput{Name: "Renamed", Email: newEmail})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, newEmail, updated.Email)
	assert.Nil(t, updated.Age)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testMissingUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	missing := uuid.NewString()

	got, err := s.GetUser(ctx, missing)
	require.NoError(t, err)
	assert.Nil(t, got)

	byEmail, err := s.GetUserByEmail(ctx, uniqueEmail())
	require.NoError(t, err)
	assert.Nil(t, byEmail)

	_, err = s.UpdateUser(ctx, missing, store.UserInput{Name: "x", Email: uniqueEmail()})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, missing), store.ErrNotFound)

	_, err = s.SaveAnswers(ctx, missing, store.Submission{Email: "x@example.com"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	home, err := s.LatestHome(ctx, missing)
	require.NoError(t, err)
	assert.Nil(t, home)
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	u := createUser(t, s)
	_, err := s.CreateUser(context.Background(), store.UserInput{Name: "Other", Email: u.Email})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func testAnswers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := createUser(t, s)

	none, err := s.ListAnswers(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	older := store.Submission{
		Email:       u.Email,
		Answers:     []types.Answer{{QuestionID: "weak_areas", Answer: "Graphs"}},
		SubmittedAt: base,
	}
	newer := store.Submission{
		Email: u.Email,
		Answers: []types.Answer{
			{QuestionID: "weak_areas", QuestionText: "Weak areas?", Answer: "DP"},
			{QuestionID: "tech_stack", Answer: "Go"},
		},
		SubmittedAt: base.Add(time.Hour),
	}

	olderID, err := s.SaveAnswers(ctx, u.ID, older)
	require.NoError(t, err)
	newerID, err := s.SaveAnswers(ctx, u.ID, newer)
	require.NoError(t, err)
	assert.NotEqual(t, olderID, newerID)

	subs, err := s.ListAnswers(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, newerID, subs[0].ID)
	assert.Equal(t, olderID, subs[1].ID)
	assert.Equal(t, newer.Answers, subs[0].Answers)
	assert.True(t, subs[0].SubmittedAt.Equal(newer.SubmittedAt))
}

func testHomes(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := createUser(t, s)

	first := sampleResult("first")
	second := sampleResult("second")

	_, err := s.SaveHome(ctx, u.ID, first)
	require.NoError(t, err)
	// Keep created_at strictly increasing on backends with coarse clocks.
	time.Sleep(5 * time.Millisecond)
	secondID, err := s.SaveHome(ctx, u.ID, second)
	require.NoError(t, err)

	latest, err := s.LatestHome(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, secondID, latest.ID)
	assert.Equal(t, u.ID, latest.UserID)
	assert.Equal(t, second.SearchQueries, latest.SearchQueries)
	assert.Equal(t, second.TotalResources, latest.TotalResources)
	assert.Len(t, latest.Resources, len(types.Categories()))
	require.Len(t, latest.Resources[types.CategoryPractice], 1)
	assert.Equal(t, "https://leetcode.com/problemset/", latest.Resources[types.CategoryPractice][0].URL)
	assert.False(t, latest.CreatedAt.IsZero())
}

func sampleResult(query string) *types.PipelineResult {
	report := types.NewReport()
	report.Add(types.CategoryPractice, types.Resource{
		Title:        "Leetcode Problem Set",
		URL:          "https://leetcode.com/problemset/",
		ResourceType: types.ResourcePractice,
		Difficulty:   types.DifficultyIntermediate,
		Tags:         []string{"practice"},
		Query:        query,
		Source:       types.SourceLLMMetadata,
		CreatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	profile := types.NewProfile()
	profile.WeakAreas = []string{"DP"}
	return &types.PipelineResult{
		UserProfile:    profile,
		SearchQueries:  []string{query},
		TotalResources: report.Total(),
		Resources:      report,
		GeneratedAt:    "2025-03-01T12:00:00Z",
	}
}
