package server

import (
	"context"
	"net/http"

	"github.com/jonathan/resource-curator/internal/pipeline"
	"github.com/jonathan/resource-curator/internal/store"
	"github.com/jonathan/resource-curator/internal/types"
)

// GenerateResponse summarizes a completed run.
type GenerateResponse struct {
	Message        string   `json:"message"`
	UserID         string   `json:"user_id"`
	Email          string   `json:"email,omitempty"`
	HomeDocID      string   `json:"home_doc_id"`
	TotalResources int      `json:"total_resources"`
	Categories     []string `json:"categories"`
	GeneratedAt    string   `json:"generated_at"`
}

var (
	errUserNotFound = &ErrNotFound{Message: "User not found"}
	errNoAnswers    = &ErrNotFound{Message: "No onboarding answers found for this user"}
	errEmptyAnswers = &ErrValidation{Message: "No answers found in the latest submission"}
)

func (s *Server) handleGenerateByID(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), r.PathValue("user_id"))
	s.generate(w, r, user, err, "")
}

func (s *Server) handleGenerateByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	user, err := s.store.GetUserByEmail(r.Context(), email)
	s.generate(w, r, user, err, email)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, user *store.User, lookupErr error, email string) {
	if lookupErr != nil {
		s.fail(w, lookupErr)
		return
	}
	if user == nil {
		s.fail(w, errUserNotFound)
		return
	}

	answers, err := s.latestAnswers(r.Context(), user.ID)
	if err != nil {
		s.fail(w, err)
		return
	}

	homeID, result, err := s.runLocked(r.Context(), user.ID, answers)
	if err != nil {
		s.fail(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, GenerateResponse{
		Message:        "Personalized resources generated successfully",
		UserID:         user.ID,
		Email:          email,
		HomeDocID:      homeID,
		TotalResources: result.TotalResources,
		Categories:     result.Resources.CategoryNames(),
		GeneratedAt:    result.GeneratedAt,
	})
}

// latestAnswers returns the answers of the user's newest submission.
func (s *Server) latestAnswers(ctx context.Context, userID string) ([]types.Answer, error) {
	subs, err := s.store.ListAnswers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, errNoAnswers
	}
	if len(subs[0].Answers) == 0 {
		return nil, errEmptyAnswers
	}
	return subs[0].Answers, nil
}

// runLocked runs the pipeline while holding the user's run lock.
func (s *Server) runLocked(ctx context.Context, userID string, answers []types.Answer) (string, *types.PipelineResult, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, userID)
		if err != nil {
			return "", nil, err
		}
		defer release()
	}

	s.log.Info("[PIPELINE] Run requested", "user_id", userID, "answers", len(answers))
	return s.runner.RunAndSave(ctx, userID, answers, s.store)
}

// handleGenerateStream runs the pipeline and streams stage progress as SSE.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), r.PathValue("user_id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if user == nil {
		s.fail(w, errUserNotFound)
		return
	}
	answers, err := s.latestAnswers(r.Context(), user.ID)
	if err != nil {
		s.fail(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx := pipeline.WithProgress(r.Context(), func(e pipeline.ProgressEvent) {
		sse.WriteEvent("progress", e) //nolint:errcheck
	})
	homeID, result, err := s.runLocked(ctx, user.ID, answers)
	if err != nil {
		s.log.Error("[PIPELINE] Streamed run failed", "user_id", user.ID, "error", err)
		sse.WriteError(err.Error())
		return
	}

	sse.WriteComplete(GenerateResponse{
		Message:        "Personalized resources generated successfully",
		UserID:         user.ID,
		HomeDocID:      homeID,
		TotalResources: result.TotalResources,
		Categories:     result.Resources.CategoryNames(),
		GeneratedAt:    result.GeneratedAt,
	})
}
