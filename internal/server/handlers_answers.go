package server

import (
	"net/http"
	"time"

	"github.com/jonathan/resource-curator/internal/store"
	"github.com/jonathan/resource-curator/internal/types"
)

// SubmitAnswersRequest is the questionnaire payload.
type SubmitAnswersRequest struct {
	Email   string         `json:"email"`
	Answers []types.Answer `json:"answers" validate:"required,dive"`
}

// SubmitAnswersResponse reports where a submission was stored.
type SubmitAnswersResponse struct {
	Message      string `json:"message"`
	Email        string `json:"email"`
	UserID       string `json:"user_id"`
	UserCreated  bool   `json:"user_created"`
	AnswersID    string `json:"answers_id"`
	TotalAnswers int    `json:"total_answers"`
}

// handleSubmitAnswers stores a submission, creating the user on first contact.
func (s *Server) handleSubmitAnswers(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if err := s.validate.Var(email, "required,email"); err != nil {
		s.fail(w, &ErrValidation{Field: "email", Message: "invalid e-mail address"})
		return
	}

	var req SubmitAnswersRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}

	ctx := r.Context()
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		s.fail(w, err)
		return
	}

	created := false
	if user == nil {
		user, err = s.store.CreateUser(ctx, store.UserInput{Name: store.NameFromEmail(email), Email: email})
		if err != nil {
			s.fail(w, err)
			return
		}
		created = true
		s.log.Info("[HTTP] Created user from submission", "user_id", user.ID)
	}

	id, err := s.store.SaveAnswers(ctx, user.ID, store.Submission{
		Email:       email,
		Answers:     req.Answers,
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, SubmitAnswersResponse{
		Message:      "Answers submitted successfully",
		Email:        email,
		UserID:       user.ID,
		UserCreated:  created,
		AnswersID:    id,
		TotalAnswers: len(req.Answers),
	})
}

func (s *Server) handleListAnswers(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	user, err := s.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		s.fail(w, err)
		return
	}
	if user == nil {
		s.errorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	subs, err := s.store.ListAnswers(r.Context(), user.ID)
	if err != nil {
		s.fail(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"email":             email,
		"user_id":           user.ID,
		"submissions":       subs,
		"total_submissions": len(subs),
	})
}
