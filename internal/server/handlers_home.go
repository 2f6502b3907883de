package server

import "net/http"

func (s *Server) handleHomeByID(w http.ResponseWriter, r *http.Request) {
	s.writeLatestHome(w, r, r.PathValue("user_id"))
}

func (s *Server) handleHomeByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUserByEmail(r.Context(), r.PathValue("email"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if user == nil {
		s.fail(w, errUserNotFound)
		return
	}
	s.writeLatestHome(w, r, user.ID)
}

func (s *Server) writeLatestHome(w http.ResponseWriter, r *http.Request, userID string) {
	home, err := s.store.LatestHome(r.Context(), userID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if home == nil {
		s.errorResponse(w, http.StatusNotFound, "No resources found for this user")
		return
	}
	s.jsonResponse(w, http.StatusOK, home)
}
