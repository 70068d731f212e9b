package httpapi

import (
	"encoding/json"
	"net/http"

	"groupelive/internal/auth"
	"groupelive/shared/models"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // GROUPE or ORGANISATEUR
	Nom      string `json:"nom"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}

	user, err := s.users.Signup(r.Context(), req.Email, req.Password, models.Role(req.Role), req.Nom)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		writeError(w, err)
		return
	}
	auth.SetCookie(w, token, s.secureCookie)

	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		writeError(w, err)
		return
	}
	auth.SetCookie(w, token, s.secureCookie)

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
