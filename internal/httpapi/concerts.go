package httpapi

import (
	"encoding/json"
	"net/http"

	"groupelive/shared/models"
)

type concertRequest struct {
	Titre      string `json:"titre"`
	Date       string `json:"date"`
	Adresse    string `json:"adresse"`
	Ville      string `json:"ville"`
	CodePostal string `json:"code_postal"`
	Status     string `json:"status"`
	MaxInvites *int   `json:"max_invites"`
	GroupeID   *int64 `json:"groupe_id"`
}

func (r concertRequest) toModel(w http.ResponseWriter) (*models.Concert, bool) {
	date, err := parseDate(r.Date)
	if err != nil {
		writeValidationError(w, "invalid date")
		return nil, false
	}
	if r.MaxInvites != nil && *r.MaxInvites < 1 {
		writeValidationError(w, "max_invites must be at least 1")
		return nil, false
	}
	return &models.Concert{
		Titre:      r.Titre,
		Date:       date,
		Adresse:    r.Adresse,
		Ville:      r.Ville,
		CodePostal: r.CodePostal,
		Status:     models.ConcertStatus(r.Status),
		MaxInvites: r.MaxInvites,
		GroupeID:   r.GroupeID,
	}, true
}

func (s *Server) handleGetConcertBySlug(w http.ResponseWriter, r *http.Request) {
	concert, err := s.concerts.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, concert)
}

func (s *Server) handleListConcerts(w http.ResponseWriter, r *http.Request, organisateurID int64) {
	concerts, err := s.concerts.List(r.Context(), organisateurID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Concerts []*models.ConcertWithStats `json:"concerts"`
	}{Concerts: concerts})
}

func (s *Server) handleCreateConcert(w http.ResponseWriter, r *http.Request, organisateurID int64) {
	var req concertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}
	concert, ok := req.toModel(w)
	if !ok {
		return
	}

	created, err := s.concerts.Create(r.Context(), organisateurID, concert)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetConcert(w http.ResponseWriter, r *http.Request, organisateurID int64) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	concert, err := s.concerts.Get(r.Context(), organisateurID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, concert)
}

func (s *Server) handleUpdateConcert(w http.ResponseWriter, r *http.Request, organisateurID int64) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req concertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}
	concert, ok := req.toModel(w)
	if !ok {
		return
	}

	updated, err := s.concerts.Update(r.Context(), organisateurID, id, concert)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteConcert(w http.ResponseWriter, r *http.Request, organisateurID int64) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.concerts.Delete(r.Context(), organisateurID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
