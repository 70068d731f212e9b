package httpapi

import (
	"encoding/json"
	"net/http"

	"groupelive/internal/store"
	"groupelive/shared/models"
)

type avisRequest struct {
	ConcertID   int64  `json:"concert_id"`
	GroupeSlug  string `json:"groupe_slug"`
	AuthorEmail string `json:"author_email"`
	Note        int    `json:"note"`
	Commentaire string `json:"commentaire"`
}

func (s *Server) handleConcertAvis(w http.ResponseWriter, r *http.Request) {
	var req avisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}
	if req.ConcertID <= 0 {
		writeValidationError(w, "concert_id is required")
		return
	}

	created, err := s.avis.SubmitForConcert(r.Context(), req.ConcertID, req.AuthorEmail, req.Note, req.Commentaire)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGroupeAvis(w http.ResponseWriter, r *http.Request) {
	var req avisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}
	if req.GroupeSlug == "" {
		writeValidationError(w, "groupe_slug is required")
		return
	}

	created, err := s.avis.SubmitForGroupe(r.Context(), req.GroupeSlug, req.AuthorEmail, req.Note, req.Commentaire)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleOrganizerAvis(w http.ResponseWriter, r *http.Request, organisateurID int64) {
	var req avisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}
	if req.ConcertID <= 0 {
		writeValidationError(w, "concert_id is required")
		return
	}

	created, err := s.avis.SubmitAsOrganizer(r.Context(), organisateurID, req.ConcertID, req.AuthorEmail, req.Note, req.Commentaire)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type inscriptionAvisRequest struct {
	InscriptionID int64  `json:"inscription_id"`
	Token         string `json:"token"`
	Note          int    `json:"note"`
	Commentaire   string `json:"commentaire"`
}

// handleInscriptionAvis accepts a review authenticated by the guest's
// management token instead of an email field. The concert scope and
// author email come from the inscription itself.
func (s *Server) handleInscriptionAvis(w http.ResponseWriter, r *http.Request) {
	var req inscriptionAvisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}
	if req.InscriptionID <= 0 {
		writeValidationError(w, "inscription_id is required")
		return
	}

	in, err := s.inscriptions.Get(r.Context(), req.InscriptionID, req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	if in.Status == models.InscriptionCancelled {
		writeError(w, store.ErrInscriptionCancelled)
		return
	}

	created, err := s.avis.SubmitForConcert(r.Context(), in.ConcertID, in.Email, req.Note, req.Commentaire)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type moderateAvisRequest struct {
	Visible bool `json:"visible"`
}

func (s *Server) handleModerateAvis(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req moderateAvisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}

	if err := s.avis.Moderate(r.Context(), id, req.Visible); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearchGroupes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.GroupeFilter{
		Query: query.Get("q"),
		Genre: query.Get("genre"),
		Ville: query.Get("ville"),
	}

	groupes, err := s.groupes.Search(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Groupes []*models.GroupeWithStats `json:"groupes"`
	}{Groupes: groupes})
}

func (s *Server) handleGetGroupe(w http.ResponseWriter, r *http.Request) {
	groupe, err := s.groupes.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, err)
		return
	}

	avisList, err := s.avis.ListByGroupe(r.Context(), groupe.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		*models.GroupeWithStats
		Avis []*models.Avis `json:"avis"`
	}{GroupeWithStats: groupe, Avis: avisList})
}
