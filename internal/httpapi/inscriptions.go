package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"groupelive/shared/models"
)

type createInscriptionRequest struct {
	ConcertID       int64  `json:"concert_id"`
	Nom             string `json:"nom"`
	Prenom          string `json:"prenom"`
	Email           string `json:"email"`
	Telephone       string `json:"telephone"`
	PartySize       *int   `json:"party_size"`
	ShowInGuestList bool   `json:"show_in_guest_list"`
}

// requestedPartySize defaults an absent party_size to one guest. An
// explicit zero is passed through so validation rejects it.
func (r createInscriptionRequest) requestedPartySize() int {
	if r.PartySize == nil {
		return 1
	}
	return *r.PartySize
}

type lookupRequest struct {
	Email     string `json:"email"`
	ConcertID int64  `json:"concert_id"`
}

type lookupResponse struct {
	Found         bool                `json:"found"`
	Inscription   *models.Inscription `json:"inscription"`
	ManagementURL string              `json:"managementUrl"`
}

func (s *Server) handleCreateInscription(w http.ResponseWriter, r *http.Request) {
	var req createInscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}
	if req.ConcertID <= 0 {
		writeValidationError(w, "concert_id is required")
		return
	}
	created, err := s.inscriptions.Create(r.Context(), &models.Inscription{
		ConcertID:       req.ConcertID,
		Nom:             req.Nom,
		Prenom:          req.Prenom,
		Email:           req.Email,
		Telephone:       req.Telephone,
		PartySize:       req.requestedPartySize(),
		ShowInGuestList: req.ShowInGuestList,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetInscription(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	in, err := s.inscriptions.Get(r.Context(), id, r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleUpdateInscription(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var patch models.InscriptionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}
	// Guests cannot override their own status.
	patch.Status = nil

	updated, err := s.inscriptions.Update(r.Context(), id, r.URL.Query().Get("token"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleCancelInscription(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	cancelled, err := s.inscriptions.Cancel(r.Context(), id, r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelled)
}

func (s *Server) handleLookupInscription(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}
	if req.Email == "" || req.ConcertID <= 0 {
		writeValidationError(w, "email and concert_id are required")
		return
	}

	in, url, err := s.inscriptions.Lookup(r.Context(), req.Email, req.ConcertID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lookupResponse{
		Found:         true,
		Inscription:   in,
		ManagementURL: url,
	})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeValidationError(w, "invalid "+name)
		return 0, false
	}
	return id, true
}
