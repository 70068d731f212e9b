package httpapi

import (
	"encoding/json"
	"net/http"

	"groupelive/shared/models"
)

func (s *Server) handleAdminListInscriptions(w http.ResponseWriter, r *http.Request, organisateurID int64) {
	concertID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	list, err := s.inscriptions.AdminList(r.Context(), organisateurID, concertID)
	if err != nil {
		writeError(w, err)
		return
	}

	confirmed := 0
	for _, in := range list {
		if in.Status == models.InscriptionConfirmed {
			confirmed += in.PartySize
		}
	}

	writeJSON(w, http.StatusOK, struct {
		Inscriptions   []*models.Inscription `json:"inscriptions"`
		ConfirmedSeats int                   `json:"confirmed_seats"`
	}{Inscriptions: list, ConfirmedSeats: confirmed})
}

func (s *Server) handleAdminCreateInscription(w http.ResponseWriter, r *http.Request, organisateurID int64) {
	concertID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req createInscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}
	created, err := s.inscriptions.AdminCreate(r.Context(), organisateurID, &models.Inscription{
		ConcertID:       concertID,
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

	writeJSON(w, http.StatusCreated, struct {
		*models.Inscription
		ManagementURL string `json:"managementUrl"`
	}{Inscription: created, ManagementURL: s.inscriptions.ManagementURL(created)})
}

func (s *Server) handleAdminUpdateInscription(w http.ResponseWriter, r *http.Request, organisateurID int64) {
	concertID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	inscriptionID, ok := pathID(w, r, "inscriptionId")
	if !ok {
		return
	}

	var patch models.InscriptionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeValidationError(w, "invalid JSON payload")
		return
	}

	updated, err := s.inscriptions.AdminUpdate(r.Context(), organisateurID, concertID, inscriptionID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAdminDeleteInscription(w http.ResponseWriter, r *http.Request, organisateurID int64) {
	concertID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	inscriptionID, ok := pathID(w, r, "inscriptionId")
	if !ok {
		return
	}

	if err := s.inscriptions.AdminDelete(r.Context(), organisateurID, concertID, inscriptionID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request, organisateurID int64) {
	contacts, err := s.contacts.List(r.Context(), organisateurID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Contacts []*models.Contact `json:"contacts"`
	}{Contacts: contacts})
}
