package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"groupelive/internal/auth"
	"groupelive/internal/ratelimit"
	"groupelive/internal/store"
	"groupelive/shared/models"
)

// UserService captures the account operations needed by the handlers.
type UserService interface {
	Signup(ctx context.Context, email, password string, role models.Role, nom string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	OrganisateurID(ctx context.Context, userID int64) (int64, error)
}

// InscriptionService coordinates guest registrations.
type InscriptionService interface {
	Create(ctx context.Context, in *models.Inscription) (*models.Inscription, error)
	Get(ctx context.Context, id int64, token string) (*models.Inscription, error)
	Update(ctx context.Context, id int64, token string, patch models.InscriptionPatch) (*models.Inscription, error)
	Cancel(ctx context.Context, id int64, token string) (*models.Inscription, error)
	Lookup(ctx context.Context, email string, concertID int64) (*models.Inscription, string, error)
	AdminList(ctx context.Context, organisateurID, concertID int64) ([]*models.Inscription, error)
	AdminCreate(ctx context.Context, organisateurID int64, in *models.Inscription) (*models.Inscription, error)
	AdminUpdate(ctx context.Context, organisateurID, concertID, id int64, patch models.InscriptionPatch) (*models.Inscription, error)
	AdminDelete(ctx context.Context, organisateurID, concertID, id int64) error
	ManagementURL(in *models.Inscription) string
}

// ConcertService coordinates concert management.
type ConcertService interface {
	Create(ctx context.Context, organisateurID int64, c *models.Concert) (*models.Concert, error)
	GetBySlug(ctx context.Context, slug string) (*models.Concert, error)
	Get(ctx context.Context, organisateurID, id int64) (*models.Concert, error)
	List(ctx context.Context, organisateurID int64) ([]*models.ConcertWithStats, error)
	Update(ctx context.Context, organisateurID, id int64, c *models.Concert) (*models.Concert, error)
	Delete(ctx context.Context, organisateurID, id int64) error
}

// AvisService coordinates review submission.
type AvisService interface {
	SubmitForConcert(ctx context.Context, concertID int64, authorEmail string, note int, commentaire string) (*models.Avis, error)
	SubmitForGroupe(ctx context.Context, groupeSlug string, authorEmail string, note int, commentaire string) (*models.Avis, error)
	SubmitAsOrganizer(ctx context.Context, organisateurID, concertID int64, authorEmail string, note int, commentaire string) (*models.Avis, error)
	ListByGroupe(ctx context.Context, groupeID int64) ([]*models.Avis, error)
	Moderate(ctx context.Context, id int64, visible bool) error
}

// GroupeService coordinates the public marketplace surface.
type GroupeService interface {
	Search(ctx context.Context, filter models.GroupeFilter) ([]*models.GroupeWithStats, error)
	GetBySlug(ctx context.Context, slug string) (*models.GroupeWithStats, error)
}

// ContactService exposes the organizer's CRM listing.
type ContactService interface {
	List(ctx context.Context, organisateurID int64) ([]*models.Contact, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users        UserService
	inscriptions InscriptionService
	concerts     ConcertService
	avis         AvisService
	groupes      GroupeService
	contacts     ContactService
	sessions     *auth.Sessions
	secureCookie bool
	limiter      ratelimit.Limiter
}

// SetLimiter enables rate limiting on the public write endpoints.
// Authenticated organizer routes are left unthrottled.
func (s *Server) SetLimiter(l ratelimit.Limiter) {
	s.limiter = l
}

// New configures a Server with the given services.
func New(
	users UserService,
	inscriptions InscriptionService,
	concerts ConcertService,
	avisSvc AvisService,
	groupesSvc GroupeService,
	contactsSvc ContactService,
	sessions *auth.Sessions,
	secureCookie bool,
) *Server {
	return &Server{
		users:        users,
		inscriptions: inscriptions,
		concerts:     concerts,
		avis:         avisSvc,
		groupes:      groupesSvc,
		contacts:     contactsSvc,
		sessions:     sessions,
		secureCookie: secureCookie,
	}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// limited throttles the unauthenticated write endpoints; reads
	// and organizer routes pass through untouched.
	limited := func(h http.HandlerFunc) http.HandlerFunc {
		if s.limiter == nil {
			return h
		}
		return ratelimit.Middleware(s.limiter)(h).ServeHTTP
	}

	// Auth
	mux.HandleFunc("POST /api/auth/signup", limited(s.handleSignup))
	mux.HandleFunc("POST /api/auth/login", limited(s.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	// Public inscriptions (self-service)
	mux.HandleFunc("POST /api/inscriptions", limited(s.handleCreateInscription))
	mux.HandleFunc("POST /api/inscriptions/lookup", limited(s.handleLookupInscription))
	mux.HandleFunc("GET /api/inscriptions/{id}", s.handleGetInscription)
	mux.HandleFunc("PUT /api/inscriptions/{id}", limited(s.handleUpdateInscription))
	mux.HandleFunc("DELETE /api/inscriptions/{id}", limited(s.handleCancelInscription))

	// Public concert page
	mux.HandleFunc("GET /api/concerts/{slug}", s.handleGetConcertBySlug)

	// Marketplace
	mux.HandleFunc("GET /api/groupes", s.handleSearchGroupes)
	mux.HandleFunc("GET /api/groupes/{slug}", s.handleGetGroupe)

	// Guest reviews
	mux.HandleFunc("POST /api/avis/concert", limited(s.handleConcertAvis))
	mux.HandleFunc("POST /api/avis/groupe", limited(s.handleGroupeAvis))
	mux.HandleFunc("POST /api/avis/inscription", limited(s.handleInscriptionAvis))

	// Organizer surface
	mux.HandleFunc("GET /api/organisateur/concerts", s.organizerOnly(s.handleListConcerts))
	mux.HandleFunc("POST /api/organisateur/concerts", s.organizerOnly(s.handleCreateConcert))
	mux.HandleFunc("GET /api/organisateur/concerts/{id}", s.organizerOnly(s.handleGetConcert))
	mux.HandleFunc("PUT /api/organisateur/concerts/{id}", s.organizerOnly(s.handleUpdateConcert))
	mux.HandleFunc("DELETE /api/organisateur/concerts/{id}", s.organizerOnly(s.handleDeleteConcert))
	mux.HandleFunc("GET /api/organisateur/concerts/{id}/inscriptions", s.organizerOnly(s.handleAdminListInscriptions))
	mux.HandleFunc("POST /api/organisateur/concerts/{id}/inscriptions", s.organizerOnly(s.handleAdminCreateInscription))
	mux.HandleFunc("PUT /api/organisateur/concerts/{id}/inscriptions/{inscriptionId}", s.organizerOnly(s.handleAdminUpdateInscription))
	mux.HandleFunc("DELETE /api/organisateur/concerts/{id}/inscriptions/{inscriptionId}", s.organizerOnly(s.handleAdminDeleteInscription))
	mux.HandleFunc("POST /api/organisateur/avis", s.organizerOnly(s.handleOrganizerAvis))
	mux.HandleFunc("GET /api/organisateur/contacts", s.organizerOnly(s.handleListContacts))

	// Moderation
	mux.HandleFunc("PUT /api/admin/avis/{id}", s.adminOnly(s.handleModerateAvis))

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError maps domain errors onto the HTTP taxonomy. Unknown
// errors are logged and answered with a generic message so internals
// never leak to the client.
func writeError(w http.ResponseWriter, err error) {
	var capErr *store.CapacityError
	var valErr *store.ValidationError

	switch {
	case errors.As(err, &valErr):
		writeValidationError(w, valErr.Error())
	case errors.Is(err, store.ErrConcertNotFound),
		errors.Is(err, store.ErrInscriptionNotFound),
		errors.Is(err, store.ErrAvisNotFound),
		errors.Is(err, store.ErrGroupeNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, store.ErrDuplicateInscription),
		errors.Is(err, store.ErrDuplicateAvis),
		errors.Is(err, store.ErrGroupeNameTaken),
		errors.Is(err, store.ErrUserExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "conflict"})
	case errors.Is(err, store.ErrInvalidToken),
		errors.Is(err, store.ErrUnauthorized),
		errors.Is(err, store.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidSession):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "unauthorized"})
	case errors.Is(err, store.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error(), Code: "forbidden"})
	case errors.Is(err, store.ErrConcertPast),
		errors.Is(err, store.ErrConcertNotPast),
		errors.Is(err, store.ErrInscriptionCancelled),
		errors.Is(err, store.ErrQuotaExceeded):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_request"})
	case errors.As(err, &capErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: capErr.Error(), Code: "bad_request"})
	default:
		log.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
	}
}

func writeValidationError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Code: "validation"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// organizerOnly resolves the session cookie to an organisateur and
// injects the profile id into the wrapped handler.
func (s *Server) organizerOnly(next func(http.ResponseWriter, *http.Request, int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.sessions.FromRequest(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required", Code: "unauthorized"})
			return
		}
		if identity.Role != models.RoleOrganisateur && identity.Role != models.RoleAdmin {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "organizer account required", Code: "forbidden"})
			return
		}
		organisateurID, err := s.users.OrganisateurID(r.Context(), identity.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, organisateurID)
	}
}

// adminOnly gates moderation endpoints behind the ADMIN role.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.sessions.FromRequest(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required", Code: "unauthorized"})
			return
		}
		if identity.Role != models.RoleAdmin {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin account required", Code: "forbidden"})
			return
		}
		next(w, r)
	}
}

// parseDate accepts RFC 3339 or plain dates from clients.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
