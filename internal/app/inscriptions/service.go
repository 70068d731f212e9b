package inscriptions

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"groupelive/internal/mailer"
	"groupelive/shared/models"
)

// Store defines the persistence hooks for registration workflows.
type Store interface {
	CreateInscription(ctx context.Context, in *models.Inscription) (*models.Inscription, error)
	InscriptionByToken(ctx context.Context, id int64, token string) (*models.Inscription, error)
	UpdateInscriptionByToken(ctx context.Context, id int64, token string, patch models.InscriptionPatch) (*models.Inscription, error)
	CancelInscriptionByToken(ctx context.Context, id int64, token string) (*models.Inscription, error)
	LookupInscription(ctx context.Context, email string, concertID int64) (*models.Inscription, error)
	ListInscriptions(ctx context.Context, organisateurID, concertID int64) ([]*models.Inscription, error)
	AdminCreateInscription(ctx context.Context, organisateurID int64, in *models.Inscription) (*models.Inscription, error)
	AdminUpdateInscription(ctx context.Context, organisateurID, concertID, id int64, patch models.InscriptionPatch) (*models.Inscription, error)
	AdminDeleteInscription(ctx context.Context, organisateurID, concertID, id int64) error
	UpsertContact(ctx context.Context, organisateurID int64, email, nom string, telephone *string, concertID int64) (*models.Contact, error)
	ConcertSummary(ctx context.Context, id int64) (string, int64, error)
}

// Service coordinates guest registrations and their side effects.
type Service interface {
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

type service struct {
	store   Store
	mail    mailer.Mailer
	baseURL string
}

// New constructs an inscriptions Service. baseURL is the public site
// root used to build management links.
func New(store Store, mail mailer.Mailer, baseURL string) Service {
	return &service{store: store, mail: mail, baseURL: baseURL}
}

// Create registers a guest and dispatches the contact-ledger upsert
// and the notification email. Both side effects are best-effort: a
// failure is logged and never rolls back the registration.
func (s *service) Create(ctx context.Context, in *models.Inscription) (*models.Inscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	created, err := s.store.CreateInscription(ctx, in)
	if err != nil {
		return nil, err
	}

	s.afterRegistration(created)
	return created, nil
}

func (s *service) Get(ctx context.Context, id int64, token string) (*models.Inscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.InscriptionByToken(ctx, id, token)
}

func (s *service) Update(ctx context.Context, id int64, token string, patch models.InscriptionPatch) (*models.Inscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.UpdateInscriptionByToken(ctx, id, token, patch)
}

func (s *service) Cancel(ctx context.Context, id int64, token string) (*models.Inscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.CancelInscriptionByToken(ctx, id, token)
}

// Lookup finds the caller's active inscription and returns it with a
// fully-qualified management URL. Calling it twice yields the same
// URL; the token is generated once and persisted.
func (s *service) Lookup(ctx context.Context, email string, concertID int64) (*models.Inscription, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	in, err := s.store.LookupInscription(ctx, email, concertID)
	if err != nil {
		return nil, "", err
	}

	url := s.ManagementURL(in)
	mailer.Dispatch(s.mail, mailer.TemplateManagementLink, in.Email, map[string]string{
		"url": url,
	})
	return in, url, nil
}

func (s *service) AdminList(ctx context.Context, organisateurID, concertID int64) ([]*models.Inscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListInscriptions(ctx, organisateurID, concertID)
}

func (s *service) AdminCreate(ctx context.Context, organisateurID int64, in *models.Inscription) (*models.Inscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	created, err := s.store.AdminCreateInscription(ctx, organisateurID, in)
	if err != nil {
		return nil, err
	}

	s.afterRegistration(created)
	return created, nil
}

func (s *service) AdminUpdate(ctx context.Context, organisateurID, concertID, id int64, patch models.InscriptionPatch) (*models.Inscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.AdminUpdateInscription(ctx, organisateurID, concertID, id, patch)
}

func (s *service) AdminDelete(ctx context.Context, organisateurID, concertID, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.AdminDeleteInscription(ctx, organisateurID, concertID, id)
}

// ManagementURL builds the self-service link for an inscription that
// carries a token. Empty when no token has been issued yet.
func (s *service) ManagementURL(in *models.Inscription) string {
	if in.ManagementToken == nil {
		return ""
	}
	return fmt.Sprintf("%s/inscriptions/%d?token=%s", s.baseURL, in.ID, *in.ManagementToken)
}

// afterRegistration runs the post-commit side effects: the CRM upsert
// and the status email. Uses a detached context so a finished request
// does not cancel them.
func (s *service) afterRegistration(in *models.Inscription) {
	titre, organisateurID, err := s.store.ConcertSummary(context.Background(), in.ConcertID)
	if err != nil {
		log.Error().Err(err).Int64("concert_id", in.ConcertID).Msg("concert summary for side effects failed")
		return
	}

	go func() {
		var telephone *string
		if in.Telephone != "" {
			telephone = &in.Telephone
		}
		if _, err := s.store.UpsertContact(context.Background(), organisateurID, in.Email, in.Nom, telephone, in.ConcertID); err != nil {
			log.Error().Err(err).
				Int64("organisateur_id", organisateurID).
				Str("email", in.Email).
				Msg("contact upsert failed")
		}
	}()

	template := mailer.TemplateInscriptionConfirmed
	if in.Status == models.InscriptionWaitlisted {
		template = mailer.TemplateInscriptionWaitlisted
	}
	mailer.Dispatch(s.mail, template, in.Email, map[string]string{
		"nom":        in.Nom,
		"concert":    titre,
		"party_size": strconv.Itoa(in.PartySize),
	})
}
