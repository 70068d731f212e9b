package avis

import (
	"context"

	"groupelive/shared/models"
)

// Store defines the persistence hooks for review workflows.
type Store interface {
	CreateAvis(ctx context.Context, a *models.Avis) (*models.Avis, error)
	CreateOrganizerAvis(ctx context.Context, organisateurID int64, a *models.Avis) (*models.Avis, error)
	ListAvisByGroupe(ctx context.Context, groupeID int64) ([]*models.Avis, error)
	GroupeIDBySlug(ctx context.Context, slug string) (int64, error)
	SetAvisVisibility(ctx context.Context, id int64, visible bool) error
}

// Service coordinates review submission and moderation.
type Service interface {
	SubmitForConcert(ctx context.Context, concertID int64, authorEmail string, note int, commentaire string) (*models.Avis, error)
	SubmitForGroupe(ctx context.Context, groupeSlug string, authorEmail string, note int, commentaire string) (*models.Avis, error)
	SubmitAsOrganizer(ctx context.Context, organisateurID, concertID int64, authorEmail string, note int, commentaire string) (*models.Avis, error)
	ListByGroupe(ctx context.Context, groupeID int64) ([]*models.Avis, error)
	Moderate(ctx context.Context, id int64, visible bool) error
}

type service struct {
	store Store
}

// New constructs an avis Service backed by the given Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) SubmitForConcert(ctx context.Context, concertID int64, authorEmail string, note int, commentaire string) (*models.Avis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.CreateAvis(ctx, &models.Avis{
		ConcertID:   &concertID,
		AuthorType:  models.AuthorGuest,
		AuthorEmail: authorEmail,
		Note:        note,
		Commentaire: commentaire,
	})
}

func (s *service) SubmitForGroupe(ctx context.Context, groupeSlug string, authorEmail string, note int, commentaire string) (*models.Avis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	groupeID, err := s.store.GroupeIDBySlug(ctx, groupeSlug)
	if err != nil {
		return nil, err
	}
	return s.store.CreateAvis(ctx, &models.Avis{
		GroupeID:    groupeID,
		AuthorType:  models.AuthorGuest,
		AuthorEmail: authorEmail,
		Note:        note,
		Commentaire: commentaire,
	})
}

func (s *service) SubmitAsOrganizer(ctx context.Context, organisateurID, concertID int64, authorEmail string, note int, commentaire string) (*models.Avis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.CreateOrganizerAvis(ctx, organisateurID, &models.Avis{
		ConcertID:   &concertID,
		AuthorEmail: authorEmail,
		Note:        note,
		Commentaire: commentaire,
	})
}

func (s *service) ListByGroupe(ctx context.Context, groupeID int64) ([]*models.Avis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListAvisByGroupe(ctx, groupeID)
}

func (s *service) Moderate(ctx context.Context, id int64, visible bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.SetAvisVisibility(ctx, id, visible)
}
