package groupes

import (
	"context"

	"groupelive/shared/models"
)

// Store defines the persistence hooks for the marketplace search.
type Store interface {
	ListGroupes(ctx context.Context, filter models.GroupeFilter) ([]*models.GroupeWithStats, error)
	GroupeBySlug(ctx context.Context, slug string) (*models.GroupeWithStats, error)
}

// Service coordinates the public groupe surface.
type Service interface {
	Search(ctx context.Context, filter models.GroupeFilter) ([]*models.GroupeWithStats, error)
	GetBySlug(ctx context.Context, slug string) (*models.GroupeWithStats, error)
}

type service struct {
	store Store
}

// New constructs a groupes Service backed by the given Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Search(ctx context.Context, filter models.GroupeFilter) ([]*models.GroupeWithStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListGroupes(ctx, filter)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.GroupeWithStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GroupeBySlug(ctx, slug)
}
