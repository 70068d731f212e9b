package concerts

import (
	"context"
	"time"

	"groupelive/shared/models"
)

// Store defines persistence operations for concerts.
type Store interface {
	CreateConcert(ctx context.Context, organisateurID int64, c *models.Concert) (*models.Concert, error)
	ConcertBySlug(ctx context.Context, slug string) (*models.Concert, error)
	ConcertByID(ctx context.Context, organisateurID, id int64) (*models.Concert, error)
	ListConcertsByOrganisateur(ctx context.Context, organisateurID int64) ([]*models.ConcertWithStats, error)
	UpdateConcert(ctx context.Context, organisateurID, id int64, c *models.Concert) (*models.Concert, error)
	DeleteConcert(ctx context.Context, organisateurID, id int64) error
	MarkPastConcerts(ctx context.Context, now time.Time) (int64, error)
}

// Service coordinates concert management.
type Service interface {
	Create(ctx context.Context, organisateurID int64, c *models.Concert) (*models.Concert, error)
	GetBySlug(ctx context.Context, slug string) (*models.Concert, error)
	Get(ctx context.Context, organisateurID, id int64) (*models.Concert, error)
	List(ctx context.Context, organisateurID int64) ([]*models.ConcertWithStats, error)
	Update(ctx context.Context, organisateurID, id int64, c *models.Concert) (*models.Concert, error)
	Delete(ctx context.Context, organisateurID, id int64) error
	MarkPast(ctx context.Context, now time.Time) (int64, error)
}

type service struct {
	store Store
}

// New constructs a concerts Service backed by the given Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Create(ctx context.Context, organisateurID int64, c *models.Concert) (*models.Concert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.CreateConcert(ctx, organisateurID, c)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Concert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ConcertBySlug(ctx, slug)
}

func (s *service) Get(ctx context.Context, organisateurID, id int64) (*models.Concert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ConcertByID(ctx, organisateurID, id)
}

func (s *service) List(ctx context.Context, organisateurID int64) ([]*models.ConcertWithStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListConcertsByOrganisateur(ctx, organisateurID)
}

func (s *service) Update(ctx context.Context, organisateurID, id int64, c *models.Concert) (*models.Concert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.UpdateConcert(ctx, organisateurID, id, c)
}

func (s *service) Delete(ctx context.Context, organisateurID, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteConcert(ctx, organisateurID, id)
}

func (s *service) MarkPast(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.store.MarkPastConcerts(ctx, now)
}
