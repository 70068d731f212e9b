package users

import (
	"context"

	"groupelive/shared/models"
)

// Store defines the persistence hooks for account workflows.
type Store interface {
	CreateUser(ctx context.Context, email, password string, role models.Role, nom string) (*models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*models.User, error)
	OrganisateurIDByUserID(ctx context.Context, userID int64) (int64, error)
}

// Service coordinates signup and login.
type Service interface {
	Signup(ctx context.Context, email, password string, role models.Role, nom string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	OrganisateurID(ctx context.Context, userID int64) (int64, error)
}

type service struct {
	store Store
}

// New constructs a users Service backed by the given Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Signup(ctx context.Context, email, password string, role models.Role, nom string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.CreateUser(ctx, email, password, role, nom)
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.AuthenticateUser(ctx, email, password)
}

func (s *service) OrganisateurID(ctx context.Context, userID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.store.OrganisateurIDByUserID(ctx, userID)
}
