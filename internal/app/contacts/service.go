package contacts

import (
	"context"

	"groupelive/shared/models"
)

// Store defines the persistence hooks for the contact ledger.
type Store interface {
	ListContacts(ctx context.Context, organisateurID int64) ([]*models.Contact, error)
}

// Service exposes the organizer's CRM listing. Writes to the ledger
// happen as registration side effects in the inscriptions service.
type Service interface {
	List(ctx context.Context, organisateurID int64) ([]*models.Contact, error)
}

type service struct {
	store Store
}

// New constructs a contacts Service backed by the given Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context, organisateurID int64) ([]*models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListContacts(ctx, organisateurID)
}
