package store

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"groupelive/shared/models"
)

// UpsertContact records a participation in the organizer's CRM. An
// existing row for (organisateur, email) gets its participation count
// bumped, its name refreshed, and its phone replaced only when the
// new value is non-null. This runs as a side effect of registration
// creation and must never block it; callers log failures instead of
// surfacing them.
func (s *Store) UpsertContact(ctx context.Context, organisateurID int64, email, nom string, telephone *string, concertID int64) (*models.Contact, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	c := &models.Contact{
		OrganisateurID: organisateurID,
		Email:          email,
		SourceType:     "inscription",
	}
	var tags pq.StringArray
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO contacts (organisateur_id, email, nom, telephone,
		                      participation_count, last_concert_id, source_type)
		VALUES ($1, $2, $3, $4, 1, $5, 'inscription')
		ON CONFLICT (organisateur_id, email)
		DO UPDATE SET
			participation_count = contacts.participation_count + 1,
			nom = EXCLUDED.nom,
			telephone = COALESCE(EXCLUDED.telephone, contacts.telephone),
			last_concert_id = EXCLUDED.last_concert_id,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, nom, telephone, participation_count, last_concert_id,
		          tags, created_at, updated_at
	`, organisateurID, email, nom, telephone, concertID).Scan(
		&c.ID, &c.Nom, &c.Telephone, &c.ParticipationCount, &c.LastConcertID,
		&tags, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert contact: %w", err)
	}
	c.Tags = tags
	return c, nil
}

// ListContacts returns the organizer's CRM rows, most recently
// updated first.
func (s *Store) ListContacts(ctx context.Context, organisateurID int64) ([]*models.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, organisateur_id, email, nom, telephone,
		       participation_count, last_concert_id, tags, source_type,
		       created_at, updated_at
		FROM contacts
		WHERE organisateur_id = $1
		ORDER BY updated_at DESC
	`, organisateurID)
	if err != nil {
		return nil, fmt.Errorf("select contacts: %w", err)
	}
	defer rows.Close()

	var out []*models.Contact
	for rows.Next() {
		c := &models.Contact{}
		var tags pq.StringArray
		if err := rows.Scan(
			&c.ID, &c.OrganisateurID, &c.Email, &c.Nom, &c.Telephone,
			&c.ParticipationCount, &c.LastConcertID, &tags, &c.SourceType,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.Tags = tags
		out = append(out, c)
	}
	return out, rows.Err()
}
