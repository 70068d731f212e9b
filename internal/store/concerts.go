package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"groupelive/shared/models"
)

// freeConcertQuota is the number of concerts a FREE-plan organizer
// may create per calendar year.
const freeConcertQuota = 3

func validateConcert(c *models.Concert) error {
	if c.Titre == "" {
		return validationErrorf("titre is required")
	}
	if c.Date.IsZero() {
		return validationErrorf("date is required")
	}
	return nil
}

// CreateConcert adds a concert for an organizer, enforcing the
// freemium quota and deriving a unique slug from the title.
func (s *Store) CreateConcert(ctx context.Context, organisateurID int64, c *models.Concert) (*models.Concert, error) {
	if err := validateConcert(c); err != nil {
		return nil, err
	}

	var plan models.Plan
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(
			(SELECT plan FROM subscriptions WHERE organisateur_id = $1), 'FREE'
		)
	`, organisateurID).Scan(&plan)
	if err != nil {
		return nil, fmt.Errorf("lookup subscription: %w", err)
	}

	if plan != models.PlanPremium {
		var count int
		err := s.db.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM concerts
			WHERE organisateur_id = $1
			  AND date_part('year', created_at) = date_part('year', CURRENT_TIMESTAMP)
		`, organisateurID).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("count concerts: %w", err)
		}
		if count >= freeConcertQuota {
			return nil, ErrQuotaExceeded
		}
	}

	base := slugify(c.Titre)
	if base == "" {
		base = "concert"
	}
	slug := base
	for i := 2; ; i++ {
		var taken bool
		if err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM concerts WHERE slug = $1)
		`, slug).Scan(&taken); err != nil {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}

	c.OrganisateurID = organisateurID
	c.Slug = slug
	if c.Status == "" {
		c.Status = models.ConcertDraft
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO concerts (slug, organisateur_id, groupe_id, titre, date,
		                      adresse, ville, code_postal, status, max_invites)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, c.Slug, c.OrganisateurID, c.GroupeID, c.Titre, c.Date,
		c.Adresse, c.Ville, c.CodePostal, c.Status, c.MaxInvites,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert concert: %w", err)
	}

	return c, nil
}

// ConcertBySlug returns a concert for the public page. Drafts and
// cancelled concerts are invisible to guests.
func (s *Store) ConcertBySlug(ctx context.Context, slug string) (*models.Concert, error) {
	c := &models.Concert{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, slug, organisateur_id, groupe_id, titre, date,
		       adresse, ville, code_postal, status, max_invites, created_at, updated_at
		FROM concerts
		WHERE slug = $1 AND status IN ('PUBLISHED', 'PAST')
	`, slug).Scan(
		&c.ID, &c.Slug, &c.OrganisateurID, &c.GroupeID, &c.Titre, &c.Date,
		&c.Adresse, &c.Ville, &c.CodePostal, &c.Status, &c.MaxInvites,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConcertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select concert: %w", err)
	}
	return c, nil
}

// ConcertByID returns a concert owned by the organizer.
func (s *Store) ConcertByID(ctx context.Context, organisateurID, id int64) (*models.Concert, error) {
	c := &models.Concert{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, slug, organisateur_id, groupe_id, titre, date,
		       adresse, ville, code_postal, status, max_invites, created_at, updated_at
		FROM concerts
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.Slug, &c.OrganisateurID, &c.GroupeID, &c.Titre, &c.Date,
		&c.Adresse, &c.Ville, &c.CodePostal, &c.Status, &c.MaxInvites,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConcertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select concert: %w", err)
	}
	if c.OrganisateurID != organisateurID {
		return nil, ErrForbidden
	}
	return c, nil
}

// ListConcertsByOrganisateur returns the organizer's concerts with
// their confirmed-seat accounting, newest date first.
func (s *Store) ListConcertsByOrganisateur(ctx context.Context, organisateurID int64) ([]*models.ConcertWithStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.slug, c.organisateur_id, c.groupe_id, c.titre, c.date,
		       c.adresse, c.ville, c.code_postal, c.status, c.max_invites,
		       c.created_at, c.updated_at,
		       COALESCE(SUM(i.party_size) FILTER (WHERE i.status = 'CONFIRMED'), 0) AS confirmed_seats
		FROM concerts c
		LEFT JOIN inscriptions i ON i.concert_id = c.id
		WHERE c.organisateur_id = $1
		GROUP BY c.id
		ORDER BY c.date DESC
	`, organisateurID)
	if err != nil {
		return nil, fmt.Errorf("select concerts: %w", err)
	}
	defer rows.Close()

	var out []*models.ConcertWithStats
	for rows.Next() {
		cs := &models.ConcertWithStats{}
		if err := rows.Scan(
			&cs.ID, &cs.Slug, &cs.OrganisateurID, &cs.GroupeID, &cs.Titre, &cs.Date,
			&cs.Adresse, &cs.Ville, &cs.CodePostal, &cs.Status, &cs.MaxInvites,
			&cs.CreatedAt, &cs.UpdatedAt, &cs.ConfirmedSeats,
		); err != nil {
			return nil, fmt.Errorf("scan concert: %w", err)
		}
		if cs.MaxInvites != nil {
			remaining := remainingSeats(cs.ConfirmedSeats, *cs.MaxInvites)
			cs.Remaining = &remaining
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// UpdateConcert mutates an owned concert. The slug is stable across
// title edits so shared links keep working.
func (s *Store) UpdateConcert(ctx context.Context, organisateurID, id int64, c *models.Concert) (*models.Concert, error) {
	if err := validateConcert(c); err != nil {
		return nil, err
	}
	switch c.Status {
	case models.ConcertDraft, models.ConcertPublished, models.ConcertPast, models.ConcertCancelled:
	default:
		return nil, fmt.Errorf("invalid status %q", c.Status)
	}
	if err := s.requireConcertOwner(ctx, id, organisateurID); err != nil {
		return nil, err
	}

	updated := &models.Concert{}
	err := s.db.QueryRowContext(ctx, `
		UPDATE concerts
		SET groupe_id = $1, titre = $2, date = $3, adresse = $4, ville = $5,
		    code_postal = $6, status = $7, max_invites = $8,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $9
		RETURNING id, slug, organisateur_id, groupe_id, titre, date,
		          adresse, ville, code_postal, status, max_invites, created_at, updated_at
	`, c.GroupeID, c.Titre, c.Date, c.Adresse, c.Ville,
		c.CodePostal, c.Status, c.MaxInvites, id,
	).Scan(
		&updated.ID, &updated.Slug, &updated.OrganisateurID, &updated.GroupeID,
		&updated.Titre, &updated.Date, &updated.Adresse, &updated.Ville,
		&updated.CodePostal, &updated.Status, &updated.MaxInvites,
		&updated.CreatedAt, &updated.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConcertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update concert: %w", err)
	}
	return updated, nil
}

// DeleteConcert removes an owned concert; inscriptions cascade.
func (s *Store) DeleteConcert(ctx context.Context, organisateurID, id int64) error {
	if err := s.requireConcertOwner(ctx, id, organisateurID); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM concerts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete concert: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConcertNotFound
	}
	return nil
}

// ConcertSummary returns the bits of a concert the registration side
// effects need: its title and owning organizer.
func (s *Store) ConcertSummary(ctx context.Context, id int64) (string, int64, error) {
	var titre string
	var organisateurID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT titre, organisateur_id
		FROM concerts
		WHERE id = $1
	`, id).Scan(&titre, &organisateurID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, ErrConcertNotFound
	}
	if err != nil {
		return "", 0, fmt.Errorf("lookup concert: %w", err)
	}
	return titre, organisateurID, nil
}

// MarkPastConcerts flips published concerts whose date has passed to
// PAST. Run periodically from main.
func (s *Store) MarkPastConcerts(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE concerts
		SET status = 'PAST', updated_at = CURRENT_TIMESTAMP
		WHERE status = 'PUBLISHED' AND date < $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("mark past concerts: %w", err)
	}
	return result.RowsAffected()
}
