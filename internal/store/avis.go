package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"groupelive/shared/models"
)

func validateAvis(a *models.Avis) error {
	if a.AuthorEmail == "" {
		return validationErrorf("author_email is required")
	}
	if a.Note < 1 || a.Note > 5 {
		return validationErrorf("note must be between 1 and 5")
	}
	return nil
}

// CreateAvis persists a guest review. Concert-scoped uniqueness takes
// precedence: when ConcertID is set, at most one avis per
// (concert, author email); otherwise one per (groupe, author email).
func (s *Store) CreateAvis(ctx context.Context, a *models.Avis) (*models.Avis, error) {
	if err := validateAvis(a); err != nil {
		return nil, err
	}
	a.AuthorEmail = normalizeEmail(a.AuthorEmail)

	var exists bool
	if a.ConcertID != nil {
		var status models.ConcertStatus
		var groupeID sql.NullInt64
		err := s.db.QueryRowContext(ctx, `
			SELECT status, groupe_id
			FROM concerts
			WHERE id = $1
		`, *a.ConcertID).Scan(&status, &groupeID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConcertNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("lookup concert: %w", err)
		}
		if status == models.ConcertDraft || status == models.ConcertCancelled {
			return nil, ErrConcertNotFound
		}
		if groupeID.Valid {
			a.GroupeID = groupeID.Int64
		}
		// A concert without a booked groupe has nothing to review.
		if a.GroupeID == 0 {
			return nil, ErrGroupeNotFound
		}

		if err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM avis
				WHERE concert_id = $1 AND LOWER(author_email) = $2
			)
		`, *a.ConcertID, a.AuthorEmail).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check duplicate avis: %w", err)
		}
	} else {
		if err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM avis
				WHERE groupe_id = $1 AND concert_id IS NULL AND LOWER(author_email) = $2
			)
		`, a.GroupeID, a.AuthorEmail).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check duplicate avis: %w", err)
		}
	}
	if exists {
		return nil, ErrDuplicateAvis
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO avis (groupe_id, concert_id, author_type, author_email,
		                  note, commentaire, visible)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id, visible, created_at
	`, a.GroupeID, a.ConcertID, a.AuthorType, a.AuthorEmail, a.Note, a.Commentaire,
	).Scan(&a.ID, &a.Visible, &a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateAvis
		}
		return nil, fmt.Errorf("insert avis: %w", err)
	}

	return a, nil
}

// CreateOrganizerAvis is the organizer-submitted path. The concert
// must belong to the submitting organizer and already be PAST;
// reviews of a performance cannot precede the performance.
func (s *Store) CreateOrganizerAvis(ctx context.Context, organisateurID int64, a *models.Avis) (*models.Avis, error) {
	if a.ConcertID == nil {
		return nil, validationErrorf("concert_id is required")
	}
	if err := validateAvis(a); err != nil {
		return nil, err
	}

	var ownerID int64
	var status models.ConcertStatus
	var groupeID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT organisateur_id, status, groupe_id
		FROM concerts
		WHERE id = $1
	`, *a.ConcertID).Scan(&ownerID, &status, &groupeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConcertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup concert: %w", err)
	}
	if ownerID != organisateurID {
		return nil, ErrForbidden
	}
	if status != models.ConcertPast {
		return nil, ErrConcertNotPast
	}
	if groupeID.Valid {
		a.GroupeID = groupeID.Int64
	}
	if a.GroupeID == 0 {
		return nil, ErrGroupeNotFound
	}

	a.AuthorType = models.AuthorOrganizer
	return s.CreateAvis(ctx, a)
}

// ListAvisByGroupe returns the visible avis of a groupe, newest first.
func (s *Store) ListAvisByGroupe(ctx context.Context, groupeID int64) ([]*models.Avis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, groupe_id, concert_id, author_type, author_email,
		       note, commentaire, visible, created_at
		FROM avis
		WHERE groupe_id = $1 AND visible = TRUE
		ORDER BY created_at DESC
	`, groupeID)
	if err != nil {
		return nil, fmt.Errorf("select avis: %w", err)
	}
	defer rows.Close()

	var out []*models.Avis
	for rows.Next() {
		a := &models.Avis{}
		if err := rows.Scan(
			&a.ID, &a.GroupeID, &a.ConcertID, &a.AuthorType, &a.AuthorEmail,
			&a.Note, &a.Commentaire, &a.Visible, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan avis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetAvisVisibility is the admin moderation toggle.
func (s *Store) SetAvisVisibility(ctx context.Context, id int64, visible bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE avis SET visible = $1 WHERE id = $2
	`, visible, id)
	if err != nil {
		return fmt.Errorf("update avis visibility: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAvisNotFound
	}
	return nil
}
