package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"groupelive/shared/models"
)

const maxPartySize = 10

func validateInscription(nom, email string, partySize int) error {
	if nom == "" {
		return validationErrorf("nom is required")
	}
	if email == "" {
		return validationErrorf("email is required")
	}
	if partySize < 1 || partySize > maxPartySize {
		return validationErrorf("party_size must be between 1 and %d", maxPartySize)
	}
	return nil
}

// decideStatus applies the capacity rule: no ceiling means always
// confirmed, otherwise the request is confirmed only while it fits
// under the ceiling together with the already-confirmed seats.
func decideStatus(confirmed, partySize int, maxInvites *int) models.InscriptionStatus {
	if maxInvites == nil {
		return models.InscriptionConfirmed
	}
	if confirmed+partySize <= *maxInvites {
		return models.InscriptionConfirmed
	}
	return models.InscriptionWaitlisted
}

// remainingSeats clamps the free-seat count at zero for error messages.
func remainingSeats(confirmed, maxInvites int) int {
	if remaining := maxInvites - confirmed; remaining > 0 {
		return remaining
	}
	return 0
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// confirmedSeats sums party_size over CONFIRMED inscriptions of a
// concert, excluding excludeID (pass 0 to exclude nothing) so an edit
// is measured against the other registrations only.
func confirmedSeats(ctx context.Context, q querier, concertID, excludeID int64) (int, error) {
	var total int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(party_size), 0)
		FROM inscriptions
		WHERE concert_id = $1 AND status = 'CONFIRMED' AND id <> $2
	`, concertID, excludeID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count confirmed seats: %w", err)
	}
	return total, nil
}

// concertGate holds the concert columns the registration workflow
// needs while the row is locked.
type concertGate struct {
	ID             int64
	OrganisateurID int64
	Status         models.ConcertStatus
	Date           time.Time
	MaxInvites     *int
}

// lockConcert takes a row lock on the concert so concurrent
// registrations cannot race the capacity check.
func lockConcert(ctx context.Context, tx *sql.Tx, concertID int64) (*concertGate, error) {
	var g concertGate
	err := tx.QueryRowContext(ctx, `
		SELECT id, organisateur_id, status, date, max_invites
		FROM concerts
		WHERE id = $1
		FOR UPDATE
	`, concertID).Scan(&g.ID, &g.OrganisateurID, &g.Status, &g.Date, &g.MaxInvites)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConcertNotFound
		}
		return nil, fmt.Errorf("lock concert: %w", err)
	}
	return &g, nil
}

// CreateInscription registers a guest for a published concert. The
// status comes out CONFIRMED or WAITLISTED depending on the remaining
// capacity. Self-registered rows get their management token lazily on
// first lookup.
func (s *Store) CreateInscription(ctx context.Context, in *models.Inscription) (*models.Inscription, error) {
	return s.createInscription(ctx, in, false, 0)
}

// AdminCreateInscription lets the owning organizer add a guest by
// hand. The management token is generated immediately so the
// organizer can share the self-service link.
func (s *Store) AdminCreateInscription(ctx context.Context, organisateurID int64, in *models.Inscription) (*models.Inscription, error) {
	return s.createInscription(ctx, in, true, organisateurID)
}

func (s *Store) createInscription(ctx context.Context, in *models.Inscription, byOrganizer bool, organisateurID int64) (*models.Inscription, error) {
	if err := validateInscription(in.Nom, in.Email, in.PartySize); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	gate, err := lockConcert(ctx, tx, in.ConcertID)
	if err != nil {
		return nil, err
	}
	if byOrganizer {
		if gate.OrganisateurID != organisateurID {
			return nil, ErrForbidden
		}
		if gate.Status == models.ConcertCancelled {
			return nil, ErrConcertNotFound
		}
	} else if gate.Status != models.ConcertPublished {
		return nil, ErrConcertNotFound
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM inscriptions
			WHERE concert_id = $1 AND LOWER(email) = $2 AND status <> 'CANCELLED'
		)
	`, in.ConcertID, normalizeEmail(in.Email)).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check duplicate inscription: %w", err)
	}
	if exists {
		return nil, ErrDuplicateInscription
	}

	confirmed, err := confirmedSeats(ctx, tx, in.ConcertID, 0)
	if err != nil {
		return nil, err
	}
	in.Status = decideStatus(confirmed, in.PartySize, gate.MaxInvites)

	in.ManagementToken = nil
	if byOrganizer {
		token, err := newManagementToken()
		if err != nil {
			return nil, fmt.Errorf("generate management token: %w", err)
		}
		in.ManagementToken = &token
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO inscriptions (concert_id, nom, prenom, email, telephone,
		                          party_size, status, management_token, show_in_guest_list)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, in.ConcertID, in.Nom, in.Prenom, normalizeEmail(in.Email), in.Telephone,
		in.PartySize, in.Status, in.ManagementToken, in.ShowInGuestList,
	).Scan(&in.ID, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateInscription
		}
		return nil, fmt.Errorf("insert inscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	in.Email = normalizeEmail(in.Email)
	return in, nil
}

// InscriptionByToken returns the inscription only when the supplied
// management token matches exactly. Rows without a token are never
// reachable through this path.
func (s *Store) InscriptionByToken(ctx context.Context, id int64, token string) (*models.Inscription, error) {
	in, err := s.inscriptionByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if token == "" || in.ManagementToken == nil || *in.ManagementToken != token {
		return nil, ErrInvalidToken
	}
	return in, nil
}

// UpdateInscriptionByToken applies a guest's self-service edit. A
// party-size change on a confirmed row is re-checked against the
// ceiling, excluding the row itself, and rejected with the exact
// remaining-seat count when it no longer fits.
func (s *Store) UpdateInscriptionByToken(ctx context.Context, id int64, token string, patch models.InscriptionPatch) (*models.Inscription, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	in, err := s.inscriptionByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if token == "" || in.ManagementToken == nil || *in.ManagementToken != token {
		return nil, ErrInvalidToken
	}

	gate, err := lockConcert(ctx, tx, in.ConcertID)
	if err != nil {
		return nil, err
	}
	if gate.Date.Before(time.Now()) {
		return nil, ErrConcertPast
	}
	if in.Status == models.InscriptionCancelled {
		return nil, ErrInscriptionCancelled
	}

	if patch.PartySize != nil {
		if *patch.PartySize < 1 || *patch.PartySize > maxPartySize {
			return nil, validationErrorf("party_size must be between 1 and %d", maxPartySize)
		}
		if in.Status == models.InscriptionConfirmed && gate.MaxInvites != nil && *patch.PartySize != in.PartySize {
			confirmed, err := confirmedSeats(ctx, tx, in.ConcertID, in.ID)
			if err != nil {
				return nil, err
			}
			if confirmed+*patch.PartySize > *gate.MaxInvites {
				return nil, &CapacityError{Remaining: remainingSeats(confirmed, *gate.MaxInvites)}
			}
		}
		in.PartySize = *patch.PartySize
	}
	applyInscriptionPatch(in, patch)

	err = tx.QueryRowContext(ctx, `
		UPDATE inscriptions
		SET nom = $1, prenom = $2, telephone = $3, party_size = $4,
		    show_in_guest_list = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $6
		RETURNING updated_at
	`, in.Nom, in.Prenom, in.Telephone, in.PartySize, in.ShowInGuestList, in.ID).Scan(&in.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update inscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return in, nil
}

// CancelInscriptionByToken soft-cancels a guest's own inscription.
// Waitlisted rows are deliberately not promoted when a slot frees up;
// the organizer handles promotion by hand.
func (s *Store) CancelInscriptionByToken(ctx context.Context, id int64, token string) (*models.Inscription, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	in, err := s.inscriptionByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if token == "" || in.ManagementToken == nil || *in.ManagementToken != token {
		return nil, ErrInvalidToken
	}

	gate, err := lockConcert(ctx, tx, in.ConcertID)
	if err != nil {
		return nil, err
	}
	if gate.Date.Before(time.Now()) {
		return nil, ErrConcertPast
	}
	if in.Status == models.InscriptionCancelled {
		return nil, ErrInscriptionCancelled
	}

	wasConfirmed := in.Status == models.InscriptionConfirmed
	in.Status = models.InscriptionCancelled

	err = tx.QueryRowContext(ctx, `
		UPDATE inscriptions
		SET status = 'CANCELLED', updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at
	`, in.ID).Scan(&in.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("cancel inscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	if wasConfirmed && gate.MaxInvites != nil {
		// No automatic waitlist promotion; surface the freed seats so
		// the organizer can promote someone from the dashboard.
		log.Info().
			Int64("concert_id", in.ConcertID).
			Int("freed_seats", in.PartySize).
			Msg("confirmed inscription cancelled, waitlist not auto-promoted")
	}

	return in, nil
}

// LookupInscription finds the active inscription for an email/concert
// pair and returns it with its management token, generating and
// persisting the token on first use. A cancelled match is reported as
// such rather than silently treated as absent.
func (s *Store) LookupInscription(ctx context.Context, email string, concertID int64) (*models.Inscription, error) {
	email = normalizeEmail(email)

	in := &models.Inscription{}
	var token sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, concert_id, nom, prenom, email, telephone, party_size,
		       status, management_token, show_in_guest_list, created_at, updated_at
		FROM inscriptions
		WHERE concert_id = $1 AND LOWER(email) = $2 AND status <> 'CANCELLED'
	`, concertID, email).Scan(
		&in.ID, &in.ConcertID, &in.Nom, &in.Prenom, &in.Email, &in.Telephone,
		&in.PartySize, &in.Status, &token, &in.ShowInGuestList, &in.CreatedAt, &in.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		var cancelled bool
		if err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM inscriptions
				WHERE concert_id = $1 AND LOWER(email) = $2 AND status = 'CANCELLED'
			)
		`, concertID, email).Scan(&cancelled); err != nil {
			return nil, fmt.Errorf("check cancelled inscription: %w", err)
		}
		if cancelled {
			return nil, ErrInscriptionCancelled
		}
		return nil, ErrInscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup inscription: %w", err)
	}

	if token.Valid {
		in.ManagementToken = &token.String
		return in, nil
	}

	fresh, err := newManagementToken()
	if err != nil {
		return nil, fmt.Errorf("generate management token: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE inscriptions
		SET management_token = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`, fresh, in.ID); err != nil {
		return nil, fmt.Errorf("persist management token: %w", err)
	}
	in.ManagementToken = &fresh
	return in, nil
}

// ListInscriptions returns every inscription of a concert owned by
// the organizer, newest first.
func (s *Store) ListInscriptions(ctx context.Context, organisateurID, concertID int64) ([]*models.Inscription, error) {
	if err := s.requireConcertOwner(ctx, concertID, organisateurID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, concert_id, nom, prenom, email, telephone, party_size,
		       status, management_token, show_in_guest_list, created_at, updated_at
		FROM inscriptions
		WHERE concert_id = $1
		ORDER BY created_at DESC
	`, concertID)
	if err != nil {
		return nil, fmt.Errorf("select inscriptions: %w", err)
	}
	defer rows.Close()

	var out []*models.Inscription
	for rows.Next() {
		in := &models.Inscription{}
		var token sql.NullString
		if err := rows.Scan(
			&in.ID, &in.ConcertID, &in.Nom, &in.Prenom, &in.Email, &in.Telephone,
			&in.PartySize, &in.Status, &token, &in.ShowInGuestList, &in.CreatedAt, &in.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan inscription: %w", err)
		}
		if token.Valid {
			in.ManagementToken = &token.String
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// AdminUpdateInscription is the organizer override path. It bypasses
// the management token and the capacity gate, so it is also how a
// waitlisted guest gets promoted by hand.
func (s *Store) AdminUpdateInscription(ctx context.Context, organisateurID, concertID, id int64, patch models.InscriptionPatch) (*models.Inscription, error) {
	in, err := s.inscriptionOwnedBy(ctx, id, concertID, organisateurID)
	if err != nil {
		return nil, err
	}

	if patch.PartySize != nil {
		if *patch.PartySize < 1 || *patch.PartySize > maxPartySize {
			return nil, validationErrorf("party_size must be between 1 and %d", maxPartySize)
		}
		in.PartySize = *patch.PartySize
	}
	applyInscriptionPatch(in, patch)
	if patch.Status != nil {
		switch *patch.Status {
		case models.InscriptionConfirmed, models.InscriptionWaitlisted, models.InscriptionCancelled:
			in.Status = *patch.Status
		default:
			return nil, validationErrorf("invalid status %q", *patch.Status)
		}
	}

	err = s.db.QueryRowContext(ctx, `
		UPDATE inscriptions
		SET nom = $1, prenom = $2, telephone = $3, party_size = $4,
		    status = $5, show_in_guest_list = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $7
		RETURNING updated_at
	`, in.Nom, in.Prenom, in.Telephone, in.PartySize, in.Status, in.ShowInGuestList, in.ID).Scan(&in.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update inscription: %w", err)
	}

	return in, nil
}

// AdminDeleteInscription permanently removes an inscription from an
// owned concert.
func (s *Store) AdminDeleteInscription(ctx context.Context, organisateurID, concertID, id int64) error {
	if _, err := s.inscriptionOwnedBy(ctx, id, concertID, organisateurID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM inscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete inscription: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInscriptionNotFound
	}
	return nil
}

// ConfirmedSeats exposes the confirmed headcount of a concert for
// dashboard accounting.
func (s *Store) ConfirmedSeats(ctx context.Context, concertID int64) (int, error) {
	return confirmedSeats(ctx, s.db, concertID, 0)
}

func applyInscriptionPatch(in *models.Inscription, patch models.InscriptionPatch) {
	if patch.Nom != nil && *patch.Nom != "" {
		in.Nom = *patch.Nom
	}
	if patch.Prenom != nil {
		in.Prenom = *patch.Prenom
	}
	if patch.Telephone != nil {
		in.Telephone = *patch.Telephone
	}
	if patch.ShowInGuestList != nil {
		in.ShowInGuestList = *patch.ShowInGuestList
	}
}

func (s *Store) inscriptionByID(ctx context.Context, q querier, id int64) (*models.Inscription, error) {
	in := &models.Inscription{}
	var token sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT id, concert_id, nom, prenom, email, telephone, party_size,
		       status, management_token, show_in_guest_list, created_at, updated_at
		FROM inscriptions
		WHERE id = $1
	`, id).Scan(
		&in.ID, &in.ConcertID, &in.Nom, &in.Prenom, &in.Email, &in.Telephone,
		&in.PartySize, &in.Status, &token, &in.ShowInGuestList, &in.CreatedAt, &in.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select inscription: %w", err)
	}
	if token.Valid {
		in.ManagementToken = &token.String
	}
	return in, nil
}

func (s *Store) inscriptionOwnedBy(ctx context.Context, id, concertID, organisateurID int64) (*models.Inscription, error) {
	in, err := s.inscriptionByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if in.ConcertID != concertID {
		return nil, ErrInscriptionNotFound
	}
	if err := s.requireConcertOwner(ctx, in.ConcertID, organisateurID); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *Store) requireConcertOwner(ctx context.Context, concertID, organisateurID int64) error {
	var ownerID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT organisateur_id
		FROM concerts
		WHERE id = $1
	`, concertID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrConcertNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup concert owner: %w", err)
	}
	if ownerID != organisateurID {
		return ErrForbidden
	}
	return nil
}
