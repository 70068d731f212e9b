package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"groupelive/shared/models"
)

// Constant-time fallback so login timing does not reveal whether the
// email exists.
var dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")

// CreateUser registers an account and its role-specific profile row
// in one transaction. Organisateurs start on the FREE plan.
func (s *Store) CreateUser(ctx context.Context, email, password string, role models.Role, nom string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, validationErrorf("email and password are required")
	}
	if role != models.RoleGroupe && role != models.RoleOrganisateur {
		return nil, validationErrorf("invalid role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
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

	u := &models.User{Email: email, Role: role}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, email, hash, role).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	switch role {
	case models.RoleOrganisateur:
		var organisateurID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO organisateurs (user_id, nom)
			VALUES ($1, $2)
			RETURNING id
		`, u.ID, nom).Scan(&organisateurID)
		if err != nil {
			return nil, fmt.Errorf("insert organisateur: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subscriptions (organisateur_id, plan)
			VALUES ($1, 'FREE')
		`, organisateurID); err != nil {
			return nil, fmt.Errorf("insert subscription: %w", err)
		}
	case models.RoleGroupe:
		slug := slugify(nom)
		if slug == "" {
			slug = fmt.Sprintf("groupe-%d", u.ID)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO groupes (user_id, slug, nom, visible)
			VALUES ($1, $2, $3, TRUE)
		`, u.ID, slug, nom); err != nil {
			if isUniqueViolation(err) {
				return nil, ErrGroupeNameTaken
			}
			return nil, fmt.Errorf("insert groupe: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return u, nil
}

// AuthenticateUser validates credentials and returns the account.
func (s *Store) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)

	u := &models.User{}
	var hash []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &hash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// OrganisateurIDByUserID resolves the profile row behind an
// organizer account.
func (s *Store) OrganisateurIDByUserID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM organisateurs WHERE user_id = $1
	`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUnauthorized
	}
	if err != nil {
		return 0, fmt.Errorf("lookup organisateur: %w", err)
	}
	return id, nil
}
