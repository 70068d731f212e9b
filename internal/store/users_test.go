package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"groupelive/shared/models"
)

func TestCreateUserOrganisateur(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`)).
		WithArgs("paul@example.fr", sqlmock.AnyArg(), "ORGANISATEUR").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(10), now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO organisateurs (user_id, nom)
		VALUES ($1, $2)
		RETURNING id
	`)).
		WithArgs(int64(10), "Paul").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO subscriptions (organisateur_id, plan)
		VALUES ($1, 'FREE')
	`)).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u, err := s.CreateUser(context.Background(), " Paul@Example.fr ", "secret", models.RoleOrganisateur, "Paul")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if u.ID != 10 || u.Email != "paul@example.fr" || u.Role != models.RoleOrganisateur {
		t.Fatalf("unexpected user: %#v", u)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`)).
		WithArgs("paul@example.fr", sqlmock.AnyArg(), "GROUPE").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err = s.CreateUser(context.Background(), "paul@example.fr", "secret", models.RoleGroupe, "Les Paulistes")
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUserInvalidRole(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	if _, err := s.CreateUser(context.Background(), "a@b.fr", "pw", models.RoleAdmin, "X"); err == nil {
		t.Fatalf("expected error for non-signup role")
	}
}

func TestAuthenticateUserWrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()

	hash, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`)).
		WithArgs("paul@example.fr").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "role", "created_at", "updated_at",
		}).AddRow(int64(10), "paul@example.fr", hash, "ORGANISATEUR", now, now))

	_, err = s.AuthenticateUser(context.Background(), "paul@example.fr", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuthenticateUserUnknownEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`)).
		WithArgs("nobody@example.fr").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = s.AuthenticateUser(context.Background(), "nobody@example.fr", "pw")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOrganisateurIDByUserIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id FROM organisateurs WHERE user_id = $1
	`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = s.OrganisateurIDByUserID(context.Background(), 99)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
