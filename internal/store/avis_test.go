package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"groupelive/shared/models"
)

func TestValidateAvis(t *testing.T) {
	tests := []struct {
		name    string
		avis    models.Avis
		wantErr bool
	}{
		{name: "valid", avis: models.Avis{AuthorEmail: "a@b.fr", Note: 4}},
		{name: "missing email", avis: models.Avis{Note: 4}, wantErr: true},
		{name: "note too low", avis: models.Avis{AuthorEmail: "a@b.fr", Note: 0}, wantErr: true},
		{name: "note too high", avis: models.Avis{AuthorEmail: "a@b.fr", Note: 6}, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := validateAvis(&tc.avis)
			if tc.wantErr {
				var valErr *ValidationError
				if !errors.As(err, &valErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("expected nil error but got %v", err)
			}
		})
	}
}

func TestCreateAvisForConcert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()
	concertID := int64(5)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT status, groupe_id
		FROM concerts
		WHERE id = $1
	`)).
		WithArgs(concertID).
		WillReturnRows(sqlmock.NewRows([]string{"status", "groupe_id"}).
			AddRow("PAST", int64(3)))
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT EXISTS (
			SELECT 1 FROM avis
			WHERE concert_id = $1 AND LOWER(author_email) = $2
		)
	`)).
		WithArgs(concertID, "marie@example.fr").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO avis (groupe_id, concert_id, author_type, author_email,
		                  note, commentaire, visible)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id, visible, created_at
	`)).
		WithArgs(int64(3), concertID, "GUEST", "marie@example.fr", 5, "Super soiree").
		WillReturnRows(sqlmock.NewRows([]string{"id", "visible", "created_at"}).
			AddRow(int64(1), true, now))

	a, err := s.CreateAvis(context.Background(), &models.Avis{
		ConcertID:   &concertID,
		AuthorType:  models.AuthorGuest,
		AuthorEmail: "Marie@Example.fr",
		Note:        5,
		Commentaire: "Super soiree",
	})
	if err != nil {
		t.Fatalf("CreateAvis: %v", err)
	}

	if a.GroupeID != 3 {
		t.Fatalf("expected groupe id resolved from the concert, got %d", a.GroupeID)
	}
	if !a.Visible {
		t.Fatalf("expected new avis to be visible")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateAvisConcertWithoutGroupe(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	concertID := int64(5)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT status, groupe_id
		FROM concerts
		WHERE id = $1
	`)).
		WithArgs(concertID).
		WillReturnRows(sqlmock.NewRows([]string{"status", "groupe_id"}).
			AddRow("PAST", nil))

	_, err = s.CreateAvis(context.Background(), &models.Avis{
		ConcertID:   &concertID,
		AuthorType:  models.AuthorGuest,
		AuthorEmail: "marie@example.fr",
		Note:        5,
	})
	if !errors.Is(err, ErrGroupeNotFound) {
		t.Fatalf("expected ErrGroupeNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateAvisDuplicatePerConcert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	concertID := int64(5)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT status, groupe_id
		FROM concerts
		WHERE id = $1
	`)).
		WithArgs(concertID).
		WillReturnRows(sqlmock.NewRows([]string{"status", "groupe_id"}).
			AddRow("PUBLISHED", int64(3)))
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT EXISTS (
			SELECT 1 FROM avis
			WHERE concert_id = $1 AND LOWER(author_email) = $2
		)
	`)).
		WithArgs(concertID, "marie@example.fr").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err = s.CreateAvis(context.Background(), &models.Avis{
		ConcertID:   &concertID,
		AuthorType:  models.AuthorGuest,
		AuthorEmail: "marie@example.fr",
		Note:        3,
	})
	if !errors.Is(err, ErrDuplicateAvis) {
		t.Fatalf("expected ErrDuplicateAvis, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateAvisDraftConcertHidden(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	concertID := int64(5)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT status, groupe_id
		FROM concerts
		WHERE id = $1
	`)).
		WithArgs(concertID).
		WillReturnRows(sqlmock.NewRows([]string{"status", "groupe_id"}).
			AddRow("DRAFT", int64(3)))

	_, err = s.CreateAvis(context.Background(), &models.Avis{
		ConcertID:   &concertID,
		AuthorType:  models.AuthorGuest,
		AuthorEmail: "marie@example.fr",
		Note:        3,
	})
	if !errors.Is(err, ErrConcertNotFound) {
		t.Fatalf("expected ErrConcertNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateOrganizerAvisBeforeConcert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	concertID := int64(5)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT organisateur_id, status, groupe_id
		FROM concerts
		WHERE id = $1
	`)).
		WithArgs(concertID).
		WillReturnRows(sqlmock.NewRows([]string{"organisateur_id", "status", "groupe_id"}).
			AddRow(int64(7), "PUBLISHED", int64(3)))

	_, err = s.CreateOrganizerAvis(context.Background(), 7, &models.Avis{
		ConcertID:   &concertID,
		AuthorEmail: "orga@example.fr",
		Note:        5,
	})
	if !errors.Is(err, ErrConcertNotPast) {
		t.Fatalf("expected ErrConcertNotPast, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateOrganizerAvisWrongOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	concertID := int64(5)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT organisateur_id, status, groupe_id
		FROM concerts
		WHERE id = $1
	`)).
		WithArgs(concertID).
		WillReturnRows(sqlmock.NewRows([]string{"organisateur_id", "status", "groupe_id"}).
			AddRow(int64(7), "PAST", int64(3)))

	_, err = s.CreateOrganizerAvis(context.Background(), 99, &models.Avis{
		ConcertID:   &concertID,
		AuthorEmail: "orga@example.fr",
		Note:        5,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListAvisByGroupe(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, groupe_id, concert_id, author_type, author_email,
		       note, commentaire, visible, created_at
		FROM avis
		WHERE groupe_id = $1 AND visible = TRUE
		ORDER BY created_at DESC
	`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "groupe_id", "concert_id", "author_type", "author_email",
			"note", "commentaire", "visible", "created_at",
		}).AddRow(int64(1), int64(3), int64(5), "GUEST", "marie@example.fr",
			5, "Super", true, now))

	avis, err := s.ListAvisByGroupe(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListAvisByGroupe: %v", err)
	}

	if len(avis) != 1 || avis[0].Note != 5 {
		t.Fatalf("unexpected avis: %#v", avis)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
