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

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Soirée d'été", "soiree-d-ete"},
		{"  Concert Privé!  ", "concert-prive"},
		{"Fête à Noël", "fete-a-noel"},
		{"---", ""},
	}

	for _, tc := range tests {
		if got := slugify(tc.in); got != tc.want {
			t.Fatalf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func expectPlanLookup(mock sqlmock.Sqlmock, organisateurID int64, plan string) {
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COALESCE(
			(SELECT plan FROM subscriptions WHERE organisateur_id = $1), 'FREE'
		)
	`)).
		WithArgs(organisateurID).
		WillReturnRows(sqlmock.NewRows([]string{"plan"}).AddRow(plan))
}

func expectYearlyCount(mock sqlmock.Sqlmock, organisateurID int64, count int) {
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COUNT(*)
		FROM concerts
		WHERE organisateur_id = $1
		  AND date_part('year', created_at) = date_part('year', CURRENT_TIMESTAMP)
	`)).
		WithArgs(organisateurID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(count))
}

func TestCreateConcertQuotaExceeded(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	expectPlanLookup(mock, 7, "FREE")
	expectYearlyCount(mock, 7, 3)

	_, err = s.CreateConcert(context.Background(), 7, &models.Concert{
		Titre: "Soirée privée",
		Date:  time.Now().Add(72 * time.Hour),
	})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateConcertPremiumSkipsQuota(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()
	date := now.Add(72 * time.Hour)

	expectPlanLookup(mock, 7, "PREMIUM")
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT EXISTS (SELECT 1 FROM concerts WHERE slug = $1)
	`)).
		WithArgs("soiree-privee").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO concerts (slug, organisateur_id, groupe_id, titre, date,
		                      adresse, ville, code_postal, status, max_invites)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`)).
		WithArgs("soiree-privee", int64(7), nil, "Soirée privée", date,
			"", "", "", "DRAFT", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(12), now, now))

	c, err := s.CreateConcert(context.Background(), 7, &models.Concert{
		Titre: "Soirée privée",
		Date:  date,
	})
	if err != nil {
		t.Fatalf("CreateConcert: %v", err)
	}

	if c.Slug != "soiree-privee" {
		t.Fatalf("expected slug soiree-privee, got %q", c.Slug)
	}
	if c.Status != models.ConcertDraft {
		t.Fatalf("expected default DRAFT status, got %s", c.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateConcertSlugCollision(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()
	date := now.Add(72 * time.Hour)

	expectPlanLookup(mock, 7, "FREE")
	expectYearlyCount(mock, 7, 1)
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT EXISTS (SELECT 1 FROM concerts WHERE slug = $1)
	`)).
		WithArgs("anniversaire").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT EXISTS (SELECT 1 FROM concerts WHERE slug = $1)
	`)).
		WithArgs("anniversaire-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO concerts (slug, organisateur_id, groupe_id, titre, date,
		                      adresse, ville, code_postal, status, max_invites)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`)).
		WithArgs("anniversaire-2", int64(7), nil, "Anniversaire", date,
			"", "", "", "DRAFT", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(13), now, now))

	c, err := s.CreateConcert(context.Background(), 7, &models.Concert{
		Titre: "Anniversaire",
		Date:  date,
	})
	if err != nil {
		t.Fatalf("CreateConcert: %v", err)
	}

	if c.Slug != "anniversaire-2" {
		t.Fatalf("expected slug anniversaire-2, got %q", c.Slug)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConcertBySlugHidesDrafts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, slug, organisateur_id, groupe_id, titre, date,
		       adresse, ville, code_postal, status, max_invites, created_at, updated_at
		FROM concerts
		WHERE slug = $1 AND status IN ('PUBLISHED', 'PAST')
	`)).
		WithArgs("brouillon").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = s.ConcertBySlug(context.Background(), "brouillon")
	if !errors.Is(err, ErrConcertNotFound) {
		t.Fatalf("expected ErrConcertNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConcertByIDWrongOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, slug, organisateur_id, groupe_id, titre, date,
		       adresse, ville, code_postal, status, max_invites, created_at, updated_at
		FROM concerts
		WHERE id = $1
	`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "slug", "organisateur_id", "groupe_id", "titre", "date",
			"adresse", "ville", "code_postal", "status", "max_invites",
			"created_at", "updated_at",
		}).AddRow(int64(5), "soiree", int64(7), nil, "Soirée", now,
			"", "", "", "PUBLISHED", nil, now, now))

	_, err = s.ConcertByID(context.Background(), 99, 5)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListConcertsByOrganisateurComputesRemaining(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT c.id, c.slug, c.organisateur_id, c.groupe_id, c.titre, c.date,
		       c.adresse, c.ville, c.code_postal, c.status, c.max_invites,
		       c.created_at, c.updated_at,
		       COALESCE(SUM(i.party_size) FILTER (WHERE i.status = 'CONFIRMED'), 0) AS confirmed_seats
		FROM concerts c
		LEFT JOIN inscriptions i ON i.concert_id = c.id
		WHERE c.organisateur_id = $1
		GROUP BY c.id
		ORDER BY c.date DESC
	`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "slug", "organisateur_id", "groupe_id", "titre", "date",
			"adresse", "ville", "code_postal", "status", "max_invites",
			"created_at", "updated_at", "confirmed_seats",
		}).AddRow(int64(5), "soiree", int64(7), nil, "Soirée", now,
			"", "", "", "PUBLISHED", 20, now, now, 14))

	concerts, err := s.ListConcertsByOrganisateur(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListConcertsByOrganisateur: %v", err)
	}

	if len(concerts) != 1 {
		t.Fatalf("expected 1 concert, got %d", len(concerts))
	}
	if concerts[0].ConfirmedSeats != 14 {
		t.Fatalf("expected 14 confirmed seats, got %d", concerts[0].ConfirmedSeats)
	}
	if concerts[0].Remaining == nil || *concerts[0].Remaining != 6 {
		t.Fatalf("expected 6 remaining seats, got %v", concerts[0].Remaining)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkPastConcerts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE concerts
		SET status = 'PAST', updated_at = CURRENT_TIMESTAMP
		WHERE status = 'PUBLISHED' AND date < $1
	`)).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := s.MarkPastConcerts(context.Background(), now)
	if err != nil {
		t.Fatalf("MarkPastConcerts: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 concerts flipped, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
