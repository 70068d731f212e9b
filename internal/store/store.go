package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUserExists signals the email is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized indicates an invalid or missing session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrConcertNotFound is returned when a concert is absent or
	// filtered out by its status.
	ErrConcertNotFound = errors.New("concert not found")
	// ErrConcertPast rejects guest edits once the concert happened.
	ErrConcertPast = errors.New("concert is in the past")
	// ErrConcertNotPast rejects organizer reviews before the event.
	ErrConcertNotPast = errors.New("concert has not taken place yet")
	// ErrQuotaExceeded is returned when a FREE-plan organizer hits the
	// yearly concert ceiling.
	ErrQuotaExceeded = errors.New("concert quota exceeded for the current year")

	// ErrInscriptionNotFound is returned when no inscription matches.
	ErrInscriptionNotFound = errors.New("inscription not found")
	// ErrDuplicateInscription signals an active inscription already
	// exists for this concert and email.
	ErrDuplicateInscription = errors.New("an active inscription already exists for this email")
	// ErrInvalidToken rejects a self-service request whose management
	// token does not match.
	ErrInvalidToken = errors.New("invalid management token")
	// ErrInscriptionCancelled rejects operations on a cancelled row.
	ErrInscriptionCancelled = errors.New("inscription is cancelled")

	// ErrDuplicateAvis signals a review already exists for this scope.
	ErrDuplicateAvis = errors.New("an avis already exists for this email")
	// ErrAvisNotFound is returned when no avis matches.
	ErrAvisNotFound = errors.New("avis not found")
	// ErrGroupeNotFound is returned when a groupe is absent or hidden.
	ErrGroupeNotFound = errors.New("groupe not found")
	// ErrGroupeNameTaken signals a signup collided on the groupe slug.
	ErrGroupeNameTaken = errors.New("groupe name already taken")
)

// ValidationError reports rejected caller input. The message is safe
// to relay to clients verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// CapacityError is returned when a write would push the confirmed
// headcount over the concert ceiling. Remaining is the number of
// seats still available, never negative.
type CapacityError struct {
	Remaining int
}

func (e *CapacityError) Error() string {
	if e.Remaining == 1 {
		return "only 1 place available"
	}
	return fmt.Sprintf("only %d places available", e.Remaining)
}

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// newManagementToken returns a 64-char hex string from 32 random bytes.
func newManagementToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns a title into a URL-safe slug.
func slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	replacer := strings.NewReplacer(
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"à", "a", "â", "a", "ç", "c",
		"î", "i", "ï", "i", "ô", "o", "û", "u", "ù", "u",
	)
	s = replacer.Replace(s)
	s = slugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
