// Package auth implements the session-cookie collaborator: HS256 JWTs
// carrying the account id and role, set as an HttpOnly cookie. The
// rest of the application only consumes the Identity it resolves.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"groupelive/shared/models"
)

// CookieName is the session cookie set on login.
const CookieName = "gl_session"

const sessionTTL = 7 * 24 * time.Hour

// ErrInvalidSession covers missing, expired, or tampered cookies.
var ErrInvalidSession = errors.New("invalid session")

// Identity is the authenticated caller resolved from a session.
type Identity struct {
	UserID int64
	Role   models.Role
}

// Sessions issues and verifies session tokens.
type Sessions struct {
	secret []byte
}

// NewSessions builds a session manager around the signing secret.
func NewSessions(secret string) (*Sessions, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	return &Sessions{secret: []byte(secret)}, nil
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a session token for the user.
func (s *Sessions) Issue(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	})
	return token.SignedString(s.secret)
}

// Verify parses a session token back into an Identity.
func (s *Sessions) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	c, ok := token.Claims.(*claims)
	if !ok {
		return nil, ErrInvalidSession
	}
	var userID int64
	if _, err := fmt.Sscanf(c.Subject, "%d", &userID); err != nil || userID <= 0 {
		return nil, ErrInvalidSession
	}

	return &Identity{UserID: userID, Role: models.Role(c.Role)}, nil
}

// SetCookie attaches the session cookie to a response.
func SetCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// FromRequest resolves the caller's identity from the session cookie.
func (s *Sessions) FromRequest(r *http.Request) (*Identity, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ErrInvalidSession
	}
	return s.Verify(cookie.Value)
}
