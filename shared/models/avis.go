package models

import "time"

// AuthorType tells who left an avis.
type AuthorType string

const (
	AuthorGuest     AuthorType = "GUEST"
	AuthorOrganizer AuthorType = "ORGANIZER"
)

// Avis is a review left for a groupe, optionally tied to a concert.
// Uniqueness is per (concert, author email) when concert-scoped,
// otherwise per (groupe, author email).
type Avis struct {
	ID          int64      `json:"id"`
	GroupeID    int64      `json:"groupe_id"`
	ConcertID   *int64     `json:"concert_id,omitempty"`
	AuthorType  AuthorType `json:"author_type"`
	AuthorEmail string     `json:"author_email"`
	Note        int        `json:"note"` // 1..5
	Commentaire string     `json:"commentaire,omitempty"`
	Visible     bool       `json:"visible"`
	CreatedAt   time.Time  `json:"created_at"`
}
