package models

import "time"

// ConcertStatus tracks a concert through its lifecycle.
type ConcertStatus string

const (
	ConcertDraft     ConcertStatus = "DRAFT"
	ConcertPublished ConcertStatus = "PUBLISHED"
	ConcertPast      ConcertStatus = "PAST"
	ConcertCancelled ConcertStatus = "CANCELLED"
)

// Concert is a private event hosted by an organisateur, optionally
// displaying the booked groupe.
type Concert struct {
	ID             int64         `json:"id"`
	Slug           string        `json:"slug"`
	OrganisateurID int64         `json:"organisateur_id"`
	GroupeID       *int64        `json:"groupe_id,omitempty"`
	Titre          string        `json:"titre"`
	Date           time.Time     `json:"date"`
	Adresse        string        `json:"adresse,omitempty"`
	Ville          string        `json:"ville,omitempty"`
	CodePostal     string        `json:"code_postal,omitempty"`
	Status         ConcertStatus `json:"status"`
	MaxInvites     *int          `json:"max_invites,omitempty"` // nil means unlimited
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ConcertWithStats includes the seat accounting shown on the
// organizer dashboard.
type ConcertWithStats struct {
	Concert
	ConfirmedSeats int  `json:"confirmed_seats"`
	Remaining      *int `json:"remaining,omitempty"` // nil when no ceiling
}
