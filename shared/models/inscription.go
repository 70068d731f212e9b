package models

import "time"

// InscriptionStatus tracks a guest registration.
type InscriptionStatus string

const (
	InscriptionConfirmed  InscriptionStatus = "CONFIRMED"
	InscriptionWaitlisted InscriptionStatus = "WAITLISTED"
	InscriptionCancelled  InscriptionStatus = "CANCELLED"
)

// Inscription is a guest's RSVP for a concert. At most one
// non-cancelled inscription exists per (concert, email).
type Inscription struct {
	ID              int64             `json:"id"`
	ConcertID       int64             `json:"concert_id"`
	Nom             string            `json:"nom"`
	Prenom          string            `json:"prenom,omitempty"`
	Email           string            `json:"email"`
	Telephone       string            `json:"telephone,omitempty"`
	PartySize       int               `json:"party_size"`
	Status          InscriptionStatus `json:"status"`
	ManagementToken *string           `json:"-"`
	ShowInGuestList bool              `json:"show_in_guest_list"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// InscriptionPatch carries the fields a guest or organizer may edit.
// Nil pointers leave the stored value untouched.
type InscriptionPatch struct {
	Nom             *string            `json:"nom,omitempty"`
	Prenom          *string            `json:"prenom,omitempty"`
	Telephone       *string            `json:"telephone,omitempty"`
	PartySize       *int               `json:"party_size,omitempty"`
	ShowInGuestList *bool              `json:"show_in_guest_list,omitempty"`
	Status          *InscriptionStatus `json:"status,omitempty"` // organizer only
}
