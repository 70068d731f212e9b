package models

import "time"

// Contact is a lightweight CRM row, one per (organisateur, email).
type Contact struct {
	ID                 int64     `json:"id"`
	OrganisateurID     int64     `json:"organisateur_id"`
	Email              string    `json:"email"`
	Nom                string    `json:"nom"`
	Telephone          *string   `json:"telephone,omitempty"`
	ParticipationCount int       `json:"participation_count"`
	LastConcertID      *int64    `json:"last_concert_id,omitempty"`
	Tags               []string  `json:"tags,omitempty"`
	SourceType         string    `json:"source_type"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
