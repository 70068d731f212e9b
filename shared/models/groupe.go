package models

import "time"

// Groupe is a band/artist profile seeking bookings.
type Groupe struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Slug        string    `json:"slug"`
	Nom         string    `json:"nom"`
	Description string    `json:"description,omitempty"`
	Ville       string    `json:"ville,omitempty"`
	Visible     bool      `json:"visible"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Populated via JOIN queries.
	Genres []string `json:"genres,omitempty"`
}

// GroupeWithStats includes review aggregates for search results.
type GroupeWithStats struct {
	Groupe
	NoteMoyenne float64 `json:"note_moyenne"`
	NbAvis      int     `json:"nb_avis"`
}

// GroupeFilter narrows marketplace searches.
type GroupeFilter struct {
	Query string
	Genre string
	Ville string
}
