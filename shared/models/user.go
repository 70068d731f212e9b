package models

import "time"

// Role distinguishes the account types sharing the platform.
type Role string

const (
	RoleGroupe       Role = "GROUPE"
	RoleOrganisateur Role = "ORGANISATEUR"
	RoleAdmin        Role = "ADMIN"
)

// Plan is the subscription level gating feature limits.
type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanPremium Plan = "PREMIUM"
)

// User is a platform account; it owns either a groupe or an
// organisateur profile depending on its role.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Organisateur is a private individual hosting concerts.
type Organisateur struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Nom       string    `json:"nom"`
	Prenom    string    `json:"prenom,omitempty"`
	Ville     string    `json:"ville,omitempty"`
	Telephone string    `json:"telephone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subscription records the current plan for an organisateur.
type Subscription struct {
	ID             int64      `json:"id"`
	OrganisateurID int64      `json:"organisateur_id"`
	Plan           Plan       `json:"plan"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
