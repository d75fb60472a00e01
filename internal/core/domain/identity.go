package domain

import "time"

const (
	RoleManager    = "manager"
	RoleCommercial = "commercial"
)

const (
	StatusOnline    = "online"
	StatusOffline   = "offline"
	StatusVisiting  = "visiting"
	StatusTraveling = "traveling"
)

// Identity is a tracked representative. The location core only references it by ID.
type Identity struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary returns the display metadata joined onto query results.
func (i *Identity) Summary() IdentitySummary {
	return IdentitySummary{ID: i.ID, Name: i.Name, Role: i.Role, Status: i.Status}
}

// IdentitySummary is the display subset of an Identity.
type IdentitySummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// IsPrivileged reports whether role may read or write other identities' positions.
func IsPrivileged(role string) bool {
	return role == RoleManager
}
