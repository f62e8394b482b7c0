// Package models defines the domain types shared across the academy
// console, fragment server, and store.
package models

import "time"

// Role is the platform role assigned to a user account.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// Roles lists all valid roles in display order.
var Roles = []Role{RoleAdmin, RoleInstructor, RoleStudent}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return true
	}
	return false
}

// Label returns the human-readable form of the role.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleInstructor:
		return "Instructor"
	case RoleStudent:
		return "Student"
	default:
		return string(r)
	}
}

// User is a platform account as managed from the admin console.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Config is the on-disk configuration for the academy console.
type Config struct {
	ServerURL    string `json:"server_url,omitempty"`
	Token        string `json:"token,omitempty"`
	PollInterval string `json:"poll_interval,omitempty"`
}
