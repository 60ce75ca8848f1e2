package auth

import "time"

// Roles understood by the platform. Every user carries exactly one.
const (
	RoleAdmin   = "admin"
	RoleClient  = "client"
	RolePartner = "partner"
)

// ValidRole reports whether the value is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleClient, RolePartner:
		return true
	}
	return false
}

// User is an account record. Users are never hard-deleted; deactivation
// happens through the Active flag, which the authentication middleware
// re-checks on every request.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
