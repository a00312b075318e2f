package directory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of portal roles.
type Role string

const (
	RolePatient   Role = "patient"
	RoleDoctor    Role = "doctor"
	RoleSecretary Role = "secretary"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a role string against the closed role set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient, RoleDoctor, RoleSecretary, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("invalid role: %s, must be one of: %s, %s, %s, %s",
			s, RolePatient, RoleDoctor, RoleSecretary, RoleAdmin)
	}
}

// User represents a portal account. The 2FA subsystem owns only the
// TwoFactorEnabled flag; everything else belongs to the profile CRUD
// outside this module.
type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name,omitempty"`
	Role             Role      `json:"role"`
	PasswordHash     []byte    `json:"-"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	CreatedAt        time.Time `json:"created_at"`
}
