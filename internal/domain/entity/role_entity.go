package entity

import (
	"strings"
	"time"
)

// RoleName is one of the fixed authorization roles.
type RoleName string

const (
	RoleUser      RoleName = "ROLE_USER"
	RoleModerator RoleName = "ROLE_MODERATOR"
	RoleAdmin     RoleName = "ROLE_ADMIN"
)

// AllRoles is the seeded role catalog.
var AllRoles = []RoleName{RoleUser, RoleModerator, RoleAdmin}

// Role represents an authorization role
// Many-to-many with User via user_roles
type Role struct {
	ID        string
	Name      RoleName
	CreatedAt time.Time
}

// RoleFromRequest maps a role token from a registration request onto the catalog.
// "admin" and "mod" are recognised; everything else falls back to ROLE_USER.
func RoleFromRequest(token string) RoleName {
	switch strings.TrimSpace(token) {
	case "admin":
		return RoleAdmin
	case "mod":
		return RoleModerator
	default:
		return RoleUser
	}
}
