package entity

import (
	"time"
)

// User is the aggregate root for the identity domain.
// Passwords are stored as bcrypt hashes in Password field.
// Roles are loaded together with the user; they are needed for session claims.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Password  string
	Roles     []Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoleNames returns the names of the user's roles in load order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, string(r.Name))
	}
	return names
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(name RoleName) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
