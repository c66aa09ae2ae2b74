package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/parkingtime-identity/internal/domain/entity"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate")
)

// UserRepository defines the interface for user-related database operations.
// Returned users always carry their roles.
type UserRepository interface {
	// Create inserts the user together with its role links and fills ID and timestamps.
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByEmailForUpdate locks the user row until the surrounding transaction ends.
	GetByEmailForUpdate(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByName(ctx context.Context, firstName, lastName string) (bool, error)
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) error
}

// RoleRepository reads the fixed role catalog.
type RoleRepository interface {
	GetByName(ctx context.Context, name entity.RoleName) (*entity.Role, error)
	// EnsureRoles inserts the missing names; existing roles are left untouched.
	EnsureRoles(ctx context.Context, names []entity.RoleName) error
}
