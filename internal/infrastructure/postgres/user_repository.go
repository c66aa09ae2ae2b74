package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/parkingtime-identity/internal/domain/entity"
	"github.com/oksasatya/parkingtime-identity/internal/domain/repository"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.FirstName, u.LastName, u.Email, u.Password, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return mapError(err)
	}

	for _, role := range u.Roles {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		`, u.ID, role.ID); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetByEmailForUpdate(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 FOR UPDATE`, email)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) ExistsByName(ctx context.Context, firstName, lastName string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE first_name = $1 AND last_name = $2)
	`, firstName, lastName).Scan(&exists)
	return exists, err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, id, hash, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	u := &entity.User{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	if u.Roles, err = r.rolesOf(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) rolesOf(ctx context.Context, userID string) ([]entity.Role, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.name, r.created_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []entity.Role
	for rows.Next() {
		var (
			role entity.Role
			name string
		)
		if err := rows.Scan(&role.ID, &name, &role.CreatedAt); err != nil {
			return nil, err
		}
		role.Name = entity.RoleName(name)
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

type RoleRepository struct {
	db DBTX
}

func (r *RoleRepository) GetByName(ctx context.Context, name entity.RoleName) (*entity.Role, error) {
	var (
		role entity.Role
		n    string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, name, created_at FROM roles WHERE name = $1
	`, string(name)).Scan(&role.ID, &n, &role.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	role.Name = entity.RoleName(n)
	return &role, nil
}

func (r *RoleRepository) EnsureRoles(ctx context.Context, names []entity.RoleName) error {
	for _, name := range names {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO roles (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING
		`, uuid.NewString(), string(name)); err != nil {
			return err
		}
	}
	return nil
}
