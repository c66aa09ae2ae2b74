package repository

import "context"

// Store vends the repositories bound to one database handle.
type Store interface {
	Users() UserRepository
	Roles() RoleRepository
	ResetTokens() ResetTokenRepository
	ResetHistory() ResetHistoryRepository
	Verifications() EmailVerificationRepository
}

// UnitOfWork is a Store that can also run a function atomically.
// fn receives a Store bound to the transaction; returning an error rolls it back.
type UnitOfWork interface {
	Store
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// UserIndex is the search projection of users.
type UserIndex interface {
	Index(ctx context.Context, doc UserDocument) error
	Search(ctx context.Context, q string, size int) ([]map[string]any, error)
}

type UserDocument struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstname"`
	LastName  string   `json:"lastname"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"created_at"`
}
