package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/parkingtime-identity/internal/domain/repository"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is a DBTX that can open transactions.
type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store vends repositories bound either to the pool or to one transaction.
type Store struct {
	db   DBTX
	pool Pool
}

func NewStore(pool Pool) *Store {
	return &Store{db: pool, pool: pool}
}

func (s *Store) Users() repository.UserRepository { return &UserRepository{db: s.db} }
func (s *Store) Roles() repository.RoleRepository { return &RoleRepository{db: s.db} }
func (s *Store) ResetTokens() repository.ResetTokenRepository {
	return &ResetTokenRepository{db: s.db}
}
func (s *Store) ResetHistory() repository.ResetHistoryRepository {
	return &ResetHistoryRepository{db: s.db}
}
func (s *Store) Verifications() repository.EmailVerificationRepository {
	return &EmailVerificationRepository{db: s.db}
}

// WithinTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back on error or panic.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) (err error) {
	if s.pool == nil {
		return errors.New("postgres: nested transactions are not supported")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, &Store{db: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const uniqueViolation = "23505"

// mapError translates driver errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
