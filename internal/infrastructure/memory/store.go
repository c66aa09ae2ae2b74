// Package memory is a process-local Store used for development and tests.
// A transaction holds the store lock for its whole duration, which gives the
// same isolation as row locks at the cost of serializing writers.
package memory

import (
	"context"
	"sync"

	"github.com/oksasatya/parkingtime-identity/internal/domain/entity"
	"github.com/oksasatya/parkingtime-identity/internal/domain/repository"
)

type state struct {
	users         map[string]entity.User // by id
	roles         map[entity.RoleName]entity.Role
	tokens        []entity.ResetToken // insertion order
	history       []entity.ResetHistory
	verifications map[string]entity.EmailVerification // by user id
}

func newState() *state {
	return &state{
		users:         map[string]entity.User{},
		roles:         map[entity.RoleName]entity.Role{},
		verifications: map[string]entity.EmailVerification{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, u := range s.users {
		c.users[k] = copyUser(u)
	}
	for k, r := range s.roles {
		c.roles[k] = r
	}
	c.tokens = make([]entity.ResetToken, len(s.tokens))
	for i, t := range s.tokens {
		c.tokens[i] = copyToken(t)
	}
	c.history = append([]entity.ResetHistory(nil), s.history...)
	for k, v := range s.verifications {
		c.verifications[k] = copyVerification(v)
	}
	return c
}

type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) view(locked bool) view { return view{store: s, locked: locked} }

func (s *Store) Users() repository.UserRepository { return &userRepo{s.view(false)} }
func (s *Store) Roles() repository.RoleRepository { return &roleRepo{s.view(false)} }
func (s *Store) ResetTokens() repository.ResetTokenRepository {
	return &tokenRepo{s.view(false)}
}
func (s *Store) ResetHistory() repository.ResetHistoryRepository {
	return &historyRepo{s.view(false)}
}
func (s *Store) Verifications() repository.EmailVerificationRepository {
	return &verificationRepo{s.view(false)}
}

// WithinTx runs fn with exclusive access to the store. The state is restored
// when fn returns an error or panics.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.state.clone()
	committed := false
	defer func() {
		if !committed {
			s.state = snapshot
		}
	}()

	if err := fn(ctx, txStore{s.view(true)}); err != nil {
		return err
	}
	committed = true
	return nil
}

type txStore struct{ v view }

func (t txStore) Users() repository.UserRepository                      { return &userRepo{t.v} }
func (t txStore) Roles() repository.RoleRepository                      { return &roleRepo{t.v} }
func (t txStore) ResetTokens() repository.ResetTokenRepository          { return &tokenRepo{t.v} }
func (t txStore) ResetHistory() repository.ResetHistoryRepository       { return &historyRepo{t.v} }
func (t txStore) Verifications() repository.EmailVerificationRepository { return &verificationRepo{t.v} }

// view binds a repository to the store; locked views run inside WithinTx and
// must not take the mutex again.
type view struct {
	store  *Store
	locked bool
}

func (v view) lock() func() {
	if v.locked {
		return func() {}
	}
	v.store.mu.Lock()
	return v.store.mu.Unlock
}

func (v view) st() *state { return v.store.state }

func copyUser(u entity.User) entity.User {
	u.Roles = append([]entity.Role(nil), u.Roles...)
	return u
}

func copyToken(t entity.ResetToken) entity.ResetToken {
	if t.ConsumedAt != nil {
		at := *t.ConsumedAt
		t.ConsumedAt = &at
	}
	t.User = nil
	return t
}

func copyVerification(v entity.EmailVerification) entity.EmailVerification {
	if v.VerifiedAt != nil {
		at := *v.VerifiedAt
		v.VerifiedAt = &at
	}
	v.User = nil
	return v
}
