package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	"github.com/oksasatya/parkingtime-identity/internal/domain/entity"
	"github.com/oksasatya/parkingtime-identity/internal/domain/repository"
	"github.com/oksasatya/parkingtime-identity/pkg/helpers"
)

// UserService serves account reads and password changes for signed-in users.
type UserService struct {
	Store  repository.UnitOfWork
	Policy PasswordPolicy
	Index  repository.UserIndex // optional
	Logger *logrus.Logger
	Now    func() time.Time
}

func NewUserService(store repository.UnitOfWork, policy PasswordPolicy, index repository.UserIndex, logger *logrus.Logger) *UserService {
	return &UserService{Store: store, Policy: policy, Index: index, Logger: logger}
}

// UserProfile is the account view, including verification status.
type UserProfile struct {
	ID         string
	FirstName  string
	LastName   string
	Email      string
	Roles      []string
	Verified   bool
	VerifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

func (s *UserService) GetUser(ctx context.Context, caller Caller, email string) (*UserProfile, error) {
	if !caller.CanAccess(email) {
		return nil, apperror.Forbidden(MsgForbiddenOtherAccount)
	}
	u, err := s.Store.Users().GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(MsgUserNotFoundByEmail)
	}
	if err != nil {
		return nil, internal(err)
	}

	p := &UserProfile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Roles:     u.RoleNames(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	v, err := s.Store.Verifications().FindByUserID(ctx, u.ID)
	switch {
	case err == nil:
		p.Verified = v.Verified()
		p.VerifiedAt = v.VerifiedAt
	case !errors.Is(err, repository.ErrNotFound):
		return nil, internal(err)
	}
	return p, nil
}

// ChangePassword replaces the password of a verified account after checking
// the old one.
func (s *UserService) ChangePassword(ctx context.Context, caller Caller, email string, in ChangePasswordInput) (string, error) {
	if !caller.CanAccess(email) {
		return "", apperror.Forbidden(MsgForbiddenOtherAccount)
	}
	log := helpers.FlowLogger(s.Logger, flowChangePassword, email)
	now := clock(s.Now)

	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		u, err := tx.Users().GetByEmailForUpdate(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound(MsgUserNotFoundByEmail)
		}
		if err != nil {
			return internal(err)
		}

		v, err := tx.Verifications().FindByUserID(ctx, u.ID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !v.Verified()) {
			return apperror.NotFound(MsgEmailNotVerified)
		}
		if err != nil {
			return internal(err)
		}

		if !helpers.CompareHashAndPassword(u.Password, in.OldPassword) {
			return apperror.InvalidArgument(MsgOldPasswordMismatch)
		}
		if in.NewPassword != in.ConfirmPassword {
			return apperror.InvalidArgument(MsgNewPasswordMismatch)
		}
		if ok, violations := s.Policy.Evaluate(in.NewPassword); !ok {
			return apperror.InvalidArgument(MsgPasswordPolicy, violations...)
		}

		hash, err := helpers.HashPassword(in.NewPassword)
		if err != nil {
			return internal(err)
		}
		return internal(tx.Users().UpdatePassword(ctx, u.ID, hash, now))
	})
	if err != nil {
		log.WithError(err).Info("password change rejected")
		return "", err
	}
	log.Info("password changed")
	return MsgPasswordChanged, nil
}

// SearchUsers queries the user index; without an index it returns nothing.
func (s *UserService) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.Index == nil {
		return []map[string]any{}, nil
	}
	hits, err := s.Index.Search(ctx, q, size)
	if err != nil {
		return nil, internal(err)
	}
	return hits, nil
}

// EnsureRoles makes sure the fixed role catalog exists.
func EnsureRoles(ctx context.Context, roles repository.RoleRepository) error {
	return roles.EnsureRoles(ctx, entity.AllRoles)
}
