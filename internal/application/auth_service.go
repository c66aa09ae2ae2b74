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
	"github.com/oksasatya/parkingtime-identity/pkg/metrics"
)

// ExpirationLayout formats session expiry as dd-MM-yyyy HH:mm:ss.
const ExpirationLayout = "02-01-2006 15:04:05"

// AuthService registers users and authenticates them into bearer sessions.
type AuthService struct {
	Store    repository.UnitOfWork
	Policy   PasswordPolicy
	Verifier CredentialVerifier
	Signer   SessionSigner
	Index    repository.UserIndex // optional
	Logger   *logrus.Logger
	Now      func() time.Time
}

func NewAuthService(store repository.UnitOfWork, policy PasswordPolicy, verifier CredentialVerifier, signer SessionSigner, index repository.UserIndex, logger *logrus.Logger) *AuthService {
	return &AuthService{
		Store:    store,
		Policy:   policy,
		Verifier: verifier,
		Signer:   signer,
		Index:    index,
		Logger:   logger,
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Roles     []string
}

// Session is the result of a successful authentication.
type Session struct {
	Token      string
	TokenType  string
	Email      string
	ExpiresAt  time.Time
	Expiration string
	Roles      []string
}

// Register creates a user with the requested roles. Uniqueness checks and the
// insert share one transaction; the unique email index is the final word.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (msg string, err error) {
	defer func() { metrics.Observe(metrics.RegistrationsTotal, outcomeOf(err)) }()
	log := helpers.FlowLogger(s.Logger, flowRegistration, in.Email)

	var created *entity.User
	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		exists, err := tx.Users().ExistsByEmail(ctx, in.Email)
		if err != nil {
			return internal(err)
		}
		if exists {
			return apperror.Conflict(MsgUserExists)
		}
		exists, err = tx.Users().ExistsByName(ctx, in.FirstName, in.LastName)
		if err != nil {
			return internal(err)
		}
		if exists {
			return apperror.Conflict(MsgUserExists)
		}

		if in.Password == "" {
			return apperror.InvalidArgument(MsgPasswordRequired)
		}
		if ok, violations := s.Policy.Evaluate(in.Password); !ok {
			return apperror.InvalidArgument(MsgPasswordPolicy, violations...)
		}

		roles, err := resolveRoles(ctx, tx.Roles(), in.Roles)
		if err != nil {
			return err
		}
		hash, err := helpers.HashPassword(in.Password)
		if err != nil {
			return internal(err)
		}

		now := clock(s.Now)
		u := &entity.User{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Password:  hash,
			Roles:     roles,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Users().Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperror.Conflict(MsgUserExists)
			}
			return internal(err)
		}
		created = u
		return nil
	})
	if err != nil {
		log.WithError(err).Info("registration rejected")
		return "", err
	}

	s.index(ctx, created)
	log.WithField("user_id", created.ID).Info("user registered")
	return MsgUserRegistered, nil
}

// resolveRoles maps request tokens onto stored roles; no token means ROLE_USER.
func resolveRoles(ctx context.Context, roles repository.RoleRepository, tokens []string) ([]entity.Role, error) {
	names := make([]entity.RoleName, 0, len(tokens))
	seen := map[entity.RoleName]bool{}
	for _, tok := range tokens {
		name := entity.RoleFromRequest(tok)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		names = append(names, entity.RoleUser)
	}

	out := make([]entity.Role, 0, len(names))
	for _, name := range names {
		role, err := roles.GetByName(ctx, name)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.InvalidArgument(MsgRoleNotFound)
		}
		if err != nil {
			return nil, internal(err)
		}
		out = append(out, *role)
	}
	return out, nil
}

func (s *AuthService) index(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	doc := repository.UserDocument{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Roles:     u.RoleNames(),
		CreatedAt: u.CreatedAt.Format(time.RFC3339Nano),
	}
	if err := s.Index.Index(ctx, doc); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
	}
}

// Authenticate verifies the credentials and issues a bearer session token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (sess *Session, err error) {
	defer func() { metrics.Observe(metrics.AuthenticationsTotal, outcomeOf(err)) }()
	log := helpers.FlowLogger(s.Logger, flowAuthentication, email)

	if err := s.Verifier.Verify(ctx, email, password); err != nil {
		log.WithError(err).Info("credential verification failed")
		return nil, err
	}

	u, err := s.Store.Users().GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Unauthorized(apperror.SubtypeLocalAuth, MsgEmailNotRegistered)
	}
	if err != nil {
		return nil, internal(err)
	}

	roles := u.RoleNames()
	token, exp, err := s.Signer.GenerateSessionToken(u.Email, roles)
	if err != nil {
		return nil, internal(err)
	}
	log.Debug("session issued")
	return &Session{
		Token:      token,
		TokenType:  "Bearer",
		Email:      u.Email,
		ExpiresAt:  exp,
		Expiration: exp.Format(ExpirationLayout),
		Roles:      roles,
	}, nil
}

// PasswordAuthenticator checks passwords against stored bcrypt hashes.
// Unknown emails and wrong passwords produce the same error after the same
// amount of hashing work.
type PasswordAuthenticator struct {
	Users repository.UserRepository
}

func NewPasswordAuthenticator(users repository.UserRepository) *PasswordAuthenticator {
	return &PasswordAuthenticator{Users: users}
}

func (a *PasswordAuthenticator) Verify(ctx context.Context, email, password string) error {
	var hash string
	u, err := a.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		hash = u.Password
	case !errors.Is(err, repository.ErrNotFound):
		return internal(err)
	}
	if !helpers.CompareHashAndPassword(hash, password) {
		return apperror.Unauthorized(apperror.SubtypeBadCredentials, MsgBadCredentials)
	}
	return nil
}
