package application

import (
	"context"

	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	"github.com/oksasatya/parkingtime-identity/internal/infrastructure/memory"
	"github.com/oksasatya/parkingtime-identity/pkg/helpers"
	"github.com/oksasatya/parkingtime-identity/pkg/validation"
)

func (s *flowSuite) TestRegisterDefaultsToUserRoleAndRejectsDuplicateEmail() {
	in := RegisterInput{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", Password: "Abcdef1!"}

	msg, err := s.auth.Register(s.ctx, in)
	s.Require().NoError(err)
	s.Equal(MsgUserRegistered, msg)

	u := s.user("jane@x.com")
	s.Equal([]string{"ROLE_USER"}, u.RoleNames())
	s.Equal(t0, u.CreatedAt)
	s.Equal(t0, u.UpdatedAt)
	s.NotEqual("Abcdef1!", u.Password)
	s.True(helpers.CompareHashAndPassword(u.Password, "Abcdef1!"))

	_, err = s.auth.Register(s.ctx, in)
	ae := requireKind(s.T(), err, apperror.KindConflict)
	s.Equal(MsgUserExists, ae.Message)
}

func (s *flowSuite) TestRegisterResolvesRoleTokens() {
	s.register("boss@x.com", "Big", "Boss", "admin", "mod", "whatever", "admin")
	s.ElementsMatch([]string{"ROLE_ADMIN", "ROLE_MODERATOR", "ROLE_USER"}, s.user("boss@x.com").RoleNames())
}

func (s *flowSuite) TestRegisterRejectsSameName() {
	s.register("jane@x.com", "Jane", "Doe")
	_, err := s.auth.Register(s.ctx, RegisterInput{FirstName: "Jane", LastName: "Doe", Email: "other@x.com", Password: "Abcdef1!"})
	requireKind(s.T(), err, apperror.KindConflict)
}

func (s *flowSuite) TestRegisterPasswordChecks() {
	_, err := s.auth.Register(s.ctx, RegisterInput{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com"})
	ae := requireKind(s.T(), err, apperror.KindInvalidArgument)
	s.Equal(MsgPasswordRequired, ae.Message)

	_, err = s.auth.Register(s.ctx, RegisterInput{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", Password: "weak"})
	ae = requireKind(s.T(), err, apperror.KindInvalidArgument)
	s.Equal(MsgPasswordPolicy, ae.Message)
	s.NotEmpty(ae.Details)

	exists, err := s.store.Users().ExistsByEmail(s.ctx, "jane@x.com")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *flowSuite) TestRegisterWithoutRoleCatalog() {
	empty := memory.NewStore()
	svc := NewAuthService(empty, validation.DefaultPasswordPolicy(), NewPasswordAuthenticator(empty.Users()), nil, nil, s.logger)

	_, err := svc.Register(s.ctx, RegisterInput{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", Password: "Abcdef1!"})
	ae := requireKind(s.T(), err, apperror.KindInvalidArgument)
	s.Equal(MsgRoleNotFound, ae.Message)
}

func (s *flowSuite) TestAuthenticateIssuesBearerSession() {
	s.register("jane@x.com", "Jane", "Doe", "mod")

	sess, err := s.auth.Authenticate(s.ctx, "jane@x.com", "Abcdef1!")
	s.Require().NoError(err)
	s.Equal("Bearer", sess.TokenType)
	s.Equal("jane@x.com", sess.Email)
	s.Equal([]string{"ROLE_MODERATOR"}, sess.Roles)
	s.Equal(sess.ExpiresAt.Format("02-01-2006 15:04:05"), sess.Expiration)
	s.NotEmpty(sess.Token)

	claims, err := helpers.DefaultJWT().ParseSessionToken(sess.Token)
	s.Require().NoError(err)
	s.Equal("jane@x.com", claims.Email())
	s.Equal([]string{"ROLE_MODERATOR"}, claims.Roles)
}

func (s *flowSuite) TestAuthenticateDoesNotRevealWhichCheckFailed() {
	s.register("jane@x.com", "Jane", "Doe")

	_, wrongPw := s.auth.Authenticate(s.ctx, "jane@x.com", "Wrong1!pw")
	_, unknown := s.auth.Authenticate(s.ctx, "ghost@x.com", "Abcdef1!")

	a := requireKind(s.T(), wrongPw, apperror.KindUnauthorized)
	b := requireKind(s.T(), unknown, apperror.KindUnauthorized)
	s.Equal(apperror.SubtypeBadCredentials, a.Subtype)
	s.Equal(a.Subtype, b.Subtype)
	s.Equal(a.Message, b.Message)
}

type allowAll struct{}

func (allowAll) Verify(context.Context, string, string) error { return nil }

func (s *flowSuite) TestAuthenticateMissingPrincipalAfterVerification() {
	s.auth.Verifier = allowAll{}

	_, err := s.auth.Authenticate(s.ctx, "ghost@x.com", "whatever")
	ae := requireKind(s.T(), err, apperror.KindUnauthorized)
	s.Equal(apperror.SubtypeLocalAuth, ae.Subtype)
	s.Equal(MsgEmailNotRegistered, ae.Message)
}
