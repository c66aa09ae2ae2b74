package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	"github.com/oksasatya/parkingtime-identity/internal/domain/repository"
)

func (s *flowSuite) TestGetUserAccessRules() {
	s.register("jane@x.com", "Jane", "Doe")

	_, err := s.users.GetUser(s.ctx, Caller{Email: "eve@x.com", Roles: []string{"ROLE_USER"}}, "jane@x.com")
	requireKind(s.T(), err, apperror.KindForbidden)

	p, err := s.users.GetUser(s.ctx, Caller{Email: "root@x.com", Roles: []string{"ROLE_ADMIN"}}, "jane@x.com")
	s.Require().NoError(err)
	s.Equal("Jane", p.FirstName)
	s.False(p.Verified)
	s.Nil(p.VerifiedAt)

	_, err = s.users.GetUser(s.ctx, Caller{Email: "ghost@x.com"}, "ghost@x.com")
	requireKind(s.T(), err, apperror.KindNotFound)
}

func (s *flowSuite) TestChangePasswordRequiresVerifiedEmail() {
	s.register("jane@x.com", "Jane", "Doe")
	me := Caller{Email: "jane@x.com"}
	in := ChangePasswordInput{OldPassword: "Abcdef1!", NewPassword: "Changed1!", ConfirmPassword: "Changed1!"}

	_, err := s.users.ChangePassword(s.ctx, me, "jane@x.com", in)
	ae := requireKind(s.T(), err, apperror.KindNotFound)
	s.Equal(MsgEmailNotVerified, ae.Message)

	s.sendCode("jane@x.com")
	_, err = s.users.ChangePassword(s.ctx, me, "jane@x.com", in)
	requireKind(s.T(), err, apperror.KindNotFound)
}

func (s *flowSuite) TestChangePassword() {
	s.register("jane@x.com", "Jane", "Doe")
	s.verifyNow("jane@x.com")
	me := Caller{Email: "jane@x.com"}

	_, err := s.users.ChangePassword(s.ctx, me, "jane@x.com", ChangePasswordInput{OldPassword: "nope", NewPassword: "Changed1!", ConfirmPassword: "Changed1!"})
	ae := requireKind(s.T(), err, apperror.KindInvalidArgument)
	s.Equal(MsgOldPasswordMismatch, ae.Message)

	_, err = s.users.ChangePassword(s.ctx, me, "jane@x.com", ChangePasswordInput{OldPassword: "Abcdef1!", NewPassword: "Changed1!", ConfirmPassword: "Changed2!"})
	ae = requireKind(s.T(), err, apperror.KindInvalidArgument)
	s.Equal(MsgNewPasswordMismatch, ae.Message)

	_, err = s.users.ChangePassword(s.ctx, me, "jane@x.com", ChangePasswordInput{OldPassword: "Abcdef1!", NewPassword: "changed", ConfirmPassword: "changed"})
	ae = requireKind(s.T(), err, apperror.KindInvalidArgument)
	s.Equal(MsgPasswordPolicy, ae.Message)

	s.clock.Advance(time.Hour)
	msg, err := s.users.ChangePassword(s.ctx, me, "jane@x.com", ChangePasswordInput{OldPassword: "Abcdef1!", NewPassword: "Changed1!", ConfirmPassword: "Changed1!"})
	s.Require().NoError(err)
	s.Equal(MsgPasswordChanged, msg)
	s.Equal(t0.Add(time.Hour), s.user("jane@x.com").UpdatedAt)

	_, err = s.auth.Authenticate(s.ctx, "jane@x.com", "Changed1!")
	s.NoError(err)
}

type stubIndex struct {
	docs []repository.UserDocument
	err  error
}

func (x *stubIndex) Index(_ context.Context, doc repository.UserDocument) error {
	x.docs = append(x.docs, doc)
	return x.err
}

func (x *stubIndex) Search(_ context.Context, q string, _ int) ([]map[string]any, error) {
	if x.err != nil {
		return nil, x.err
	}
	var out []map[string]any
	for _, d := range x.docs {
		if d.Email == q {
			out = append(out, map[string]any{"email": d.Email})
		}
	}
	return out, nil
}

func (s *flowSuite) TestSearchUsers() {
	hits, err := s.users.SearchUsers(s.ctx, "jane@x.com", 10)
	s.Require().NoError(err)
	s.Empty(hits)

	idx := &stubIndex{}
	s.auth.Index = idx
	s.users.Index = idx
	s.register("jane@x.com", "Jane", "Doe")
	s.Require().Len(idx.docs, 1)
	s.Equal([]string{"ROLE_USER"}, idx.docs[0].Roles)

	hits, err = s.users.SearchUsers(s.ctx, "jane@x.com", 10)
	s.Require().NoError(err)
	s.Len(hits, 1)

	idx.err = errors.New("es down")
	_, err = s.users.SearchUsers(s.ctx, "jane@x.com", 10)
	requireKind(s.T(), err, apperror.KindInternal)
}

func (s *flowSuite) TestRegisterSurvivesIndexFailure() {
	s.auth.Index = &stubIndex{err: errors.New("es down")}
	s.register("jane@x.com", "Jane", "Doe")

	var warned bool
	for _, e := range s.hook.AllEntries() {
		if e.Message == "es index failed" {
			warned = e.Level == logrus.WarnLevel
		}
	}
	s.True(warned)
	s.Equal("user registered", s.hook.LastEntry().Message)
}
