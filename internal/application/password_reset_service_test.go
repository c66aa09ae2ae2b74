package application

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	mailtpl "github.com/oksasatya/parkingtime-identity/pkg/mailer/templates"
)

func (s *flowSuite) reissue(email string) string {
	s.T().Helper()
	tok, err := s.reset.ForgetPassword(s.ctx, email)
	s.Require().NoError(err)
	return tok.Token
}

func (s *flowSuite) TestForgetPasswordIssuesTokenAndMailsIt() {
	s.register("jane@x.com", "Jane", "Doe")

	tok, err := s.reset.ForgetPassword(s.ctx, "jane@x.com")
	s.Require().NoError(err)
	s.Len(tok.Token, 6)
	s.NotEqual(byte('0'), tok.Token[0])
	s.False(tok.Used)
	s.Equal(t0, tok.CreatedAt)
	s.Equal("email", tok.Method)

	job := s.mail.last()
	s.Equal("jane@x.com", job.To)
	s.Equal(mailtpl.ResetPassword, job.Template)
	s.Equal(tok.Token, job.Data["Token"])
}

func (s *flowSuite) TestForgetPasswordUnknownEmailLooksLikeSuccess() {
	_, err := s.reset.ForgetPassword(s.ctx, "ghost@x.com")
	ae := requireKind(s.T(), err, apperror.KindCoverUp)
	s.Equal(MsgCheckInbox, ae.Message)
	s.Empty(s.mail.jobs)
}

func (s *flowSuite) TestForgetPasswordRefusesWhileTokenActive() {
	s.register("jane@x.com", "Jane", "Doe")
	first := s.reissue("jane@x.com")

	s.clock.Advance(4 * time.Minute)
	_, err := s.reset.ForgetPassword(s.ctx, "jane@x.com")
	ae := requireKind(s.T(), err, apperror.KindCoverUp)
	s.Equal(MsgCheckInbox, ae.Message)
	s.Len(s.mail.jobs, 1)

	// exactly at the window edge the old token counts as expired
	s.clock.Set(t0.Add(window))
	second := s.reissue("jane@x.com")
	s.NotEqual(first, second)
}

func (s *flowSuite) TestForgetPasswordAfterConsumedToken() {
	s.register("jane@x.com", "Jane", "Doe")
	tok := s.reissue("jane@x.com")
	_, err := s.reset.ResetPassword(s.ctx, ResetPasswordInput{Token: tok, NewPassword: "Newpass1!", ConfirmPassword: "Newpass1!"})
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)
	s.NotEqual(tok, s.reissue("jane@x.com"))
}

func (s *flowSuite) TestForgetPasswordSwallowsDeliveryFailure() {
	s.register("jane@x.com", "Jane", "Doe")
	s.mail.err = errSMTP

	tok, err := s.reset.ForgetPassword(s.ctx, "jane@x.com")
	s.Require().NoError(err)

	exists, err := s.store.ResetTokens().ExistsByToken(s.ctx, tok.Token)
	s.Require().NoError(err)
	s.True(exists)
	s.Equal(logrus.ErrorLevel, s.hook.LastEntry().Level)
	s.Equal("email dispatch failed", s.hook.LastEntry().Message)
}

func (s *flowSuite) TestResetPasswordConsumesTokenOnce() {
	s.register("jane@x.com", "Jane", "Doe")
	tok := s.reissue("jane@x.com")
	in := ResetPasswordInput{Token: tok, NewPassword: "Newpass1!", ConfirmPassword: "Newpass1!"}

	s.clock.Set(t0.Add(4 * time.Minute))
	msg, err := s.reset.ResetPassword(s.ctx, in)
	s.Require().NoError(err)
	s.Equal(MsgResetSuccess, msg)

	_, err = s.auth.Authenticate(s.ctx, "jane@x.com", "Newpass1!")
	s.NoError(err)

	s.clock.Set(t0.Add(4*time.Minute + time.Second))
	_, err = s.reset.ResetPassword(s.ctx, in)
	ae := requireKind(s.T(), err, apperror.KindInvalidArgument)
	s.Equal(MsgTokenExpired, ae.Message)

	stored, err := s.store.ResetTokens().FindByTokenForUpdate(s.ctx, tok)
	s.Require().NoError(err)
	s.True(stored.Used)
	s.Require().NotNil(stored.ConsumedAt)
	s.Equal(t0.Add(4*time.Minute), *stored.ConsumedAt)

	history, err := s.store.ResetHistory().ListByUserID(s.ctx, s.user("jane@x.com").ID)
	s.Require().NoError(err)
	s.Len(history, 1)
	s.Equal("email", history[0].Method)
}

func (s *flowSuite) TestResetPasswordExpiredTokenStaysUnused() {
	s.register("jane@x.com", "Jane", "Doe")
	tok := s.reissue("jane@x.com")

	s.clock.Set(t0.Add(6 * time.Minute))
	_, err := s.reset.ResetPassword(s.ctx, ResetPasswordInput{Token: tok, NewPassword: "Newpass1!", ConfirmPassword: "Newpass1!"})
	ae := requireKind(s.T(), err, apperror.KindInvalidArgument)
	s.Equal(MsgTokenExpired, ae.Message)

	stored, err := s.store.ResetTokens().FindByTokenForUpdate(s.ctx, tok)
	s.Require().NoError(err)
	s.False(stored.Used)
	s.Nil(stored.ConsumedAt)

	_, err = s.auth.Authenticate(s.ctx, "jane@x.com", "Abcdef1!")
	s.NoError(err)
}

func (s *flowSuite) TestResetPasswordUnknownTokenLooksLikeSuccess() {
	_, err := s.reset.ResetPassword(s.ctx, ResetPasswordInput{Token: "000000", NewPassword: "Newpass1!", ConfirmPassword: "Newpass1!"})
	ae := requireKind(s.T(), err, apperror.KindCoverUp)
	s.Equal(MsgResetSuccess, ae.Message)
}

func (s *flowSuite) TestResetPasswordValidatesNewPassword() {
	s.register("jane@x.com", "Jane", "Doe")
	tok := s.reissue("jane@x.com")

	_, err := s.reset.ResetPassword(s.ctx, ResetPasswordInput{Token: tok, NewPassword: "Newpass1!", ConfirmPassword: "Newpass2!"})
	ae := requireKind(s.T(), err, apperror.KindInvalidArgument)
	s.Equal(MsgPasswordsNotSame, ae.Message)

	_, err = s.reset.ResetPassword(s.ctx, ResetPasswordInput{Token: tok, NewPassword: "short", ConfirmPassword: "short"})
	ae = requireKind(s.T(), err, apperror.KindInvalidArgument)
	s.Equal(MsgPasswordPolicy, ae.Message)

	// rejected attempts leave the token usable
	_, err = s.reset.ResetPassword(s.ctx, ResetPasswordInput{Token: tok, NewPassword: "Newpass1!", ConfirmPassword: "Newpass1!"})
	s.NoError(err)
}
