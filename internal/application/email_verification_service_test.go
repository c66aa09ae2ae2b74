package application

import (
	"strconv"
	"time"

	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	"github.com/oksasatya/parkingtime-identity/internal/domain/entity"
	mailtpl "github.com/oksasatya/parkingtime-identity/pkg/mailer/templates"
)

func (s *flowSuite) sendCode(email string) *entity.EmailVerification {
	s.T().Helper()
	v, err := s.verify.SendVerificationEmail(s.ctx, email)
	s.Require().NoError(err)
	return v
}

func (s *flowSuite) TestSendVerificationEmail() {
	s.register("jane@x.com", "Jane", "Doe")

	v := s.sendCode("jane@x.com")
	s.GreaterOrEqual(v.Code, 100000)
	s.LessOrEqual(v.Code, 999999)
	s.True(v.Active)
	s.Nil(v.VerifiedAt)

	job := s.mail.last()
	s.Equal(mailtpl.VerificationCode, job.Template)
	s.Equal(strconv.Itoa(v.Code), job.Data["Code"])
}

func (s *flowSuite) TestSendVerificationEmailRejections() {
	_, err := s.verify.SendVerificationEmail(s.ctx, "   ")
	ae := requireKind(s.T(), err, apperror.KindInvalidArgument)
	s.Equal(MsgEmailInvalid, ae.Message)

	_, err = s.verify.SendVerificationEmail(s.ctx, "ghost@x.com")
	ae = requireKind(s.T(), err, apperror.KindInvalidArgument)
	s.Equal(MsgUserNotFoundByEmail, ae.Message)

	s.register("jane@x.com", "Jane", "Doe")
	s.verifyNow("jane@x.com")
	sent := len(s.mail.jobs)
	_, err = s.verify.SendVerificationEmail(s.ctx, "jane@x.com")
	ae = requireKind(s.T(), err, apperror.KindInvalidArgument)
	s.Equal(MsgEmailAlreadyVerified, ae.Message)
	s.Len(s.mail.jobs, sent)
}

func (s *flowSuite) TestResendReplacesCode() {
	s.register("jane@x.com", "Jane", "Doe")
	first := s.sendCode("jane@x.com")
	s.clock.Advance(time.Minute)
	second := s.sendCode("jane@x.com")
	s.Equal(first.ID, second.ID)

	stored, err := s.store.Verifications().FindByUserID(s.ctx, s.user("jane@x.com").ID)
	s.Require().NoError(err)
	s.Equal(second.Code, stored.Code)
	s.Equal(t0.Add(time.Minute), stored.CreatedAt)
}

func (s *flowSuite) TestVerifyEmailSucceedsOnceWithSameMessage() {
	s.register("jane@x.com", "Jane", "Doe")
	v := s.sendCode("jane@x.com")

	s.clock.Advance(time.Minute)
	msg, err := s.verify.VerifyEmail(s.ctx, "jane@x.com", v.Code)
	s.Require().NoError(err)
	s.Equal(MsgEmailVerified, msg)

	profile, err := s.users.GetUser(s.ctx, Caller{Email: "jane@x.com"}, "jane@x.com")
	s.Require().NoError(err)
	s.True(profile.Verified)
	s.Require().NotNil(profile.VerifiedAt)
	s.Equal(t0.Add(time.Minute), *profile.VerifiedAt)

	_, err = s.verify.VerifyEmail(s.ctx, "jane@x.com", v.Code)
	ae := requireKind(s.T(), err, apperror.KindCoverUp)
	s.Equal(MsgEmailVerified, ae.Message)
}

func (s *flowSuite) TestVerifyEmailFailuresAreIndistinguishable() {
	s.register("nocode@x.com", "No", "Code")
	s.register("wrong@x.com", "Wrong", "Code")
	s.register("late@x.com", "Late", "Code")
	s.register("done@x.com", "Done", "Code")

	wrong := s.sendCode("wrong@x.com")
	late := s.sendCode("late@x.com")
	done := s.sendCode("done@x.com")
	_, err := s.verify.VerifyEmail(s.ctx, "done@x.com", done.Code)
	s.Require().NoError(err)

	s.clock.Set(t0.Add(window))
	_, lateErr := s.verify.VerifyEmail(s.ctx, "late@x.com", late.Code)
	s.clock.Set(t0.Add(time.Minute))

	_, ghostErr := s.verify.VerifyEmail(s.ctx, "ghost@x.com", 123456)
	_, nocodeErr := s.verify.VerifyEmail(s.ctx, "nocode@x.com", 123456)
	_, wrongErr := s.verify.VerifyEmail(s.ctx, "wrong@x.com", wrong.Code+1)
	_, doneErr := s.verify.VerifyEmail(s.ctx, "done@x.com", done.Code)

	for _, err := range []error{ghostErr, nocodeErr, wrongErr, lateErr, doneErr} {
		ae := requireKind(s.T(), err, apperror.KindCoverUp)
		s.Equal(MsgEmailVerified, ae.Message)
	}
}

func (s *flowSuite) TestVerifyEmailExpiryIsLatched() {
	s.register("jane@x.com", "Jane", "Doe")
	v := s.sendCode("jane@x.com")

	s.clock.Set(t0.Add(6 * time.Minute))
	_, err := s.verify.VerifyEmail(s.ctx, "jane@x.com", v.Code)
	requireKind(s.T(), err, apperror.KindCoverUp)

	stored, err := s.store.Verifications().FindByUserID(s.ctx, s.user("jane@x.com").ID)
	s.Require().NoError(err)
	s.False(stored.Active)

	// a clock that goes backwards does not revive the code
	s.clock.Set(t0.Add(time.Minute))
	_, err = s.verify.VerifyEmail(s.ctx, "jane@x.com", v.Code)
	requireKind(s.T(), err, apperror.KindCoverUp)

	profile, err := s.users.GetUser(s.ctx, Caller{Email: "jane@x.com"}, "jane@x.com")
	s.Require().NoError(err)
	s.False(profile.Verified)
}
