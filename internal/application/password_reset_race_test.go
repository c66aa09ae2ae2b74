package application

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	"github.com/oksasatya/parkingtime-identity/internal/domain/repository"
)

const parallelCallers = 16

// fixedTokens always hands out the same value.
type fixedTokens struct{ value string }

func (f fixedTokens) Numeric(int) (string, error) { return f.value, nil }
func (f fixedTokens) Number(int) (int, error)     { return 123456, nil }

// blindTokens hides existing tokens from the pre-insert check so the
// unique constraint on insert is the only guard left.
type blindTokens struct {
	repository.ResetTokenRepository
}

func (blindTokens) ExistsByToken(context.Context, string) (bool, error) { return false, nil }

type blindStore struct{ repository.Store }

func (b blindStore) ResetTokens() repository.ResetTokenRepository {
	return blindTokens{b.Store.ResetTokens()}
}

type blindUnitOfWork struct{ repository.UnitOfWork }

func (b blindUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return b.UnitOfWork.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, blindStore{tx})
	})
}

func (s *flowSuite) errorLogged(msg string) bool {
	for _, e := range s.hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == msg {
			return true
		}
	}
	return false
}

func (s *flowSuite) TestForgetPasswordConcurrentRequestsIssueOneToken() {
	s.register("jane@x.com", "Jane", "Doe")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		issued  int
		covered int
		other   []error
	)
	for i := 0; i < parallelCallers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.reset.ForgetPassword(s.ctx, "jane@x.com")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				issued++
				return
			}
			if ae, ok := apperror.As(err); ok && ae.Kind == apperror.KindCoverUp && ae.Message == MsgCheckInbox {
				covered++
				return
			}
			other = append(other, err)
		}()
	}
	wg.Wait()

	s.Empty(other)
	s.Equal(1, issued)
	s.Equal(parallelCallers-1, covered)
	s.Len(s.mail.jobs, 1)

	latest, err := s.store.ResetTokens().FindLatestByUserID(s.ctx, s.user("jane@x.com").ID)
	s.Require().NoError(err)
	s.Equal(s.mail.last().Data["Token"], latest.Token)
}

func (s *flowSuite) TestResetPasswordConcurrentConsumersOneWins() {
	s.register("jane@x.com", "Jane", "Doe")
	tok := s.reissue("jane@x.com")
	in := ResetPasswordInput{Token: tok, NewPassword: "Newpass1!", ConfirmPassword: "Newpass1!"}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
		other    []error
	)
	for i := 0; i < parallelCallers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.reset.ResetPassword(s.ctx, in)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			if ae, isApp := apperror.As(err); isApp && ae.Kind == apperror.KindInvalidArgument && ae.Message == MsgTokenExpired {
				rejected++
				return
			}
			other = append(other, err)
		}()
	}
	wg.Wait()

	s.Empty(other)
	s.Equal(1, ok)
	s.Equal(parallelCallers-1, rejected)

	history, err := s.store.ResetHistory().ListByUserID(s.ctx, s.user("jane@x.com").ID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *flowSuite) TestForgetPasswordTokenSpaceExhaustedLooksLikeSuccess() {
	s.register("jane@x.com", "Jane", "Doe")
	s.register("bob@x.com", "Bob", "Roe")
	s.reset.Tokens = fixedTokens{value: "123456"}

	tok, err := s.reset.ForgetPassword(s.ctx, "jane@x.com")
	s.Require().NoError(err)
	s.Equal("123456", tok.Token)

	_, err = s.reset.ForgetPassword(s.ctx, "bob@x.com")
	ae := requireKind(s.T(), err, apperror.KindCoverUp)
	s.Equal(MsgCheckInbox, ae.Message)
	s.Len(s.mail.jobs, 1)
	s.True(s.errorLogged("reset token space exhausted"))

	_, err = s.store.ResetTokens().FindLatestByUserID(s.ctx, s.user("bob@x.com").ID)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *flowSuite) TestForgetPasswordInsertCollisionLooksLikeSuccess() {
	s.register("jane@x.com", "Jane", "Doe")
	s.register("bob@x.com", "Bob", "Roe")
	s.reset.Tokens = fixedTokens{value: "123456"}

	_, err := s.reset.ForgetPassword(s.ctx, "jane@x.com")
	s.Require().NoError(err)

	s.reset.Store = blindUnitOfWork{s.store}
	_, err = s.reset.ForgetPassword(s.ctx, "bob@x.com")
	ae := requireKind(s.T(), err, apperror.KindCoverUp)
	s.Equal(MsgCheckInbox, ae.Message)
	s.Len(s.mail.jobs, 1)
	s.True(s.errorLogged("reset token collided on insert"))
}
