package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	"github.com/oksasatya/parkingtime-identity/internal/domain/entity"
	"github.com/oksasatya/parkingtime-identity/internal/domain/repository"
	"github.com/oksasatya/parkingtime-identity/pkg/helpers"
	"github.com/oksasatya/parkingtime-identity/pkg/mailer"
	mailtpl "github.com/oksasatya/parkingtime-identity/pkg/mailer/templates"
	"github.com/oksasatya/parkingtime-identity/pkg/metrics"
)

const maxTokenAttempts = 5

var errNoFreeToken = fmt.Errorf("no free reset token after %d attempts", maxTokenAttempts)

// PasswordResetService issues and consumes single-use reset tokens.
//
// A token is ISSUED until it is consumed or until Expiry has passed since
// its creation; both end states are final and the sweeper deletes them.
type PasswordResetService struct {
	Store       repository.UnitOfWork
	Tokens      TokenGenerator
	Policy      PasswordPolicy
	Notifier    Notifier
	Brand       mailtpl.Brand
	Expiry      time.Duration
	TokenLength int
	Logger      *logrus.Logger
	Now         func() time.Time
}

func NewPasswordResetService(store repository.UnitOfWork, tokens TokenGenerator, policy PasswordPolicy, notifier Notifier, brand mailtpl.Brand, expiry time.Duration, tokenLength int, logger *logrus.Logger) *PasswordResetService {
	return &PasswordResetService{
		Store:       store,
		Tokens:      tokens,
		Policy:      policy,
		Notifier:    notifier,
		Brand:       brand,
		Expiry:      expiry,
		TokenLength: tokenLength,
		Logger:      logger,
	}
}

type ResetPasswordInput struct {
	Token           string
	NewPassword     string
	ConfirmPassword string
}

// ForgetPassword issues a reset token for email and mails it. Unknown emails
// and users that still hold an active token get a CoverUp carrying the same
// message the caller shows on success.
func (s *PasswordResetService) ForgetPassword(ctx context.Context, email string) (issued *entity.ResetToken, err error) {
	defer func() { metrics.Observe(metrics.ResetRequestsTotal, outcomeOf(err)) }()
	log := helpers.FlowLogger(s.Logger, flowPasswordReset, email)
	now := clock(s.Now)

	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		// the row lock serializes concurrent requests for the same user
		u, err := tx.Users().GetByEmailForUpdate(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("reset requested for unknown email")
			return apperror.CoverUp(MsgCheckInbox)
		}
		if err != nil {
			return internal(err)
		}

		latest, err := tx.ResetTokens().FindLatestByUserID(ctx, u.ID)
		switch {
		case err == nil && latest.Active(now, s.Expiry):
			log.WithField("token_id", latest.ID).Warn("active reset token exists, issuance refused")
			return apperror.CoverUp(MsgCheckInbox)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return internal(err)
		}

		token, err := s.newToken(ctx, tx.ResetTokens())
		if errors.Is(err, errNoFreeToken) {
			log.WithError(err).Error("reset token space exhausted")
			return apperror.CoverUp(MsgCheckInbox)
		}
		if err != nil {
			return internal(err)
		}
		t := &entity.ResetToken{
			UserID:    u.ID,
			Token:     token,
			Method:    entity.ResetMethodEmail,
			CreatedAt: now,
		}
		err = tx.ResetTokens().Create(ctx, t)
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race for the same token value
			log.WithError(err).Error("reset token collided on insert")
			return apperror.CoverUp(MsgCheckInbox)
		}
		if err != nil {
			return internal(err)
		}
		t.User = u
		issued = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithField("token_id", issued.ID).Info("reset token issued")
	dispatch(ctx, s.Notifier, s.Logger, flowPasswordReset, s.resetEmail(issued))
	return issued, nil
}

func (s *PasswordResetService) newToken(ctx context.Context, tokens repository.ResetTokenRepository) (string, error) {
	for i := 0; i < maxTokenAttempts; i++ {
		tok, err := s.Tokens.Numeric(s.TokenLength)
		if err != nil {
			return "", err
		}
		taken, err := tokens.ExistsByToken(ctx, tok)
		if err != nil {
			return "", err
		}
		if !taken {
			return tok, nil
		}
	}
	return "", errNoFreeToken
}

func (s *PasswordResetService) resetEmail(t *entity.ResetToken) mailer.EmailJob {
	data := mailtpl.NewEmailData(s.Brand, t.User.FirstName, t.User.Email,
		mailtpl.WithToken(t.Token),
		mailtpl.WithExpiresAt(t.CreatedAt.Add(s.Expiry)),
	)
	return mailer.EmailJob{
		To:       t.User.Email,
		Template: mailtpl.ResetPassword,
		Data:     mailtpl.ToMap(data),
	}
}

// ResetPassword consumes token and stores the new password. An unknown token
// gets a CoverUp with the success message.
func (s *PasswordResetService) ResetPassword(ctx context.Context, in ResetPasswordInput) (msg string, err error) {
	defer func() { metrics.Observe(metrics.ResetsTotal, outcomeOf(err)) }()
	log := s.Logger.WithField("flow", flowPasswordReset)
	now := clock(s.Now)

	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		t, err := tx.ResetTokens().FindByTokenForUpdate(ctx, in.Token)
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("reset attempted with unknown token")
			return apperror.CoverUp(MsgResetSuccess)
		}
		if err != nil {
			return internal(err)
		}
		log = log.WithField("token_id", t.ID)

		if t.Used || t.Expired(now, s.Expiry) {
			return apperror.InvalidArgument(MsgTokenExpired)
		}
		if in.NewPassword != in.ConfirmPassword {
			return apperror.InvalidArgument(MsgPasswordsNotSame)
		}
		if ok, violations := s.Policy.Evaluate(in.NewPassword); !ok {
			return apperror.InvalidArgument(MsgPasswordPolicy, violations...)
		}

		u, err := tx.Users().GetByID(ctx, t.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("reset token owner cannot be resolved")
			return apperror.CoverUp(MsgResetSuccess)
		}
		if err != nil {
			return internal(err)
		}
		log = log.WithField("email", u.Email)

		hash, err := helpers.HashPassword(in.NewPassword)
		if err != nil {
			return internal(err)
		}
		if err := tx.Users().UpdatePassword(ctx, u.ID, hash, now); err != nil {
			return internal(err)
		}
		if err := tx.ResetTokens().MarkUsed(ctx, t.ID, now); err != nil {
			return internal(err)
		}
		return internal(tx.ResetHistory().Create(ctx, &entity.ResetHistory{
			UserID:    u.ID,
			Method:    t.Method,
			CreatedAt: now,
		}))
	})
	if err != nil {
		log.WithError(err).Info("password reset rejected")
		return "", err
	}
	log.Info("password reset")
	return MsgResetSuccess, nil
}
