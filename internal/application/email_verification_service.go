package application

import (
	"context"
	"errors"
	"strconv"
	"strings"
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

// EmailVerificationService issues and checks the numeric email verification
// code. Each user has at most one code; issuing a new one replaces the old.
type EmailVerificationService struct {
	Store      repository.UnitOfWork
	Tokens     TokenGenerator
	Notifier   Notifier
	Brand      mailtpl.Brand
	Expiry     time.Duration
	CodeLength int
	Logger     *logrus.Logger
	Now        func() time.Time
}

func NewEmailVerificationService(store repository.UnitOfWork, tokens TokenGenerator, notifier Notifier, brand mailtpl.Brand, expiry time.Duration, codeLength int, logger *logrus.Logger) *EmailVerificationService {
	return &EmailVerificationService{
		Store:      store,
		Tokens:     tokens,
		Notifier:   notifier,
		Brand:      brand,
		Expiry:     expiry,
		CodeLength: codeLength,
		Logger:     logger,
	}
}

// SendVerificationEmail issues a fresh code for email and mails it.
func (s *EmailVerificationService) SendVerificationEmail(ctx context.Context, email string) (issued *entity.EmailVerification, err error) {
	defer func() { metrics.Observe(metrics.VerificationCodesTotal, outcomeOf(err)) }()
	if strings.TrimSpace(email) == "" {
		return nil, apperror.InvalidArgument(MsgEmailInvalid)
	}
	log := helpers.FlowLogger(s.Logger, flowEmailVerification, email)
	now := clock(s.Now)

	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		u, err := tx.Users().GetByEmailForUpdate(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.InvalidArgument(MsgUserNotFoundByEmail)
		}
		if err != nil {
			return internal(err)
		}

		existing, err := tx.Verifications().FindByUserIDForUpdate(ctx, u.ID)
		switch {
		case err == nil && existing.Verified():
			return apperror.InvalidArgument(MsgEmailAlreadyVerified)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return internal(err)
		}

		code, err := s.Tokens.Number(s.CodeLength)
		if err != nil {
			return internal(err)
		}
		v := &entity.EmailVerification{
			UserID:    u.ID,
			Code:      code,
			Active:    true,
			CreatedAt: now,
		}
		if err := tx.Verifications().Upsert(ctx, v); err != nil {
			return internal(err)
		}
		v.User = u
		issued = v
		return nil
	})
	if err != nil {
		log.WithError(err).Info("verification code not issued")
		return nil, err
	}

	log.Info("verification code issued")
	dispatch(ctx, s.Notifier, s.Logger, flowEmailVerification, s.verificationEmail(issued))
	return issued, nil
}

func (s *EmailVerificationService) verificationEmail(v *entity.EmailVerification) mailer.EmailJob {
	data := mailtpl.NewEmailData(s.Brand, v.User.FirstName, v.User.Email,
		mailtpl.WithCode(strconv.Itoa(v.Code)),
		mailtpl.WithExpiresAt(v.CreatedAt.Add(s.Expiry)),
	)
	return mailer.EmailJob{
		To:       v.User.Email,
		Template: mailtpl.VerificationCode,
		Data:     mailtpl.ToMap(data),
	}
}

// VerifyEmail checks code for email. Every outcome, success included, carries
// MsgEmailVerified; failures come back as a CoverUp with that message and the
// real reason goes to the log only. An expired code is deactivated so it
// stays dead even if a later check sees a different clock.
func (s *EmailVerificationService) VerifyEmail(ctx context.Context, email string, code int) (msg string, err error) {
	defer func() { metrics.Observe(metrics.VerificationsTotal, outcomeOf(err)) }()
	log := helpers.FlowLogger(s.Logger, flowEmailVerification, email)
	now := clock(s.Now)

	var reason string
	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		u, err := tx.Users().GetByEmail(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			reason = "user not found"
			return nil
		}
		if err != nil {
			return internal(err)
		}

		v, err := tx.Verifications().FindByUserIDForUpdate(ctx, u.ID)
		if errors.Is(err, repository.ErrNotFound) {
			reason = "no verification code"
			return nil
		}
		if err != nil {
			return internal(err)
		}

		switch {
		case v.Code != code || !v.Active:
			reason = "code mismatch or inactive"
		case v.Expired(now, s.Expiry):
			reason = "code expired"
			v.Active = false
			return internal(tx.Verifications().Update(ctx, v))
		case v.Verified():
			reason = "already verified"
		default:
			v.VerifiedAt = &now
			return internal(tx.Verifications().Update(ctx, v))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if reason != "" {
		log.WithField("reason", reason).Warn("email verification refused")
		return "", apperror.CoverUp(MsgEmailVerified)
	}
	log.Info("email verified")
	return MsgEmailVerified, nil
}
