package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	"github.com/oksasatya/parkingtime-identity/internal/domain/entity"
	"github.com/oksasatya/parkingtime-identity/pkg/helpers"
	"github.com/oksasatya/parkingtime-identity/pkg/mailer"
	"github.com/oksasatya/parkingtime-identity/pkg/metrics"
)

// Notifier delivers an email job. Failures are reported to the caller, which
// logs them and carries on.
type Notifier interface {
	Send(ctx context.Context, job mailer.EmailJob) error
}

// PasswordPolicy is satisfied by validation.PasswordPolicy.
type PasswordPolicy interface {
	Evaluate(pw string) (bool, []string)
}

// SessionSigner is satisfied by *helpers.JWTManager.
type SessionSigner interface {
	GenerateSessionToken(email string, roles []string) (string, time.Time, error)
}

// TokenGenerator is satisfied by *helpers.Randomizer.
type TokenGenerator interface {
	Numeric(n int) (string, error)
	Number(n int) (int, error)
}

// CredentialVerifier checks an email/password pair. A mismatch is reported as
// an Unauthorized error with the bad_credentials subtype.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) error
}

// Caller is the authenticated principal of a request.
type Caller struct {
	Email string
	Roles []string
}

func (c Caller) IsAdmin() bool {
	for _, r := range c.Roles {
		if r == string(entity.RoleAdmin) {
			return true
		}
	}
	return false
}

// CanAccess reports whether the caller may act on the account of email.
func (c Caller) CanAccess(email string) bool {
	return c.Email == email || c.IsAdmin()
}

func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now()
}

// internal wraps foreign errors; apperrors pass through untouched.
func internal(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Internal(err)
}

// dispatch sends job and swallows the error after logging it.
func dispatch(ctx context.Context, n Notifier, logger *logrus.Logger, flow string, job mailer.EmailJob) {
	if n == nil {
		return
	}
	if err := n.Send(ctx, job); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(job.Template).Inc()
		helpers.FlowLogger(logger, flow, job.To).WithError(err).Error("email dispatch failed")
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case apperror.IsCoverUp(err):
		return metrics.OutcomeCoverUp
	default:
		return metrics.OutcomeFailure
	}
}
