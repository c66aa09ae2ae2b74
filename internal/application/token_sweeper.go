package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/parkingtime-identity/internal/domain/repository"
	"github.com/oksasatya/parkingtime-identity/pkg/metrics"
)

// TokenSweeper periodically deletes reset tokens older than the expiry
// window, consumed or not.
type TokenSweeper struct {
	Tokens   repository.ResetTokenRepository
	Expiry   time.Duration
	Interval time.Duration
	Logger   *logrus.Logger
	Now      func() time.Time
}

func NewTokenSweeper(tokens repository.ResetTokenRepository, expiry, interval time.Duration, logger *logrus.Logger) *TokenSweeper {
	return &TokenSweeper{Tokens: tokens, Expiry: expiry, Interval: interval, Logger: logger}
}

// Sweep runs one pass and returns the number of deleted tokens.
func (s *TokenSweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := clock(s.Now).Add(-s.Expiry)
	n, err := s.Tokens.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	metrics.TokensSweptTotal.Add(float64(n))
	s.Logger.WithFields(logrus.Fields{"deleted": n, "cutoff": cutoff}).Info("expired reset tokens swept")
	return n, nil
}

// Run sweeps every Interval until ctx is done.
func (s *TokenSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.Logger.WithError(err).Error("reset token sweep failed")
			}
		}
	}
}
