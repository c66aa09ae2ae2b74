package repository

import (
	"context"
	"time"

	"github.com/oksasatya/parkingtime-identity/internal/domain/entity"
)

type ResetTokenRepository interface {
	Create(ctx context.Context, t *entity.ResetToken) error
	// FindLatestByUserID returns the most recently issued token of the user.
	FindLatestByUserID(ctx context.Context, userID string) (*entity.ResetToken, error)
	// FindByTokenForUpdate locks the token row until the surrounding transaction ends.
	FindByTokenForUpdate(ctx context.Context, token string) (*entity.ResetToken, error)
	ExistsByToken(ctx context.Context, token string) (bool, error)
	MarkUsed(ctx context.Context, id string, at time.Time) error
	// DeleteCreatedBefore removes every token issued at or before cutoff, used or not.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ResetHistoryRepository interface {
	Create(ctx context.Context, h *entity.ResetHistory) error
	ListByUserID(ctx context.Context, userID string) ([]entity.ResetHistory, error)
}

// EmailVerificationRepository stores at most one verification row per user.
type EmailVerificationRepository interface {
	// Upsert replaces the user's row, or inserts it when absent.
	Upsert(ctx context.Context, v *entity.EmailVerification) error
	FindByUserID(ctx context.Context, userID string) (*entity.EmailVerification, error)
	FindByUserIDForUpdate(ctx context.Context, userID string) (*entity.EmailVerification, error)
	Update(ctx context.Context, v *entity.EmailVerification) error
}
