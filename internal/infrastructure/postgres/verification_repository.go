package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/oksasatya/parkingtime-identity/internal/domain/entity"
	"github.com/oksasatya/parkingtime-identity/internal/domain/repository"
)

type EmailVerificationRepository struct {
	db DBTX
}

const verificationColumns = `id, user_id, code, active, created_at, verified_at`

// Upsert keeps one row per user; on conflict the existing id is kept and
// written back into v.
func (r *EmailVerificationRepository) Upsert(ctx context.Context, v *entity.EmailVerification) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO email_verifications (id, user_id, code, active, created_at, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			code = EXCLUDED.code,
			active = EXCLUDED.active,
			created_at = EXCLUDED.created_at,
			verified_at = EXCLUDED.verified_at
		RETURNING id
	`, v.ID, v.UserID, v.Code, v.Active, v.CreatedAt, v.VerifiedAt).Scan(&v.ID)
	return mapError(err)
}

func (r *EmailVerificationRepository) FindByUserID(ctx context.Context, userID string) (*entity.EmailVerification, error) {
	return r.getOne(ctx, `SELECT `+verificationColumns+` FROM email_verifications WHERE user_id = $1`, userID)
}

func (r *EmailVerificationRepository) FindByUserIDForUpdate(ctx context.Context, userID string) (*entity.EmailVerification, error) {
	return r.getOne(ctx, `SELECT `+verificationColumns+` FROM email_verifications WHERE user_id = $1 FOR UPDATE`, userID)
}

func (r *EmailVerificationRepository) Update(ctx context.Context, v *entity.EmailVerification) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE email_verifications SET code = $2, active = $3, verified_at = $4 WHERE id = $1
	`, v.ID, v.Code, v.Active, v.VerifiedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *EmailVerificationRepository) getOne(ctx context.Context, query string, arg any) (*entity.EmailVerification, error) {
	v := &entity.EmailVerification{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&v.ID, &v.UserID, &v.Code, &v.Active, &v.CreatedAt, &v.VerifiedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}
