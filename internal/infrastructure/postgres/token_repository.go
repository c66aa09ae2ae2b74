package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/parkingtime-identity/internal/domain/entity"
	"github.com/oksasatya/parkingtime-identity/internal/domain/repository"
)

type ResetTokenRepository struct {
	db DBTX
}

const tokenColumns = `id, user_id, token, method, used, consumed_at, created_at`

func (r *ResetTokenRepository) Create(ctx context.Context, t *entity.ResetToken) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO reset_tokens (id, user_id, token, method, used, consumed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, t.UserID, t.Token, t.Method, t.Used, t.ConsumedAt, t.CreatedAt)
	return mapError(err)
}

func (r *ResetTokenRepository) FindLatestByUserID(ctx context.Context, userID string) (*entity.ResetToken, error) {
	return r.getOne(ctx, `
		SELECT `+tokenColumns+` FROM reset_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, userID)
}

func (r *ResetTokenRepository) FindByTokenForUpdate(ctx context.Context, token string) (*entity.ResetToken, error) {
	return r.getOne(ctx, `SELECT `+tokenColumns+` FROM reset_tokens WHERE token = $1 FOR UPDATE`, token)
}

func (r *ResetTokenRepository) ExistsByToken(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reset_tokens WHERE token = $1)`, token).Scan(&exists)
	return exists, err
}

func (r *ResetTokenRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE reset_tokens SET used = TRUE, consumed_at = $2 WHERE id = $1
	`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ResetTokenRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM reset_tokens WHERE created_at <= $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *ResetTokenRepository) getOne(ctx context.Context, query string, arg any) (*entity.ResetToken, error) {
	t := &entity.ResetToken{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&t.ID, &t.UserID, &t.Token, &t.Method, &t.Used, &t.ConsumedAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

type ResetHistoryRepository struct {
	db DBTX
}

func (r *ResetHistoryRepository) Create(ctx context.Context, h *entity.ResetHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO reset_history (id, user_id, method, created_at) VALUES ($1, $2, $3, $4)
	`, h.ID, h.UserID, h.Method, h.CreatedAt)
	return mapError(err)
}

func (r *ResetHistoryRepository) ListByUserID(ctx context.Context, userID string) ([]entity.ResetHistory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, method, created_at FROM reset_history
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.ResetHistory
	for rows.Next() {
		var h entity.ResetHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.Method, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
