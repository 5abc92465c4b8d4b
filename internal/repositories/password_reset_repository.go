package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskhub/internal/apperrors"
)

// PasswordResetRepository remembers consumed reset token ids.
type PasswordResetRepository interface {
	// Consume records tokenID and stores passwordHash for userID in one
	// transaction. A second call with the same id fails with a ConflictError
	// and a failed password write leaves the token unused.
	Consume(ctx context.Context, tokenID string, userID int64, expiresAt time.Time, passwordHash string) error
}

type passwordResetRepository struct {
	DB *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{DB: db}
}

func (r *passwordResetRepository) Consume(ctx context.Context, tokenID string, userID int64, expiresAt time.Time, passwordHash string) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin password reset: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const mark = `
		INSERT INTO password_resets (token_id, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_id) DO NOTHING`
	res, err := tx.ExecContext(ctx, mark, tokenID, userID, expiresAt)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.Conflict("reset token already used")
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("store new password: %w", err)
	}
	if err = affectedOrNotFound(res); err != nil {
		return err
	}
	return tx.Commit()
}
