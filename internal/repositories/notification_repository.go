package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"taskhub/internal/models"
)

// NotificationRepository is append-only; rows are removed in bulk per recipient.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context) ([]models.Notification, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: sqlx.NewDb(db, "postgres")}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	rows, err := r.db.NamedQueryContext(ctx, `
		INSERT INTO notifications (user_id, message, type)
		VALUES (:user_id, :message, :type)
		RETURNING id, created_at`, n)
	if err != nil {
		return fmt.Errorf("create notification: %w", translate(err))
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&n.ID, &n.CreatedAt); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *notificationRepository) List(ctx context.Context) ([]models.Notification, error) {
	out := []models.Notification{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, user_id, message, type, created_at FROM notifications ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (r *notificationRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
