package repository

import (
	"context"
	"encoding/json"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
)

type CreateNotificationInput struct {
	Title   string
	Message string
	Type    string
	Data    json.RawMessage
}

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (title, message, type, data)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, message, type, data, created_at, read_at
	`
	var notification models.Notification
	err := r.db.QueryRow(ctx, query, input.Title, input.Message, input.Type, input.Data).Scan(
		&notification.ID,
		&notification.Title,
		&notification.Message,
		&notification.Type,
		&notification.Data,
		&notification.CreatedAt,
		&notification.ReadAt,
	)
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepository) List(ctx context.Context, offset, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, title, message, type, data, created_at, read_at
		FROM notifications
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var notification models.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.Title,
			&notification.Message,
			&notification.Type,
			&notification.Data,
			&notification.CreatedAt,
			&notification.ReadAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE read_at IS NULL`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead sets read_at once; re-reading an already-read notification is a
// no-op returning the current row.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID int64) (*models.Notification, error) {
	query := `
		UPDATE notifications
		SET read_at = COALESCE(read_at, NOW())
		WHERE id = $1
		RETURNING id, title, message, type, data, created_at, read_at
	`
	var notification models.Notification
	err := r.db.QueryRow(ctx, query, notificationID).Scan(
		&notification.ID,
		&notification.Title,
		&notification.Message,
		&notification.Type,
		&notification.Data,
		&notification.CreatedAt,
		&notification.ReadAt,
	)
	if err != nil {
		return nil, err
	}
	return &notification, nil
}
