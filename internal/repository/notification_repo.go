package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

// NotificationRepository handles the notification outbox
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

const notificationColumns = `id, from_user_id, to_user_id, title, body, status, attempts,
	sent_at, error_message, created_at, updated_at`

func scanNotification(scan func(dest ...interface{}) error) (*entity.Notification, error) {
	var n entity.Notification
	var sentAt sql.NullTime

	err := scan(
		&n.ID,
		&n.FromUserID,
		&n.ToUserID,
		&n.Title,
		&n.Body,
		&n.Status,
		&n.Attempts,
		&sentAt,
		&n.ErrorMessage,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sentAt.Valid {
		n.SentAt = &sentAt.Time
	}
	return &n, nil
}

// Create enqueues a notification row (status PENDING)
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (from_user_id, to_user_id, title, body, status)
		VALUES (?, ?, ?, ?, ?)
	`

	if n.Status == "" {
		n.Status = entity.NotificationStatusPending
	}

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		n.FromUserID,
		n.ToUserID,
		n.Title,
		n.Body,
		n.Status,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.String("to", n.ToUserID), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// GetByID retrieves a notification by ID; (nil, nil) when absent
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*entity.Notification, error) {
	query := fmt.Sprintf("SELECT %s FROM notifications WHERE id = ?", notificationColumns)
	row := executorFrom(ctx, r.db).QueryRowContext(ctx, query, id)
	n, err := scanNotification(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// ListPending returns up to limit undelivered notifications, oldest first
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]*entity.Notification, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE status = ?
		ORDER BY id ASC
		LIMIT ?
	`, notificationColumns)

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, entity.NotificationStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	defer rows.Close()

	var out []*entity.Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkSent records successful delivery
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	query := `
		UPDATE notifications
		SET status = ?, attempts = attempts + 1, sent_at = CURRENT_TIMESTAMP,
		    error_message = '', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query, entity.NotificationStatusSent, id)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed records a delivery failure. The row keeps status PENDING so
// an out-of-band retry picks it up again; the error is retained for
// operators.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	query := `
		UPDATE notifications
		SET attempts = attempts + 1, error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query, errMsg, id)
	if err != nil {
		r.logger.Error("Failed to mark notification failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}
