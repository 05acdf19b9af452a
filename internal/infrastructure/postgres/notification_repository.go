package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"horizon/internal/domain/notification"
)

const (
	deviceTokenColumns  = `id, user_id, token, device_type, is_active, created_at, last_used`
	notificationColumns = `id, user_id, title, message, category, data, opened_at, created_at`
)

// NotificationRepository stores FCM device tokens and the per-user inbox.
type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// UpsertDeviceToken registers a token, reactivating it and moving it to the
// caller when another user registered it first.
func (r *NotificationRepository) UpsertDeviceToken(ctx context.Context, params notification.CreateDeviceTokenParams) (*notification.DeviceToken, error) {
	dt, err := scanDeviceToken(r.db.QueryRowContext(ctx, `
		INSERT INTO device_tokens (user_id, token, device_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, device_type = EXCLUDED.device_type, is_active = true, last_used = NOW()
		RETURNING `+deviceTokenColumns,
		params.UserID, params.Token, params.DeviceType,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert device token: %w", err)
	}
	return dt, nil
}

// GetActiveTokensByUserID returns the user's live tokens, most recently used first.
func (r *NotificationRepository) GetActiveTokensByUserID(ctx context.Context, userID string) ([]*notification.DeviceToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+deviceTokenColumns+` FROM device_tokens
		WHERE user_id = $1 AND is_active
		ORDER BY last_used DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*notification.DeviceToken
	for rows.Next() {
		dt, err := scanDeviceToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		tokens = append(tokens, dt)
	}
	return tokens, rows.Err()
}

// DeactivateToken is called when FCM reports a token as unregistered.
func (r *NotificationRepository) DeactivateToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE device_tokens SET is_active = false WHERE token = $1`, token); err != nil {
		return fmt.Errorf("deactivate device token: %w", err)
	}
	return nil
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, params notification.CreateNotificationParams) (*notification.Notification, error) {
	data, err := json.Marshal(params.Data)
	if err != nil {
		return nil, fmt.Errorf("encode notification data: %w", err)
	}

	n, err := scanNotification(r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, title, message, category, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+notificationColumns,
		params.UserID, params.Title, params.Message, params.Category, data,
	))
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

// ListByUserID returns one page of the inbox, newest first, plus the
// user's total notification count.
func (r *NotificationRepository) ListByUserID(ctx context.Context, userID string, page, perPage int) ([]*notification.Notification, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`,
		userID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var inbox []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		inbox = append(inbox, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return inbox, total, nil
}

// MarkOpened stamps the first open only. Ids that are not UUIDs, or that
// belong to another user, are reported as not found.
func (r *NotificationRepository) MarkOpened(ctx context.Context, notificationID, userID string) error {
	if uuid.Validate(notificationID) != nil {
		return notification.ErrNotificationNotFound
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET opened_at = COALESCE(opened_at, NOW())
		WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("mark notification opened: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification opened: %w", err)
	}
	if n == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func scanDeviceToken(row scanner) (*notification.DeviceToken, error) {
	var dt notification.DeviceToken
	if err := row.Scan(&dt.ID, &dt.UserID, &dt.Token, &dt.DeviceType, &dt.IsActive, &dt.CreatedAt, &dt.LastUsed); err != nil {
		return nil, err
	}
	return &dt, nil
}

func scanNotification(row scanner) (*notification.Notification, error) {
	var (
		n        notification.Notification
		data     []byte
		openedAt sql.NullTime
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Category, &data, &openedAt, &n.CreatedAt); err != nil {
		return nil, err
	}
	if openedAt.Valid {
		n.OpenedAt = &openedAt.Time
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("decode notification data: %w", err)
		}
	}
	return &n, nil
}
