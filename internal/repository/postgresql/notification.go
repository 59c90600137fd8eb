package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/database"
)

type notificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

const insertNotification = `
	INSERT INTO notifications (id, recipient_id, type, title, message, reference_id, data, is_read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

func prepareNotification(n *notification.Notification) ([]interface{}, error) {
	if n.ID == "" {
		n.ID = newID()
	}
	n.CreatedAt = stamp(n.CreatedAt)

	var data []byte
	if n.Data != nil {
		var err error
		if data, err = json.Marshal(n.Data); err != nil {
			return nil, fmt.Errorf("failed to encode notification data: %w", err)
		}
	}
	return []interface{}{n.ID, n.RecipientID, string(n.Type), n.Title, n.Message, n.ReferenceID, data, n.IsRead, n.CreatedAt}, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	q := GetQuerier(ctx, r.db)

	args, err := prepareNotification(n)
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, insertNotification, args...); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// CreateBatch sends all inserts in one round trip.
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	batch := &pgx.Batch{}
	for _, n := range notifications {
		args, err := prepareNotification(n)
		if err != nil {
			return err
		}
		batch.Queue(insertNotification, args...)
	}

	var br pgx.BatchResults
	switch v := q.(type) {
	case pgx.Tx:
		br = v.SendBatch(ctx, batch)
	default:
		br = r.db.SendBatch(ctx, batch)
	}
	defer br.Close()

	for range notifications {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to create notification batch: %w", err)
		}
	}
	return nil
}

func (r *notificationRepository) ExistsForReference(ctx context.Context, referenceID string, notifType notification.NotificationType) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM notifications WHERE reference_id = $1 AND type = $2)`,
		referenceID, string(notifType),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check notification reference: %w", err)
	}
	return exists, nil
}

func (r *notificationRepository) DeleteByReference(ctx context.Context, referenceID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM notifications WHERE reference_id = $1 AND NOT is_read`, referenceID); err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}
