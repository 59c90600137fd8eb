package notification

import (
	"context"
)

// Repository defines the notification repository interface
type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	CreateBatch(ctx context.Context, notifications []*Notification) error

	// ExistsForReference reports whether a notification of notifType was
	// already stored for referenceID.
	ExistsForReference(ctx context.Context, referenceID string, notifType NotificationType) (bool, error)

	// DeleteByReference removes unread notifications pointing at referenceID.
	DeleteByReference(ctx context.Context, referenceID string) error
}
