package notification

import (
	"context"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Service defines the notification service interface
type Service interface {
	// Queue notification (async processing via background workers)
	QueueNotification(ctx context.Context, req CreateNotificationRequest) error

	// SendNow stores the notification synchronously. Sweeps use it so their
	// dedup markers are visible before the next run.
	SendNow(ctx context.Context, req CreateNotificationRequest) error

	// HasBeenSent reports whether a notification of notifType exists for referenceID.
	HasBeenSent(ctx context.Context, referenceID string, notifType NotificationType) (bool, error)

	// DeleteForReference removes outstanding notifications about referenceID.
	DeleteForReference(ctx context.Context, referenceID string) error

	// Lifecycle
	Stop()
}
