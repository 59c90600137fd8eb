package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
)

type NotificationRepository struct {
	mu            sync.RWMutex
	notifications []notification.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) Create(_ context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == "" {
		n.ID = newID()
	}
	n.CreatedAt = stamp(n.CreatedAt)
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	for _, n := range notifications {
		if err := r.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *NotificationRepository) ExistsForReference(_ context.Context, referenceID string, notifType notification.NotificationType) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.notifications {
		if n.Type == notifType && n.ReferenceID != nil && *n.ReferenceID == referenceID {
			return true, nil
		}
	}
	return false, nil
}

func (r *NotificationRepository) DeleteByReference(_ context.Context, referenceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.notifications[:0]
	for _, n := range r.notifications {
		if !n.IsRead && n.ReferenceID != nil && *n.ReferenceID == referenceID {
			continue
		}
		kept = append(kept, n)
	}
	r.notifications = kept
	return nil
}

// All returns a snapshot of every stored notification.
func (r *NotificationRepository) All() []notification.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]notification.Notification(nil), r.notifications...)
}
