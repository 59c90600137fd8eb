package notification

import "errors"

// Notification domain errors
var (
	ErrServiceStopped   = errors.New("notification service is stopped")
	ErrMissingRecipient = errors.New("notification recipient is required")
)
