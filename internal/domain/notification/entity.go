package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeMissedPunch             NotificationType = "missed_punch"
	TypeLateArrival             NotificationType = "late_arrival"
	TypeShortTime               NotificationType = "short_time"
	TypeOvertimeRequest         NotificationType = "overtime_request"
	TypeExceptionAssigned       NotificationType = "exception_assigned"
	TypeExceptionStatusChanged  NotificationType = "exception_status_changed"
	TypeExceptionEscalated      NotificationType = "exception_escalated"
	TypeCorrectionInReview      NotificationType = "correction_in_review"
	TypeCorrectionApproved      NotificationType = "correction_approved"
	TypeCorrectionRejected      NotificationType = "correction_rejected"
	TypeCorrectionEscalated     NotificationType = "correction_escalated"
	TypeBreakPermissionApproved NotificationType = "break_permission_approved"
	TypeBreakPermissionRejected NotificationType = "break_permission_rejected"
	TypeRequestOverdue          NotificationType = "request_overdue"
	TypeRepeatedLateness        NotificationType = "repeated_lateness"
	TypePayrollCutoffEscalation NotificationType = "payroll_cutoff_escalation"
	TypeShiftAssignmentExpiring NotificationType = "shift_assignment_expiring"
)

// Notification represents a notification entity. ReferenceID points at the
// entity the notification is about so it can be cleaned up or deduplicated.
type Notification struct {
	ID          string
	RecipientID string
	Type        NotificationType
	Title       string
	Message     string
	ReferenceID *string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// CreateNotificationRequest represents a request to create a notification
type CreateNotificationRequest struct {
	RecipientID string
	Type        NotificationType
	Title       string
	Message     string
	ReferenceID *string
	Data        map[string]interface{}
}
