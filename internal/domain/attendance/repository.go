package attendance

import (
	"context"
	"time"
)

// Repository defines data access for attendance records.
type Repository interface {
	// Create stores a new record and returns it with ID, timestamps and version set.
	Create(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)

	// GetByID returns ErrAttendanceNotFound when no record exists.
	GetByID(ctx context.Context, id string) (AttendanceRecord, error)

	// GetByEmployeeAndDate returns nil, nil when the employee has no record for date.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*AttendanceRecord, error)

	// Update persists record if its Version still matches the stored one and
	// returns the record with the incremented version. A stale version yields
	// ErrVersionConflict.
	Update(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)

	ListByIDs(ctx context.Context, ids []string) ([]AttendanceRecord, error)
}
