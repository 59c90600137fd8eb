package schedule

import (
	"context"
	"time"
)

// Repository is the read-only view of shift configuration owned by the
// scheduling module.
type Repository interface {
	// GetAssignmentsCovering returns every assignment of the employee, in any
	// status, whose date range contains date.
	GetAssignmentsCovering(ctx context.Context, employeeID string, date time.Time) ([]ShiftAssignment, error)

	// GetAssignmentsEndingBetween returns approved assignments whose end date
	// lies in [from, to].
	GetAssignmentsEndingBetween(ctx context.Context, from, to time.Time) ([]ShiftAssignment, error)

	GetShiftByID(ctx context.Context, id string) (Shift, error)
	GetScheduleRuleByID(ctx context.Context, id string) (ScheduleRule, error)

	// HasActiveOvertimeApproval reports whether an active overtime approval
	// covers the employee on date.
	HasActiveOvertimeApproval(ctx context.Context, employeeID string, date time.Time) (bool, error)

	GetLatenessPolicy(ctx context.Context, name string) (LatenessPolicy, error)
}

// HolidayRepository lists company holidays.
type HolidayRepository interface {
	IsCompanyHoliday(ctx context.Context, date time.Time) (bool, error)
}

// HolidayChecker answers whether a date is a non-working holiday.
type HolidayChecker interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}
