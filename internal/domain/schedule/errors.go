package schedule

import "errors"

var (
	// Shift window errors
	ErrHoliday               = errors.New("punches are not accepted on a holiday")
	ErrWeeklyRestDay         = errors.New("punches are not accepted on a weekly rest day")
	ErrNoApprovedAssignment  = errors.New("no approved shift assignment covers this date")
	ErrAssignmentPending     = errors.New("shift assignment is still pending approval")
	ErrAssignmentCancelled   = errors.New("shift assignment has been cancelled")
	ErrAssignmentExpired     = errors.New("shift assignment has expired")
	ErrMalformedShift        = errors.New("shift configuration is malformed")
	ErrOutsideShiftWindow    = errors.New("punch time is outside the allowed shift window")
	ErrShiftNotFound         = errors.New("shift not found")
	ErrScheduleRuleNotFound  = errors.New("schedule rule not found")
	ErrLatenessPolicyMissing = errors.New("lateness policy not found")
)
