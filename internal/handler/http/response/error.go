package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrTokenRevoked):
		Unauthorized(w, "Token revoked")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrEmployeeIDRequired),
		errors.Is(err, auth.ErrNotSelf),
		errors.Is(err, auth.ErrManagerAccessRequired),
		errors.Is(err, auth.ErrAdminAccessRequired):
		Forbidden(w, err.Error())

	// Not found
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, timeexception.ErrTimeExceptionNotFound):
		NotFound(w, "Time exception not found")
	case errors.Is(err, correction.ErrCorrectionNotFound):
		NotFound(w, "Correction request not found")

	// Ownership
	case errors.Is(err, attendance.ErrUnauthorized),
		errors.Is(err, correction.ErrNotOwner),
		errors.Is(err, timeexception.ErrRecordNotOwned):
		Forbidden(w, err.Error())

	// State conflicts
	case errors.Is(err, attendance.ErrVersionConflict),
		errors.Is(err, attendance.ErrAttendanceExists),
		errors.Is(err, attendance.ErrDuplicatePunch),
		errors.Is(err, correction.ErrOpenRequestExists),
		errors.Is(err, correction.ErrInvalidStatus),
		errors.Is(err, timeexception.ErrInvalidTransition),
		errors.Is(err, timeexception.ErrAlreadyEscalated),
		errors.Is(err, timeexception.ErrNotEscalatable):
		Conflict(w, err.Error())

	// Domain rule violations
	case errors.Is(err, attendance.ErrInvalidPunchType),
		errors.Is(err, attendance.ErrOutOfSequence),
		errors.Is(err, attendance.ErrAlreadyPunchedIn),
		errors.Is(err, attendance.ErrAlreadyPunchedOut),
		errors.Is(err, attendance.ErrNoPriorPunchIn),
		errors.Is(err, attendance.ErrPunchDayMismatch),
		errors.Is(err, attendance.ErrPunchAfterShiftEnd),
		errors.Is(err, schedule.ErrHoliday),
		errors.Is(err, schedule.ErrWeeklyRestDay),
		errors.Is(err, schedule.ErrNoApprovedAssignment),
		errors.Is(err, schedule.ErrAssignmentPending),
		errors.Is(err, schedule.ErrAssignmentCancelled),
		errors.Is(err, schedule.ErrAssignmentExpired),
		errors.Is(err, schedule.ErrMalformedShift),
		errors.Is(err, schedule.ErrOutsideShiftWindow),
		errors.Is(err, correction.ErrNoPunchToCorrect),
		errors.Is(err, correction.ErrRedundantCorrection),
		errors.Is(err, correction.ErrCorrectionDayInvalid),
		errors.Is(err, timeexception.ErrInvalidStatus),
		errors.Is(err, timeexception.ErrWrongType),
		errors.Is(err, timeexception.ErrBreakEndBeforeStart),
		errors.Is(err, timeexception.ErrBreakTooLong),
		errors.Is(err, timeexception.ErrInvalidMaxBreak):
		BadRequest(w, err.Error(), nil)

	case errors.Is(err, lock.ErrLockTimeout):
		ServiceUnavailable(w, "Attendance record is busy, try again")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
