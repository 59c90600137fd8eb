package attendance

import "errors"

// Attendance domain errors
var (
	// Punch sequencing errors
	ErrInvalidPunchType   = errors.New("invalid punch type")
	ErrDuplicatePunch     = errors.New("a punch of the same type already exists at this time")
	ErrOutOfSequence      = errors.New("punch is earlier than the last recorded punch")
	ErrAlreadyPunchedIn   = errors.New("already punched in, punch out first")
	ErrAlreadyPunchedOut  = errors.New("already punched out, punch in first")
	ErrNoPriorPunchIn     = errors.New("cannot punch out without a prior punch in")
	ErrPunchDayMismatch   = errors.New("punch does not belong to the attendance record's day")
	ErrPunchAfterShiftEnd = errors.New("punch is later than the shift window's effective end")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrAttendanceExists   = errors.New("attendance record already exists for this day")
	ErrUnauthorized       = errors.New("attendance record belongs to another employee")
	ErrVersionConflict    = errors.New("attendance record was modified concurrently")
)
