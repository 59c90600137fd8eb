package timeexception

import "errors"

var (
	ErrTimeExceptionNotFound = errors.New("time exception not found")
	ErrInvalidTransition     = errors.New("invalid time exception status transition")
	ErrInvalidStatus         = errors.New("invalid time exception status")
	ErrAlreadyEscalated      = errors.New("time exception is already escalated")
	ErrNotEscalatable        = errors.New("time exception cannot be escalated from its current status")
	ErrWrongType             = errors.New("time exception has the wrong type for this operation")
)

// Break permission errors
var (
	ErrBreakEndBeforeStart = errors.New("break end time must be after its start time")
	ErrBreakTooLong        = errors.New("break duration exceeds the maximum allowed")
	ErrInvalidMaxBreak     = errors.New("maximum break minutes must be between 1 and 1440")
	ErrRecordNotOwned      = errors.New("attendance record belongs to another employee")
)
