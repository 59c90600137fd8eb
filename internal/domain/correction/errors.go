package correction

import "errors"

var (
	ErrCorrectionNotFound   = errors.New("correction request not found")
	ErrOpenRequestExists    = errors.New("an open correction request already exists for this attendance record")
	ErrNoPunchToCorrect     = errors.New("no recorded punch of this type to correct, submit a missing punch request instead")
	ErrRedundantCorrection  = errors.New("corrected time is within one minute of the recorded punch")
	ErrInvalidStatus        = errors.New("correction request is not in a status that allows this action")
	ErrNotOwner             = errors.New("attendance record belongs to another employee")
	ErrCorrectionDayInvalid = errors.New("corrected punch is not on the attendance record's shift-day")
)
