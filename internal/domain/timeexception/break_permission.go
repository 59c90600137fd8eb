package timeexception

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

// BreakCalculator sums approved break minutes of a record.
type BreakCalculator interface {
	CalculateApprovedBreakMinutes(ctx context.Context, recordID string) (int, error)
}

type BreakPermissionService interface {
	BreakCalculator

	// Create stores a PENDING break permission on the employee's own record.
	Create(ctx context.Context, req CreateBreakRequest) (TimeException, error)

	Approve(ctx context.Context, id, approverID string) (TimeException, error)
	Reject(ctx context.Context, id, approverID, note string) (TimeException, error)

	SetMaxBreakMinutes(minutes int) error
	MaxBreakMinutes() int
}

// CreateBreakRequest times are local "dd/mm/yyyy hh:mm".
type CreateBreakRequest struct {
	EmployeeID         string `json:"employee_id"`
	AttendanceRecordID string `json:"attendance_record_id"`
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time"`
	Reason             string `json:"reason"`
}

func (r *CreateBreakRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if validator.IsEmpty(r.AttendanceRecordID) {
		errs = append(errs, validator.ValidationError{
			Field:   "attendance_record_id",
			Message: "attendance_record_id is required",
		})
	}

	if !validator.IsValidPunchTimestamp(r.StartTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must be in dd/mm/yyyy hh:mm format",
		})
	}

	if !validator.IsValidPunchTimestamp(r.EndTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be in dd/mm/yyyy hh:mm format",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Window parses the start and end times in loc. Call Validate first.
func (r *CreateBreakRequest) Window(loc *time.Location) (time.Time, time.Time, error) {
	start, err := validator.ParsePunchTimestamp(r.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := validator.ParsePunchTimestamp(r.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

type RejectBreakRequest struct {
	Note string `json:"note,omitempty"`
}

type SetMaxBreakMinutesRequest struct {
	Minutes int `json:"minutes"`
}

func (r *SetMaxBreakMinutesRequest) Validate() error {
	if r.Minutes < 1 || r.Minutes > 24*60 {
		return validator.ValidationErrors{{Field: "minutes", Message: "minutes must be between 1 and 1440"}}
	}
	return nil
}
