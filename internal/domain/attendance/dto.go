package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

// ========================================
// PUNCH DTOs
// ========================================

// PunchRequest is shared by punch-in and punch-out. Timestamp is local
// "dd/mm/yyyy hh:mm"; nil means now.
type PunchRequest struct {
	EmployeeID string  `json:"employee_id"`
	Timestamp  *string `json:"timestamp,omitempty"`
	Source     string  `json:"source,omitempty"`
}

func (r *PunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if r.Timestamp != nil && !validator.IsValidPunchTimestamp(*r.Timestamp) {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp must be in dd/mm/yyyy hh:mm format",
		})
	}

	if len(r.Source) > 50 {
		errs = append(errs, validator.ValidationError{
			Field:   "source",
			Message: "source must not exceed 50 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// PunchResult reports whether the punch was stored. Under FIRST_LAST a punch
// may be acknowledged without changing the record.
type PunchResult struct {
	Record   AttendanceRecord
	Recorded bool
	Message  string
}

// RecomputeOptions carries the one-pass suppression flags set by punch-out
// after it cleared a missed punch.
type RecomputeOptions struct {
	SuppressLate      bool
	SuppressShortTime bool
}

// CreatePlaceholderRequest creates an empty record for manual entry.
type CreatePlaceholderRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"` // dd/mm/yyyy
}

func (r *CreatePlaceholderRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if !validator.IsValidDMYDate(r.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in dd/mm/yyyy format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// RESPONSE DTOs
// ========================================

type PunchResponse struct {
	Type   string `json:"type"`
	Time   string `json:"time"`
	Source string `json:"source,omitempty"`
}

type AttendanceResponse struct {
	ID                   string          `json:"id"`
	EmployeeID           string          `json:"employee_id"`
	Date                 string          `json:"date"`
	Punches              []PunchResponse `json:"punches"`
	TotalWorkMinutes     int             `json:"total_work_minutes"`
	LateMinutes          int             `json:"late_minutes"`
	EarlyLeaveMinutes    int             `json:"early_leave_minutes"`
	OvertimeMinutes      int             `json:"overtime_minutes"`
	HasMissedPunch       bool            `json:"has_missed_punch"`
	FinalisedForPayroll  bool            `json:"finalised_for_payroll"`
	ExceptionIDs         []string        `json:"exception_ids"`
	CorrectionRequestIDs []string        `json:"correction_request_ids"`
	CreatedAt            string          `json:"created_at"`
	UpdatedAt            string          `json:"updated_at"`
}

type PunchResultResponse struct {
	Recorded   bool               `json:"recorded"`
	Message    string             `json:"message"`
	Attendance AttendanceResponse `json:"attendance"`
}

// NewAttendanceResponse converts an AttendanceRecord to its API shape.
func NewAttendanceResponse(r AttendanceRecord) AttendanceResponse {
	punches := make([]PunchResponse, 0, r.Punches.Len())
	for _, p := range r.Punches.All() {
		punches = append(punches, PunchResponse{
			Type:   string(p.Type),
			Time:   p.Time.Format("2006-01-02 15:04:05"),
			Source: p.Source,
		})
	}

	exceptionIDs := r.ExceptionIDs
	if exceptionIDs == nil {
		exceptionIDs = []string{}
	}
	correctionIDs := r.CorrectionRequestIDs
	if correctionIDs == nil {
		correctionIDs = []string{}
	}

	return AttendanceResponse{
		ID:                   r.ID,
		EmployeeID:           r.EmployeeID,
		Date:                 r.Date.Format("2006-01-02"),
		Punches:              punches,
		TotalWorkMinutes:     r.TotalWorkMinutes,
		LateMinutes:          r.LateMinutes,
		EarlyLeaveMinutes:    r.EarlyLeaveMinutes,
		OvertimeMinutes:      r.OvertimeMinutes,
		HasMissedPunch:       r.HasMissedPunch,
		FinalisedForPayroll:  r.FinalisedForPayroll,
		ExceptionIDs:         exceptionIDs,
		CorrectionRequestIDs: correctionIDs,
		CreatedAt:            r.CreatedAt.Format(time.DateTime),
		UpdatedAt:            r.UpdatedAt.Format(time.DateTime),
	}
}

func NewPunchResultResponse(r PunchResult) PunchResultResponse {
	return PunchResultResponse{
		Recorded:   r.Recorded,
		Message:    r.Message,
		Attendance: NewAttendanceResponse(r.Record),
	}
}
