package correction

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

// SubmitRequest is the employee-facing correction input.
type SubmitRequest struct {
	EmployeeID              string `json:"employee_id"`
	AttendanceRecordID      string `json:"attendance_record_id"`
	CorrectionType          Kind   `json:"correction_type"`
	CorrectedPunchDate      string `json:"corrected_punch_date"`       // dd/mm/yyyy
	CorrectedPunchLocalTime string `json:"corrected_punch_local_time"` // HH:mm
	Reason                  string `json:"reason"`
}

func (r *SubmitRequest) Validate() error {
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
	} else if !validator.IsValidUUID(r.AttendanceRecordID) {
		errs = append(errs, validator.ValidationError{
			Field:   "attendance_record_id",
			Message: "attendance_record_id must be a valid UUID",
		})
	}

	if !r.CorrectionType.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "correction_type",
			Message: "correction_type must be one of MISSING_PUNCH_IN, MISSING_PUNCH_OUT, INCORRECT_PUNCH_IN, INCORRECT_PUNCH_OUT",
		})
	}

	if !validator.IsValidDMYDate(r.CorrectedPunchDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "corrected_punch_date",
			Message: "corrected_punch_date must be in dd/mm/yyyy format",
		})
	}

	if !validator.IsValidClock(r.CorrectedPunchLocalTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "corrected_punch_local_time",
			Message: "corrected_punch_local_time must be in HH:mm format",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	} else if len(r.Reason) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// CorrectedTimestamp combines the date and clock fields in loc. Call Validate first.
func (r *SubmitRequest) CorrectedTimestamp(loc *time.Location) (time.Time, error) {
	date, err := validator.ParseDMYDate(r.CorrectedPunchDate, loc)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, ok := validator.ParseClock(r.CorrectedPunchLocalTime)
	if !ok {
		return time.Time{}, validator.ValidationErrors{{Field: "corrected_punch_local_time", Message: "corrected_punch_local_time must be in HH:mm format"}}
	}
	return validator.CombineDateClock(date, hour, minute), nil
}

type ReviewRequest struct {
	Decision Decision `json:"decision"`
	Note     string   `json:"note,omitempty"`
}

func (r *ReviewRequest) Validate() error {
	if !r.Decision.IsValid() {
		return validator.ValidationErrors{{Field: "decision", Message: "decision must be APPROVE or REJECT"}}
	}
	return nil
}

type CorrectionResponse struct {
	ID                 string  `json:"id"`
	EmployeeID         string  `json:"employee_id"`
	AttendanceRecordID string  `json:"attendance_record_id"`
	Status             Status  `json:"status"`
	Reason             string  `json:"reason"`
	CorrectionType     Kind    `json:"correction_type"`
	CorrectedTimestamp string  `json:"corrected_timestamp"`
	OriginalTimestamp  *string `json:"original_timestamp,omitempty"`
	ReviewerID         *string `json:"reviewer_id,omitempty"`
	ReviewNote         *string `json:"review_note,omitempty"`
	SubmittedAt        string  `json:"submitted_at"`
	ReviewedAt         *string `json:"reviewed_at,omitempty"`
	EscalatedAt        *string `json:"escalated_at,omitempty"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateTime)
	return &s
}

func NewCorrectionResponse(c CorrectionRequest) CorrectionResponse {
	return CorrectionResponse{
		ID:                 c.ID,
		EmployeeID:         c.EmployeeID,
		AttendanceRecordID: c.AttendanceRecordID,
		Status:             c.Status,
		Reason:             c.Reason,
		CorrectionType:     c.Detail.Kind,
		CorrectedTimestamp: c.Detail.CorrectedTimestamp.Format(time.DateTime),
		OriginalTimestamp:  formatTimePtr(c.Detail.OriginalTimestamp),
		ReviewerID:         c.ReviewerID,
		ReviewNote:         c.ReviewNote,
		SubmittedAt:        c.SubmittedAt.Format(time.DateTime),
		ReviewedAt:         formatTimePtr(c.ReviewedAt),
		EscalatedAt:        formatTimePtr(c.EscalatedAt),
	}
}
