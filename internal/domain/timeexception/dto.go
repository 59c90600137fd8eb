package timeexception

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

type AssignRequest struct {
	HandlerID string `json:"handler_id"`
}

func (r *AssignRequest) Validate() error {
	if validator.IsEmpty(r.HandlerID) {
		return validator.ValidationErrors{{Field: "handler_id", Message: "handler_id is required"}}
	}
	return nil
}

type UpdateStatusRequest struct {
	Status Status `json:"status"`
	Note   string `json:"note,omitempty"`
}

func (r *UpdateStatusRequest) Validate() error {
	if !r.Status.IsValid() {
		return validator.ValidationErrors{{Field: "status", Message: "status must be one of OPEN, PENDING, APPROVED, REJECTED, ESCALATED, RESOLVED"}}
	}
	return nil
}

// StatusChange is the outcome of UpdateStatus. Deleted is set when a
// satisfied SHORT_TIME exception was removed instead of resolved.
type StatusChange struct {
	Exception TimeException
	Deleted   bool
}

type BreakWindowResponse struct {
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type TimeExceptionResponse struct {
	ID                  string               `json:"id"`
	EmployeeID          string               `json:"employee_id"`
	AttendanceRecordID  string               `json:"attendance_record_id"`
	Type                Type                 `json:"type"`
	Status              Status               `json:"status"`
	AssignedTo          *string              `json:"assigned_to,omitempty"`
	Reason              string               `json:"reason"`
	Minutes             int                  `json:"minutes"`
	Break               *BreakWindowResponse `json:"break,omitempty"`
	Deadline            *string              `json:"deadline,omitempty"`
	EscalatedAt         *string              `json:"escalated_at,omitempty"`
	Marker              *string              `json:"marker,omitempty"`
	RelatedExceptionIDs []string             `json:"related_exception_ids,omitempty"`
	CreatedAt           string               `json:"created_at"`
	UpdatedAt           string               `json:"updated_at"`
}

type StatusChangeResponse struct {
	Deleted   bool                  `json:"deleted"`
	Exception TimeExceptionResponse `json:"exception"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateTime)
	return &s
}

func NewTimeExceptionResponse(e TimeException) TimeExceptionResponse {
	resp := TimeExceptionResponse{
		ID:                  e.ID,
		EmployeeID:          e.EmployeeID,
		AttendanceRecordID:  e.AttendanceRecordID,
		Type:                e.Type,
		Status:              e.Status,
		AssignedTo:          e.AssignedTo,
		Reason:              e.Reason,
		Minutes:             e.Minutes,
		Deadline:            formatTimePtr(e.Deadline),
		EscalatedAt:         formatTimePtr(e.EscalatedAt),
		Marker:              e.Marker,
		RelatedExceptionIDs: e.RelatedExceptionIDs,
		CreatedAt:           e.CreatedAt.Format(time.DateTime),
		UpdatedAt:           e.UpdatedAt.Format(time.DateTime),
	}
	if e.Break != nil {
		resp.Break = &BreakWindowResponse{
			StartTime:       e.Break.Start.Format(time.DateTime),
			EndTime:         e.Break.End.Format(time.DateTime),
			DurationMinutes: e.Break.DurationMinutes,
		}
	}
	return resp
}

func NewTimeExceptionResponses(list []TimeException) []TimeExceptionResponse {
	out := make([]TimeExceptionResponse, 0, len(list))
	for _, e := range list {
		out = append(out, NewTimeExceptionResponse(e))
	}
	return out
}
