package timeexception

import (
	"slices"
	"time"
)

type Type string

const (
	TypeLate             Type = "LATE"
	TypeMissedPunch      Type = "MISSED_PUNCH"
	TypeShortTime        Type = "SHORT_TIME"
	TypeOvertimeRequest  Type = "OVERTIME_REQUEST"
	TypeManualAdjustment Type = "MANUAL_ADJUSTMENT"
	TypeBreakPermission  Type = "BREAK_PERMISSION"
)

// IsEphemeral reports whether exceptions of this type are deleted, rather
// than resolved, once their condition clears.
func (t Type) IsEphemeral() bool {
	return t == TypeMissedPunch || t == TypeShortTime
}

// HasDeadline reports whether the type is an ad-hoc request with a response deadline.
func (t Type) HasDeadline() bool {
	return t == TypeBreakPermission || t == TypeOvertimeRequest
}

type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusEscalated Status = "ESCALATED"
	StatusResolved  Status = "RESOLVED"
)

var transitions = map[Status][]Status{
	StatusOpen:      {StatusPending},
	StatusPending:   {StatusApproved, StatusRejected, StatusEscalated},
	StatusApproved:  {StatusResolved},
	StatusEscalated: {StatusPending, StatusResolved},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusPending, StatusApproved, StatusRejected, StatusEscalated, StatusResolved:
		return true
	}
	return false
}

// CanTransitionTo enforces the lifecycle table. REJECTED and RESOLVED are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// IsUnresolved reports whether the exception still needs attention.
func (s Status) IsUnresolved() bool {
	return s != StatusResolved && s != StatusRejected
}

// MarkerRepeatedLateness tags the summary exception created by the lateness escalator.
const MarkerRepeatedLateness = "repeated_lateness"

// BreakWindow is carried only by BREAK_PERMISSION exceptions.
type BreakWindow struct {
	Start           time.Time
	End             time.Time
	DurationMinutes int
}

// TimeException is an anomaly or request against an attendance record. It
// references the record by id and never owns it.
type TimeException struct {
	ID                  string
	EmployeeID          string
	AttendanceRecordID  string
	Type                Type
	Status              Status
	AssignedTo          *string
	Reason              string
	Minutes             int
	Break               *BreakWindow
	Deadline            *time.Time
	EscalatedAt         *time.Time
	Marker              *string
	RelatedExceptionIDs []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (e TimeException) Clone() TimeException {
	c := e
	if e.AssignedTo != nil {
		v := *e.AssignedTo
		c.AssignedTo = &v
	}
	if e.Break != nil {
		v := *e.Break
		c.Break = &v
	}
	if e.Deadline != nil {
		v := *e.Deadline
		c.Deadline = &v
	}
	if e.EscalatedAt != nil {
		v := *e.EscalatedAt
		c.EscalatedAt = &v
	}
	if e.Marker != nil {
		v := *e.Marker
		c.Marker = &v
	}
	c.RelatedExceptionIDs = slices.Clone(e.RelatedExceptionIDs)
	return c
}

// Filter narrows List queries. Zero values match everything.
type Filter struct {
	EmployeeID         string
	AttendanceRecordID string
	Types              []Type
	Statuses           []Status
	CreatedFrom        *time.Time
	CreatedTo          *time.Time
	Marker             *string
}

func (f Filter) Matches(e TimeException) bool {
	if f.EmployeeID != "" && e.EmployeeID != f.EmployeeID {
		return false
	}
	if f.AttendanceRecordID != "" && e.AttendanceRecordID != f.AttendanceRecordID {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.Type) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, e.Status) {
		return false
	}
	if f.CreatedFrom != nil && e.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && e.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.Marker != nil && (e.Marker == nil || *e.Marker != *f.Marker) {
		return false
	}
	return true
}

// UnresolvedStatuses lists every status that is neither RESOLVED nor REJECTED.
func UnresolvedStatuses() []Status {
	return []Status{StatusOpen, StatusPending, StatusApproved, StatusEscalated}
}

// Escalate marks the exception ESCALATED on behalf of the system. Only
// exceptions still awaiting a decision (OPEN or PENDING) can be escalated.
func (e *TimeException) Escalate(now time.Time) error {
	switch e.Status {
	case StatusOpen, StatusPending:
	case StatusEscalated:
		return ErrAlreadyEscalated
	default:
		return ErrNotEscalatable
	}
	e.Status = StatusEscalated
	e.EscalatedAt = &now
	e.UpdatedAt = now
	return nil
}
