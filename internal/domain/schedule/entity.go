package schedule

import "time"

// PunchPolicy decides which punches of a day are stored.
type PunchPolicy string

const (
	PunchPolicyFirstLast PunchPolicy = "FIRST_LAST" // only the first IN and the latest OUT count
	PunchPolicyMultiple  PunchPolicy = "MULTIPLE"   // every punch counts, strict IN/OUT alternation
)

var PunchPolicyValues = []string{
	string(PunchPolicyFirstLast),
	string(PunchPolicyMultiple),
}

// Shift is read-only to the timekeeping engine. StartTime and EndTime are
// "HH:MM" wall-clock times; a shift whose end is not after its start ends on
// the following day.
type Shift struct {
	ID                       string
	Name                     string
	StartTime                string
	EndTime                  string
	GraceInMinutes           int
	GraceOutMinutes          int
	PunchPolicy              PunchPolicy
	RequiresOvertimeApproval bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

type AssignmentStatus string

const (
	AssignmentStatusApproved  AssignmentStatus = "APPROVED"
	AssignmentStatusPending   AssignmentStatus = "PENDING"
	AssignmentStatusCancelled AssignmentStatus = "CANCELLED"
	AssignmentStatusExpired   AssignmentStatus = "EXPIRED"
)

// ShiftAssignment maps an employee to a Shift (and optionally a ScheduleRule)
// for an inclusive date range. A nil EndDate means open-ended.
type ShiftAssignment struct {
	ID             string
	EmployeeID     string
	ShiftID        string
	ScheduleRuleID *string
	StartDate      time.Time
	EndDate        *time.Time
	Status         AssignmentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Covers reports whether the assignment's date range contains day.
func (a ShiftAssignment) Covers(day time.Time) bool {
	d := DateOnly(day)
	if d.Before(DateOnly(a.StartDate)) {
		return false
	}
	if a.EndDate != nil && d.After(DateOnly(*a.EndDate)) {
		return false
	}
	return true
}

// ScheduleRule defines the recurring weekly rest days of an assignment.
type ScheduleRule struct {
	ID             string
	Name           string
	WeeklyRestDays []time.Weekday
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsRestDay reports whether day falls on one of the rule's weekly rest days.
func (r ScheduleRule) IsRestDay(day time.Time) bool {
	for _, wd := range r.WeeklyRestDays {
		if day.Weekday() == wd {
			return true
		}
	}
	return false
}

// Holiday is a company-specific non-working day.
type Holiday struct {
	ID   string
	Date time.Time
	Name string
}

// OvertimeApproval pre-authorises overtime for an employee over a date range.
type OvertimeApproval struct {
	ID         string
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	Active     bool
}

// LatenessPolicy is a named override of the repeated-lateness thresholds.
type LatenessPolicy struct {
	Name       string
	WindowDays int
	Threshold  int
}

// DateOnly truncates t to midnight in t's own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
