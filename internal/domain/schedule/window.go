package schedule

import "time"

// Anchor says which calendar day a resolved window starts on relative to the punch.
type Anchor string

const (
	AnchorSameDay     Anchor = "same_day"
	AnchorPreviousDay Anchor = "previous_day"
)

// Window is a shift occurrence resolved for an employee. Scheduled bounds
// are the shift's own times; effective bounds include grace.
type Window struct {
	Shift          Shift
	Assignment     ShiftAssignment
	Anchor         Anchor
	AnchorDate     time.Time
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	EffectiveStart time.Time
	EffectiveEnd   time.Time
}

// Contains reports whether ts lies inside the effective bounds, inclusive.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.EffectiveStart) && !ts.After(w.EffectiveEnd)
}

func (w Window) ScheduledMinutes() int {
	return int(w.ScheduledEnd.Sub(w.ScheduledStart) / time.Minute)
}

// LateThreshold is the last instant an IN punch is on time.
func (w Window) LateThreshold() time.Time {
	return w.ScheduledStart.Add(time.Duration(w.Shift.GraceInMinutes) * time.Minute)
}

// EarlyLeaveThreshold is the first instant an OUT punch is not early.
func (w Window) EarlyLeaveThreshold() time.Time {
	return w.ScheduledEnd.Add(-time.Duration(w.Shift.GraceOutMinutes) * time.Minute)
}

// DaySchedule describes one shift-day without reference to a punch. Window
// is nil when no approved assignment covers the day.
type DaySchedule struct {
	Date      time.Time
	Window    *Window
	IsHoliday bool
	IsRestDay bool
}

// IsWorkingDay reports a scheduled day that is neither a holiday nor a rest day.
func (d DaySchedule) IsWorkingDay() bool {
	return d.Window != nil && !d.IsHoliday && !d.IsRestDay
}
