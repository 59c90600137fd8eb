package shiftwindow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

type resolver struct {
	scheduleRepo schedule.Repository
	holidays     schedule.HolidayChecker
}

func NewResolver(scheduleRepo schedule.Repository, holidays schedule.HolidayChecker) schedule.Resolver {
	return &resolver{
		scheduleRepo: scheduleRepo,
		holidays:     holidays,
	}
}

// Resolve implements schedule.Resolver. When neither candidate admits ts the
// same-day failure is returned.
func (r *resolver) Resolve(ctx context.Context, employeeID string, ts time.Time) (schedule.Window, error) {
	day := schedule.DateOnly(ts)

	w, sameDayErr := r.resolveAnchored(ctx, employeeID, day, schedule.AnchorSameDay, ts)
	if sameDayErr == nil {
		return w, nil
	}
	if !isRuleViolation(sameDayErr) {
		return schedule.Window{}, sameDayErr
	}

	w, prevErr := r.resolveAnchored(ctx, employeeID, day.AddDate(0, 0, -1), schedule.AnchorPreviousDay, ts)
	if prevErr == nil {
		return w, nil
	}
	if !isRuleViolation(prevErr) {
		return schedule.Window{}, prevErr
	}

	return schedule.Window{}, sameDayErr
}

func (r *resolver) resolveAnchored(ctx context.Context, employeeID string, day time.Time, anchor schedule.Anchor, ts time.Time) (schedule.Window, error) {
	holiday, err := r.holidays.IsHoliday(ctx, day)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("failed to check holiday: %w", err)
	}
	if holiday {
		return schedule.Window{}, fmt.Errorf("%w: %s", schedule.ErrHoliday, day.Format("02/01/2006"))
	}

	assignment, err := r.approvedAssignment(ctx, employeeID, day)
	if err != nil {
		return schedule.Window{}, err
	}

	rest, err := r.isRestDay(ctx, assignment, day)
	if err != nil {
		return schedule.Window{}, err
	}
	if rest {
		return schedule.Window{}, fmt.Errorf("%w: %s", schedule.ErrWeeklyRestDay, day.Weekday())
	}

	w, err := r.buildWindow(ctx, assignment, day, anchor)
	if err != nil {
		return schedule.Window{}, err
	}

	if !w.Contains(ts) {
		return schedule.Window{}, fmt.Errorf("%w: %s is not within %s - %s",
			schedule.ErrOutsideShiftWindow,
			ts.Format("02/01/2006 15:04"),
			w.EffectiveStart.Format("02/01/2006 15:04"),
			w.EffectiveEnd.Format("02/01/2006 15:04"),
		)
	}
	return w, nil
}

// approvedAssignment returns the approved assignment covering day, or a
// status-specific error explaining why there is none.
func (r *resolver) approvedAssignment(ctx context.Context, employeeID string, day time.Time) (*schedule.ShiftAssignment, error) {
	assignments, err := r.scheduleRepo.GetAssignmentsCovering(ctx, employeeID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift assignments: %w", err)
	}

	var pending, cancelled, expired bool
	for i := range assignments {
		switch assignments[i].Status {
		case schedule.AssignmentStatusApproved:
			return &assignments[i], nil
		case schedule.AssignmentStatusPending:
			pending = true
		case schedule.AssignmentStatusCancelled:
			cancelled = true
		case schedule.AssignmentStatusExpired:
			expired = true
		}
	}

	date := day.Format("02/01/2006")
	switch {
	case pending:
		return nil, fmt.Errorf("%w: the assignment for %s must be approved before punching", schedule.ErrAssignmentPending, date)
	case cancelled:
		return nil, fmt.Errorf("%w: contact your manager for a new assignment for %s", schedule.ErrAssignmentCancelled, date)
	case expired:
		return nil, fmt.Errorf("%w: the assignment covering %s is no longer valid", schedule.ErrAssignmentExpired, date)
	}
	return nil, fmt.Errorf("%w: %s", schedule.ErrNoApprovedAssignment, date)
}

func (r *resolver) isRestDay(ctx context.Context, assignment *schedule.ShiftAssignment, day time.Time) (bool, error) {
	if assignment.ScheduleRuleID == nil {
		return false, nil
	}
	rule, err := r.scheduleRepo.GetScheduleRuleByID(ctx, *assignment.ScheduleRuleID)
	if err != nil {
		if errors.Is(err, schedule.ErrScheduleRuleNotFound) {
			return false, fmt.Errorf("%w: schedule rule %s of assignment %s does not exist", schedule.ErrMalformedShift, *assignment.ScheduleRuleID, assignment.ID)
		}
		return false, fmt.Errorf("failed to get schedule rule: %w", err)
	}
	return rule.IsRestDay(day), nil
}

func (r *resolver) buildWindow(ctx context.Context, assignment *schedule.ShiftAssignment, day time.Time, anchor schedule.Anchor) (schedule.Window, error) {
	shift, err := r.scheduleRepo.GetShiftByID(ctx, assignment.ShiftID)
	if err != nil {
		if errors.Is(err, schedule.ErrShiftNotFound) {
			return schedule.Window{}, fmt.Errorf("%w: shift %s of assignment %s does not exist", schedule.ErrMalformedShift, assignment.ShiftID, assignment.ID)
		}
		return schedule.Window{}, fmt.Errorf("failed to get shift: %w", err)
	}

	startHour, startMinute, ok := validator.ParseClock(shift.StartTime)
	if !ok {
		return schedule.Window{}, fmt.Errorf("%w: shift %s has invalid start time %q", schedule.ErrMalformedShift, shift.ID, shift.StartTime)
	}
	endHour, endMinute, ok := validator.ParseClock(shift.EndTime)
	if !ok {
		return schedule.Window{}, fmt.Errorf("%w: shift %s has invalid end time %q", schedule.ErrMalformedShift, shift.ID, shift.EndTime)
	}
	if shift.GraceInMinutes < 0 || shift.GraceOutMinutes < 0 {
		return schedule.Window{}, fmt.Errorf("%w: shift %s has negative grace minutes", schedule.ErrMalformedShift, shift.ID)
	}

	start := validator.CombineDateClock(day, startHour, startMinute)
	end := validator.CombineDateClock(day, endHour, endMinute)
	if !end.After(start) {
		end = validator.CombineDateClock(day.AddDate(0, 0, 1), endHour, endMinute)
	}

	return schedule.Window{
		Shift:          shift,
		Assignment:     *assignment,
		Anchor:         anchor,
		AnchorDate:     day,
		ScheduledStart: start,
		ScheduledEnd:   end,
		EffectiveStart: start.Add(-time.Duration(shift.GraceInMinutes) * time.Minute),
		EffectiveEnd:   end.Add(time.Duration(shift.GraceOutMinutes) * time.Minute),
	}, nil
}

// DaySchedule implements schedule.Resolver.
func (r *resolver) DaySchedule(ctx context.Context, employeeID string, date time.Time) (schedule.DaySchedule, error) {
	day := schedule.DateOnly(date)
	ds := schedule.DaySchedule{Date: day}

	holiday, err := r.holidays.IsHoliday(ctx, day)
	if err != nil {
		return ds, fmt.Errorf("failed to check holiday: %w", err)
	}
	ds.IsHoliday = holiday

	assignment, err := r.approvedAssignment(ctx, employeeID, day)
	if err != nil {
		if isRuleViolation(err) {
			return ds, nil
		}
		return ds, err
	}

	ds.IsRestDay, err = r.isRestDay(ctx, assignment, day)
	if err != nil {
		return ds, err
	}

	w, err := r.buildWindow(ctx, assignment, day, schedule.AnchorSameDay)
	if err != nil {
		return ds, err
	}
	ds.Window = &w
	return ds, nil
}

// IsWeeklyRestDay implements schedule.Resolver.
func (r *resolver) IsWeeklyRestDay(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	day := schedule.DateOnly(date)
	assignment, err := r.approvedAssignment(ctx, employeeID, day)
	if err != nil {
		if isRuleViolation(err) {
			return false, nil
		}
		return false, err
	}
	return r.isRestDay(ctx, assignment, day)
}

// isRuleViolation separates the non-retryable scheduling errors from
// infrastructure failures.
func isRuleViolation(err error) bool {
	return errors.Is(err, schedule.ErrHoliday) ||
		errors.Is(err, schedule.ErrWeeklyRestDay) ||
		errors.Is(err, schedule.ErrNoApprovedAssignment) ||
		errors.Is(err, schedule.ErrAssignmentPending) ||
		errors.Is(err, schedule.ErrAssignmentCancelled) ||
		errors.Is(err, schedule.ErrAssignmentExpired) ||
		errors.Is(err, schedule.ErrMalformedShift) ||
		errors.Is(err, schedule.ErrOutsideShiftWindow)
}
