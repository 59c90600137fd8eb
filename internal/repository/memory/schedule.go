package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
)

// ScheduleRepository serves shift configuration seeded through its Add methods.
type ScheduleRepository struct {
	mu                sync.RWMutex
	shifts            map[string]schedule.Shift
	assignments       []schedule.ShiftAssignment
	rules             map[string]schedule.ScheduleRule
	overtimeApprovals []schedule.OvertimeApproval
	latenessPolicies  map[string]schedule.LatenessPolicy
}

func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{
		shifts:           make(map[string]schedule.Shift),
		rules:            make(map[string]schedule.ScheduleRule),
		latenessPolicies: make(map[string]schedule.LatenessPolicy),
	}
}

func (r *ScheduleRepository) AddShift(s schedule.Shift) schedule.Shift {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = newID()
	}
	r.shifts[s.ID] = s
	return s
}

func (r *ScheduleRepository) AddAssignment(a schedule.ShiftAssignment) schedule.ShiftAssignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	r.assignments = append(r.assignments, a)
	return a
}

func (r *ScheduleRepository) AddScheduleRule(rule schedule.ScheduleRule) schedule.ScheduleRule {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.ID == "" {
		rule.ID = newID()
	}
	r.rules[rule.ID] = rule
	return rule
}

func (r *ScheduleRepository) AddOvertimeApproval(a schedule.OvertimeApproval) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	r.overtimeApprovals = append(r.overtimeApprovals, a)
}

func (r *ScheduleRepository) AddLatenessPolicy(p schedule.LatenessPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latenessPolicies[p.Name] = p
}

func (r *ScheduleRepository) GetAssignmentsCovering(_ context.Context, employeeID string, date time.Time) ([]schedule.ShiftAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []schedule.ShiftAssignment
	for _, a := range r.assignments {
		if a.EmployeeID == employeeID && a.Covers(date) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *ScheduleRepository) GetAssignmentsEndingBetween(_ context.Context, from, to time.Time) ([]schedule.ShiftAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lo, hi := schedule.DateOnly(from), schedule.DateOnly(to)
	var out []schedule.ShiftAssignment
	for _, a := range r.assignments {
		if a.Status != schedule.AssignmentStatusApproved || a.EndDate == nil {
			continue
		}
		end := schedule.DateOnly(*a.EndDate)
		if !end.Before(lo) && !end.After(hi) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *ScheduleRepository) GetShiftByID(_ context.Context, id string) (schedule.Shift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.shifts[id]
	if !ok {
		return schedule.Shift{}, schedule.ErrShiftNotFound
	}
	return s, nil
}

func (r *ScheduleRepository) GetScheduleRuleByID(_ context.Context, id string) (schedule.ScheduleRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[id]
	if !ok {
		return schedule.ScheduleRule{}, schedule.ErrScheduleRuleNotFound
	}
	rule.WeeklyRestDays = slices.Clone(rule.WeeklyRestDays)
	return rule, nil
}

func (r *ScheduleRepository) HasActiveOvertimeApproval(_ context.Context, employeeID string, date time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d := schedule.DateOnly(date)
	for _, a := range r.overtimeApprovals {
		if a.EmployeeID != employeeID || !a.Active {
			continue
		}
		if !d.Before(schedule.DateOnly(a.StartDate)) && !d.After(schedule.DateOnly(a.EndDate)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *ScheduleRepository) GetLatenessPolicy(_ context.Context, name string) (schedule.LatenessPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.latenessPolicies[name]
	if !ok {
		return schedule.LatenessPolicy{}, schedule.ErrLatenessPolicyMissing
	}
	return p, nil
}

// HolidayRepository stores company holidays by calendar date.
type HolidayRepository struct {
	mu       sync.RWMutex
	holidays map[string]schedule.Holiday
}

func NewHolidayRepository() *HolidayRepository {
	return &HolidayRepository{holidays: make(map[string]schedule.Holiday)}
}

func (r *HolidayRepository) AddHoliday(h schedule.Holiday) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holidays[dayKey(h.Date)] = h
}

func (r *HolidayRepository) IsCompanyHoliday(_ context.Context, date time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.holidays[dayKey(date)]
	return ok, nil
}
