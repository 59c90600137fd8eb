package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
)

// RecomputeAttendance implements attendance.Service.
func (s *AttendanceServiceImpl) RecomputeAttendance(ctx context.Context, recordID string) (attendance.AttendanceRecord, error) {
	return s.Recompute(ctx, recordID, attendance.RecomputeOptions{})
}

// Recompute implements attendance.Service.
func (s *AttendanceServiceImpl) Recompute(ctx context.Context, recordID string, opts attendance.RecomputeOptions) (attendance.AttendanceRecord, error) {
	record, err := s.attendanceRepo.GetByID(ctx, recordID)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}

	err = s.mutate(ctx, record.EmployeeID, func(ctx context.Context) error {
		// Re-read under the lock; the first read only located the employee.
		record, err = s.attendanceRepo.GetByID(ctx, recordID)
		if err != nil {
			return err
		}
		record, err = s.recomputeLocked(ctx, record, opts)
		return err
	})
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}
	return record, nil
}

// DeriveMetrics implements attendance.Service.
func (s *AttendanceServiceImpl) DeriveMetrics(ctx context.Context, record *attendance.AttendanceRecord) error {
	ds, err := s.resolver.DaySchedule(ctx, record.EmployeeID, record.Date)
	if err != nil {
		return fmt.Errorf("failed to resolve day schedule: %w", err)
	}
	breakMinutes, err := s.breaks.CalculateApprovedBreakMinutes(ctx, record.ID)
	if err != nil {
		return fmt.Errorf("failed to calculate approved break minutes: %w", err)
	}
	deriveMetrics(record, ds, breakMinutes)
	return nil
}

// deriveMetrics fills every computed field of record except the
// finalisation flag.
func deriveMetrics(record *attendance.AttendanceRecord, ds schedule.DaySchedule, breakMinutes int) {
	seq := record.Punches
	record.TotalWorkMinutes = max(0, seq.WorkedMinutes()-breakMinutes)
	record.HasMissedPunch = seq.Count(attendance.PunchTypeIn) > seq.Count(attendance.PunchTypeOut)
	record.LateMinutes = 0
	record.EarlyLeaveMinutes = 0
	record.OvertimeMinutes = 0

	if ds.Window == nil {
		return
	}
	w := ds.Window
	offDay := ds.IsHoliday || ds.IsRestDay

	if firstIn, ok := seq.First(attendance.PunchTypeIn); ok && !offDay {
		record.LateMinutes = minutesBetween(w.LateThreshold(), firstIn.Time)
	}
	if record.HasMissedPunch {
		return
	}
	if lastOut, _, ok := seq.LastOf(attendance.PunchTypeOut); ok {
		if !offDay {
			record.EarlyLeaveMinutes = minutesBetween(lastOut.Time, w.EarlyLeaveThreshold())
		}
		record.OvertimeMinutes = minutesBetween(w.ScheduledEnd, lastOut.Time)
	}
}

// minutesBetween returns whole minutes from a to b, floored at zero.
func minutesBetween(a, b time.Time) int {
	if !b.After(a) {
		return 0
	}
	return int(b.Sub(a) / time.Minute)
}

// exceptionSnapshot is the record's exception set as it stood when a
// recompute pass began. Rules consult it rather than exceptions created
// earlier in the same pass.
type exceptionSnapshot struct {
	all []timeexception.TimeException
}

func (x exceptionSnapshot) has(t timeexception.Type, unresolvedOnly bool) bool {
	for _, e := range x.all {
		if e.Type == t && (!unresolvedOnly || e.Status.IsUnresolved()) {
			return true
		}
	}
	return false
}

func (x exceptionSnapshot) ofType(t timeexception.Type) []timeexception.TimeException {
	var out []timeexception.TimeException
	for _, e := range x.all {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// recomputeLocked runs one recompute pass on record and persists it. The
// caller holds the employee lock.
func (s *AttendanceServiceImpl) recomputeLocked(ctx context.Context, record attendance.AttendanceRecord, opts attendance.RecomputeOptions) (attendance.AttendanceRecord, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveRecompute(time.Since(started)) }()

	ds, err := s.resolver.DaySchedule(ctx, record.EmployeeID, record.Date)
	if err != nil {
		return record, fmt.Errorf("failed to resolve day schedule: %w", err)
	}
	breakMinutes, err := s.breaks.CalculateApprovedBreakMinutes(ctx, record.ID)
	if err != nil {
		return record, fmt.Errorf("failed to calculate approved break minutes: %w", err)
	}
	existing, err := s.exceptionRepo.List(ctx, timeexception.Filter{AttendanceRecordID: record.ID})
	if err != nil {
		return record, fmt.Errorf("failed to list time exceptions: %w", err)
	}
	snapshot := exceptionSnapshot{all: existing}

	deriveMetrics(&record, ds, breakMinutes)
	offDay := ds.IsHoliday || ds.IsRestDay

	// (1) missed punch
	if record.HasMissedPunch && !offDay && !snapshot.has(timeexception.TypeMissedPunch, false) {
		e, err := s.createException(ctx, &record, timeexception.TimeException{
			Type:   timeexception.TypeMissedPunch,
			Reason: "Punch in without a matching punch out",
		})
		if err != nil {
			return record, err
		}
		s.notify(ctx, notification.CreateNotificationRequest{
			RecipientID: record.EmployeeID,
			Type:        notification.TypeMissedPunch,
			Title:       "Missed punch",
			Message:     fmt.Sprintf("Your attendance on %s has a punch in without a punch out.", record.Date.Format("02/01/2006")),
			ReferenceID: &e.ID,
		})
	}

	// (2) lateness. A LATE in any status already covers the record.
	lateCreated := false
	if record.LateMinutes > 0 && !opts.SuppressLate &&
		!snapshot.has(timeexception.TypeLate, false) &&
		!snapshot.has(timeexception.TypeMissedPunch, true) {
		e, err := s.createException(ctx, &record, timeexception.TimeException{
			Type:    timeexception.TypeLate,
			Reason:  fmt.Sprintf("Arrived %d minutes after the grace period", record.LateMinutes),
			Minutes: record.LateMinutes,
		})
		if err != nil {
			return record, err
		}
		lateCreated = true
		s.notify(ctx, notification.CreateNotificationRequest{
			RecipientID: record.EmployeeID,
			Type:        notification.TypeLateArrival,
			Title:       "Late arrival",
			Message:     fmt.Sprintf("You were %d minutes late on %s.", record.LateMinutes, record.Date.Format("02/01/2006")),
			ReferenceID: &e.ID,
		})
	}

	// (3) short time
	if ds.IsWorkingDay() {
		short := shortfall(ds.Window.ScheduledMinutes(), breakMinutes, record.TotalWorkMinutes)
		if err := s.reconcileShortTime(ctx, &record, snapshot, short, opts.SuppressShortTime); err != nil {
			return record, err
		}
	}

	// Unapproved overtime
	if ds.Window != nil && record.OvertimeMinutes > 0 && ds.Window.Shift.RequiresOvertimeApproval &&
		!snapshot.has(timeexception.TypeOvertimeRequest, false) {
		approved, err := s.scheduleRepo.HasActiveOvertimeApproval(ctx, record.EmployeeID, record.Date)
		if err != nil {
			return record, fmt.Errorf("failed to check overtime approval: %w", err)
		}
		if !approved {
			deadline := s.now().Add(s.config.AdHocDeadline)
			e, err := s.createException(ctx, &record, timeexception.TimeException{
				Type:     timeexception.TypeOvertimeRequest,
				Reason:   fmt.Sprintf("%d minutes of overtime without an active approval", record.OvertimeMinutes),
				Minutes:  record.OvertimeMinutes,
				Deadline: &deadline,
			})
			if err != nil {
				return record, err
			}
			s.notify(ctx, notification.CreateNotificationRequest{
				RecipientID: record.EmployeeID,
				Type:        notification.TypeOvertimeRequest,
				Title:       "Overtime needs approval",
				Message:     fmt.Sprintf("%d minutes of overtime on %s need approval.", record.OvertimeMinutes, record.Date.Format("02/01/2006")),
				ReferenceID: &e.ID,
			})
		}
	}

	// (4) payroll eligibility
	record.FinalisedForPayroll, err = s.IsFinalisable(ctx, record)
	if err != nil {
		return record, err
	}

	record.UpdatedAt = s.now()
	record, err = s.attendanceRepo.Update(ctx, record)
	if err != nil {
		return record, fmt.Errorf("failed to update attendance record: %w", err)
	}

	if lateCreated && s.lateness != nil {
		if _, err := s.lateness.Evaluate(ctx, record.EmployeeID); err != nil {
			return record, fmt.Errorf("failed to evaluate repeated lateness: %w", err)
		}
		// The escalator may have attached a summary to this record.
		record, err = s.attendanceRepo.GetByID(ctx, record.ID)
		if err != nil {
			return record, err
		}
	}

	return record, nil
}

// reconcileShortTime updates, creates or deletes SHORT_TIME exceptions so
// they match the current shortfall.
func (s *AttendanceServiceImpl) reconcileShortTime(ctx context.Context, record *attendance.AttendanceRecord, snapshot exceptionSnapshot, short int, suppress bool) error {
	existing := snapshot.ofType(timeexception.TypeShortTime)

	if short <= 0 {
		for _, e := range existing {
			if err := s.deleteException(ctx, record, e); err != nil {
				return err
			}
		}
		return nil
	}

	reason := fmt.Sprintf("Worked %d minutes less than scheduled", short)
	for _, e := range existing {
		if !e.Status.IsUnresolved() {
			continue
		}
		if e.Minutes == short && e.Reason == reason {
			return nil
		}
		e.Minutes = short
		e.Reason = reason
		e.Status = timeexception.StatusOpen
		e.AssignedTo = nil
		e.UpdatedAt = s.now()
		if _, err := s.exceptionRepo.Update(ctx, e); err != nil {
			return fmt.Errorf("failed to update short time exception: %w", err)
		}
		return nil
	}

	// A resolved or rejected SHORT_TIME already covers this day.
	if len(existing) > 0 || suppress {
		return nil
	}

	e, err := s.createException(ctx, record, timeexception.TimeException{
		Type:    timeexception.TypeShortTime,
		Reason:  reason,
		Minutes: short,
	})
	if err != nil {
		return err
	}
	s.notify(ctx, notification.CreateNotificationRequest{
		RecipientID: record.EmployeeID,
		Type:        notification.TypeShortTime,
		Title:       "Short time",
		Message:     fmt.Sprintf("You worked %d minutes less than scheduled on %s.", short, record.Date.Format("02/01/2006")),
		ReferenceID: &e.ID,
	})
	return nil
}

// createException stores an OPEN exception for record and adds the
// back-reference. The caller persists record.
func (s *AttendanceServiceImpl) createException(ctx context.Context, record *attendance.AttendanceRecord, e timeexception.TimeException) (timeexception.TimeException, error) {
	now := s.now()
	e.EmployeeID = record.EmployeeID
	e.AttendanceRecordID = record.ID
	e.Status = timeexception.StatusOpen
	e.CreatedAt = now
	e.UpdatedAt = now

	created, err := s.exceptionRepo.Create(ctx, e)
	if err != nil {
		return timeexception.TimeException{}, fmt.Errorf("failed to create %s exception: %w", e.Type, err)
	}
	record.AddExceptionID(created.ID)
	s.metrics.IncExceptionCreated(string(created.Type))
	return created, nil
}

// deleteException removes an ephemeral exception, its back-reference and
// its outstanding notifications. The caller persists record.
func (s *AttendanceServiceImpl) deleteException(ctx context.Context, record *attendance.AttendanceRecord, e timeexception.TimeException) error {
	if err := s.exceptionRepo.Delete(ctx, e.ID); err != nil {
		return fmt.Errorf("failed to delete %s exception: %w", e.Type, err)
	}
	record.RemoveExceptionID(e.ID)
	s.metrics.IncExceptionDeleted(string(e.Type))
	if s.notifier != nil {
		if err := s.notifier.DeleteForReference(ctx, e.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete notifications", "exception_id", e.ID, "error", err)
		}
	}
	return nil
}
