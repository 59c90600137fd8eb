package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

// PunchIn implements attendance.Service.
func (s *AttendanceServiceImpl) PunchIn(ctx context.Context, req attendance.PunchRequest) (attendance.PunchResult, error) {
	return s.punch(ctx, attendance.PunchTypeIn, req)
}

// PunchOut implements attendance.Service.
func (s *AttendanceServiceImpl) PunchOut(ctx context.Context, req attendance.PunchRequest) (attendance.PunchResult, error) {
	return s.punch(ctx, attendance.PunchTypeOut, req)
}

func (s *AttendanceServiceImpl) punch(ctx context.Context, punchType attendance.PunchType, req attendance.PunchRequest) (attendance.PunchResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.PunchResult{}, err
	}

	ts := s.now().Truncate(time.Second)
	if req.Timestamp != nil {
		parsed, err := validator.ParsePunchTimestamp(*req.Timestamp, s.config.Location)
		if err != nil {
			return attendance.PunchResult{}, err
		}
		ts = parsed
	}

	window, err := s.resolver.Resolve(ctx, req.EmployeeID, ts)
	if err != nil {
		s.metrics.IncPunch(string(punchType), "rejected")
		return attendance.PunchResult{}, err
	}

	// An OUT matched by the previous day's window closes that day's record.
	day := schedule.DateOnly(ts)
	if punchType == attendance.PunchTypeOut && window.Anchor == schedule.AnchorPreviousDay {
		day = window.AnchorDate
	}

	p := attendance.Punch{Type: punchType, Time: ts, Source: req.Source}

	var result attendance.PunchResult
	err = s.mutate(ctx, req.EmployeeID, func(ctx context.Context) error {
		record, err := s.recordForPunch(ctx, req.EmployeeID, day, punchType)
		if err != nil {
			return err
		}

		if err := checkPunchDay(record, p, window); err != nil {
			return err
		}

		recorded, message, err := applyPunch(&record, p, window.Shift.PunchPolicy)
		if err != nil {
			return err
		}
		if !recorded {
			result = attendance.PunchResult{Record: record, Recorded: false, Message: message}
			return nil
		}

		opts := attendance.RecomputeOptions{}
		if punchType == attendance.PunchTypeOut {
			cleared, err := s.clearMissedPunches(ctx, &record)
			if err != nil {
				return err
			}
			// Resolving a missed punch must not flag lateness or short time in the same pass.
			opts.SuppressLate = cleared
			opts.SuppressShortTime = cleared
		}

		record.UpdatedAt = s.now()
		if record.ID == "" {
			record.CreatedAt = record.UpdatedAt
			record, err = s.attendanceRepo.Create(ctx, record)
			if err != nil {
				return fmt.Errorf("failed to create attendance record: %w", err)
			}
		} else {
			record, err = s.attendanceRepo.Update(ctx, record)
			if err != nil {
				return fmt.Errorf("failed to update attendance record: %w", err)
			}
		}

		record, err = s.recomputeLocked(ctx, record, opts)
		if err != nil {
			return err
		}
		result = attendance.PunchResult{Record: record, Recorded: true, Message: message}
		return nil
	})
	if err != nil {
		s.metrics.IncPunch(string(punchType), "rejected")
		return attendance.PunchResult{}, err
	}

	if result.Recorded {
		s.metrics.IncPunch(string(punchType), "recorded")
	} else {
		s.metrics.IncPunch(string(punchType), "acknowledged")
	}
	s.logger.InfoContext(ctx, "punch processed",
		"employee_id", req.EmployeeID,
		"record_id", result.Record.ID,
		"type", punchType,
		"time", ts.Format(time.RFC3339),
		"recorded", result.Recorded,
	)
	return result, nil
}

// recordForPunch returns the day's record, or a fresh unsaved one for a
// first IN. An OUT always needs an existing record.
func (s *AttendanceServiceImpl) recordForPunch(ctx context.Context, employeeID string, day time.Time, punchType attendance.PunchType) (attendance.AttendanceRecord, error) {
	existing, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, day)
	if err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to get attendance record: %w", err)
	}
	if existing != nil {
		return *existing, nil
	}
	if punchType == attendance.PunchTypeOut {
		return attendance.AttendanceRecord{}, fmt.Errorf("%w: no attendance record for %s", attendance.ErrNoPriorPunchIn, day.Format("02/01/2006"))
	}
	return attendance.AttendanceRecord{EmployeeID: employeeID, Date: day}, nil
}

// checkPunchDay keeps every punch on the record's calendar day, except an
// OUT closing an overnight shift, which may run up to the window's effective end.
func checkPunchDay(record attendance.AttendanceRecord, p attendance.Punch, window schedule.Window) error {
	punchDay := schedule.DateOnly(p.Time)
	if punchDay.Equal(schedule.DateOnly(record.Date)) {
		return nil
	}
	if p.Type == attendance.PunchTypeOut &&
		window.Anchor == schedule.AnchorPreviousDay &&
		window.AnchorDate.Equal(schedule.DateOnly(record.Date)) {
		if p.Time.After(window.EffectiveEnd) {
			return fmt.Errorf("%w: latest allowed punch out is %s", attendance.ErrPunchAfterShiftEnd, window.EffectiveEnd.Format("02/01/2006 15:04"))
		}
		return nil
	}
	return fmt.Errorf("%w: punch on %s, record for %s", attendance.ErrPunchDayMismatch, punchDay.Format("02/01/2006"), record.Date.Format("02/01/2006"))
}

// applyPunch enforces sequencing and the punch policy. It reports whether
// the punch was stored; an acknowledged punch leaves record untouched.
func applyPunch(record *attendance.AttendanceRecord, p attendance.Punch, policy schedule.PunchPolicy) (bool, string, error) {
	seq := &record.Punches

	if last, ok := seq.Last(); ok && p.Time.Before(last.Time) {
		return false, "", fmt.Errorf("%w: last punch was %s at %s", attendance.ErrOutOfSequence, last.Type, last.Time.Format("15:04"))
	}
	if seq.IndexOf(p.Type, p.Time) >= 0 {
		return false, "", fmt.Errorf("%w: %s at %s", attendance.ErrDuplicatePunch, p.Type, p.Time.Format("15:04"))
	}
	if p.Type == attendance.PunchTypeOut && seq.Count(attendance.PunchTypeIn) == 0 {
		return false, "", attendance.ErrNoPriorPunchIn
	}

	switch policy {
	case schedule.PunchPolicyMultiple:
		if last, ok := seq.Last(); ok && last.Type == p.Type {
			if p.Type == attendance.PunchTypeIn {
				return false, "", attendance.ErrAlreadyPunchedIn
			}
			return false, "", attendance.ErrAlreadyPunchedOut
		}
		if err := seq.Insert(p); err != nil {
			return false, "", err
		}
		return true, fmt.Sprintf("punch %s recorded at %s", p.Type, p.Time.Format("15:04")), nil

	default: // FIRST_LAST
		if p.Type == attendance.PunchTypeIn {
			if first, ok := seq.First(attendance.PunchTypeIn); ok {
				return false, fmt.Sprintf("already punched in at %s, punch not recorded", first.Time.Format("15:04")), nil
			}
			if err := seq.Insert(p); err != nil {
				return false, "", err
			}
			return true, fmt.Sprintf("punch IN recorded at %s", p.Time.Format("15:04")), nil
		}

		current, idx, ok := seq.LastOf(attendance.PunchTypeOut)
		if !ok {
			if err := seq.Insert(p); err != nil {
				return false, "", err
			}
			return true, fmt.Sprintf("punch OUT recorded at %s", p.Time.Format("15:04")), nil
		}
		if !p.Time.After(current.Time) {
			return false, fmt.Sprintf("punch out at %s is not later than the recorded %s, punch not recorded", p.Time.Format("15:04"), current.Time.Format("15:04")), nil
		}
		if err := seq.ReplaceAt(idx, p); err != nil {
			return false, "", err
		}
		return true, fmt.Sprintf("punch OUT updated from %s to %s", current.Time.Format("15:04"), p.Time.Format("15:04")), nil
	}
}

// clearMissedPunches deletes the record's MISSED_PUNCH exceptions and their
// back-references. It reports whether any were removed.
func (s *AttendanceServiceImpl) clearMissedPunches(ctx context.Context, record *attendance.AttendanceRecord) (bool, error) {
	if record.ID == "" {
		return false, nil
	}
	missed, err := s.exceptionRepo.List(ctx, timeexception.Filter{
		AttendanceRecordID: record.ID,
		Types:              []timeexception.Type{timeexception.TypeMissedPunch},
	})
	if err != nil {
		return false, fmt.Errorf("failed to list missed punch exceptions: %w", err)
	}
	for _, e := range missed {
		if err := s.deleteException(ctx, record, e); err != nil {
			return false, err
		}
	}
	return len(missed) > 0, nil
}
