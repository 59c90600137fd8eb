package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
)

type MaintenanceConfig struct {
	Location              *time.Location
	PayrollCutoffLeadDays int    // default 3
	ShiftExpiryNoticeDays int    // default 7
	ReviewerID            string // receives payroll cutoff escalations
	Now                   func() time.Time
}

type MaintenanceJobs struct {
	corrections    correction.Service
	exceptions     timeexception.Service
	exceptionRepo  timeexception.Repository
	attendanceRepo attendance.Repository
	scheduleRepo   schedule.Repository
	payrollRepo    payroll.PeriodRepository
	notifier       notification.Service
	logger         *slog.Logger
	config         MaintenanceConfig
}

func NewMaintenanceJobs(
	corrections correction.Service,
	exceptions timeexception.Service,
	exceptionRepo timeexception.Repository,
	attendanceRepo attendance.Repository,
	scheduleRepo schedule.Repository,
	payrollRepo payroll.PeriodRepository,
	notifier notification.Service,
	logger *slog.Logger,
	cfg MaintenanceConfig,
) *MaintenanceJobs {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.PayrollCutoffLeadDays == 0 {
		cfg.PayrollCutoffLeadDays = 3
	}
	if cfg.ShiftExpiryNoticeDays == 0 {
		cfg.ShiftExpiryNoticeDays = 7
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceJobs{
		corrections:    corrections,
		exceptions:     exceptions,
		exceptionRepo:  exceptionRepo,
		attendanceRepo: attendanceRepo,
		scheduleRepo:   scheduleRepo,
		payrollRepo:    payrollRepo,
		notifier:       notifier,
		logger:         logger.With("component", "maintenance"),
		config:         cfg,
	}
}

// RegisterJobs schedules every sweep on spec.
func (j *MaintenanceJobs) RegisterJobs(scheduler *Scheduler, spec string) error {
	return errors.Join(
		scheduler.AddJob("escalate_stale_corrections", spec, j.EscalateStaleCorrections),
		scheduler.AddJob("escalate_overdue_requests", spec, j.EscalateOverdueRequests),
		scheduler.AddJob("escalate_before_payroll_cutoff", spec, j.EscalateBeforePayrollCutoff),
		scheduler.AddJob("notify_expiring_assignments", spec, j.NotifyExpiringAssignments),
	)
}

func (j *MaintenanceJobs) EscalateStaleCorrections(ctx context.Context) (int, error) {
	return j.corrections.EscalateStale(ctx)
}

func (j *MaintenanceJobs) EscalateOverdueRequests(ctx context.Context) (int, error) {
	return j.corrections.EscalateOverdueAdHoc(ctx)
}

// EscalateBeforePayrollCutoff escalates exceptions still awaiting a decision
// on records dated on or before the active cutoff, once the cutoff is within
// the lead window. The cutoff notification doubles as the per-exception marker.
func (j *MaintenanceJobs) EscalateBeforePayrollCutoff(ctx context.Context) (int, error) {
	cutoff, err := j.payrollRepo.GetActivePayrollCutoff(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get active payroll cutoff: %w", err)
	}
	if cutoff == nil {
		return 0, nil
	}

	now := j.config.Now().In(j.config.Location)
	cutoffDay := schedule.DateOnly(cutoff.In(j.config.Location))
	if schedule.DateOnly(now).Before(cutoffDay.AddDate(0, 0, -j.config.PayrollCutoffLeadDays)) {
		return 0, nil
	}

	candidates, err := j.exceptionRepo.List(ctx, timeexception.Filter{
		Statuses: []timeexception.Status{timeexception.StatusOpen, timeexception.StatusPending, timeexception.StatusEscalated},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list unresolved exceptions: %w", err)
	}

	records := make(map[string]attendance.AttendanceRecord)
	var (
		escalated int
		errs      []error
	)
	for _, e := range candidates {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		record, ok := records[e.AttendanceRecordID]
		if !ok {
			record, err = j.attendanceRepo.GetByID(ctx, e.AttendanceRecordID)
			if err != nil {
				j.logger.ErrorContext(ctx, "failed to load attendance record", "exception_id", e.ID, "record_id", e.AttendanceRecordID, "error", err)
				errs = append(errs, err)
				continue
			}
			records[record.ID] = record
		}
		if schedule.DateOnly(record.Date.In(j.config.Location)).After(cutoffDay) {
			continue
		}

		acted, err := j.escalateForCutoff(ctx, e, record, cutoffDay)
		if err != nil {
			j.logger.ErrorContext(ctx, "failed to escalate exception before payroll cutoff", "exception_id", e.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if acted {
			escalated++
		}
	}
	return escalated, errors.Join(errs...)
}

func (j *MaintenanceJobs) escalateForCutoff(ctx context.Context, e timeexception.TimeException, record attendance.AttendanceRecord, cutoff time.Time) (bool, error) {
	sent, err := j.notifier.HasBeenSent(ctx, e.ID, notification.TypePayrollCutoffEscalation)
	if err != nil {
		return false, fmt.Errorf("failed to check cutoff marker: %w", err)
	}
	if sent {
		return false, nil
	}

	if e.Status != timeexception.StatusEscalated {
		reason := fmt.Sprintf("payroll cutoff on %s", cutoff.Format("02/01/2006"))
		if _, err := j.exceptions.Escalate(ctx, e.ID, reason); err != nil {
			// Decided since the listing.
			if errors.Is(err, timeexception.ErrNotEscalatable) {
				return false, nil
			}
			if !errors.Is(err, timeexception.ErrAlreadyEscalated) {
				return false, err
			}
		}
	}

	recipient := j.config.ReviewerID
	if recipient == "" {
		recipient = e.EmployeeID
	}
	err = j.notifier.SendNow(ctx, notification.CreateNotificationRequest{
		RecipientID: recipient,
		Type:        notification.TypePayrollCutoffEscalation,
		Title:       "Unresolved exception before payroll cutoff",
		Message: fmt.Sprintf("The %s exception on %s attendance for %s is unresolved and payroll closes on %s.",
			e.Type, e.EmployeeID, record.Date.Format("02/01/2006"), cutoff.Format("02/01/2006")),
		ReferenceID: &e.ID,
		Data: map[string]interface{}{
			"employee_id": e.EmployeeID,
			"record_id":   record.ID,
			"cutoff_date": cutoff.Format("2006-01-02"),
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to send cutoff notification: %w", err)
	}
	return true, nil
}

// NotifyExpiringAssignments tells employees whose approved shift assignment
// ends within the notice period. Each assignment is announced once.
func (j *MaintenanceJobs) NotifyExpiringAssignments(ctx context.Context) (int, error) {
	today := schedule.DateOnly(j.config.Now().In(j.config.Location))
	assignments, err := j.scheduleRepo.GetAssignmentsEndingBetween(ctx, today, today.AddDate(0, 0, j.config.ShiftExpiryNoticeDays))
	if err != nil {
		return 0, fmt.Errorf("failed to list expiring assignments: %w", err)
	}

	var (
		notified int
		errs     []error
	)
	for _, a := range assignments {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		sent, err := j.notifier.HasBeenSent(ctx, a.ID, notification.TypeShiftAssignmentExpiring)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to check expiry marker for %s: %w", a.ID, err))
			continue
		}
		if sent {
			continue
		}

		id := a.ID
		err = j.notifier.SendNow(ctx, notification.CreateNotificationRequest{
			RecipientID: a.EmployeeID,
			Type:        notification.TypeShiftAssignmentExpiring,
			Title:       "Shift assignment ending",
			Message:     fmt.Sprintf("Your shift assignment ends on %s.", a.EndDate.Format("02/01/2006")),
			ReferenceID: &id,
			Data: map[string]interface{}{
				"assignment_id": a.ID,
				"end_date":      a.EndDate.Format("2006-01-02"),
			},
		})
		if err != nil {
			j.logger.ErrorContext(ctx, "failed to send expiry notice", "assignment_id", a.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		notified++
	}
	return notified, errors.Join(errs...)
}
