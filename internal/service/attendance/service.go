package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

// Config holds attendance service configuration
type Config struct {
	Location      *time.Location   // local zone of punches and shift-days
	AdHocDeadline time.Duration    // response deadline of generated OVERTIME_REQUESTs
	Now           func() time.Time // defaults to time.Now
}

type AttendanceServiceImpl struct {
	tx     database.Transactor
	locker lock.Locker

	attendanceRepo attendance.Repository
	exceptionRepo  timeexception.Repository
	correctionRepo correction.Repository
	scheduleRepo   schedule.Repository

	resolver schedule.Resolver
	breaks   timeexception.BreakCalculator
	lateness timeexception.LatenessEscalator
	notifier notification.Service

	metrics *metrics.Metrics
	logger  *slog.Logger
	config  Config
}

func NewAttendanceService(
	tx database.Transactor,
	locker lock.Locker,
	attendanceRepo attendance.Repository,
	exceptionRepo timeexception.Repository,
	correctionRepo correction.Repository,
	scheduleRepo schedule.Repository,
	resolver schedule.Resolver,
	breaks timeexception.BreakCalculator,
	lateness timeexception.LatenessEscalator,
	notifier notification.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) attendance.Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.AdHocDeadline == 0 {
		cfg.AdHocDeadline = 48 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceServiceImpl{
		tx:             tx,
		locker:         locker,
		attendanceRepo: attendanceRepo,
		exceptionRepo:  exceptionRepo,
		correctionRepo: correctionRepo,
		scheduleRepo:   scheduleRepo,
		resolver:       resolver,
		breaks:         breaks,
		lateness:       lateness,
		notifier:       notifier,
		metrics:        m,
		logger:         logger.With("component", "attendance"),
		config:         cfg,
	}
}

var _ attendance.Service = (*AttendanceServiceImpl)(nil)

func (s *AttendanceServiceImpl) now() time.Time {
	return s.config.Now().In(s.config.Location)
}

// mutate runs fn under the employee lock inside one transaction.
func (s *AttendanceServiceImpl) mutate(ctx context.Context, employeeID string, fn func(ctx context.Context) error) error {
	return lock.WithLock(ctx, s.locker, lock.EmployeeKey(employeeID), func(ctx context.Context) error {
		return s.tx.WithinTransaction(ctx, fn)
	})
}

// notify is fire-and-forget: a failed notification never fails the mutation.
func (s *AttendanceServiceImpl) notify(ctx context.Context, req notification.CreateNotificationRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.QueueNotification(ctx, req); err != nil {
		s.logger.WarnContext(ctx, "failed to queue notification",
			"type", req.Type, "recipient_id", req.RecipientID, "error", err)
	}
}

// CreatePlaceholder implements attendance.Service.
func (s *AttendanceServiceImpl) CreatePlaceholder(ctx context.Context, req attendance.CreatePlaceholderRequest) (attendance.AttendanceRecord, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceRecord{}, err
	}
	date, err := validator.ParseDMYDate(req.Date, s.config.Location)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}

	var created attendance.AttendanceRecord
	err = s.mutate(ctx, req.EmployeeID, func(ctx context.Context) error {
		existing, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, req.EmployeeID, date)
		if err != nil {
			return fmt.Errorf("failed to get attendance record: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", attendance.ErrAttendanceExists, req.Date)
		}

		now := s.now()
		created, err = s.attendanceRepo.Create(ctx, attendance.AttendanceRecord{
			EmployeeID: req.EmployeeID,
			Date:       date,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("failed to create attendance record: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}

	s.logger.InfoContext(ctx, "placeholder attendance record created", "employee_id", req.EmployeeID, "record_id", created.ID)
	return created, nil
}

// GetRecord implements attendance.Service.
func (s *AttendanceServiceImpl) GetRecord(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	return s.attendanceRepo.GetByID(ctx, id)
}

// GetScheduledMinutes implements attendance.Service.
func (s *AttendanceServiceImpl) GetScheduledMinutes(ctx context.Context, record attendance.AttendanceRecord) (int, error) {
	ds, err := s.resolver.DaySchedule(ctx, record.EmployeeID, record.Date)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve day schedule: %w", err)
	}
	if ds.Window == nil {
		return 0, nil
	}
	return ds.Window.ScheduledMinutes(), nil
}

// ShortfallMinutes implements attendance.Service.
func (s *AttendanceServiceImpl) ShortfallMinutes(ctx context.Context, record attendance.AttendanceRecord) (int, error) {
	ds, err := s.resolver.DaySchedule(ctx, record.EmployeeID, record.Date)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve day schedule: %w", err)
	}
	if !ds.IsWorkingDay() {
		return 0, nil
	}
	breakMinutes, err := s.breaks.CalculateApprovedBreakMinutes(ctx, record.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate approved break minutes: %w", err)
	}
	worked := max(0, record.Punches.WorkedMinutes()-breakMinutes)
	return shortfall(ds.Window.ScheduledMinutes(), breakMinutes, worked), nil
}

// IsFinalisable implements attendance.Service.
func (s *AttendanceServiceImpl) IsFinalisable(ctx context.Context, record attendance.AttendanceRecord) (bool, error) {
	if !record.HasInAndOut() {
		return false, nil
	}
	requests, err := s.correctionRepo.ListByRecord(ctx, record.ID)
	if err != nil {
		return false, fmt.Errorf("failed to list correction requests: %w", err)
	}
	for _, req := range requests {
		if req.Status.BlocksPayroll() {
			return false, nil
		}
	}
	return true, nil
}

// RefreshFinalisation implements attendance.Service.
func (s *AttendanceServiceImpl) RefreshFinalisation(ctx context.Context, recordID string) (attendance.AttendanceRecord, error) {
	record, err := s.attendanceRepo.GetByID(ctx, recordID)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}

	err = s.mutate(ctx, record.EmployeeID, func(ctx context.Context) error {
		record, err = s.attendanceRepo.GetByID(ctx, recordID)
		if err != nil {
			return err
		}
		finalised, err := s.IsFinalisable(ctx, record)
		if err != nil {
			return err
		}
		if finalised == record.FinalisedForPayroll {
			return nil
		}
		record.FinalisedForPayroll = finalised
		record.UpdatedAt = s.now()
		record, err = s.attendanceRepo.Update(ctx, record)
		if err != nil {
			return fmt.Errorf("failed to update attendance record: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}
	return record, nil
}

func shortfall(scheduled, breakMinutes, worked int) int {
	return max(0, scheduled-breakMinutes-worked)
}
