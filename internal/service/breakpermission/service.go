package breakpermission

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/metrics"
)

type Config struct {
	Location        *time.Location
	MaxBreakMinutes int           // default: 180
	AdHocDeadline   time.Duration // default: 48h
	Now             func() time.Time
}

type service struct {
	*Calculator

	tx             database.Transactor
	locker         lock.Locker
	exceptionRepo  timeexception.Repository
	attendanceRepo attendance.Repository
	attendanceSvc  attendance.Service
	notifier       notification.Service
	metrics        *metrics.Metrics
	logger         *slog.Logger
	config         Config

	maxBreakMinutes atomic.Int64
}

func NewBreakPermissionService(
	tx database.Transactor,
	locker lock.Locker,
	calculator *Calculator,
	exceptionRepo timeexception.Repository,
	attendanceRepo attendance.Repository,
	attendanceSvc attendance.Service,
	notifier notification.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) timeexception.BreakPermissionService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxBreakMinutes == 0 {
		cfg.MaxBreakMinutes = 180
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
	s := &service{
		Calculator:     calculator,
		tx:             tx,
		locker:         locker,
		exceptionRepo:  exceptionRepo,
		attendanceRepo: attendanceRepo,
		attendanceSvc:  attendanceSvc,
		notifier:       notifier,
		metrics:        m,
		logger:         logger.With("component", "break_permission"),
		config:         cfg,
	}
	s.maxBreakMinutes.Store(int64(cfg.MaxBreakMinutes))
	return s
}

func (s *service) now() time.Time {
	return s.config.Now().In(s.config.Location)
}

func (s *service) mutate(ctx context.Context, employeeID string, fn func(ctx context.Context) error) error {
	return lock.WithLock(ctx, s.locker, lock.EmployeeKey(employeeID), func(ctx context.Context) error {
		return s.tx.WithinTransaction(ctx, fn)
	})
}

func (s *service) notify(ctx context.Context, req notification.CreateNotificationRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.QueueNotification(ctx, req); err != nil {
		s.logger.WarnContext(ctx, "failed to queue notification", "type", req.Type, "recipient_id", req.RecipientID, "error", err)
	}
}

func (s *service) MaxBreakMinutes() int {
	return int(s.maxBreakMinutes.Load())
}

func (s *service) SetMaxBreakMinutes(minutes int) error {
	if minutes < 1 || minutes > 24*60 {
		return fmt.Errorf("%w: got %d", timeexception.ErrInvalidMaxBreak, minutes)
	}
	s.maxBreakMinutes.Store(int64(minutes))
	s.logger.Info("maximum break minutes changed", "minutes", minutes)
	return nil
}

func (s *service) Create(ctx context.Context, req timeexception.CreateBreakRequest) (timeexception.TimeException, error) {
	if err := req.Validate(); err != nil {
		return timeexception.TimeException{}, err
	}
	start, end, err := req.Window(s.config.Location)
	if err != nil {
		return timeexception.TimeException{}, err
	}
	if !end.After(start) {
		return timeexception.TimeException{}, timeexception.ErrBreakEndBeforeStart
	}
	duration := int(end.Sub(start) / time.Minute)
	if limit := s.MaxBreakMinutes(); duration > limit {
		return timeexception.TimeException{}, fmt.Errorf("%w: %d minutes requested, %d allowed", timeexception.ErrBreakTooLong, duration, limit)
	}

	record, err := s.attendanceRepo.GetByID(ctx, req.AttendanceRecordID)
	if err != nil {
		return timeexception.TimeException{}, err
	}
	if record.EmployeeID != req.EmployeeID {
		return timeexception.TimeException{}, timeexception.ErrRecordNotOwned
	}

	var created timeexception.TimeException
	err = s.mutate(ctx, record.EmployeeID, func(ctx context.Context) error {
		record, err = s.attendanceRepo.GetByID(ctx, req.AttendanceRecordID)
		if err != nil {
			return err
		}

		now := s.now()
		deadline := now.Add(s.config.AdHocDeadline)
		created, err = s.exceptionRepo.Create(ctx, timeexception.TimeException{
			EmployeeID:         record.EmployeeID,
			AttendanceRecordID: record.ID,
			Type:               timeexception.TypeBreakPermission,
			Status:             timeexception.StatusPending,
			Reason:             req.Reason,
			Minutes:            duration,
			Break:              &timeexception.BreakWindow{Start: start, End: end, DurationMinutes: duration},
			Deadline:           &deadline,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
		if err != nil {
			return fmt.Errorf("failed to create break permission: %w", err)
		}

		record.AddExceptionID(created.ID)
		record.FinalisedForPayroll = false
		record.UpdatedAt = now
		if _, err := s.attendanceRepo.Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update attendance record: %w", err)
		}
		return nil
	})
	if err != nil {
		return timeexception.TimeException{}, err
	}

	s.metrics.IncExceptionCreated(string(created.Type))
	s.logger.InfoContext(ctx, "break permission requested", "employee_id", created.EmployeeID, "record_id", created.AttendanceRecordID, "minutes", duration)
	return created, nil
}

// decide moves a break permission to target. An ESCALATED permission is
// first returned to PENDING, as the lifecycle table allows.
func (s *service) decide(ctx context.Context, id, approverID string, target timeexception.Status, after func(ctx context.Context, e timeexception.TimeException) error) (timeexception.TimeException, error) {
	e, err := s.exceptionRepo.GetByID(ctx, id)
	if err != nil {
		return timeexception.TimeException{}, err
	}
	if e.Type != timeexception.TypeBreakPermission {
		return timeexception.TimeException{}, fmt.Errorf("%w: %s is a %s", timeexception.ErrWrongType, id, e.Type)
	}

	err = s.mutate(ctx, e.EmployeeID, func(ctx context.Context) error {
		e, err = s.exceptionRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if e.Status == timeexception.StatusEscalated {
			e.Status = timeexception.StatusPending
		}
		if !e.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s to %s", timeexception.ErrInvalidTransition, e.Status, target)
		}
		e.Status = target
		e.AssignedTo = &approverID
		e.UpdatedAt = s.now()
		e, err = s.exceptionRepo.Update(ctx, e)
		if err != nil {
			return fmt.Errorf("failed to update break permission: %w", err)
		}
		return after(ctx, e)
	})
	if err != nil {
		return timeexception.TimeException{}, err
	}
	return e, nil
}

func (s *service) Approve(ctx context.Context, id, approverID string) (timeexception.TimeException, error) {
	e, err := s.decide(ctx, id, approverID, timeexception.StatusApproved, func(ctx context.Context, e timeexception.TimeException) error {
		record, err := s.attendanceRepo.GetByID(ctx, e.AttendanceRecordID)
		if err != nil {
			return err
		}
		record.FinalisedForPayroll = false
		record.UpdatedAt = s.now()
		if _, err := s.attendanceRepo.Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update attendance record: %w", err)
		}
		// Re-apply the reduced net minutes now rather than on the next pass.
		_, err = s.attendanceSvc.Recompute(ctx, record.ID, attendance.RecomputeOptions{})
		return err
	})
	if err != nil {
		return timeexception.TimeException{}, err
	}

	s.notify(ctx, notification.CreateNotificationRequest{
		RecipientID: e.EmployeeID,
		Type:        notification.TypeBreakPermissionApproved,
		Title:       "Break permission approved",
		Message:     fmt.Sprintf("Your %d minute break from %s was approved.", e.Break.DurationMinutes, e.Break.Start.Format("15:04")),
		ReferenceID: &e.ID,
	})
	return e, nil
}

func (s *service) Reject(ctx context.Context, id, approverID, note string) (timeexception.TimeException, error) {
	e, err := s.decide(ctx, id, approverID, timeexception.StatusRejected, func(ctx context.Context, e timeexception.TimeException) error {
		_, err := s.attendanceSvc.RefreshFinalisation(ctx, e.AttendanceRecordID)
		return err
	})
	if err != nil {
		return timeexception.TimeException{}, err
	}

	message := fmt.Sprintf("Your %d minute break from %s was rejected.", e.Break.DurationMinutes, e.Break.Start.Format("15:04"))
	if note != "" {
		message += " " + note
	}
	s.notify(ctx, notification.CreateNotificationRequest{
		RecipientID: e.EmployeeID,
		Type:        notification.TypeBreakPermissionRejected,
		Title:       "Break permission rejected",
		Message:     message,
		ReferenceID: &e.ID,
	})
	return e, nil
}
