package timeexception

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

type service struct {
	tx             database.Transactor
	locker         lock.Locker
	exceptionRepo  timeexception.Repository
	attendanceRepo attendance.Repository
	attendanceSvc  attendance.Service
	notifier       notification.Service
	metrics        *metrics.Metrics
	logger         *slog.Logger
	now            func() time.Time
}

func NewTimeExceptionService(
	tx database.Transactor,
	locker lock.Locker,
	exceptionRepo timeexception.Repository,
	attendanceRepo attendance.Repository,
	attendanceSvc attendance.Service,
	notifier notification.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
	now func() time.Time,
) timeexception.Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		tx:             tx,
		locker:         locker,
		exceptionRepo:  exceptionRepo,
		attendanceRepo: attendanceRepo,
		attendanceSvc:  attendanceSvc,
		notifier:       notifier,
		metrics:        m,
		logger:         logger.With("component", "time_exception"),
		now:            now,
	}
}

func (s *service) mutate(ctx context.Context, employeeID string, fn func(ctx context.Context) error) error {
	return lock.WithLock(ctx, s.locker, lock.EmployeeKey(employeeID), func(ctx context.Context) error {
		return s.tx.WithinTransaction(ctx, fn)
	})
}

func (s *service) notify(ctx context.Context, req notification.CreateNotificationRequest) {
	if s.notifier == nil || req.RecipientID == "" {
		return
	}
	if err := s.notifier.QueueNotification(ctx, req); err != nil {
		s.logger.WarnContext(ctx, "failed to queue notification", "type", req.Type, "recipient_id", req.RecipientID, "error", err)
	}
}

func (s *service) Get(ctx context.Context, id string) (timeexception.TimeException, error) {
	return s.exceptionRepo.GetByID(ctx, id)
}

func (s *service) ListByRecord(ctx context.Context, recordID string) ([]timeexception.TimeException, error) {
	if _, err := s.attendanceRepo.GetByID(ctx, recordID); err != nil {
		return nil, err
	}
	return s.exceptionRepo.List(ctx, timeexception.Filter{AttendanceRecordID: recordID})
}

func (s *service) Assign(ctx context.Context, id, handlerID string) (timeexception.TimeException, error) {
	if validator.IsEmpty(handlerID) {
		return timeexception.TimeException{}, validator.ValidationErrors{{Field: "handler_id", Message: "handler_id is required"}}
	}
	e, err := s.exceptionRepo.GetByID(ctx, id)
	if err != nil {
		return timeexception.TimeException{}, err
	}

	err = s.mutate(ctx, e.EmployeeID, func(ctx context.Context) error {
		e, err = s.exceptionRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if e.Status != timeexception.StatusOpen {
			return fmt.Errorf("%w: only OPEN exceptions can be assigned, got %s", timeexception.ErrInvalidTransition, e.Status)
		}
		e.Status = timeexception.StatusPending
		e.AssignedTo = &handlerID
		e.UpdatedAt = s.now()
		e, err = s.exceptionRepo.Update(ctx, e)
		return err
	})
	if err != nil {
		return timeexception.TimeException{}, err
	}

	s.notify(ctx, notification.CreateNotificationRequest{
		RecipientID: handlerID,
		Type:        notification.TypeExceptionAssigned,
		Title:       "Exception assigned",
		Message:     fmt.Sprintf("A %s exception was assigned to you.", e.Type),
		ReferenceID: &e.ID,
	})
	return e, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status timeexception.Status, actorID, note string) (timeexception.StatusChange, error) {
	if !status.IsValid() {
		return timeexception.StatusChange{}, fmt.Errorf("%w: %q", timeexception.ErrInvalidStatus, status)
	}
	e, err := s.exceptionRepo.GetByID(ctx, id)
	if err != nil {
		return timeexception.StatusChange{}, err
	}

	var change timeexception.StatusChange
	err = s.mutate(ctx, e.EmployeeID, func(ctx context.Context) error {
		e, err = s.exceptionRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !e.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s to %s", timeexception.ErrInvalidTransition, e.Status, status)
		}
		// Break decisions recompute the record, so they have their own entry points.
		if e.Type == timeexception.TypeBreakPermission && (status == timeexception.StatusApproved || status == timeexception.StatusRejected) {
			return fmt.Errorf("%w: use the break permission approve or reject operation", timeexception.ErrWrongType)
		}

		now := s.now()
		if status == timeexception.StatusResolved && e.Type == timeexception.TypeShortTime {
			deleted, err := s.resolveShortTime(ctx, e)
			if err != nil {
				return err
			}
			if deleted {
				e.Status = status
				e.UpdatedAt = now
				change = timeexception.StatusChange{Exception: e, Deleted: true}
				return nil
			}
		}

		e.Status = status
		e.UpdatedAt = now
		if status == timeexception.StatusEscalated {
			e.EscalatedAt = &now
		}
		e, err = s.exceptionRepo.Update(ctx, e)
		if err != nil {
			return fmt.Errorf("failed to update time exception: %w", err)
		}
		change = timeexception.StatusChange{Exception: e}

		if status == timeexception.StatusResolved {
			return s.refreshIfSettled(ctx, e.AttendanceRecordID)
		}
		return nil
	})
	if err != nil {
		return timeexception.StatusChange{}, err
	}

	message := fmt.Sprintf("Your %s exception is now %s.", e.Type, status)
	if note != "" {
		message += " " + note
	}
	data := map[string]interface{}{"status": string(status)}
	if actorID != "" {
		data["actor_id"] = actorID
	}
	s.notify(ctx, notification.CreateNotificationRequest{
		RecipientID: e.EmployeeID,
		Type:        notification.TypeExceptionStatusChanged,
		Title:       "Exception status changed",
		Message:     message,
		ReferenceID: &e.ID,
		Data:        data,
	})

	s.logger.InfoContext(ctx, "time exception status changed",
		"exception_id", e.ID, "type", e.Type, "status", status, "deleted", change.Deleted)
	return change, nil
}

// resolveShortTime deletes e when the record no longer falls short.
func (s *service) resolveShortTime(ctx context.Context, e timeexception.TimeException) (bool, error) {
	record, err := s.attendanceRepo.GetByID(ctx, e.AttendanceRecordID)
	if err != nil {
		return false, err
	}
	short, err := s.attendanceSvc.ShortfallMinutes(ctx, record)
	if err != nil {
		return false, err
	}
	if short > 0 {
		return false, nil
	}

	if err := s.exceptionRepo.Delete(ctx, e.ID); err != nil {
		return false, fmt.Errorf("failed to delete time exception: %w", err)
	}
	record.RemoveExceptionID(e.ID)
	record.UpdatedAt = s.now()
	if _, err := s.attendanceRepo.Update(ctx, record); err != nil {
		return false, fmt.Errorf("failed to update attendance record: %w", err)
	}
	s.metrics.IncExceptionDeleted(string(e.Type))
	if s.notifier != nil {
		if err := s.notifier.DeleteForReference(ctx, e.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete notifications", "exception_id", e.ID, "error", err)
		}
	}

	if err := s.refreshIfSettled(ctx, record.ID); err != nil {
		return false, err
	}
	return true, nil
}

// refreshIfSettled re-evaluates payroll eligibility once no unresolved
// exception remains on the record.
func (s *service) refreshIfSettled(ctx context.Context, recordID string) error {
	open, err := s.exceptionRepo.List(ctx, timeexception.Filter{
		AttendanceRecordID: recordID,
		Statuses:           timeexception.UnresolvedStatuses(),
	})
	if err != nil {
		return fmt.Errorf("failed to list time exceptions: %w", err)
	}
	if len(open) > 0 {
		return nil
	}
	_, err = s.attendanceSvc.RefreshFinalisation(ctx, recordID)
	return err
}

func (s *service) Escalate(ctx context.Context, id, reason string) (timeexception.TimeException, error) {
	e, err := s.exceptionRepo.GetByID(ctx, id)
	if err != nil {
		return timeexception.TimeException{}, err
	}

	err = s.mutate(ctx, e.EmployeeID, func(ctx context.Context) error {
		e, err = s.exceptionRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := e.Escalate(s.now()); err != nil {
			return fmt.Errorf("%w: %s is %s", err, e.ID, e.Status)
		}
		e, err = s.exceptionRepo.Update(ctx, e)
		return err
	})
	if err != nil {
		return timeexception.TimeException{}, err
	}

	message := fmt.Sprintf("Your %s exception was escalated.", e.Type)
	if reason != "" {
		message = fmt.Sprintf("Your %s exception was escalated: %s", e.Type, reason)
	}
	s.notify(ctx, notification.CreateNotificationRequest{
		RecipientID: e.EmployeeID,
		Type:        notification.TypeExceptionEscalated,
		Title:       "Exception escalated",
		Message:     message,
		ReferenceID: &e.ID,
	})
	return e, nil
}
