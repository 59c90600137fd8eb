package lateness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

type Config struct {
	PolicyName string // lateness policy looked up by Evaluate
	Defaults   timeexception.LatenessParams
	ReviewerID string // recipient of repeated-lateness notices
	Location   *time.Location
	Now        func() time.Time
}

type service struct {
	tx             database.Transactor
	locker         lock.Locker
	exceptionRepo  timeexception.Repository
	attendanceRepo attendance.Repository
	scheduleRepo   schedule.Repository
	notifier       notification.Service
	metrics        *metrics.Metrics
	logger         *slog.Logger
	config         Config
}

func NewLatenessService(
	tx database.Transactor,
	locker lock.Locker,
	exceptionRepo timeexception.Repository,
	attendanceRepo attendance.Repository,
	scheduleRepo schedule.Repository,
	notifier notification.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) timeexception.LatenessEscalator {
	if cfg.Defaults.WindowDays == 0 {
		cfg.Defaults.WindowDays = 90
	}
	if cfg.Defaults.Threshold == 0 {
		cfg.Defaults.Threshold = 3
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		tx:             tx,
		locker:         locker,
		exceptionRepo:  exceptionRepo,
		attendanceRepo: attendanceRepo,
		scheduleRepo:   scheduleRepo,
		notifier:       notifier,
		metrics:        m,
		logger:         logger.With("component", "lateness"),
		config:         cfg,
	}
}

func (s *service) Evaluate(ctx context.Context, employeeID string) (timeexception.LatenessResult, error) {
	params := s.config.Defaults
	if s.config.PolicyName != "" {
		policy, err := s.scheduleRepo.GetLatenessPolicy(ctx, s.config.PolicyName)
		switch {
		case err == nil:
			if policy.WindowDays > 0 {
				params.WindowDays = policy.WindowDays
			}
			if policy.Threshold > 0 {
				params.Threshold = policy.Threshold
			}
		case errors.Is(err, schedule.ErrLatenessPolicyMissing):
			s.logger.DebugContext(ctx, "lateness policy not found, using defaults", "policy", s.config.PolicyName)
		default:
			return timeexception.LatenessResult{}, fmt.Errorf("failed to get lateness policy: %w", err)
		}
	}
	return s.EvaluateWith(ctx, employeeID, params)
}

func (s *service) EvaluateWith(ctx context.Context, employeeID string, params timeexception.LatenessParams) (timeexception.LatenessResult, error) {
	var errs validator.ValidationErrors
	if validator.IsEmpty(employeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if params.WindowDays < 1 {
		errs = append(errs, validator.ValidationError{Field: "window_days", Message: "window_days must be positive"})
	}
	if params.Threshold < 1 {
		errs = append(errs, validator.ValidationError{Field: "threshold", Message: "threshold must be positive"})
	}
	if len(errs) > 0 {
		return timeexception.LatenessResult{}, errs
	}

	var result timeexception.LatenessResult
	err := lock.WithLock(ctx, s.locker, lock.EmployeeKey(employeeID), func(ctx context.Context) error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			var err error
			result, err = s.evaluateLocked(ctx, employeeID, params)
			return err
		})
	})
	if err != nil {
		return timeexception.LatenessResult{}, err
	}

	if result.Escalated {
		s.notifyReviewer(ctx, employeeID, params, result)
	}
	return result, nil
}

func (s *service) evaluateLocked(ctx context.Context, employeeID string, params timeexception.LatenessParams) (timeexception.LatenessResult, error) {
	now := s.config.Now().In(s.config.Location)
	from := now.AddDate(0, 0, -params.WindowDays)

	lates, err := s.exceptionRepo.List(ctx, timeexception.Filter{
		EmployeeID:  employeeID,
		Types:       []timeexception.Type{timeexception.TypeLate},
		Statuses:    timeexception.UnresolvedStatuses(),
		CreatedFrom: &from,
	})
	if err != nil {
		return timeexception.LatenessResult{}, fmt.Errorf("failed to list late exceptions: %w", err)
	}

	result := timeexception.LatenessResult{UnresolvedLate: len(lates)}
	if len(lates) < params.Threshold {
		return result, nil
	}

	marker := timeexception.MarkerRepeatedLateness
	summaries, err := s.exceptionRepo.List(ctx, timeexception.Filter{
		EmployeeID:  employeeID,
		Types:       []timeexception.Type{timeexception.TypeManualAdjustment},
		CreatedFrom: &from,
		Marker:      &marker,
	})
	if err != nil {
		return timeexception.LatenessResult{}, fmt.Errorf("failed to list lateness summaries: %w", err)
	}
	if len(summaries) > 0 {
		return result, nil
	}

	var (
		related   []string
		recordIDs []string
		total     int
		latest    timeexception.TimeException
	)
	for _, e := range lates {
		if err := e.Escalate(now); err == nil {
			if _, err := s.exceptionRepo.Update(ctx, e); err != nil {
				return timeexception.LatenessResult{}, fmt.Errorf("failed to escalate late exception: %w", err)
			}
		}
		related = append(related, e.ID)
		if !slices.Contains(recordIDs, e.AttendanceRecordID) {
			recordIDs = append(recordIDs, e.AttendanceRecordID)
		}
		total += e.Minutes
		if latest.ID == "" || e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}

	summary, err := s.exceptionRepo.Create(ctx, timeexception.TimeException{
		EmployeeID:          employeeID,
		AttendanceRecordID:  latest.AttendanceRecordID,
		Type:                timeexception.TypeManualAdjustment,
		Status:              timeexception.StatusOpen,
		Reason:              fmt.Sprintf("%d late arrivals within %d days", len(lates), params.WindowDays),
		Minutes:             total,
		Marker:              &marker,
		RelatedExceptionIDs: related,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	if err != nil {
		return timeexception.LatenessResult{}, fmt.Errorf("failed to create lateness summary: %w", err)
	}
	s.metrics.IncExceptionCreated(string(summary.Type))

	for _, recordID := range recordIDs {
		record, err := s.attendanceRepo.GetByID(ctx, recordID)
		if err != nil {
			return timeexception.LatenessResult{}, err
		}
		record.AddExceptionID(summary.ID)
		record.UpdatedAt = now
		if _, err := s.attendanceRepo.Update(ctx, record); err != nil {
			return timeexception.LatenessResult{}, fmt.Errorf("failed to attach lateness summary: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "repeated lateness escalated",
		"employee_id", employeeID, "late_count", len(lates), "summary_id", summary.ID)

	result.Escalated = true
	result.Summary = &summary
	return result, nil
}

func (s *service) notifyReviewer(ctx context.Context, employeeID string, params timeexception.LatenessParams, result timeexception.LatenessResult) {
	if s.notifier == nil {
		return
	}
	if s.config.ReviewerID == "" {
		s.logger.WarnContext(ctx, "no reviewer configured for repeated lateness notices", "employee_id", employeeID)
		return
	}
	err := s.notifier.QueueNotification(ctx, notification.CreateNotificationRequest{
		RecipientID: s.config.ReviewerID,
		Type:        notification.TypeRepeatedLateness,
		Title:       "Repeated lateness",
		Message:     fmt.Sprintf("Employee %s was late %d times within %d days.", employeeID, result.UnresolvedLate, params.WindowDays),
		ReferenceID: &result.Summary.ID,
		Data:        map[string]interface{}{"employee_id": employeeID, "late_count": result.UnresolvedLate},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to queue notification", "type", notification.TypeRepeatedLateness, "error", err)
	}
}
