package correction

import (
	"context"
	"errors"
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
)

const (
	redundantTolerance = time.Minute
	matchTolerance     = 2 * time.Minute
)

type Config struct {
	Location      *time.Location
	EscalationAge time.Duration // open requests older than this are escalated; default 7 days
	ReviewerID    string        // default reviewer told about escalations
	Now           func() time.Time
}

type service struct {
	tx             database.Transactor
	locker         lock.Locker
	correctionRepo correction.Repository
	attendanceRepo attendance.Repository
	exceptionRepo  timeexception.Repository
	attendanceSvc  attendance.Service
	notifier       notification.Service
	metrics        *metrics.Metrics
	logger         *slog.Logger
	config         Config
}

func NewCorrectionService(
	tx database.Transactor,
	locker lock.Locker,
	correctionRepo correction.Repository,
	attendanceRepo attendance.Repository,
	exceptionRepo timeexception.Repository,
	attendanceSvc attendance.Service,
	notifier notification.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) correction.Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.EscalationAge == 0 {
		cfg.EscalationAge = 7 * 24 * time.Hour
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
		correctionRepo: correctionRepo,
		attendanceRepo: attendanceRepo,
		exceptionRepo:  exceptionRepo,
		attendanceSvc:  attendanceSvc,
		notifier:       notifier,
		metrics:        m,
		logger:         logger.With("component", "correction"),
		config:         cfg,
	}
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
	if s.notifier == nil || req.RecipientID == "" {
		return
	}
	if err := s.notifier.QueueNotification(ctx, req); err != nil {
		s.logger.WarnContext(ctx, "failed to queue notification", "type", req.Type, "recipient_id", req.RecipientID, "error", err)
	}
}

func (s *service) Get(ctx context.Context, id string) (correction.CorrectionRequest, error) {
	return s.correctionRepo.GetByID(ctx, id)
}

func (s *service) Request(ctx context.Context, req correction.SubmitRequest) (correction.CorrectionRequest, error) {
	if err := req.Validate(); err != nil {
		return correction.CorrectionRequest{}, err
	}
	corrected, err := req.CorrectedTimestamp(s.config.Location)
	if err != nil {
		return correction.CorrectionRequest{}, err
	}

	record, err := s.attendanceRepo.GetByID(ctx, req.AttendanceRecordID)
	if err != nil {
		return correction.CorrectionRequest{}, err
	}
	if record.EmployeeID != req.EmployeeID {
		return correction.CorrectionRequest{}, correction.ErrNotOwner
	}
	if err := checkCorrectionDay(record, req.CorrectionType, corrected); err != nil {
		return correction.CorrectionRequest{}, err
	}

	var created correction.CorrectionRequest
	err = s.mutate(ctx, record.EmployeeID, func(ctx context.Context) error {
		record, err = s.attendanceRepo.GetByID(ctx, req.AttendanceRecordID)
		if err != nil {
			return err
		}

		existing, err := s.correctionRepo.ListByRecord(ctx, record.ID)
		if err != nil {
			return fmt.Errorf("failed to list correction requests: %w", err)
		}
		for _, c := range existing {
			if c.Status.IsOpen() {
				return fmt.Errorf("%w: %s", correction.ErrOpenRequestExists, c.ID)
			}
		}

		detail := correction.Detail{Kind: req.CorrectionType, CorrectedTimestamp: corrected}
		if req.CorrectionType.IsIncorrect() {
			original, ok := recordedPunch(record.Punches, req.CorrectionType.PunchType())
			if !ok {
				return correction.ErrNoPunchToCorrect
			}
			if diff := corrected.Sub(original.Time); diff <= redundantTolerance && diff >= -redundantTolerance {
				return fmt.Errorf("%w: recorded %s", correction.ErrRedundantCorrection, original.Time.Format("15:04"))
			}
			t := original.Time
			detail.OriginalTimestamp = &t
		}

		now := s.now()
		created, err = s.correctionRepo.Create(ctx, correction.CorrectionRequest{
			EmployeeID:         record.EmployeeID,
			AttendanceRecordID: record.ID,
			Status:             correction.StatusSubmitted,
			Reason:             req.Reason,
			Detail:             detail,
			SubmittedAt:        now,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
		if err != nil {
			return fmt.Errorf("failed to create correction request: %w", err)
		}

		record.AddCorrectionRequestID(created.ID)
		record.FinalisedForPayroll = false
		record.UpdatedAt = now
		if _, err := s.attendanceRepo.Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update attendance record: %w", err)
		}
		return nil
	})
	if err != nil {
		return correction.CorrectionRequest{}, err
	}

	s.logger.InfoContext(ctx, "correction requested",
		"correction_id", created.ID, "record_id", created.AttendanceRecordID, "kind", created.Detail.Kind)
	return created, nil
}

// checkCorrectionDay accepts a corrected punch on the record's own day, and
// an OUT on the following day for overnight shifts.
func checkCorrectionDay(record attendance.AttendanceRecord, kind correction.Kind, corrected time.Time) error {
	day := schedule.DateOnly(corrected)
	recordDay := schedule.DateOnly(record.Date.In(corrected.Location()))
	if day.Equal(recordDay) {
		return nil
	}
	if kind.PunchType() == attendance.PunchTypeOut && day.Equal(recordDay.AddDate(0, 0, 1)) {
		return nil
	}
	return fmt.Errorf("%w: %s", correction.ErrCorrectionDayInvalid, corrected.Format("02/01/2006"))
}

// recordedPunch is the punch an INCORRECT_* request refers to: the first IN
// or the last OUT.
func recordedPunch(seq attendance.PunchSequence, t attendance.PunchType) (attendance.Punch, bool) {
	if t == attendance.PunchTypeIn {
		return seq.First(t)
	}
	p, _, ok := seq.LastOf(t)
	return p, ok
}

func (s *service) StartReview(ctx context.Context, id, reviewerID string) (correction.CorrectionRequest, error) {
	c, err := s.correctionRepo.GetByID(ctx, id)
	if err != nil {
		return correction.CorrectionRequest{}, err
	}

	err = s.mutate(ctx, c.EmployeeID, func(ctx context.Context) error {
		c, err = s.correctionRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c.Status != correction.StatusSubmitted {
			return fmt.Errorf("%w: %s", correction.ErrInvalidStatus, c.Status)
		}
		c.Status = correction.StatusInReview
		c.ReviewerID = &reviewerID
		c.UpdatedAt = s.now()
		c, err = s.correctionRepo.Update(ctx, c)
		return err
	})
	if err != nil {
		return correction.CorrectionRequest{}, err
	}

	s.notify(ctx, notification.CreateNotificationRequest{
		RecipientID: c.EmployeeID,
		Type:        notification.TypeCorrectionInReview,
		Title:       "Correction in review",
		Message:     "Your attendance correction request is being reviewed.",
		ReferenceID: &c.ID,
	})
	return c, nil
}

func (s *service) Review(ctx context.Context, id, reviewerID string, req correction.ReviewRequest) (correction.CorrectionRequest, error) {
	if err := req.Validate(); err != nil {
		return correction.CorrectionRequest{}, err
	}
	c, err := s.correctionRepo.GetByID(ctx, id)
	if err != nil {
		return correction.CorrectionRequest{}, err
	}

	err = s.mutate(ctx, c.EmployeeID, func(ctx context.Context) error {
		c, err = s.correctionRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c.Status != correction.StatusInReview && c.Status != correction.StatusEscalated {
			return fmt.Errorf("%w: %s", correction.ErrInvalidStatus, c.Status)
		}
		record, err := s.attendanceRepo.GetByID(ctx, c.AttendanceRecordID)
		if err != nil {
			return err
		}

		if req.Decision == correction.DecisionApprove {
			if err := applyCorrection(&record, c.Detail); err != nil {
				return err
			}
			if err := s.attendanceSvc.DeriveMetrics(ctx, &record); err != nil {
				return err
			}
			if err := s.resolveExceptions(ctx, &record); err != nil {
				return err
			}
		}

		now := s.now()
		c.ReviewerID = &reviewerID
		c.ReviewedAt = &now
		c.UpdatedAt = now
		if req.Note != "" {
			c.ReviewNote = &req.Note
		}
		c.Status = correction.StatusRejected
		if req.Decision == correction.DecisionApprove {
			c.Status = correction.StatusApproved
		}
		c, err = s.correctionRepo.Update(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to update correction request: %w", err)
		}

		record.FinalisedForPayroll, err = s.attendanceSvc.IsFinalisable(ctx, record)
		if err != nil {
			return err
		}
		record.UpdatedAt = now
		if _, err := s.attendanceRepo.Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update attendance record: %w", err)
		}
		return nil
	})
	if err != nil {
		return correction.CorrectionRequest{}, err
	}

	notifType, title, verb := notification.TypeCorrectionRejected, "Correction rejected", "rejected"
	if c.Status == correction.StatusApproved {
		notifType, title, verb = notification.TypeCorrectionApproved, "Correction approved", "approved"
	}
	message := fmt.Sprintf("Your %s correction was %s.", c.Detail.Kind, verb)
	if req.Note != "" {
		message += " " + req.Note
	}
	s.notify(ctx, notification.CreateNotificationRequest{
		RecipientID: c.EmployeeID,
		Type:        notifType,
		Title:       title,
		Message:     message,
		ReferenceID: &c.ID,
	})

	s.logger.InfoContext(ctx, "correction reviewed", "correction_id", c.ID, "status", c.Status, "reviewer_id", reviewerID)
	return c, nil
}

// applyCorrection writes the corrected punch into record. An INCORRECT_*
// correction replaces, in order of preference, the punch captured at
// submission, the latest punch of the target type, or the punch nearest the
// corrected time within two minutes; failing all three it inserts.
func applyCorrection(record *attendance.AttendanceRecord, d correction.Detail) error {
	target := d.Kind.PunchType()
	p := attendance.Punch{Type: target, Time: d.CorrectedTimestamp, Source: "correction"}

	if !d.Kind.IsIncorrect() {
		if err := record.Punches.Insert(p); err != nil {
			return fmt.Errorf("failed to apply correction: %w", err)
		}
		return nil
	}

	idx := -1
	if d.OriginalTimestamp != nil {
		idx = record.Punches.IndexOf(target, *d.OriginalTimestamp)
	}
	if idx < 0 {
		if _, i, ok := record.Punches.LastOf(target); ok {
			idx = i
		}
	}
	if idx < 0 {
		idx = record.Punches.NearestWithin(d.CorrectedTimestamp, matchTolerance)
	}

	var err error
	if idx >= 0 {
		err = record.Punches.ReplaceAt(idx, p)
	} else {
		err = record.Punches.Insert(p)
	}
	if err != nil {
		return fmt.Errorf("failed to apply correction: %w", err)
	}
	return nil
}

// resolveExceptions settles every outstanding exception of record after an
// approved correction. Ephemeral ones are deleted and the rest resolved;
// break permissions keep their own lifecycle.
func (s *service) resolveExceptions(ctx context.Context, record *attendance.AttendanceRecord) error {
	open, err := s.exceptionRepo.List(ctx, timeexception.Filter{
		AttendanceRecordID: record.ID,
		Statuses:           timeexception.UnresolvedStatuses(),
	})
	if err != nil {
		return fmt.Errorf("failed to list time exceptions: %w", err)
	}

	now := s.now()
	for _, e := range open {
		switch {
		case e.Type == timeexception.TypeBreakPermission:
			continue
		case e.Type.IsEphemeral():
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
		default:
			e.Status = timeexception.StatusResolved
			e.UpdatedAt = now
			if _, err := s.exceptionRepo.Update(ctx, e); err != nil {
				return fmt.Errorf("failed to resolve %s exception: %w", e.Type, err)
			}
		}
	}
	return nil
}

// EscalateStale implements correction.Service. One failing request does not
// stop the sweep; the failures are returned together.
func (s *service) EscalateStale(ctx context.Context) (int, error) {
	now := s.now()
	stale, err := s.correctionRepo.ListOpenSubmittedBefore(ctx, now.Add(-s.config.EscalationAge))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale correction requests: %w", err)
	}

	var (
		escalated int
		errs      []error
	)
	for _, c := range stale {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		ok, err := s.escalateOne(ctx, c.ID, c.EmployeeID)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to escalate correction request", "correction_id", c.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if ok {
			escalated++
		}
	}
	return escalated, errors.Join(errs...)
}

func (s *service) escalateOne(ctx context.Context, id, employeeID string) (bool, error) {
	var c correction.CorrectionRequest
	err := s.mutate(ctx, employeeID, func(ctx context.Context) error {
		var err error
		c, err = s.correctionRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		// Reviewed since the listing.
		if !c.Status.IsOpen() {
			c = correction.CorrectionRequest{}
			return nil
		}
		now := s.now()
		c.Status = correction.StatusEscalated
		c.EscalatedAt = &now
		c.UpdatedAt = now
		c, err = s.correctionRepo.Update(ctx, c)
		return err
	})
	if err != nil || c.ID == "" {
		return false, err
	}

	message := fmt.Sprintf("Correction request %s has waited more than %d days for a decision.", c.ID, int(s.config.EscalationAge.Hours()/24))
	for _, recipient := range recipients(c.EmployeeID, c.ReviewerID, s.config.ReviewerID) {
		s.notify(ctx, notification.CreateNotificationRequest{
			RecipientID: recipient,
			Type:        notification.TypeCorrectionEscalated,
			Title:       "Correction escalated",
			Message:     message,
			ReferenceID: &c.ID,
		})
	}
	return true, nil
}

// EscalateOverdueAdHoc implements correction.Service.
func (s *service) EscalateOverdueAdHoc(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.exceptionRepo.List(ctx, timeexception.Filter{
		Types:    []timeexception.Type{timeexception.TypeBreakPermission, timeexception.TypeOvertimeRequest},
		Statuses: []timeexception.Status{timeexception.StatusOpen, timeexception.StatusPending},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list ad-hoc requests: %w", err)
	}

	var (
		escalated int
		errs      []error
	)
	for _, e := range candidates {
		if !isOverdue(e, now) {
			continue
		}
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		ok, err := s.escalateAdHoc(ctx, e.ID, e.EmployeeID)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to escalate overdue request", "exception_id", e.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if ok {
			escalated++
		}
	}
	return escalated, errors.Join(errs...)
}

func isOverdue(e timeexception.TimeException, now time.Time) bool {
	return e.Deadline != nil && now.After(*e.Deadline) && e.EscalatedAt == nil
}

func (s *service) escalateAdHoc(ctx context.Context, id, employeeID string) (bool, error) {
	var e timeexception.TimeException
	escalated := false
	err := s.mutate(ctx, employeeID, func(ctx context.Context) error {
		var err error
		e, err = s.exceptionRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		if !isOverdue(e, now) {
			return nil
		}
		if err := e.Escalate(now); err != nil {
			if errors.Is(err, timeexception.ErrNotEscalatable) || errors.Is(err, timeexception.ErrAlreadyEscalated) {
				return nil
			}
			return err
		}
		e, err = s.exceptionRepo.Update(ctx, e)
		escalated = err == nil
		return err
	})
	if err != nil || !escalated {
		return false, err
	}

	for _, recipient := range recipients(e.EmployeeID, e.AssignedTo, s.config.ReviewerID) {
		s.notify(ctx, notification.CreateNotificationRequest{
			RecipientID: recipient,
			Type:        notification.TypeRequestOverdue,
			Title:       "Request overdue",
			Message:     fmt.Sprintf("The %s request was not decided before its deadline and has been escalated.", e.Type),
			ReferenceID: &e.ID,
		})
	}
	return true, nil
}

func recipients(employeeID string, reviewer *string, fallback string) []string {
	out := []string{employeeID}
	switch {
	case reviewer != nil && *reviewer != "" && *reviewer != employeeID:
		out = append(out, *reviewer)
	case reviewer == nil && fallback != "" && fallback != employeeID:
		out = append(out, fallback)
	}
	return out
}
