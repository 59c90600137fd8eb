// Package apptest builds the full service graph on in-memory repositories
// for service-level tests.
package apptest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/app"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/holiday"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/repository/memory"
)

// Location is a fixed UTC+7 zone so tests do not depend on tzdata.
var Location = time.FixedZone("WIB", 7*60*60)

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Notifier stores every notification synchronously.
type Notifier struct {
	Repo *memory.NotificationRepository
}

func (n *Notifier) QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error {
	return n.SendNow(ctx, req)
}

func (n *Notifier) SendNow(ctx context.Context, req notification.CreateNotificationRequest) error {
	if req.RecipientID == "" {
		return notification.ErrMissingRecipient
	}
	return n.Repo.Create(ctx, &notification.Notification{
		RecipientID: req.RecipientID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		ReferenceID: req.ReferenceID,
		Data:        req.Data,
	})
}

func (n *Notifier) HasBeenSent(ctx context.Context, referenceID string, notifType notification.NotificationType) (bool, error) {
	return n.Repo.ExistsForReference(ctx, referenceID, notifType)
}

func (n *Notifier) DeleteForReference(ctx context.Context, referenceID string) error {
	return n.Repo.DeleteByReference(ctx, referenceID)
}

func (n *Notifier) Stop() {}

// OfType returns the stored notifications of type t.
func (n *Notifier) OfType(t notification.NotificationType) []notification.Notification {
	var out []notification.Notification
	for _, item := range n.Repo.All() {
		if item.Type == t {
			out = append(out, item)
		}
	}
	return out
}

type Env struct {
	Clock    *Clock
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Attendance    *memory.AttendanceRepository
	Exceptions    *memory.TimeExceptionRepository
	Corrections   *memory.CorrectionRepository
	Schedule      *memory.ScheduleRepository
	Holidays      *memory.HolidayRepository
	Payroll       *memory.PayrollPeriodRepository
	Notifications *memory.NotificationRepository
	Notifier      *Notifier
	Locker        *lock.MemoryLocker

	Options  app.Options
	Services *app.Services
}

// New builds an Env whose clock starts at start. opts may adjust the
// service options before wiring.
func New(t testing.TB, start time.Time, opts ...func(*app.Options)) *Env {
	t.Helper()

	env := &Env{
		Clock:         &Clock{now: start},
		Registry:      prometheus.NewRegistry(),
		Attendance:    memory.NewAttendanceRepository(),
		Exceptions:    memory.NewTimeExceptionRepository(),
		Corrections:   memory.NewCorrectionRepository(),
		Schedule:      memory.NewScheduleRepository(),
		Holidays:      memory.NewHolidayRepository(),
		Payroll:       memory.NewPayrollPeriodRepository(),
		Notifications: memory.NewNotificationRepository(),
		Locker:        lock.NewMemoryLocker(),
	}
	env.Metrics = metrics.New(env.Registry)
	env.Notifier = &Notifier{Repo: env.Notifications}

	env.Options = app.Options{
		Location:           Location,
		Now:                env.Clock.Now,
		AdHocDeadline:      48 * time.Hour,
		MaxBreakMinutes:    180,
		EscalationAge:      7 * 24 * time.Hour,
		LatenessPolicyName: "repeated_lateness",
		ReviewerID:         "reviewer-1",
	}
	for _, opt := range opts {
		opt(&env.Options)
	}

	env.Services = app.NewServices(
		memory.NewTransactor(),
		env.Locker,
		app.Repositories{
			Attendance:     env.Attendance,
			TimeExceptions: env.Exceptions,
			Corrections:    env.Corrections,
			Schedule:       env.Schedule,
			Holidays:       holiday.NewChecker(nil, env.Holidays),
			PayrollPeriods: env.Payroll,
		},
		env.Notifier,
		env.Metrics,
		nil,
		env.Options,
	)
	return env
}

// At parses a local "dd/mm/yyyy hh:mm" time and fails the test on error.
func At(t testing.TB, s string) time.Time {
	t.Helper()
	ts, err := validator.ParsePunchTimestamp(s, Location)
	if err != nil {
		t.Fatalf("bad timestamp %q: %v", s, err)
	}
	return ts
}

// Day parses a local "dd/mm/yyyy" date.
func Day(t testing.TB, s string) time.Time {
	t.Helper()
	d, err := validator.ParseDMYDate(s, Location)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

// AssignShift stores shift and an approved open-ended assignment of it
// starting on from. rule may be nil.
func (e *Env) AssignShift(employeeID string, shift schedule.Shift, from time.Time, rule *schedule.ScheduleRule) (schedule.Shift, schedule.ShiftAssignment) {
	shift = e.Schedule.AddShift(shift)
	a := schedule.ShiftAssignment{
		EmployeeID: employeeID,
		ShiftID:    shift.ID,
		StartDate:  from,
		Status:     schedule.AssignmentStatusApproved,
	}
	if rule != nil {
		stored := e.Schedule.AddScheduleRule(*rule)
		a.ScheduleRuleID = &stored.ID
	}
	return shift, e.Schedule.AddAssignment(a)
}

// DayShift is 09:00-17:00 with ten minutes of grace either side.
func DayShift(policy schedule.PunchPolicy) schedule.Shift {
	return schedule.Shift{
		Name:            "Day",
		StartTime:       "09:00",
		EndTime:         "17:00",
		GraceInMinutes:  10,
		GraceOutMinutes: 10,
		PunchPolicy:     policy,
	}
}
