// Package app wires the timekeeping services together. The construction
// order matters: the recompute engine only sees the break calculator and
// the lateness escalator, and everything else sits on top of it.
package app

import (
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/metrics"
	attendanceService "github.com/cmlabs-hris/hris-timekeeping-go/internal/service/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/service/breakpermission"
	correctionService "github.com/cmlabs-hris/hris-timekeeping-go/internal/service/correction"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/service/lateness"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/service/shiftwindow"
	timeExceptionService "github.com/cmlabs-hris/hris-timekeeping-go/internal/service/timeexception"
)

type Repositories struct {
	Attendance     attendance.Repository
	TimeExceptions timeexception.Repository
	Corrections    correction.Repository
	Schedule       schedule.Repository
	Holidays       schedule.HolidayChecker
	PayrollPeriods payroll.PeriodRepository
}

// Options are the business settings shared by the services.
type Options struct {
	Location           *time.Location
	Now                func() time.Time
	AdHocDeadline      time.Duration
	MaxBreakMinutes    int
	EscalationAge      time.Duration
	LatenessPolicyName string
	LatenessDefaults   timeexception.LatenessParams
	ReviewerID         string
}

type Services struct {
	Resolver        schedule.Resolver
	Attendance      attendance.Service
	TimeExceptions  timeexception.Service
	Corrections     correction.Service
	BreakPermission timeexception.BreakPermissionService
	Lateness        timeexception.LatenessEscalator
}

func NewServices(
	tx database.Transactor,
	locker lock.Locker,
	repos Repositories,
	notifier notification.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts Options,
) *Services {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	resolver := shiftwindow.NewResolver(repos.Schedule, repos.Holidays)
	calculator := breakpermission.NewCalculator(repos.TimeExceptions)

	latenessSvc := lateness.NewLatenessService(
		tx,
		locker,
		repos.TimeExceptions,
		repos.Attendance,
		repos.Schedule,
		notifier,
		m,
		logger,
		lateness.Config{
			PolicyName: opts.LatenessPolicyName,
			Defaults:   opts.LatenessDefaults,
			ReviewerID: opts.ReviewerID,
			Location:   opts.Location,
			Now:        opts.Now,
		},
	)

	attendanceSvc := attendanceService.NewAttendanceService(
		tx,
		locker,
		repos.Attendance,
		repos.TimeExceptions,
		repos.Corrections,
		repos.Schedule,
		resolver,
		calculator,
		latenessSvc,
		notifier,
		m,
		logger,
		attendanceService.Config{
			Location:      opts.Location,
			AdHocDeadline: opts.AdHocDeadline,
			Now:           opts.Now,
		},
	)

	exceptionSvc := timeExceptionService.NewTimeExceptionService(
		tx,
		locker,
		repos.TimeExceptions,
		repos.Attendance,
		attendanceSvc,
		notifier,
		m,
		logger,
		opts.Now,
	)

	correctionSvc := correctionService.NewCorrectionService(
		tx,
		locker,
		repos.Corrections,
		repos.Attendance,
		repos.TimeExceptions,
		attendanceSvc,
		notifier,
		m,
		logger,
		correctionService.Config{
			Location:      opts.Location,
			EscalationAge: opts.EscalationAge,
			ReviewerID:    opts.ReviewerID,
			Now:           opts.Now,
		},
	)

	breakSvc := breakpermission.NewBreakPermissionService(
		tx,
		locker,
		calculator,
		repos.TimeExceptions,
		repos.Attendance,
		attendanceSvc,
		notifier,
		m,
		logger,
		breakpermission.Config{
			Location:        opts.Location,
			MaxBreakMinutes: opts.MaxBreakMinutes,
			AdHocDeadline:   opts.AdHocDeadline,
			Now:             opts.Now,
		},
	)

	return &Services{
		Resolver:        resolver,
		Attendance:      attendanceSvc,
		TimeExceptions:  exceptionSvc,
		Corrections:     correctionSvc,
		BreakPermission: breakSvc,
		Lateness:        latenessSvc,
	}
}
