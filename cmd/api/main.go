package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/app"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/config"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	appHTTP "github.com/cmlabs-hris/hris-timekeeping-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/holiday"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/repository/memory"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/repository/postgresql"
	notificationService "github.com/cmlabs-hris/hris-timekeeping-go/internal/service/notification"
)

var version = "dev"

// storage bundles the repositories of one storage driver.
type storage struct {
	tx            database.Transactor
	attendance    attendance.Repository
	exceptions    timeexception.Repository
	corrections   correction.Repository
	schedule      schedule.Repository
	holidays      schedule.HolidayRepository
	payroll       payroll.PeriodRepository
	notifications notification.Repository
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).With(
		slog.String("app", "hris-timekeeping"),
		slog.String("version", version),
	)
	slog.SetDefault(logger)

	if err := run(cfg, logger, level); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, level slog.Level) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := openStorage(ctx, cfg, loc)
	if err != nil {
		return err
	}
	defer store.close()

	locker, closeLocker, err := openLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	public, err := holiday.NewPublicCalendar(cfg.Timekeeping.HolidayCalendar)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	notifier := notificationService.NewNotificationService(store.notifications, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.WorkerCount,
		QueueSize:     cfg.Notification.QueueSize,
	}, logger)
	defer notifier.Stop()

	escalationAge := time.Duration(cfg.Timekeeping.CorrectionEscalationDays) * 24 * time.Hour
	services := app.NewServices(
		store.tx,
		locker,
		app.Repositories{
			Attendance:     store.attendance,
			TimeExceptions: store.exceptions,
			Corrections:    store.corrections,
			Schedule:       store.schedule,
			Holidays:       holiday.NewChecker(public, store.holidays),
			PayrollPeriods: store.payroll,
		},
		notifier,
		m,
		logger,
		app.Options{
			Location:           loc,
			Now:                time.Now,
			AdHocDeadline:      time.Duration(cfg.Timekeeping.AdHocDeadlineHours) * time.Hour,
			MaxBreakMinutes:    cfg.Timekeeping.MaxBreakMinutes,
			EscalationAge:      escalationAge,
			LatenessPolicyName: cfg.Timekeeping.LatenessPolicyName,
			LatenessDefaults: timeexception.LatenessParams{
				WindowDays: cfg.Timekeeping.LatenessWindowDays,
				Threshold:  cfg.Timekeeping.LatenessThreshold,
			},
			ReviewerID: cfg.Timekeeping.ReviewerID,
		},
	)

	scheduler := cron.NewScheduler(loc, m, logger)
	jobs := cron.NewMaintenanceJobs(
		services.Corrections,
		services.TimeExceptions,
		store.exceptions,
		store.attendance,
		store.schedule,
		store.payroll,
		notifier,
		logger,
		cron.MaintenanceConfig{
			Location:              loc,
			PayrollCutoffLeadDays: cfg.Timekeeping.PayrollCutoffLeadDays,
			ShiftExpiryNoticeDays: cfg.Timekeeping.ShiftExpiryNoticeDays,
			ReviewerID:            cfg.Timekeeping.ReviewerID,
		},
	)
	if err := jobs.RegisterJobs(scheduler, cfg.Timekeeping.MaintenanceSchedule); err != nil {
		return err
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiration, cfg.JWT.AcceptableSkew)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AllowedOrigins: cfg.App.AllowedOrigins,
			Env:            cfg.App.Env,
			Version:        version,
			LogLevel:       level,
			Gatherer:       registry,
		},
		JWTService,
		appHTTP.Handlers{
			Attendance:      appHTTP.NewAttendanceHandler(services.Attendance, services.TimeExceptions),
			Correction:      appHTTP.NewCorrectionHandler(services.Corrections),
			BreakPermission: appHTTP.NewBreakPermissionHandler(services.BreakPermission),
			TimeException:   appHTTP.NewTimeExceptionHandler(services.TimeExceptions),
			Lateness:        appHTTP.NewLatenessHandler(services.Lateness),
		},
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler.Start()
	defer scheduler.Stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server running", "addr", server.Addr, "storage", cfg.App.StorageDriver, "lock", cfg.App.LockDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStorage(ctx context.Context, cfg *config.Config, loc *time.Location) (*storage, error) {
	if cfg.App.StorageDriver == "memory" {
		return &storage{
			tx:            memory.NewTransactor(),
			attendance:    memory.NewAttendanceRepository(),
			exceptions:    memory.NewTimeExceptionRepository(),
			corrections:   memory.NewCorrectionRepository(),
			schedule:      memory.NewScheduleRepository(),
			holidays:      memory.NewHolidayRepository(),
			payroll:       memory.NewPayrollPeriodRepository(),
			notifications: memory.NewNotificationRepository(),
			close:         func() {},
		}, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := postgresql.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &storage{
		tx:            postgresql.NewTransactor(db),
		attendance:    postgresql.NewAttendanceRepository(db, loc),
		exceptions:    postgresql.NewTimeExceptionRepository(db),
		corrections:   postgresql.NewCorrectionRepository(db),
		schedule:      postgresql.NewScheduleRepository(db, loc),
		holidays:      postgresql.NewHolidayRepository(db),
		payroll:       postgresql.NewPayrollPeriodRepository(db, loc),
		notifications: postgresql.NewNotificationRepository(db),
		close:         db.Close,
	}, nil
}

func openLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func(), error) {
	if !strings.EqualFold(cfg.App.LockDriver, "redis") {
		return lock.NewMemoryLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Error("Failed to close redis client", "error", err)
		}
	}
	return lock.NewRedisLocker(client, "timekeeping:lock:", cfg.Redis.LockTTL, 0), closeFn, nil
}
