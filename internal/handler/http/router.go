package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/jwt"
)

type RouterConfig struct {
	AllowedOrigins []string
	Env            string
	Version        string
	LogLevel       slog.Level
	Gatherer       prometheus.Gatherer
}

type Handlers struct {
	Attendance      AttendanceHandler
	Correction      CorrectionHandler
	BreakPermission BreakPermissionHandler
	TimeException   TimeExceptionHandler
	Lateness        LatenessHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-timekeeping"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService))

		r.Route("/attendance", func(r chi.Router) {
			r.Post("/punch-in", h.Attendance.PunchIn)
			r.Post("/punch-out", h.Attendance.PunchOut)

			r.Route("/records", func(r chi.Router) {
				r.With(middleware.RequireReviewer).Post("/", h.Attendance.CreatePlaceholder)
				r.Get("/{id}", h.Attendance.Get)
				r.Get("/{id}/exceptions", h.Attendance.ListExceptions)
				r.With(middleware.RequireReviewer).Post("/{id}/recompute", h.Attendance.Recompute)
			})
		})

		r.Route("/corrections", func(r chi.Router) {
			r.Post("/", h.Correction.Request)
			r.Get("/{id}", h.Correction.Get)

			// Reviewer only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireReviewer)
				r.Post("/{id}/start-review", h.Correction.StartReview)
				r.Post("/{id}/review", h.Correction.Review)
			})
		})

		r.Route("/breaks", func(r chi.Router) {
			r.Post("/", h.BreakPermission.Create)
			r.Get("/max-minutes", h.BreakPermission.GetMaxMinutes)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireReviewer)
				r.Post("/{id}/approve", h.BreakPermission.Approve)
				r.Post("/{id}/reject", h.BreakPermission.Reject)
			})

			// Admin only
			r.With(middleware.AdminOnly).Put("/max-minutes", h.BreakPermission.SetMaxMinutes)
		})

		r.Route("/exceptions", func(r chi.Router) {
			r.Get("/{id}", h.TimeException.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireReviewer)
				r.Post("/{id}/assign", h.TimeException.Assign)
				r.Put("/{id}/status", h.TimeException.UpdateStatus)
			})
		})

		r.With(middleware.RequireReviewer).Post("/lateness/{employeeID}/evaluate", h.Lateness.Evaluate)
	})
	return r
}
