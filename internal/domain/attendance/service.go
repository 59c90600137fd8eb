package attendance

import (
	"context"
)

// Service covers punch ingestion and the recompute engine.
type Service interface {
	// PunchIn validates and stores an IN punch, then recomputes the record.
	PunchIn(ctx context.Context, req PunchRequest) (PunchResult, error)

	// PunchOut validates and stores an OUT punch, clears any open missed punch
	// and recomputes the record.
	PunchOut(ctx context.Context, req PunchRequest) (PunchResult, error)

	// CreatePlaceholder creates an empty record for manual attendance entry.
	CreatePlaceholder(ctx context.Context, req CreatePlaceholderRequest) (AttendanceRecord, error)

	GetRecord(ctx context.Context, id string) (AttendanceRecord, error)

	// RecomputeAttendance re-derives totals, exceptions and payroll eligibility.
	// Payroll and leave-sync processes call it before finalization.
	RecomputeAttendance(ctx context.Context, recordID string) (AttendanceRecord, error)

	// Recompute is RecomputeAttendance with explicit suppression flags.
	Recompute(ctx context.Context, recordID string, opts RecomputeOptions) (AttendanceRecord, error)

	// GetScheduledMinutes returns the scheduled length of the record's shift-day,
	// or 0 when no approved assignment covers it.
	GetScheduledMinutes(ctx context.Context, record AttendanceRecord) (int, error)

	// ShortfallMinutes returns max(0, scheduled - approved breaks - worked) for
	// a working day, and 0 on holidays, rest days or unscheduled days.
	ShortfallMinutes(ctx context.Context, record AttendanceRecord) (int, error)

	// RefreshFinalisation re-evaluates finalisedForPayroll without touching exceptions.
	RefreshFinalisation(ctx context.Context, recordID string) (AttendanceRecord, error)

	// DeriveMetrics recalculates totals, the missed-punch flag and the
	// late/early/overtime minutes of record in place. It neither persists
	// nor touches exceptions.
	DeriveMetrics(ctx context.Context, record *AttendanceRecord) error

	// IsFinalisable reports whether record may be finalised for payroll: it
	// has at least one IN and one OUT and no blocking correction request.
	IsFinalisable(ctx context.Context, record AttendanceRecord) (bool, error)
}
