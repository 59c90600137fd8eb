package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/database"
)

const attendanceColumns = `
	id, employee_id, date, punches, total_work_minutes, late_minutes,
	early_leave_minutes, overtime_minutes, has_missed_punch, finalised_for_payroll,
	exception_ids, correction_request_ids, version, created_at, updated_at`

type attendanceRepository struct {
	db  *database.DB
	loc *time.Location
}

// NewAttendanceRepository returns records whose Date is local midnight in loc.
func NewAttendanceRepository(db *database.DB, loc *time.Location) attendance.Repository {
	return &attendanceRepository{db: db, loc: loc}
}

func (a *attendanceRepository) scan(row pgx.Row) (attendance.AttendanceRecord, error) {
	var (
		r       attendance.AttendanceRecord
		punches []byte
	)
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.Date, &punches, &r.TotalWorkMinutes, &r.LateMinutes,
		&r.EarlyLeaveMinutes, &r.OvertimeMinutes, &r.HasMissedPunch, &r.FinalisedForPayroll,
		&r.ExceptionIDs, &r.CorrectionRequestIDs, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}
	if err := json.Unmarshal(punches, &r.Punches); err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to decode punches of %s: %w", r.ID, err)
	}
	local := r.Punches.All()
	for i := range local {
		local[i].Time = local[i].Time.In(a.loc)
	}
	if r.Punches, err = attendance.NewPunchSequence(local...); err != nil {
		return attendance.AttendanceRecord{}, err
	}
	r.Date = fromDate(r.Date, a.loc)
	return r, nil
}

// Create implements attendance.Repository.
func (a *attendanceRepository) Create(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	punches, err := json.Marshal(record.Punches)
	if err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to encode punches: %w", err)
	}
	if record.ID == "" {
		record.ID = newID()
	}
	record.CreatedAt = stamp(record.CreatedAt)
	record.UpdatedAt = record.CreatedAt
	record.Version = 1

	query := `
		INSERT INTO attendance_records (` + attendanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = q.Exec(ctx, query,
		record.ID, record.EmployeeID, toDate(record.Date), punches, record.TotalWorkMinutes, record.LateMinutes,
		record.EarlyLeaveMinutes, record.OvertimeMinutes, record.HasMissedPunch, record.FinalisedForPayroll,
		nonNil(record.ExceptionIDs), nonNil(record.CorrectionRequestIDs), record.Version, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.AttendanceRecord{}, fmt.Errorf("%w: %s", attendance.ErrAttendanceExists, record.Date.Format("2006-01-02"))
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to create attendance record: %w", err)
	}
	return record, nil
}

// GetByID implements attendance.Repository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1`
	r, err := a.scan(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to get attendance record: %w", err)
	}
	return r, nil
}

// GetByEmployeeAndDate implements attendance.Repository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE employee_id = $1 AND date = $2`
	r, err := a.scan(q.QueryRow(ctx, query, employeeID, toDate(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}
	return &r, nil
}

// Update implements attendance.Repository. The version predicate makes a
// concurrent writer's update fail instead of being overwritten.
func (a *attendanceRepository) Update(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	punches, err := json.Marshal(record.Punches)
	if err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to encode punches: %w", err)
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}

	query := `
		UPDATE attendance_records SET
			punches = $3, total_work_minutes = $4, late_minutes = $5, early_leave_minutes = $6,
			overtime_minutes = $7, has_missed_punch = $8, finalised_for_payroll = $9,
			exception_ids = $10, correction_request_ids = $11, updated_at = $12,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version, created_at
	`
	err = q.QueryRow(ctx, query,
		record.ID, record.Version, punches, record.TotalWorkMinutes, record.LateMinutes, record.EarlyLeaveMinutes,
		record.OvertimeMinutes, record.HasMissedPunch, record.FinalisedForPayroll,
		nonNil(record.ExceptionIDs), nonNil(record.CorrectionRequestIDs), record.UpdatedAt,
	).Scan(&record.Version, &record.CreatedAt)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to update attendance record: %w", err)
	}

	var stored int
	err = q.QueryRow(ctx, `SELECT version FROM attendance_records WHERE id = $1`, record.ID).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
	}
	if err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to read attendance version: %w", err)
	}
	return attendance.AttendanceRecord{}, fmt.Errorf("%w: record %s has version %d, update carries %d",
		attendance.ErrVersionConflict, record.ID, stored, record.Version)
}

// ListByIDs implements attendance.Repository.
func (a *attendanceRepository) ListByIDs(ctx context.Context, ids []string) ([]attendance.AttendanceRecord, error) {
	if len(ids) == 0 {
		return []attendance.AttendanceRecord{}, nil
	}
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = ANY($1) ORDER BY date, id`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	out := make([]attendance.AttendanceRecord, 0, len(ids))
	for rows.Next() {
		r, err := a.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
