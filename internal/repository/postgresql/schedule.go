package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

const assignmentColumns = `
	id, employee_id, shift_id, schedule_rule_id, start_date, end_date, status, created_at, updated_at`

type scheduleRepository struct {
	db  *database.DB
	loc *time.Location
}

// NewScheduleRepository reads the scheduling module's tables. Dates are
// returned at midnight in loc.
func NewScheduleRepository(db *database.DB, loc *time.Location) schedule.Repository {
	return &scheduleRepository{db: db, loc: loc}
}

func (r *scheduleRepository) scanAssignment(row pgx.Row) (schedule.ShiftAssignment, error) {
	var a schedule.ShiftAssignment
	err := row.Scan(
		&a.ID, &a.EmployeeID, &a.ShiftID, &a.ScheduleRuleID, &a.StartDate, &a.EndDate, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return schedule.ShiftAssignment{}, err
	}
	a.StartDate = fromDate(a.StartDate, r.loc)
	if a.EndDate != nil {
		end := fromDate(*a.EndDate, r.loc)
		a.EndDate = &end
	}
	return a, nil
}

func (r *scheduleRepository) assignments(ctx context.Context, query string, args ...interface{}) ([]schedule.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift assignments: %w", err)
	}
	defer rows.Close()

	out := make([]schedule.ShiftAssignment, 0)
	for rows.Next() {
		a, err := r.scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *scheduleRepository) GetAssignmentsCovering(ctx context.Context, employeeID string, date time.Time) ([]schedule.ShiftAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM shift_assignments
		WHERE employee_id = $1 AND start_date <= $2 AND (end_date IS NULL OR end_date >= $2)
		ORDER BY start_date, id`
	return r.assignments(ctx, query, employeeID, toDate(date))
}

func (r *scheduleRepository) GetAssignmentsEndingBetween(ctx context.Context, from, to time.Time) ([]schedule.ShiftAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM shift_assignments
		WHERE status = 'APPROVED' AND end_date BETWEEN $1 AND $2
		ORDER BY end_date, id`
	return r.assignments(ctx, query, toDate(from), toDate(to))
}

func (r *scheduleRepository) GetShiftByID(ctx context.Context, id string) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, TO_CHAR(start_time, 'HH24:MI'), TO_CHAR(end_time, 'HH24:MI'),
			grace_in_minutes, grace_out_minutes, punch_policy, requires_overtime_approval,
			created_at, updated_at
		FROM shifts WHERE id = $1
	`
	var s schedule.Shift
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.StartTime, &s.EndTime,
		&s.GraceInMinutes, &s.GraceOutMinutes, &s.PunchPolicy, &s.RequiresOvertimeApproval,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Shift{}, schedule.ErrShiftNotFound
		}
		return schedule.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}
	if !validator.IsInSlice(string(s.PunchPolicy), schedule.PunchPolicyValues) {
		return schedule.Shift{}, fmt.Errorf("%w: shift %s has unknown punch policy %q", schedule.ErrMalformedShift, s.ID, s.PunchPolicy)
	}
	return s, nil
}

func (r *scheduleRepository) GetScheduleRuleByID(ctx context.Context, id string) (schedule.ScheduleRule, error) {
	q := GetQuerier(ctx, r.db)

	var (
		rule     schedule.ScheduleRule
		restDays []int32
	)
	err := q.QueryRow(ctx,
		`SELECT id, name, weekly_rest_days, created_at, updated_at FROM schedule_rules WHERE id = $1`, id,
	).Scan(&rule.ID, &rule.Name, &restDays, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.ScheduleRule{}, schedule.ErrScheduleRuleNotFound
		}
		return schedule.ScheduleRule{}, fmt.Errorf("failed to get schedule rule: %w", err)
	}
	for _, d := range restDays {
		rule.WeeklyRestDays = append(rule.WeeklyRestDays, time.Weekday(d))
	}
	return rule, nil
}

func (r *scheduleRepository) HasActiveOvertimeApproval(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM overtime_approvals
			WHERE employee_id = $1 AND active AND start_date <= $2 AND end_date >= $2
		)`, employeeID, toDate(date)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check overtime approval: %w", err)
	}
	return exists, nil
}

func (r *scheduleRepository) GetLatenessPolicy(ctx context.Context, name string) (schedule.LatenessPolicy, error) {
	q := GetQuerier(ctx, r.db)

	var p schedule.LatenessPolicy
	err := q.QueryRow(ctx,
		`SELECT name, window_days, threshold FROM lateness_policies WHERE name = $1`, name,
	).Scan(&p.Name, &p.WindowDays, &p.Threshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.LatenessPolicy{}, schedule.ErrLatenessPolicyMissing
		}
		return schedule.LatenessPolicy{}, fmt.Errorf("failed to get lateness policy: %w", err)
	}
	return p, nil
}

type holidayRepository struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) schedule.HolidayRepository {
	return &holidayRepository{db: db}
}

func (r *holidayRepository) IsCompanyHoliday(ctx context.Context, date time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM company_holidays WHERE date = $1)`, toDate(date)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check company holiday: %w", err)
	}
	return exists, nil
}
