package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/database"
)

const timeExceptionColumns = `
	id, employee_id, attendance_record_id, type, status, assigned_to, reason, minutes,
	break_start, break_end, break_minutes, deadline, escalated_at, marker,
	related_exception_ids, created_at, updated_at`

type timeExceptionRepository struct {
	db *database.DB
}

func NewTimeExceptionRepository(db *database.DB) timeexception.Repository {
	return &timeExceptionRepository{db: db}
}

func scanTimeException(row pgx.Row) (timeexception.TimeException, error) {
	var (
		e            timeexception.TimeException
		breakStart   *time.Time
		breakEnd     *time.Time
		breakMinutes *int
	)
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.AttendanceRecordID, &e.Type, &e.Status, &e.AssignedTo, &e.Reason, &e.Minutes,
		&breakStart, &breakEnd, &breakMinutes, &e.Deadline, &e.EscalatedAt, &e.Marker,
		&e.RelatedExceptionIDs, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return timeexception.TimeException{}, err
	}
	if breakStart != nil && breakEnd != nil {
		e.Break = &timeexception.BreakWindow{Start: *breakStart, End: *breakEnd}
		if breakMinutes != nil {
			e.Break.DurationMinutes = *breakMinutes
		}
	}
	if len(e.RelatedExceptionIDs) == 0 {
		e.RelatedExceptionIDs = nil
	}
	return e, nil
}

func breakColumns(b *timeexception.BreakWindow) (start, end *time.Time, minutes *int) {
	if b == nil {
		return nil, nil, nil
	}
	s, en, m := b.Start, b.End, b.DurationMinutes
	return &s, &en, &m
}

// Create implements timeexception.Repository.
func (r *timeExceptionRepository) Create(ctx context.Context, e timeexception.TimeException) (timeexception.TimeException, error) {
	q := GetQuerier(ctx, r.db)

	if e.ID == "" {
		e.ID = newID()
	}
	e.CreatedAt = stamp(e.CreatedAt)
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	breakStart, breakEnd, breakMinutes := breakColumns(e.Break)

	query := `
		INSERT INTO time_exceptions (` + timeExceptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := q.Exec(ctx, query,
		e.ID, e.EmployeeID, e.AttendanceRecordID, string(e.Type), string(e.Status), e.AssignedTo, e.Reason, e.Minutes,
		breakStart, breakEnd, breakMinutes, e.Deadline, e.EscalatedAt, e.Marker,
		nonNil(e.RelatedExceptionIDs), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return timeexception.TimeException{}, fmt.Errorf("failed to create time exception: %w", err)
	}
	return e, nil
}

// GetByID implements timeexception.Repository.
func (r *timeExceptionRepository) GetByID(ctx context.Context, id string) (timeexception.TimeException, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timeExceptionColumns + ` FROM time_exceptions WHERE id = $1`
	e, err := scanTimeException(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timeexception.TimeException{}, timeexception.ErrTimeExceptionNotFound
		}
		return timeexception.TimeException{}, fmt.Errorf("failed to get time exception: %w", err)
	}
	return e, nil
}

// Update implements timeexception.Repository.
func (r *timeExceptionRepository) Update(ctx context.Context, e timeexception.TimeException) (timeexception.TimeException, error) {
	q := GetQuerier(ctx, r.db)

	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	breakStart, breakEnd, breakMinutes := breakColumns(e.Break)

	query := `
		UPDATE time_exceptions SET
			status = $2, assigned_to = $3, reason = $4, minutes = $5,
			break_start = $6, break_end = $7, break_minutes = $8,
			deadline = $9, escalated_at = $10, marker = $11,
			related_exception_ids = $12, updated_at = $13
		WHERE id = $1
		RETURNING created_at
	`
	err := q.QueryRow(ctx, query,
		e.ID, string(e.Status), e.AssignedTo, e.Reason, e.Minutes,
		breakStart, breakEnd, breakMinutes,
		e.Deadline, e.EscalatedAt, e.Marker,
		nonNil(e.RelatedExceptionIDs), e.UpdatedAt,
	).Scan(&e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timeexception.TimeException{}, timeexception.ErrTimeExceptionNotFound
		}
		return timeexception.TimeException{}, fmt.Errorf("failed to update time exception: %w", err)
	}
	return e, nil
}

// Delete implements timeexception.Repository.
func (r *timeExceptionRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM time_exceptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete time exception: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return timeexception.ErrTimeExceptionNotFound
	}
	return nil
}

// List implements timeexception.Repository. Results are ordered by creation time.
func (r *timeExceptionRepository) List(ctx context.Context, filter timeexception.Filter) ([]timeexception.TimeException, error) {
	q := GetQuerier(ctx, r.db)

	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.EmployeeID != "" {
		add("employee_id = $%d", filter.EmployeeID)
	}
	if filter.AttendanceRecordID != "" {
		add("attendance_record_id = $%d", filter.AttendanceRecordID)
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		add("type = ANY($%d)", types)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		add("status = ANY($%d)", statuses)
	}
	if filter.CreatedFrom != nil {
		add("created_at >= $%d", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		add("created_at <= $%d", *filter.CreatedTo)
	}
	if filter.Marker != nil {
		add("marker = $%d", *filter.Marker)
	}

	query := `SELECT ` + timeExceptionColumns + ` FROM time_exceptions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list time exceptions: %w", err)
	}
	defer rows.Close()

	out := make([]timeexception.TimeException, 0)
	for rows.Next() {
		e, err := scanTimeException(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time exception: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
