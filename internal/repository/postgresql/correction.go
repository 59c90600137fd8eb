package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/database"
)

const correctionColumns = `
	id, employee_id, attendance_record_id, status, reason, kind,
	corrected_timestamp, original_timestamp, reviewer_id, review_note,
	submitted_at, reviewed_at, escalated_at, created_at, updated_at`

type correctionRepository struct {
	db *database.DB
}

func NewCorrectionRepository(db *database.DB) correction.Repository {
	return &correctionRepository{db: db}
}

func scanCorrection(row pgx.Row) (correction.CorrectionRequest, error) {
	var c correction.CorrectionRequest
	err := row.Scan(
		&c.ID, &c.EmployeeID, &c.AttendanceRecordID, &c.Status, &c.Reason, &c.Detail.Kind,
		&c.Detail.CorrectedTimestamp, &c.Detail.OriginalTimestamp, &c.ReviewerID, &c.ReviewNote,
		&c.SubmittedAt, &c.ReviewedAt, &c.EscalatedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *correctionRepository) Create(ctx context.Context, req correction.CorrectionRequest) (correction.CorrectionRequest, error) {
	q := GetQuerier(ctx, r.db)

	if req.ID == "" {
		req.ID = newID()
	}
	req.CreatedAt = stamp(req.CreatedAt)
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = req.CreatedAt
	}

	query := `
		INSERT INTO correction_requests (` + correctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := q.Exec(ctx, query,
		req.ID, req.EmployeeID, req.AttendanceRecordID, string(req.Status), req.Reason, string(req.Detail.Kind),
		req.Detail.CorrectedTimestamp, req.Detail.OriginalTimestamp, req.ReviewerID, req.ReviewNote,
		req.SubmittedAt, req.ReviewedAt, req.EscalatedAt, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return correction.CorrectionRequest{}, correction.ErrOpenRequestExists
		}
		return correction.CorrectionRequest{}, fmt.Errorf("failed to create correction request: %w", err)
	}
	return req, nil
}

func (r *correctionRepository) GetByID(ctx context.Context, id string) (correction.CorrectionRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + correctionColumns + ` FROM correction_requests WHERE id = $1`
	c, err := scanCorrection(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return correction.CorrectionRequest{}, correction.ErrCorrectionNotFound
		}
		return correction.CorrectionRequest{}, fmt.Errorf("failed to get correction request: %w", err)
	}
	return c, nil
}

func (r *correctionRepository) Update(ctx context.Context, req correction.CorrectionRequest) (correction.CorrectionRequest, error) {
	q := GetQuerier(ctx, r.db)

	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = time.Now()
	}

	query := `
		UPDATE correction_requests SET
			status = $2, reason = $3, reviewer_id = $4, review_note = $5,
			reviewed_at = $6, escalated_at = $7, updated_at = $8
		WHERE id = $1
		RETURNING created_at
	`
	err := q.QueryRow(ctx, query,
		req.ID, string(req.Status), req.Reason, req.ReviewerID, req.ReviewNote,
		req.ReviewedAt, req.EscalatedAt, req.UpdatedAt,
	).Scan(&req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return correction.CorrectionRequest{}, correction.ErrCorrectionNotFound
		}
		return correction.CorrectionRequest{}, fmt.Errorf("failed to update correction request: %w", err)
	}
	return req, nil
}

func (r *correctionRepository) ListByRecord(ctx context.Context, recordID string) ([]correction.CorrectionRequest, error) {
	query := `SELECT ` + correctionColumns + ` FROM correction_requests
		WHERE attendance_record_id = $1 ORDER BY submitted_at, id`
	return r.list(ctx, query, recordID)
}

func (r *correctionRepository) ListOpenSubmittedBefore(ctx context.Context, cutoff time.Time) ([]correction.CorrectionRequest, error) {
	query := `SELECT ` + correctionColumns + ` FROM correction_requests
		WHERE status IN ('SUBMITTED', 'IN_REVIEW') AND submitted_at < $1 ORDER BY submitted_at, id`
	return r.list(ctx, query, cutoff)
}

func (r *correctionRepository) list(ctx context.Context, query string, args ...interface{}) ([]correction.CorrectionRequest, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list correction requests: %w", err)
	}
	defer rows.Close()

	out := make([]correction.CorrectionRequest, 0)
	for rows.Next() {
		c, err := scanCorrection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan correction request: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
