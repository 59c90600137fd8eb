package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/database"
)

type payrollPeriodRepository struct {
	db  *database.DB
	loc *time.Location
}

func NewPayrollPeriodRepository(db *database.DB, loc *time.Location) payroll.PeriodRepository {
	return &payrollPeriodRepository{db: db, loc: loc}
}

// GetActivePayrollCutoff returns the earliest cutoff among open periods.
func (r *payrollPeriodRepository) GetActivePayrollCutoff(ctx context.Context) (*time.Time, error) {
	q := GetQuerier(ctx, r.db)

	var cutoff time.Time
	err := q.QueryRow(ctx, `
		SELECT cutoff_date FROM payroll_periods
		WHERE status = $1
		ORDER BY cutoff_date
		LIMIT 1`, string(payroll.PeriodStatusOpen),
	).Scan(&cutoff)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active payroll cutoff: %w", err)
	}
	cutoff = fromDate(cutoff, r.loc)
	return &cutoff, nil
}
