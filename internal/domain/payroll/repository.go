package payroll

import (
	"context"
	"time"
)

// PeriodRepository reads payroll periods owned by the payroll module.
type PeriodRepository interface {
	// GetActivePayrollCutoff returns the cutoff date of the open period, or
	// nil when no period is open.
	GetActivePayrollCutoff(ctx context.Context) (*time.Time, error)
}
