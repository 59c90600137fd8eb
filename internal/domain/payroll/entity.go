package payroll

import "time"

type PeriodStatus string

const (
	PeriodStatusOpen      PeriodStatus = "open"
	PeriodStatusProcessed PeriodStatus = "processed"
	PeriodStatusClosed    PeriodStatus = "closed"
)

// Period is a payroll period as seen by timekeeping. Attendance dated on or
// before CutoffDate feeds this period's payroll run.
type Period struct {
	ID         string
	StartDate  time.Time
	EndDate    time.Time
	CutoffDate time.Time
	Status     PeriodStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
