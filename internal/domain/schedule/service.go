package schedule

import (
	"context"
	"time"
)

// Resolver maps employees and instants onto shift windows.
type Resolver interface {
	// Resolve returns the window admitting a punch at ts, trying the window
	// anchored on ts's calendar day first and then the previous day's.
	Resolve(ctx context.Context, employeeID string, ts time.Time) (Window, error)

	// DaySchedule describes the shift-day starting on date.
	DaySchedule(ctx context.Context, employeeID string, date time.Time) (DaySchedule, error)

	IsWeeklyRestDay(ctx context.Context, employeeID string, date time.Time) (bool, error)
}
