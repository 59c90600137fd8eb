package breakpermission

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
)

// Calculator sums approved break permissions. It only needs the exception
// store, so the recompute engine can depend on it without a cycle.
type Calculator struct {
	exceptionRepo timeexception.Repository
}

func NewCalculator(exceptionRepo timeexception.Repository) *Calculator {
	return &Calculator{exceptionRepo: exceptionRepo}
}

// CalculateApprovedBreakMinutes counts APPROVED breaks and approved breaks
// that were later RESOLVED.
func (c *Calculator) CalculateApprovedBreakMinutes(ctx context.Context, recordID string) (int, error) {
	if recordID == "" {
		return 0, nil
	}
	breaks, err := c.exceptionRepo.List(ctx, timeexception.Filter{
		AttendanceRecordID: recordID,
		Types:              []timeexception.Type{timeexception.TypeBreakPermission},
		Statuses:           []timeexception.Status{timeexception.StatusApproved, timeexception.StatusResolved},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list break permissions: %w", err)
	}

	total := 0
	for _, b := range breaks {
		if b.Break != nil {
			total += b.Break.DurationMinutes
		}
	}
	return total, nil
}
