package correction

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, req CorrectionRequest) (CorrectionRequest, error)
	GetByID(ctx context.Context, id string) (CorrectionRequest, error)
	Update(ctx context.Context, req CorrectionRequest) (CorrectionRequest, error)

	// ListByRecord returns every request referencing the attendance record.
	ListByRecord(ctx context.Context, recordID string) ([]CorrectionRequest, error)

	// ListOpenSubmittedBefore returns SUBMITTED and IN_REVIEW requests submitted before cutoff.
	ListOpenSubmittedBefore(ctx context.Context, cutoff time.Time) ([]CorrectionRequest, error)
}
