package correction

import "context"

type Service interface {
	// Request submits a correction and marks the record not finalised.
	Request(ctx context.Context, req SubmitRequest) (CorrectionRequest, error)

	Get(ctx context.Context, id string) (CorrectionRequest, error)

	// StartReview moves SUBMITTED to IN_REVIEW and notifies the employee.
	StartReview(ctx context.Context, id, reviewerID string) (CorrectionRequest, error)

	// Review approves or rejects an IN_REVIEW or ESCALATED request.
	Review(ctx context.Context, id, reviewerID string, req ReviewRequest) (CorrectionRequest, error)

	// EscalateStale escalates open requests older than the configured age and
	// returns how many were escalated.
	EscalateStale(ctx context.Context) (int, error)

	// EscalateOverdueAdHoc escalates BREAK_PERMISSION and OVERTIME_REQUEST
	// exceptions still awaiting a decision after their deadline. Each is
	// escalated at most once.
	EscalateOverdueAdHoc(ctx context.Context) (int, error)
}
