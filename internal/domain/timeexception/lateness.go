package timeexception

import "context"

// LatenessParams are the rolling-window thresholds of the lateness escalator.
type LatenessParams struct {
	WindowDays int
	Threshold  int
}

// LatenessResult reports one evaluation. Summary is set only when this pass escalated.
type LatenessResult struct {
	UnresolvedLate int
	Escalated      bool
	Summary        *TimeException
}

type LatenessEscalator interface {
	// Evaluate uses the named lateness policy, falling back to configuration.
	Evaluate(ctx context.Context, employeeID string) (LatenessResult, error)

	EvaluateWith(ctx context.Context, employeeID string, params LatenessParams) (LatenessResult, error)
}
