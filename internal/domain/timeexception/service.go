package timeexception

import "context"

// Service owns the exception state machine.
type Service interface {
	Get(ctx context.Context, id string) (TimeException, error)
	ListByRecord(ctx context.Context, recordID string) ([]TimeException, error)

	// Assign moves an OPEN exception to PENDING under handlerID.
	Assign(ctx context.Context, id, handlerID string) (TimeException, error)

	// UpdateStatus applies a transition from the lifecycle table. Moving to
	// RESOLVED reconciles the owning attendance record.
	UpdateStatus(ctx context.Context, id string, status Status, actorID, note string) (StatusChange, error)

	// Escalate is the system escalation used by the lateness escalator and
	// the maintenance sweeps. It accepts OPEN and PENDING exceptions.
	Escalate(ctx context.Context, id, reason string) (TimeException, error)
}
