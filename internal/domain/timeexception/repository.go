package timeexception

import "context"

type Repository interface {
	// Create assigns ID and timestamps.
	Create(ctx context.Context, e TimeException) (TimeException, error)
	GetByID(ctx context.Context, id string) (TimeException, error)
	Update(ctx context.Context, e TimeException) (TimeException, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter) ([]TimeException, error)
}
