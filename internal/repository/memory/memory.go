// Package memory holds in-memory implementations of the domain repositories
// for tests and single-process development runs.
package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// Transactor runs fn directly. Mutations are already serialised by the
// per-employee lock and each repository call is atomic on its own.
type Transactor struct{}

func NewTransactor() Transactor {
	return Transactor{}
}

func (Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
