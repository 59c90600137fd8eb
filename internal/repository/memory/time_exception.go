package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
)

type TimeExceptionRepository struct {
	mu         sync.RWMutex
	exceptions map[string]timeexception.TimeException
}

func NewTimeExceptionRepository() *TimeExceptionRepository {
	return &TimeExceptionRepository{exceptions: make(map[string]timeexception.TimeException)}
}

func (r *TimeExceptionRepository) Create(_ context.Context, e timeexception.TimeException) (timeexception.TimeException, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		e.ID = newID()
	}
	e.CreatedAt = stamp(e.CreatedAt)
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	r.exceptions[e.ID] = e.Clone()
	return e.Clone(), nil
}

func (r *TimeExceptionRepository) GetByID(_ context.Context, id string) (timeexception.TimeException, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.exceptions[id]
	if !ok {
		return timeexception.TimeException{}, timeexception.ErrTimeExceptionNotFound
	}
	return e.Clone(), nil
}

func (r *TimeExceptionRepository) Update(_ context.Context, e timeexception.TimeException) (timeexception.TimeException, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.exceptions[e.ID]
	if !ok {
		return timeexception.TimeException{}, timeexception.ErrTimeExceptionNotFound
	}
	e.CreatedAt = stored.CreatedAt
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	r.exceptions[e.ID] = e.Clone()
	return e.Clone(), nil
}

func (r *TimeExceptionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.exceptions[id]; !ok {
		return timeexception.ErrTimeExceptionNotFound
	}
	delete(r.exceptions, id)
	return nil
}

// List returns matches ordered by creation time.
func (r *TimeExceptionRepository) List(_ context.Context, filter timeexception.Filter) ([]timeexception.TimeException, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]timeexception.TimeException, 0)
	for _, e := range r.exceptions {
		if filter.Matches(e) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
