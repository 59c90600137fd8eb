package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/correction"
)

type CorrectionRepository struct {
	mu       sync.RWMutex
	requests map[string]correction.CorrectionRequest
}

func NewCorrectionRepository() *CorrectionRepository {
	return &CorrectionRepository{requests: make(map[string]correction.CorrectionRequest)}
}

func (r *CorrectionRepository) Create(_ context.Context, req correction.CorrectionRequest) (correction.CorrectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.ID == "" {
		req.ID = newID()
	}
	req.CreatedAt = stamp(req.CreatedAt)
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = req.CreatedAt
	}
	r.requests[req.ID] = req
	return req, nil
}

func (r *CorrectionRepository) GetByID(_ context.Context, id string) (correction.CorrectionRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return correction.CorrectionRequest{}, correction.ErrCorrectionNotFound
	}
	return req, nil
}

func (r *CorrectionRepository) Update(_ context.Context, req correction.CorrectionRequest) (correction.CorrectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.requests[req.ID]
	if !ok {
		return correction.CorrectionRequest{}, correction.ErrCorrectionNotFound
	}
	req.CreatedAt = stored.CreatedAt
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = time.Now()
	}
	r.requests[req.ID] = req
	return req, nil
}

func (r *CorrectionRepository) ListByRecord(_ context.Context, recordID string) ([]correction.CorrectionRequest, error) {
	return r.list(func(req correction.CorrectionRequest) bool {
		return req.AttendanceRecordID == recordID
	}), nil
}

func (r *CorrectionRepository) ListOpenSubmittedBefore(_ context.Context, cutoff time.Time) ([]correction.CorrectionRequest, error) {
	return r.list(func(req correction.CorrectionRequest) bool {
		return req.Status.IsOpen() && req.SubmittedAt.Before(cutoff)
	}), nil
}

func (r *CorrectionRepository) list(match func(correction.CorrectionRequest) bool) []correction.CorrectionRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]correction.CorrectionRequest, 0)
	for _, req := range r.requests {
		if match(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}
