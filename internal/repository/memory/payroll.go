package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/payroll"
)

type PayrollPeriodRepository struct {
	mu      sync.RWMutex
	periods []payroll.Period
}

func NewPayrollPeriodRepository() *PayrollPeriodRepository {
	return &PayrollPeriodRepository{}
}

func (r *PayrollPeriodRepository) AddPeriod(p payroll.Period) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	r.periods = append(r.periods, p)
}

func (r *PayrollPeriodRepository) GetActivePayrollCutoff(_ context.Context) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cutoff *time.Time
	for _, p := range r.periods {
		if p.Status != payroll.PeriodStatusOpen {
			continue
		}
		if cutoff == nil || p.CutoffDate.Before(*cutoff) {
			c := p.CutoffDate
			cutoff = &c
		}
	}
	return cutoff, nil
}
