package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
)

type AttendanceRepository struct {
	mu      sync.RWMutex
	records map[string]attendance.AttendanceRecord
}

func NewAttendanceRepository() *AttendanceRepository {
	return &AttendanceRepository{records: make(map[string]attendance.AttendanceRecord)}
}

func dayKey(t time.Time) string {
	return schedule.DateOnly(t).Format("2006-01-02")
}

func (r *AttendanceRepository) Create(_ context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.records {
		if existing.EmployeeID == record.EmployeeID && dayKey(existing.Date) == dayKey(record.Date) {
			return attendance.AttendanceRecord{}, fmt.Errorf("%w: %s", attendance.ErrAttendanceExists, dayKey(record.Date))
		}
	}

	if record.ID == "" {
		record.ID = newID()
	}
	record.CreatedAt = stamp(record.CreatedAt)
	record.UpdatedAt = record.CreatedAt
	record.Version = 1
	r.records[record.ID] = record.Clone()
	return record.Clone(), nil
}

func (r *AttendanceRepository) GetByID(_ context.Context, id string) (attendance.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
	}
	return record.Clone(), nil
}

func (r *AttendanceRepository) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*attendance.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := dayKey(date)
	for _, record := range r.records {
		if record.EmployeeID == employeeID && dayKey(record.Date) == key {
			c := record.Clone()
			return &c, nil
		}
	}
	return nil, nil
}

func (r *AttendanceRepository) Update(_ context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[record.ID]
	if !ok {
		return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
	}
	if stored.Version != record.Version {
		return attendance.AttendanceRecord{}, fmt.Errorf("%w: record %s has version %d, update carries %d",
			attendance.ErrVersionConflict, record.ID, stored.Version, record.Version)
	}

	record.Version++
	record.CreatedAt = stored.CreatedAt
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}
	r.records[record.ID] = record.Clone()
	return record.Clone(), nil
}

func (r *AttendanceRepository) ListByIDs(_ context.Context, ids []string) ([]attendance.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]attendance.AttendanceRecord, 0, len(ids))
	for _, id := range ids {
		if record, ok := r.records[id]; ok {
			out = append(out, record.Clone())
		}
	}
	return out, nil
}
