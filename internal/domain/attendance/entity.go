package attendance

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"time"
)

type PunchType string

const (
	PunchTypeIn  PunchType = "IN"
	PunchTypeOut PunchType = "OUT"
)

func (t PunchType) IsValid() bool {
	return t == PunchTypeIn || t == PunchTypeOut
}

// Punch is a single timestamped IN or OUT event.
type Punch struct {
	Type   PunchType `json:"type"`
	Time   time.Time `json:"time"`
	Source string    `json:"source,omitempty"`
}

// PunchSequence keeps punches ordered by time. Two punches of the same type
// may never share a timestamp. All mutation goes through Insert and
// ReplaceAt so the invariants are checked on every change.
type PunchSequence struct {
	punches []Punch
}

// NewPunchSequence builds a sequence from punches in any order.
func NewPunchSequence(punches ...Punch) (PunchSequence, error) {
	sorted := slices.Clone(punches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	for i, p := range sorted {
		if !p.Type.IsValid() {
			return PunchSequence{}, fmt.Errorf("%w: %q", ErrInvalidPunchType, p.Type)
		}
		for _, q := range sorted[:i] {
			if q.Type == p.Type && q.Time.Equal(p.Time) {
				return PunchSequence{}, fmt.Errorf("%w: %s at %s", ErrDuplicatePunch, p.Type, p.Time.Format(time.RFC3339))
			}
		}
	}
	return PunchSequence{punches: sorted}, nil
}

// All returns a copy of the punches in chronological order.
func (s PunchSequence) All() []Punch {
	return slices.Clone(s.punches)
}

func (s PunchSequence) Len() int {
	return len(s.punches)
}

func (s PunchSequence) Last() (Punch, bool) {
	if len(s.punches) == 0 {
		return Punch{}, false
	}
	return s.punches[len(s.punches)-1], true
}

func (s PunchSequence) Count(t PunchType) int {
	n := 0
	for _, p := range s.punches {
		if p.Type == t {
			n++
		}
	}
	return n
}

// First returns the earliest punch of type t.
func (s PunchSequence) First(t PunchType) (Punch, bool) {
	for _, p := range s.punches {
		if p.Type == t {
			return p, true
		}
	}
	return Punch{}, false
}

// LastOf returns the most recent punch of type t and its index.
func (s PunchSequence) LastOf(t PunchType) (Punch, int, bool) {
	for i := len(s.punches) - 1; i >= 0; i-- {
		if s.punches[i].Type == t {
			return s.punches[i], i, true
		}
	}
	return Punch{}, -1, false
}

// IndexOf returns the index of the punch of type t recorded exactly at at, or -1.
func (s PunchSequence) IndexOf(t PunchType, at time.Time) int {
	for i, p := range s.punches {
		if p.Type == t && p.Time.Equal(at) {
			return i
		}
	}
	return -1
}

// NearestWithin returns the index of the punch closest to at whose distance is
// at most tolerance, or -1.
func (s PunchSequence) NearestWithin(at time.Time, tolerance time.Duration) int {
	best := -1
	var bestDiff time.Duration
	for i, p := range s.punches {
		diff := p.Time.Sub(at)
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolerance && (best == -1 || diff < bestDiff) {
			best, bestDiff = i, diff
		}
	}
	return best
}

// Insert adds p after any punch with an equal or earlier timestamp.
func (s *PunchSequence) Insert(p Punch) error {
	if !p.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPunchType, p.Type)
	}
	if s.IndexOf(p.Type, p.Time) >= 0 {
		return fmt.Errorf("%w: %s at %s", ErrDuplicatePunch, p.Type, p.Time.Format(time.RFC3339))
	}
	idx := sort.Search(len(s.punches), func(i int) bool {
		return s.punches[i].Time.After(p.Time)
	})
	s.punches = slices.Insert(s.punches, idx, p)
	return nil
}

// ReplaceAt swaps the punch at index i for p, re-sorting as needed.
func (s *PunchSequence) ReplaceAt(i int, p Punch) error {
	if i < 0 || i >= len(s.punches) {
		return fmt.Errorf("punch index %d out of range", i)
	}
	removed := s.punches[i]
	s.punches = slices.Delete(s.punches, i, i+1)
	if err := s.Insert(p); err != nil {
		s.punches = slices.Insert(s.punches, i, removed)
		return err
	}
	return nil
}

// WorkedMinutes sums the minutes between each open IN and the next OUT. An
// IN that arrives while a session is already open is ignored, and a trailing
// IN without an OUT contributes nothing.
func (s PunchSequence) WorkedMinutes() int {
	var total time.Duration
	var open *time.Time
	for _, p := range s.punches {
		switch p.Type {
		case PunchTypeIn:
			if open == nil {
				t := p.Time
				open = &t
			}
		case PunchTypeOut:
			if open != nil {
				total += p.Time.Sub(*open)
				open = nil
			}
		}
	}
	return int(total / time.Minute)
}

func (s PunchSequence) MarshalJSON() ([]byte, error) {
	if s.punches == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.punches)
}

func (s *PunchSequence) UnmarshalJSON(data []byte) error {
	var punches []Punch
	if err := json.Unmarshal(data, &punches); err != nil {
		return err
	}
	seq, err := NewPunchSequence(punches...)
	if err != nil {
		return err
	}
	*s = seq
	return nil
}

// AttendanceRecord aggregates the punches of one employee for one shift-day.
type AttendanceRecord struct {
	ID                   string
	EmployeeID           string
	Date                 time.Time // shift-day, local midnight
	Punches              PunchSequence
	TotalWorkMinutes     int
	LateMinutes          int
	EarlyLeaveMinutes    int
	OvertimeMinutes      int
	HasMissedPunch       bool
	FinalisedForPayroll  bool
	ExceptionIDs         []string
	CorrectionRequestIDs []string
	Version              int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (r *AttendanceRecord) HasInAndOut() bool {
	return r.Punches.Count(PunchTypeIn) > 0 && r.Punches.Count(PunchTypeOut) > 0
}

func (r *AttendanceRecord) AddExceptionID(id string) {
	if !slices.Contains(r.ExceptionIDs, id) {
		r.ExceptionIDs = append(r.ExceptionIDs, id)
	}
}

func (r *AttendanceRecord) RemoveExceptionID(id string) {
	r.ExceptionIDs = slices.DeleteFunc(r.ExceptionIDs, func(v string) bool { return v == id })
}

func (r *AttendanceRecord) AddCorrectionRequestID(id string) {
	if !slices.Contains(r.CorrectionRequestIDs, id) {
		r.CorrectionRequestIDs = append(r.CorrectionRequestIDs, id)
	}
}

func (r *AttendanceRecord) RemoveCorrectionRequestID(id string) {
	r.CorrectionRequestIDs = slices.DeleteFunc(r.CorrectionRequestIDs, func(v string) bool { return v == id })
}

// Clone returns a deep copy so callers cannot alias stored slices.
func (r AttendanceRecord) Clone() AttendanceRecord {
	c := r
	c.Punches = PunchSequence{punches: slices.Clone(r.Punches.punches)}
	c.ExceptionIDs = slices.Clone(r.ExceptionIDs)
	c.CorrectionRequestIDs = slices.Clone(r.CorrectionRequestIDs)
	return c
}
