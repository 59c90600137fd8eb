package attendance

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2026-03-02 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPunches() []Punch {
	return []Punch{
		{Type: PunchTypeIn, Time: at("09:00")},
		{Type: PunchTypeOut, Time: at("12:00")},
		{Type: PunchTypeIn, Time: at("13:00")},
		{Type: PunchTypeOut, Time: at("17:30")},
	}
}

func TestPunchSequence_OrderInvariant(t *testing.T) {
	base, err := NewPunchSequence(dayPunches()...)
	require.NoError(t, err)
	require.Equal(t, 450, base.WorkedMinutes())

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := dayPunches()
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		seq, err := NewPunchSequence(shuffled...)
		require.NoError(t, err)
		assert.Equal(t, base.All(), seq.All())
		assert.Equal(t, 450, seq.WorkedMinutes())

		var inserted PunchSequence
		for _, p := range shuffled {
			require.NoError(t, inserted.Insert(p))
		}
		assert.Equal(t, base.All(), inserted.All())
	}
}

func TestPunchSequence_WorkedMinutes(t *testing.T) {
	tests := []struct {
		name    string
		punches []Punch
		want    int
	}{
		{"empty", nil, 0},
		{"trailing in", []Punch{{Type: PunchTypeIn, Time: at("09:00")}}, 0},
		{"single session", []Punch{
			{Type: PunchTypeIn, Time: at("09:00")},
			{Type: PunchTypeOut, Time: at("17:00")},
		}, 480},
		{"repeated in ignored", []Punch{
			{Type: PunchTypeIn, Time: at("09:00")},
			{Type: PunchTypeIn, Time: at("09:30")},
			{Type: PunchTypeOut, Time: at("17:00")},
		}, 480},
		{"unmatched out ignored", []Punch{
			{Type: PunchTypeOut, Time: at("08:00")},
			{Type: PunchTypeIn, Time: at("09:00")},
			{Type: PunchTypeOut, Time: at("10:00")},
		}, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := NewPunchSequence(tt.punches...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, seq.WorkedMinutes())
		})
	}
}

func TestPunchSequence_RejectsDuplicates(t *testing.T) {
	_, err := NewPunchSequence(
		Punch{Type: PunchTypeIn, Time: at("09:00")},
		Punch{Type: PunchTypeIn, Time: at("09:00")},
	)
	assert.ErrorIs(t, err, ErrDuplicatePunch)

	seq, err := NewPunchSequence(Punch{Type: PunchTypeIn, Time: at("09:00")})
	require.NoError(t, err)
	assert.ErrorIs(t, seq.Insert(Punch{Type: PunchTypeIn, Time: at("09:00")}), ErrDuplicatePunch)
	assert.ErrorIs(t, seq.Insert(Punch{Type: "BREAK", Time: at("10:00")}), ErrInvalidPunchType)

	// Different types may share a timestamp.
	assert.NoError(t, seq.Insert(Punch{Type: PunchTypeOut, Time: at("09:00")}))
}

func TestPunchSequence_ReplaceAt(t *testing.T) {
	seq, err := NewPunchSequence(dayPunches()...)
	require.NoError(t, err)

	// Moving the first OUT past the second IN re-sorts the sequence.
	require.NoError(t, seq.ReplaceAt(1, Punch{Type: PunchTypeOut, Time: at("13:30")}))
	all := seq.All()
	assert.Equal(t, at("13:00"), all[1].Time)
	assert.Equal(t, at("13:30"), all[2].Time)

	// A failed replace leaves the sequence untouched.
	before := seq.All()
	assert.ErrorIs(t, seq.ReplaceAt(0, Punch{Type: PunchTypeIn, Time: at("13:00")}), ErrDuplicatePunch)
	assert.Equal(t, before, seq.All())
	assert.Error(t, seq.ReplaceAt(9, Punch{Type: PunchTypeIn, Time: at("08:00")}))
}

func TestPunchSequence_Lookups(t *testing.T) {
	seq, err := NewPunchSequence(dayPunches()...)
	require.NoError(t, err)

	first, ok := seq.First(PunchTypeIn)
	require.True(t, ok)
	assert.Equal(t, at("09:00"), first.Time)

	last, idx, ok := seq.LastOf(PunchTypeOut)
	require.True(t, ok)
	assert.Equal(t, at("17:30"), last.Time)
	assert.Equal(t, 3, idx)

	assert.Equal(t, 2, seq.IndexOf(PunchTypeIn, at("13:00")))
	assert.Equal(t, -1, seq.IndexOf(PunchTypeOut, at("13:00")))
	assert.Equal(t, 1, seq.NearestWithin(at("12:01"), 2*time.Minute))
	assert.Equal(t, -1, seq.NearestWithin(at("12:05"), 2*time.Minute))
	assert.Equal(t, 2, seq.Count(PunchTypeIn))
}

func TestPunchSequence_JSONRoundTripSorts(t *testing.T) {
	raw := `[{"type":"OUT","time":"2026-03-02T17:00:00Z"},{"type":"IN","time":"2026-03-02T09:00:00Z"}]`

	var seq PunchSequence
	require.NoError(t, json.Unmarshal([]byte(raw), &seq))
	last, ok := seq.Last()
	require.True(t, ok)
	assert.Equal(t, PunchTypeOut, last.Type)
	assert.Equal(t, 480, seq.WorkedMinutes())

	empty, err := json.Marshal(PunchSequence{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(empty))
}

func TestAttendanceRecord_BackReferences(t *testing.T) {
	var r AttendanceRecord
	r.AddExceptionID("a")
	r.AddExceptionID("a")
	r.AddExceptionID("b")
	assert.Equal(t, []string{"a", "b"}, r.ExceptionIDs)

	c := r.Clone()
	r.RemoveExceptionID("a")
	assert.Equal(t, []string{"b"}, r.ExceptionIDs)
	assert.Equal(t, []string{"a", "b"}, c.ExceptionIDs)

	r.AddCorrectionRequestID("x")
	r.RemoveCorrectionRequestID("x")
	assert.Empty(t, r.CorrectionRequestIDs)
}
