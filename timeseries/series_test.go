package timeseries

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	s := New(values)

	assert.Equal(t, 5, s.Len())
	assert.Equal(t, 1, s.Frequency)
	assert.Equal(t, values, s.Values)
	assert.Equal(t, 2000, s.Start().Year())
}

func TestNewPeriodic(t *testing.T) {
	start := time.Date(1995, time.May, 17, 0, 0, 0, 0, time.UTC)

	s, err := NewPeriodic(make([]float64, 6), 4, start)
	require.NoError(t, err)
	assert.Equal(t, time.April, s.Timestamps[0].Month(), "quarter start should be aligned")
	assert.Equal(t, time.July, s.Timestamps[1].Month())
	assert.Equal(t, time.January, s.Timestamps[3].Month())
	assert.Equal(t, s.Timestamps[0], s.Start())

	_, err = NewPeriodic(make([]float64, 6), 5, start)
	assert.ErrorIs(t, err, ErrFrequency)
}

func TestNewWithTimestampsInfersFrequency(t *testing.T) {
	ts := []time.Time{
		time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2001, time.February, 1, 0, 0, 0, 0, time.UTC),
	}
	s, err := NewWithTimestamps(ts, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 12, s.Frequency)

	_, err = NewWithTimestamps(ts, []float64{1})
	assert.Error(t, err)
}

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"simple", []float64{1, 2, 3, 4, 5}, 3.0},
		{"single", []float64{5}, 5.0},
		{"negative", []float64{-1, -2, -3}, -2.0},
		{"missing", []float64{1, math.NaN(), 3}, 2.0},
		{"empty", []float64{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, New(tt.values).Mean(), 1e-10)
		})
	}
}

func TestVariance(t *testing.T) {
	s := New([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 4.571428571428571, s.Variance(), 1e-10)
	assert.InDelta(t, math.Sqrt(4.571428571428571), s.Std(), 1e-10)
}

func TestFillMissing(t *testing.T) {
	s := New([]float64{math.NaN(), 2, math.NaN(), 4, math.NaN()})

	assert.Equal(t, []int{0, 2, 4}, s.MissingPositions())

	filled := s.FillMissing()
	assert.Equal(t, []float64{2, 2, 3, 4, 4}, filled.Values)
	assert.True(t, math.IsNaN(s.Values[0]), "original should be untouched")
}

func TestSliceAndCopy(t *testing.T) {
	s := New([]float64{1, 2, 3, 4, 5})

	sub := s.Slice(1, 3)
	assert.Equal(t, []float64{2, 3}, sub.Values)
	assert.Empty(t, s.Slice(4, 2).Values)

	c := s.Copy()
	c.Values[0] = 100
	assert.Equal(t, 1.0, s.Values[0])
}

func TestLog(t *testing.T) {
	s := New([]float64{1, math.E, -1})

	assert.False(t, s.IsPositive())
	l := s.Log()
	assert.InDelta(t, 0, l.Values[0], 1e-12)
	assert.InDelta(t, 1, l.Values[1], 1e-12)
	assert.True(t, math.IsNaN(l.Values[2]))
	assert.True(t, New([]float64{1, 2}).IsPositive())
}

func TestMin(t *testing.T) {
	assert.Equal(t, -2.0, New([]float64{3, -2, 7}).Min())
	assert.Equal(t, 1.0, New([]float64{math.NaN(), 4, 1}).Min())
	assert.True(t, math.IsNaN(New(nil).Min()))
}
