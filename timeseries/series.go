// Package timeseries provides core time series data structures and operations.
package timeseries

import (
	"errors"
	"math"
	"time"
)

// ErrFrequency is returned when a frequency does not divide a year evenly.
var ErrFrequency = errors.New("frequency must be one of 1, 2, 3, 4, 6, 12")

// Series represents a regularly spaced time series with timestamps and values.
// Missing observations are stored as NaN.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
	Frequency  int // Observations per year (12 monthly, 4 quarterly, 1 annual)
}

// New creates an annual series starting in 2000 from values.
func New(values []float64) *Series {
	s, _ := NewPeriodic(values, 1, time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC))
	return s
}

// NewPeriodic creates a series with the given frequency whose first observation
// falls in the period containing start.
func NewPeriodic(values []float64, frequency int, start time.Time) (*Series, error) {
	if !validFrequency(frequency) {
		return nil, ErrFrequency
	}
	months := 12 / frequency
	first := time.Date(start.Year(), start.Month()-time.Month((int(start.Month())-1)%months), 1, 0, 0, 0, 0, time.UTC)

	timestamps := make([]time.Time, len(values))
	for i := range timestamps {
		timestamps[i] = first.AddDate(0, i*months, 0)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Frequency:  frequency,
	}, nil
}

// NewWithTimestamps creates a time series with explicit timestamps.
// The frequency is inferred from the spacing of the first two timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.New("timestamps and values must have the same length")
	}
	freq := 1
	if len(timestamps) > 1 {
		a, b := timestamps[0], timestamps[1]
		months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
		if months > 0 && 12%months == 0 {
			freq = 12 / months
		}
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Frequency:  freq,
	}, nil
}

func validFrequency(f int) bool {
	switch f {
	case 1, 2, 3, 4, 6, 12:
		return true
	}
	return false
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Start returns the timestamp of the first observation.
func (s *Series) Start() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[0]
}

// Mean calculates the arithmetic mean of the non-missing observations.
func (s *Series) Mean() float64 {
	sum, n := 0.0, 0
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Variance calculates the sample variance of the non-missing observations.
func (s *Series) Variance() float64 {
	mean := s.Mean()
	sumSq, n := 0.0, 0
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			diff := v - mean
			sumSq += diff * diff
			n++
		}
	}
	if n < 2 {
		return 0
	}
	return sumSq / float64(n-1)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	min := math.NaN()
	for _, v := range s.Values {
		if math.IsNaN(min) || v < min {
			min = v
		}
	}
	return min
}

// MissingPositions returns the indices of NaN observations.
func (s *Series) MissingPositions() []int {
	var pos []int
	for i, v := range s.Values {
		if math.IsNaN(v) {
			pos = append(pos, i)
		}
	}
	return pos
}

// FillMissing returns a copy where each NaN is replaced by the mean of its
// nearest non-missing neighbours. Leading and trailing gaps take the nearest value.
func (s *Series) FillMissing() *Series {
	out := s.Copy()
	n := len(out.Values)
	for i := 0; i < n; i++ {
		if !math.IsNaN(out.Values[i]) {
			continue
		}
		prev, next := math.NaN(), math.NaN()
		for j := i - 1; j >= 0; j-- {
			if !math.IsNaN(s.Values[j]) {
				prev = s.Values[j]
				break
			}
		}
		for j := i + 1; j < n; j++ {
			if !math.IsNaN(s.Values[j]) {
				next = s.Values[j]
				break
			}
		}
		switch {
		case math.IsNaN(prev):
			out.Values[i] = next
		case math.IsNaN(next):
			out.Values[i] = prev
		default:
			out.Values[i] = (prev + next) / 2
		}
	}
	return out
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Frequency: s.Frequency}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	timestamps := make([]time.Time, len(values))
	if len(s.Timestamps) >= end {
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
		Frequency:  s.Frequency,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
		Frequency:  s.Frequency,
	}
}

// Log applies natural logarithm transformation.
// Non-positive values become NaN.
func (s *Series) Log() *Series {
	out := s.Copy()
	for i, v := range out.Values {
		if v > 0 {
			out.Values[i] = math.Log(v)
		} else {
			out.Values[i] = math.NaN()
		}
	}
	out.Name = s.Name + "_log"
	return out
}

// IsPositive reports whether every non-missing observation is strictly positive.
func (s *Series) IsPositive() bool {
	for _, v := range s.Values {
		if !math.IsNaN(v) && v <= 0 {
			return false
		}
	}
	return true
}
