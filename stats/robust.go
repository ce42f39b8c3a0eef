package stats

import (
	"math"
	"sort"
)

// madScale makes the MAD a consistent estimator of the standard deviation
// under normality.
const madScale = 1.4826

// Median returns the median of x, averaging the two central values for even
// lengths. x is not modified.
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// MAD returns the median absolute deviation around the median, scaled to
// estimate the standard deviation.
func MAD(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	med := Median(x)
	dev := make([]float64, len(x))
	for i, v := range x {
		dev[i] = math.Abs(v - med)
	}
	return madScale * Median(dev)
}

// RobustStd returns the scaled median of |x|, the residual scale used by
// outlier detection on zero-mean residuals.
func RobustStd(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	abs := make([]float64, len(x))
	for i, v := range x {
		abs[i] = math.Abs(v)
	}
	return madScale * Median(abs)
}
