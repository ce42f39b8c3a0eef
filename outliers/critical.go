package outliers

import "math"

// CriticalValue returns the default |t| threshold for a series of n
// observations: 3.3 up to 50 observations, 4.3 from 450 on, linear in
// between.
func CriticalValue(n int) float64 {
	switch {
	case n <= 50:
		return 3.3
	case n < 450:
		return 3.3 + 0.0025*float64(n-50)
	default:
		return 4.3
	}
}

// RelaxCriticalValue lowers cv by the factor (1 - reduction) for each
// selectivity level. The result never goes below floor.
func RelaxCriticalValue(cv, reduction float64, level int, floor float64) float64 {
	if level > 0 {
		cv *= math.Pow(1-reduction, float64(level))
	}
	return math.Max(cv, floor)
}
