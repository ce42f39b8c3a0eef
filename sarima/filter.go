package sarima

// Difference applies delta to x and drops the first deg(delta) observations.
func Difference(x []float64, delta Polynomial) []float64 {
	deg := delta.Degree()
	if len(x) <= deg {
		return nil
	}
	out := make([]float64, len(x)-deg)
	for t := deg; t < len(x); t++ {
		v := 0.0
		for k := 0; k <= deg; k++ {
			v += delta[k] * x[t-k]
		}
		out[t-deg] = v
	}
	return out
}

// Filter computes y = (num/den) x with zero pre-sample values.
func Filter(x []float64, num, den Polynomial) []float64 {
	y := make([]float64, len(x))
	d0 := den[0]
	for t := range x {
		v := 0.0
		for k := 0; k < len(num) && k <= t; k++ {
			v += num[k] * x[t-k]
		}
		for k := 1; k < len(den) && k <= t; k++ {
			v -= den[k] * y[t-k]
		}
		y[t] = v / d0
	}
	return y
}

// ImpulseResponse returns the first n coefficients of num(B)/den(B).
func ImpulseResponse(num, den Polynomial, n int) []float64 {
	if n <= 0 {
		return nil
	}
	impulse := make([]float64, n)
	impulse[0] = 1
	return Filter(impulse, num, den)
}

// Residuals returns the conditional innovations AR(B)/MA(B) w of a stationary
// series under m.
func (m *Model) Residuals(w []float64) []float64 {
	return Filter(w, m.ARPolynomial(), m.MAPolynomial())
}
