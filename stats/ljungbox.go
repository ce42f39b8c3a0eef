package stats

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// TestResult is the (statistic, p-value) pair returned by every test of this
// package.
type TestResult struct {
	Statistic float64
	PValue    float64
	DOF       int // Degrees of freedom, 0 when not applicable
}

// Significant reports whether the null hypothesis is rejected at level alpha.
func (r *TestResult) Significant(alpha float64) bool {
	return r != nil && r.PValue < alpha
}

// LjungBox performs the Ljung-Box test for autocorrelation in residuals.
// The null hypothesis is that there is no autocorrelation up to lag h.
// fitdf is the number of ARMA parameters estimated in the model.
func LjungBox(x []float64, lags, fitdf int) *TestResult {
	n := len(x)
	if n < 10 || lags < 1 {
		return nil
	}
	if lags >= n {
		lags = n - 1
	}

	acf := ACF(x, lags)
	if acf == nil {
		return nil
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += (acf[k] * acf[k]) / float64(n-k)
	}
	q *= float64(n * (n + 2))

	return chiSquareResult(q, lags-fitdf)
}

// SeasonalLjungBox is the Ljung-Box statistic restricted to the seasonal lags
// period, 2*period, ..., nlags*period. nlags is reduced until the last lag
// fits in the series.
func SeasonalLjungBox(x []float64, period, nlags, fitdf int) *TestResult {
	n := len(x)
	if n < 10 || period <= 1 || nlags < 1 {
		return nil
	}
	for nlags > 0 && nlags*period >= n {
		nlags--
	}
	if nlags == 0 {
		return nil
	}

	acf := ACF(x, nlags*period)
	if acf == nil {
		return nil
	}

	q := 0.0
	for k := 1; k <= nlags; k++ {
		lag := k * period
		q += (acf[lag] * acf[lag]) / float64(n-lag)
	}
	q *= float64(n * (n + 2))

	return chiSquareResult(q, nlags-fitdf)
}

// DurbinWatson calculates the Durbin-Watson statistic for first-order autocorrelation.
// d ≈ 2: no autocorrelation; d < 2: positive; d > 2: negative.
func DurbinWatson(residuals []float64) float64 {
	n := len(residuals)
	if n < 2 {
		return 0
	}

	numerator := 0.0
	denominator := 0.0
	for i := 1; i < n; i++ {
		diff := residuals[i] - residuals[i-1]
		numerator += diff * diff
	}
	for _, r := range residuals {
		denominator += r * r
	}
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func chiSquareResult(q float64, dof int) *TestResult {
	if dof < 1 {
		dof = 1
	}
	return &TestResult{
		Statistic: q,
		PValue:    distuv.ChiSquared{K: float64(dof)}.Survival(q),
		DOF:       dof,
	}
}
