// Package stats provides the residual diagnostics and seasonality tests used
// during model identification.
//
// Every test returns a *TestResult holding the statistic, its p-value and the
// degrees of freedom, or nil when the sample is too short for the test.
//
// # Autocorrelation
//
//	acf := stats.ACF(residuals, 24)
//	pacf := stats.PACF(residuals, 24)
//
//	lb := stats.LjungBox(residuals, 24, p+q)
//	if lb.Significant(0.05) {
//	    // residual autocorrelation left
//	}
//	slb := stats.SeasonalLjungBox(residuals, 12, 2, 0)
//
// # Seasonality
//
// QS (positive autocorrelation at the seasonal lags), Friedman (rank test on
// complete cycles) and spectral peaks from a Tukey-windowed spectrum:
//
//	qs := stats.QS(x, 12)
//	fr := stats.Friedman(x, 12)
//	peaks := stats.DetectSpectralPeaks(x, 12)
//
// # Residual Distribution
//
//	stats.JarqueBera(residuals)
//	stats.DoornikHansen(residuals)
//	stats.SkewnessTest(residuals)
//	stats.RunsTest(residuals)
//	stats.MeanTest(residuals)
//
// MAD and RobustStd give outlier-resistant scale estimates.
package stats
