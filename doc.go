// Package goami identifies regression models with seasonal ARIMA errors.
//
// Given a series, goami chooses the transformation (levels or logs), the
// regular and seasonal differencing, the ARMA orders, the outliers and the
// calendar regressors, in the manner of TRAMO automatic modelling. The
// result is an estimated model together with its residual diagnostics and
// a trace of the decisions taken.
//
// # Quick Start
//
//	series, _ := timeseries.LoadCSV("sales.csv", nil)
//	res, err := autoarima.Identify(series, autoarima.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.Spec, res.Statistics.LjungBoxPValue)
//
// # Packages
//
// The library is organized into the following packages:
//
//   - timeseries: Time series data structures and CSV input
//   - sarima: SARIMA orders, polynomials and the exact likelihood filter
//   - stats: Residual tests, seasonality tests and information criteria
//   - outliers: Outlier patterns, the single-outlier search and critical values
//   - calendar: Trading-day, leap-year and Easter regressors
//   - regarima: Model specifications, estimations and statistics snapshots
//   - estimation: Hannan-Rissanen and maximum likelihood estimation
//   - autoarima: The identification pipeline
//
// The goami command runs the identification on CSV files.
//
// # References
//
//   - Gómez, V., & Maravall, A. (2001). Automatic modeling methods for univariate series.
//   - Box, G. E. P., & Jenkins, G. M. (1976). Time Series Analysis: Forecasting and Control
package goami
