// Package timeseries provides regularly spaced time series and their I/O.
//
// A Series carries its values, one timestamp per observation and its frequency
// (observations per year). Missing observations are NaN and survive loading,
// slicing and copying; FillMissing produces a gap-free copy for estimation.
//
// # Creating a Series
//
//	s, err := timeseries.NewPeriodic(values, 12, time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC))
//
// # Loading from CSV
//
//	series, err := timeseries.LoadCSVColumn("data.csv", "value")
//
//	opts := timeseries.DefaultCSVOptions()
//	opts.ValueColumn = "exports"
//	series, err := timeseries.LoadCSV("trade.csv", opts)
//
// When the file has no date column the frequency and start of CSVOptions are used.
//
// # Transformations
//
//	logged := series.Log()  // Natural log, NaN for non-positive values
//
// Differencing lives in package sarima, which applies any differencing
// polynomial to a slice of values.
package timeseries
