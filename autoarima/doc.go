// Package autoarima implements automatic identification of regression
// models with seasonal ARIMA errors.
//
// Identification runs a fixed sequence of steps on a per-series Context:
// log/level choice, seasonality test, differencing selection, ARMA order
// search, outlier detection, regression pruning, differencing checks, model
// refinement and verification. Each step reports a ProcessingResult; a
// Failed step replaces the model by the airline model with a mean.
//
// # Basic Usage
//
//	opts := autoarima.DefaultOptions()
//	result, err := autoarima.Identify(series, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Spec)
//	for _, o := range result.Spec.DetectedOutliers() {
//	    fmt.Println(o)
//	}
//
// # Options
//
// Options carries every threshold of the pipeline and can be loaded from a
// YAML file; absent fields keep their default:
//
//	opts, err := autoarima.LoadOptions("goami.yaml")
//
// A model can be imposed by turning automatic modelling off:
//
//	opts.AutomaticModeling = false
//	opts.Order = sarima.Order{P: 1, D: 1, Q: 1, M: 12}
//
// # Many Series
//
// A Context is owned by a single goroutine. To process many series, share
// one Identifier and create one context per series:
//
//	id, _ := autoarima.NewIdentifier(opts, logger)
//	result, err := id.Identify(series)
package autoarima
