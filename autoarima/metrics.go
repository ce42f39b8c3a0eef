package autoarima

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goami_step_results_total",
			Help: "Number of identification steps run, by step and result",
		},
		[]string{"step", "result"},
	)
	fallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goami_fallbacks_total",
			Help: "Number of identifications that fell back to the airline model",
		},
	)
	outliersDetected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "goami_outliers_detected",
			Help:    "Number of outliers in the identified models",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 30},
		},
	)
	identificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "goami_identification_duration_seconds",
			Help:    "Duration of one identification in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)
