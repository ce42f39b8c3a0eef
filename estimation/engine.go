// Package estimation implements the estimation engine behind automatic
// identification: Hannan-Rissanen initial estimates, fast Kalman BIC scoring
// and exact maximum likelihood of regression models with SARIMA errors.
package estimation

import (
	"errors"

	"github.com/rs/zerolog"
)

var (
	// ErrInsufficientData is returned when the series is too short for the model.
	ErrInsufficientData = errors.New("insufficient data points for the specified model")
	// ErrSingular is returned when a regression cannot be solved.
	ErrSingular = errors.New("singular regression")
	// ErrNotConverged is returned when the likelihood optimization fails.
	ErrNotConverged = errors.New("likelihood optimization did not converge")
)

// Config holds estimation settings.
type Config struct {
	// Tolerance is the absolute change of the normalized log-likelihood
	// under which the optimization is considered converged.
	Tolerance float64 `yaml:"tolerance" validate:"gte=0"`
	// MaxEvaluations caps the number of likelihood evaluations per fit.
	MaxEvaluations int `yaml:"max_evaluations" validate:"gte=0"`
	// StallIterations is the number of iterations without improvement
	// before the optimizer stops.
	StallIterations int `yaml:"stall_iterations" validate:"gte=0"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Tolerance:       1e-7,
		MaxEvaluations:  3000,
		StallIterations: 25,
	}
}

// Engine estimates regression models with SARIMA errors.
// It implements regarima.Estimator. An Engine has no mutable state and may
// be shared between goroutines.
type Engine struct {
	cfg    Config
	logger zerolog.Logger
}

// New returns an Engine. A zero Config selects the defaults.
func New(cfg Config, logger zerolog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = def.Tolerance
	}
	if cfg.MaxEvaluations <= 0 {
		cfg.MaxEvaluations = def.MaxEvaluations
	}
	if cfg.StallIterations <= 0 {
		cfg.StallIterations = def.StallIterations
	}
	return &Engine{
		cfg:    cfg,
		logger: logger.With().Str("component", "estimation").Logger(),
	}
}
