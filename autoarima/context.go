package autoarima

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sartorproj/goami/calendar"
	"github.com/sartorproj/goami/regarima"
	"github.com/sartorproj/goami/sarima"
	"github.com/sartorproj/goami/timeseries"
)

var (
	// ErrInvalidSeries is returned for series that cannot be modelled at all.
	ErrInvalidSeries = errors.New("invalid series")
	// ErrNonPositive is returned when a log transformation is requested on
	// data with zero or negative values.
	ErrNonPositive = errors.New("log transformation needs strictly positive data")
)

// minObservations is the shortest series accepted.
const minObservations = 10

// Diagnostic is one audit record of a decision.
type Diagnostic struct {
	Step  string `json:"step" yaml:"step"`
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// snapshot is a fitted specification kept for later comparison.
type snapshot struct {
	spec  *regarima.ModelSpec
	est   *regarima.Estimation
	stats regarima.Statistics
}

// Context is the search state of one series. It is owned by a single
// goroutine and never shared between series.
//
// The cached estimation is valid only for the current Spec: every change of
// the specification must go through Modify, which invalidates it.
type Context struct {
	ID         string
	Name       string
	Period     int
	Timestamps []time.Time
	// Raw holds the observations with missing values interpolated.
	Raw []float64
	// Series is the working series, transformed when Spec.Transformation is log.
	Series []float64
	// Missing lists the positions of the interpolated observations.
	Missing []int
	// Summary describes the input series before interpolation.
	Summary SeriesSummary

	Spec                 *regarima.ModelSpec
	HasSeasonalComponent bool
	AutomaticModeling    bool
	OutlierDetection     bool

	Options   Options
	Estimator regarima.Estimator

	logger      zerolog.Logger
	estimation  *regarima.Estimation
	fullFit     bool
	lastModel   *sarima.Model
	diagnostics []Diagnostic
	trace       []StepResult

	selectivity       int
	attempts          int
	meanDropped       bool
	seasonalityTested bool
	reference         *snapshot
	tried             map[string]bool
	filled            *timeseries.Series
}

// NewContext prepares the search state of series. vars are user regressors
// (user variables, ramps, prespecified outliers) spanning the series.
func NewContext(series *timeseries.Series, opts Options, estimator regarima.Estimator, logger zerolog.Logger, vars ...regarima.Variable) (*Context, error) {
	if series == nil || series.Len() < minObservations {
		return nil, fmt.Errorf("%w: at least %d observations are needed", ErrInvalidSeries, minObservations)
	}
	if len(series.MissingPositions()) == series.Len() {
		return nil, fmt.Errorf("%w: no observed values", ErrInvalidSeries)
	}
	if estimator == nil {
		return nil, errors.New("autoarima: nil estimator")
	}

	n := series.Len()
	period := series.Frequency
	if period < 1 {
		period = 1
	}
	id := uuid.NewString()
	ctx := &Context{
		ID:                id,
		Name:              series.Name,
		Period:            period,
		Timestamps:        series.Timestamps,
		Missing:           series.MissingPositions(),
		AutomaticModeling: opts.AutomaticModeling,
		OutlierDetection:  opts.OutlierDetection,
		Options:           opts,
		Estimator:         estimator,
		logger:            logger.With().Str("run", id).Str("series", series.Name).Logger(),
		selectivity:       opts.Selectivity,
		tried:             make(map[string]bool),
	}
	ctx.Summary = summarize(series)
	ctx.filled = series.FillMissing()
	ctx.Raw = ctx.filled.Values
	ctx.Series = append([]float64(nil), ctx.Raw...)

	// Three years are needed to identify a seasonal model.
	ctx.HasSeasonalComponent = opts.Seasonal && period > 1 && n >= 3*period

	order := airlineOrder(ctx.HasSeasonalComponent, period)
	mean := opts.Mean
	if !opts.AutomaticModeling && opts.Order != (sarima.Order{}) {
		order = opts.Order
		order.M = period
		ctx.HasSeasonalComponent = order.Seasonal()
	} else if opts.AutomaticModeling {
		mean = false
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	ctx.Spec = regarima.NewModelSpec(order, mean)

	if opts.Transformation == TransformLog {
		if err := ctx.applyLog(); err != nil {
			return nil, err
		}
	}

	if err := ctx.addCalendar(); err != nil {
		return nil, err
	}
	for _, v := range vars {
		for _, c := range v.Columns {
			if len(c) != n {
				return nil, fmt.Errorf("%w: regressor %s has %d values for %d observations", ErrInvalidSeries, v.Name, len(c), n)
			}
		}
		if err := ctx.Spec.Add(v); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}

// airlineOrder returns (0,1,1)(0,1,1) or (0,1,1) for the period.
func airlineOrder(seasonal bool, period int) sarima.Order {
	if seasonal && period > 1 {
		return sarima.Airline(period)
	}
	return sarima.Order{D: 1, Q: 1, M: period}
}

func (c *Context) applyLog() error {
	if !c.filled.IsPositive() {
		return ErrNonPositive
	}
	copy(c.Series, c.filled.Log().Values)
	c.Spec.Transformation = regarima.TransformLog
	c.Invalidate()
	return nil
}

// addCalendar adds the calendar regressors requested by the options.
// Under automatic modelling they are tested by the regression pruner.
func (c *Context) addCalendar() error {
	opts := c.Options
	if opts.TradingDays == calendar.NoTradingDays && !opts.LeapYear && !opts.Easter {
		return nil
	}
	if c.Period != 4 && c.Period != 12 {
		c.logger.Warn().Int("period", c.Period).Msg("calendar regressors ignored for this frequency")
		return nil
	}
	status := regarima.Prespecified
	if c.AutomaticModeling {
		status = regarima.Accepted
	}

	if opts.TradingDays != calendar.NoTradingDays {
		cols, err := calendar.TradingDayColumns(c.Timestamps, c.Period, opts.TradingDays)
		if err != nil {
			return err
		}
		if err := c.Spec.Add(regarima.Variable{Name: opts.TradingDays.String(), Kind: regarima.KindTradingDays, Status: status, Columns: cols}); err != nil {
			return err
		}
	}
	if opts.LeapYear {
		col, err := calendar.LeapYearColumn(c.Timestamps, c.Period)
		if err != nil {
			return err
		}
		if err := c.Spec.Add(regarima.Variable{Name: "lp", Kind: regarima.KindLeapYear, Status: status, Columns: [][]float64{col}}); err != nil {
			return err
		}
	}
	if opts.Easter {
		col, err := calendar.EasterColumn(c.Timestamps, c.Period, opts.EasterDuration)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("easter[%d]", opts.EasterDuration)
		if err := c.Spec.Add(regarima.Variable{Name: name, Kind: regarima.KindEaster, Status: status, Columns: [][]float64{col}}); err != nil {
			return err
		}
	}
	return nil
}

// N returns the number of observations.
func (c *Context) N() int { return len(c.Series) }

// Logger returns the logger of a pipeline component.
func (c *Context) Logger(component string) zerolog.Logger {
	return c.logger.With().Str("component", component).Logger()
}

// Note records a decision in the diagnostics log.
func (c *Context) Note(step, key string, value any) {
	c.diagnostics = append(c.diagnostics, Diagnostic{Step: step, Key: key, Value: fmt.Sprint(value)})
}

// Diagnostics returns the decisions recorded so far.
func (c *Context) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.diagnostics...)
}

// Trace returns the result of every step run so far, in order.
func (c *Context) Trace() []StepResult {
	return append([]StepResult(nil), c.trace...)
}

// Estimation returns the estimation of the current specification, or nil
// when the specification changed since the last fit.
func (c *Context) Estimation() *regarima.Estimation {
	return c.estimation
}

// Invalidate drops the cached estimation.
func (c *Context) Invalidate() {
	c.estimation = nil
}

// Modify applies f to the specification and invalidates the estimation.
func (c *Context) Modify(f func(spec *regarima.ModelSpec)) {
	f(c.Spec)
	c.Invalidate()
}

// Estimate returns the estimation of the current specification, fitting it
// when needed. The last fitted ARMA model is used as starting point. A
// cached estimation with fixed ARMA parameters does not satisfy FitFull.
func (c *Context) Estimate(mode regarima.FitMode) (*regarima.Estimation, error) {
	if c.estimation != nil && (c.fullFit || mode == regarima.FitResidualsOnly) {
		return c.estimation, nil
	}
	est, err := c.Estimator.Fit(c.Series, c.Spec, c.lastModel, mode)
	if err != nil {
		return nil, fmt.Errorf("estimate %s: %w", c.Spec, err)
	}
	c.estimation = est
	c.fullFit = mode == regarima.FitFull
	c.lastModel = est.Model
	return est, nil
}

// Statistics returns the statistics snapshot of the current specification.
func (c *Context) Statistics() (regarima.Statistics, error) {
	est, err := c.Estimate(regarima.FitFull)
	if err != nil {
		return regarima.Statistics{}, err
	}
	return regarima.ComputeStatistics(c.Spec, est, c.N(), c.Period), nil
}

// Fit estimates spec without touching the context.
func (c *Context) Fit(spec *regarima.ModelSpec) (*regarima.Estimation, regarima.Statistics, error) {
	est, err := c.Estimator.Fit(c.Series, spec, c.lastModel, regarima.FitFull)
	if err != nil {
		return nil, regarima.Statistics{}, err
	}
	return est, regarima.ComputeStatistics(spec, est, c.N(), c.Period), nil
}

// Linearized returns the working series without its regression effects.
// The mean is kept.
func (c *Context) Linearized() []float64 {
	if len(c.Spec.Active()) == 0 {
		return append([]float64(nil), c.Series...)
	}
	est, err := c.Estimate(regarima.FitFull)
	if err != nil {
		c.logger.Debug().Err(err).Msg("linearization failed, using the raw series")
		return append([]float64(nil), c.Series...)
	}
	return est.Linearized
}

// Stationary returns the linearized series differenced by the current
// differencing orders.
func (c *Context) Stationary() []float64 {
	o := c.Spec.Order
	return sarima.Difference(c.Linearized(), sarima.DifferencingPolynomial(o.D, o.SD, o.M))
}

// restore replaces the specification with a snapshot and its estimation.
func (c *Context) restore(s *snapshot) {
	c.Spec = s.spec.Copy()
	c.estimation = s.est
	c.fullFit = true
	if s.est != nil {
		c.lastModel = s.est.Model
	}
}

// snapshot fits the current specification and captures it.
func (c *Context) snapshot() (*snapshot, error) {
	st, err := c.Statistics()
	if err != nil {
		return nil, err
	}
	return &snapshot{spec: c.Spec.Copy(), est: c.estimation, stats: st}, nil
}

// once reports whether key is seen for the first time, and marks it.
func (c *Context) once(key string) bool {
	if c.tried[key] {
		return false
	}
	c.tried[key] = true
	return true
}
