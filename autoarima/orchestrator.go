package autoarima

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sartorproj/goami/estimation"
	"github.com/sartorproj/goami/regarima"
	"github.com/sartorproj/goami/timeseries"
)

// ErrFallback is returned when even the airline model cannot be estimated.
var ErrFallback = errors.New("airline fallback not estimable")

// Identifier runs the identification pipeline with fixed options. It holds
// no per-series state and may be shared by goroutines as long as its
// Estimator is safe for concurrent use, which estimation.Engine is.
type Identifier struct {
	Options   Options
	Estimator regarima.Estimator
	Logger    zerolog.Logger
}

// NewIdentifier validates opts and builds an identifier on top of the
// maximum likelihood engine.
func NewIdentifier(opts Options, logger zerolog.Logger) (*Identifier, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Identifier{
		Options:   opts,
		Estimator: estimation.New(opts.Estimation, logger),
		Logger:    logger,
	}, nil
}

// NewContext prepares the search state of series.
func (id *Identifier) NewContext(series *timeseries.Series, vars ...regarima.Variable) (*Context, error) {
	return NewContext(series, id.Options, id.Estimator, id.Logger, vars...)
}

// Identify identifies the model of series.
func (id *Identifier) Identify(series *timeseries.Series, vars ...regarima.Variable) (*Result, error) {
	ctx, err := id.NewContext(series, vars...)
	if err != nil {
		return nil, err
	}
	return Process(ctx)
}

// Identify identifies the model of series with opts and no logging.
func Identify(series *timeseries.Series, opts Options) (*Result, error) {
	id, err := NewIdentifier(opts, zerolog.Nop())
	if err != nil {
		return nil, err
	}
	return id.Identify(series)
}

// Result is the identified model of one series.
type Result struct {
	ID          string
	Name        string
	Spec        *regarima.ModelSpec
	Estimation  *regarima.Estimation
	Statistics  regarima.Statistics
	Trace       []StepResult
	Diagnostics []Diagnostic
	// Fallback is set when a step failed and the airline model was used.
	Fallback bool
	// Verified is set when the model passed the verifier.
	Verified bool
	Seasonal bool
	Summary  SeriesSummary
}

// pipeline holds one instance of every step, built from the context options.
type pipeline struct {
	logLevel      *LogLevelTest
	seasonality   *SeasonalityController
	differencing  *DifferencingSelector
	arma          *ArmaSearch
	outliers      *OutlierDetector
	pruner        *RegressionPruner
	seasonalUnder *SeasonalUnderDifferencingTest
	regularUnder  *RegularUnderDifferencingTest
	seasonalOver  *SeasonalOverDifferencingTest
	refiner       *ModelRefiner
	verifier      Verifier
	comparator    Comparator
}

func newPipeline(opts Options) *pipeline {
	return &pipeline{
		logLevel:      NewLogLevelTest(opts),
		seasonality:   NewSeasonalityController(opts),
		differencing:  NewDifferencingSelector(opts),
		arma:          NewArmaSearch(opts),
		outliers:      NewOutlierDetector(opts),
		pruner:        NewRegressionPruner(opts),
		seasonalUnder: NewSeasonalUnderDifferencingTest(opts),
		regularUnder:  NewRegularUnderDifferencingTest(opts),
		seasonalOver:  NewSeasonalOverDifferencingTest(opts),
		refiner:       NewModelRefiner(opts),
		verifier:      NewVerifier(opts),
		comparator:    NewComparator(opts),
	}
}

// Process runs the identification pipeline on ctx. A step failure replaces
// the model by the airline model with a mean; an error is only returned for
// a nil context or when that model cannot be estimated either.
func Process(ctx *Context) (*Result, error) {
	if ctx == nil {
		return nil, errors.New("autoarima: nil context")
	}
	start := time.Now()
	defer func() {
		identificationDuration.Observe(time.Since(start).Seconds())
	}()
	log := ctx.Logger("identifier")

	p := newPipeline(ctx.Options)
	fallback := !p.run(ctx)
	if fallback {
		if err := ctx.fallback(); err != nil {
			return nil, err
		}
		fallbacks.Inc()
	}

	st, err := ctx.Statistics()
	if err != nil {
		if fallback {
			return nil, fmt.Errorf("%w: %v", ErrFallback, err)
		}
		if err := ctx.fallback(); err != nil {
			return nil, err
		}
		fallback = true
		fallbacks.Inc()
		if st, err = ctx.Statistics(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFallback, err)
		}
	}

	res := &Result{
		ID:          ctx.ID,
		Name:        ctx.Name,
		Spec:        ctx.Spec.Copy(),
		Estimation:  ctx.Estimation(),
		Statistics:  st,
		Trace:       ctx.Trace(),
		Diagnostics: ctx.Diagnostics(),
		Fallback:    fallback,
		Verified:    p.verifier.Accept(st),
		Seasonal:    ctx.Spec.Order.Seasonal(),
		Summary:     ctx.Summary,
	}
	outliersDetected.Observe(float64(st.OutlierCount))
	log.Info().Str("spec", res.Spec.String()).Int("outliers", st.OutlierCount).
		Bool("fallback", res.Fallback).Bool("verified", res.Verified).
		Dur("elapsed", time.Since(start)).Msg("identification done")
	return res, nil
}

// run executes the steps in order. It returns false as soon as one fails.
func (p *pipeline) run(ctx *Context) bool {
	if ctx.step(p.logLevel) == Failed {
		return false
	}
	if !ctx.AutomaticModeling {
		if ctx.step(p.outliers) == Failed {
			return false
		}
		return ctx.step(p.refiner) != Failed
	}

	for _, s := range []Step{p.seasonality, p.differencing, p.arma, p.outliers} {
		if ctx.step(s) == Failed {
			return false
		}
	}
	if !p.relaxOutliers(ctx) {
		return false
	}
	for i := 0; i < ctx.Options.MaxPrunerRounds; i++ {
		r := ctx.step(p.pruner)
		if r == Failed {
			return false
		}
		if r != Changed {
			break
		}
	}
	for _, s := range []Step{p.seasonality, p.seasonalUnder, p.regularUnder, p.seasonalOver, p.refiner} {
		if ctx.step(s) == Failed {
			return false
		}
	}
	return p.verify(ctx)
}

// relaxOutliers lowers the outlier critical value one selectivity level at
// a time while the residuals stay autocorrelated.
func (p *pipeline) relaxOutliers(ctx *Context) bool {
	if !ctx.OutlierDetection {
		return true
	}
	for ctx.selectivity < ctx.Options.MaxSelectivity {
		st, err := ctx.Statistics()
		if err != nil {
			return false
		}
		if st.LjungBoxPValue >= ctx.Options.LjungBoxPValue {
			return true
		}
		ctx.selectivity++
		ctx.Note("outliers", "selectivity", ctx.selectivity)
		if ctx.step(p.outliers) == Failed {
			return false
		}
	}
	return true
}

// verify checks the final model. A rejected model is compared with the
// airline model carrying the same regressors, and replaced when the
// comparator prefers the airline model.
func (p *pipeline) verify(ctx *Context) bool {
	log := ctx.Logger("verifier")
	st, err := ctx.Statistics()
	if err != nil {
		return false
	}
	verr := p.verifier.Verify(st)
	if verr == nil {
		ctx.record("verifier", Unchanged)
		return true
	}
	ctx.Note("verifier", "rejected", verr)
	log.Debug().Err(verr).Msg("model rejected")

	alt := ctx.Spec.Copy()
	alt.Order = airlineOrder(ctx.HasSeasonalComponent, ctx.Period)
	if alt.Order == ctx.Spec.Order {
		ctx.record("verifier", Unchanged)
		return true
	}
	est, altStats, err := ctx.Fit(alt)
	if err != nil || p.comparator.Compare(st, altStats) != 1 {
		ctx.record("verifier", Unchanged)
		return true
	}
	ctx.Note("verifier", "order", alt.Order)
	ctx.restore(&snapshot{spec: alt, est: est, stats: altStats})
	ctx.record("verifier", Changed)
	return true
}

// step runs s on the context and records its result.
func (c *Context) step(s Step) ProcessingResult {
	r := s.Process(c)
	c.record(s.Name(), r)
	return r
}

func (c *Context) record(name string, r ProcessingResult) {
	c.trace = append(c.trace, StepResult{Step: name, Result: r})
	stepResults.WithLabelValues(name, r.String()).Inc()
}

// fallback replaces the specification by the airline model with a mean and
// the prespecified regressors, and estimates it.
func (c *Context) fallback() error {
	spec := regarima.NewModelSpec(airlineOrder(c.HasSeasonalComponent, c.Period), true)
	spec.Transformation = c.Spec.Transformation
	for _, v := range c.Spec.Variables {
		if v.Status == regarima.Prespecified {
			if err := spec.Add(v); err != nil {
				return err
			}
		}
	}
	c.Spec = spec
	c.lastModel = nil
	c.Invalidate()
	c.record("fallback", Changed)
	log := c.Logger("identifier")
	log.Warn().Str("spec", spec.String()).Msg("falling back to the airline model")

	if _, err := c.Estimate(regarima.FitFull); err != nil {
		return fmt.Errorf("%w: %v", ErrFallback, err)
	}
	return nil
}
