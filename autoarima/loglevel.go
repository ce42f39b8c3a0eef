package autoarima

import (
	"github.com/sartorproj/goami/regarima"
)

// LogLevelTest chooses between levels and logs by fitting the airline model
// to both and comparing the likelihoods on the scale of the raw series.
type LogLevelTest struct {
	// Bias is added to the normalized deviance of the log model; a positive
	// value favours levels.
	Bias float64
}

// NewLogLevelTest builds the test from the options.
func NewLogLevelTest(opts Options) *LogLevelTest {
	return &LogLevelTest{Bias: opts.LogLevelBias}
}

func (t *LogLevelTest) Name() string { return "loglevel" }

func (t *LogLevelTest) Process(ctx *Context) ProcessingResult {
	if ctx.Options.Transformation != TransformAuto || ctx.Spec.Transformation == regarima.TransformLog {
		return Unprocessed
	}
	log := ctx.Logger(t.Name())
	if !ctx.filled.IsPositive() {
		ctx.Note(t.Name(), "transformation", "none")
		log.Debug().Float64("min", ctx.filled.Min()).Msg("non-positive data, levels kept")
		return Unchanged
	}

	useLog, err := t.PreferLog(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("log/level comparison failed")
		return Failed
	}
	if !useLog {
		ctx.Note(t.Name(), "transformation", "none")
		return Unchanged
	}
	if err := ctx.applyLog(); err != nil {
		return Failed
	}
	ctx.Note(t.Name(), "transformation", "log")
	log.Debug().Msg("log transformation selected")
	return Changed
}

// PreferLog reports whether the airline model fits the logs better than the
// levels. The log likelihood is corrected by the Jacobian of the
// transformation over the observations it is computed on.
func (t *LogLevelTest) PreferLog(ctx *Context) (bool, error) {
	if !ctx.filled.IsPositive() {
		return false, ErrNonPositive
	}
	spec := ctx.Spec.Copy()
	spec.Order = airlineOrder(ctx.HasSeasonalComponent, ctx.Period)
	spec.Mean = false

	levels, err := ctx.Estimator.Fit(ctx.Raw, spec, nil, regarima.FitFull)
	if err != nil {
		return false, err
	}
	logs := ctx.filled.Log().Values
	spec.Transformation = regarima.TransformLog
	logged, err := ctx.Estimator.Fit(logs, spec, nil, regarima.FitFull)
	if err != nil {
		return false, err
	}

	o := spec.Order
	nd := o.D + o.SD*o.M
	jacobian := 0.0
	for _, v := range logs[nd:] {
		jacobian += v
	}
	n := float64(levels.Likelihood.N)
	devLevels := -2 * levels.Likelihood.LogLikelihood() / n
	devLogs := -2*(logged.Likelihood.LogLikelihood()-jacobian)/n + t.Bias
	ctx.Note(t.Name(), "deviance", [2]float64{devLevels, devLogs})
	return devLogs < devLevels, nil
}
