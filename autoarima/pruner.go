package autoarima

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/goami/regarima"
)

// RegressionPruner accepts or rejects the calendar and user regressors, and
// decides on the mean with a two-threshold rule: a mean with |t| below
// MeanLow is dropped, and a mean dropped here comes back only when its |t|
// exceeds MeanHigh.
type RegressionPruner struct {
	// Joint tests multi-column variables with an F-test; otherwise one
	// coefficient above TCrit is enough.
	Joint    bool
	TCrit    float64
	PValue   float64
	MeanLow  float64
	MeanHigh float64
}

// NewRegressionPruner builds the pruner from the options.
func NewRegressionPruner(opts Options) *RegressionPruner {
	return &RegressionPruner{
		Joint:    opts.TradingDaysTest == TestJoint,
		TCrit:    opts.RegressionTCrit,
		PValue:   opts.RegressionPValue,
		MeanLow:  opts.MeanLow,
		MeanHigh: opts.MeanHigh,
	}
}

func (p *RegressionPruner) Name() string { return "regression" }

func (p *RegressionPruner) Process(ctx *Context) ProcessingResult {
	if !ctx.AutomaticModeling {
		return Unprocessed
	}
	if !ctx.Spec.Mean && !ctx.meanDropped && len(testable(ctx.Spec)) == 0 {
		return Unprocessed
	}
	log := ctx.Logger(p.Name())
	est, err := ctx.Estimate(regarima.FitFull)
	if err != nil {
		log.Warn().Err(err).Msg("estimation failed")
		return Failed
	}
	df := len(est.Residuals) - est.NParams

	decisions := p.Decide(ctx.Spec, est, df)
	dropMean := false
	restoreMean := false
	switch {
	case ctx.Spec.Mean:
		dropMean = math.Abs(est.MeanTStat()) < p.MeanLow
	case ctx.meanDropped:
		trial := ctx.Spec.Copy()
		trial.Mean = true
		if e, _, err := ctx.Fit(trial); err == nil && math.Abs(e.MeanTStat()) > p.MeanHigh {
			restoreMean = true
		}
	}

	changed := dropMean || restoreMean
	for name, status := range decisions {
		if ctx.Spec.Variables[ctx.Spec.Index(name)].Status != status {
			changed = true
		}
	}
	if !changed {
		return Unchanged
	}
	ctx.Modify(func(spec *regarima.ModelSpec) {
		for _, v := range testable(spec) {
			status, ok := decisions[v.Name]
			if ok && spec.SetStatus(v.Name, status) {
				ctx.Note(p.Name(), v.Name, status)
				log.Debug().Str("variable", v.Name).Str("status", status.String()).Msg("regression variable tested")
			}
		}
		if dropMean {
			spec.Mean = false
			ctx.Note(p.Name(), "mean", false)
		}
		if restoreMean {
			spec.Mean = true
			ctx.Note(p.Name(), "mean", true)
		}
	})
	ctx.meanDropped = dropMean || (ctx.meanDropped && !restoreMean)
	return Changed
}

// Decide returns the new status of every tested variable of spec. Leap year
// is only accepted together with the trading days.
func (p *RegressionPruner) Decide(spec *regarima.ModelSpec, est *regarima.Estimation, df int) map[string]regarima.Status {
	out := make(map[string]regarima.Status)
	hasTD, tdAccepted := false, false
	for _, v := range spec.Variables {
		if v.Kind != regarima.KindTradingDays {
			continue
		}
		hasTD = true
		if v.Status == regarima.Prespecified {
			tdAccepted = true
			continue
		}
		if ve, ok := est.Variable(v.Name); ok {
			tdAccepted = p.significant(ve, df)
			out[v.Name] = status(tdAccepted)
		}
	}
	for _, v := range testable(spec) {
		ve, ok := est.Variable(v.Name)
		if !ok {
			continue
		}
		switch v.Kind {
		case regarima.KindTradingDays:
		case regarima.KindLeapYear:
			if hasTD && !tdAccepted {
				out[v.Name] = regarima.Rejected
				continue
			}
			out[v.Name] = status(p.significant(ve, df))
		default:
			out[v.Name] = status(p.significant(ve, df))
		}
	}
	return out
}

// significant tests one variable: a single column with a t-test, several
// columns with an F-test or a t-test on each, depending on Joint.
func (p *RegressionPruner) significant(ve regarima.VariableEstimate, df int) bool {
	k := len(ve.Coefficients)
	if k > 1 && p.Joint && df > 0 {
		if w, ok := ve.Wald(); ok {
			f := distuv.F{D1: float64(k), D2: float64(df)}
			return f.Survival(w/float64(k)) < p.PValue
		}
	}
	for i := 0; i < k; i++ {
		if math.Abs(ve.TStat(i)) >= p.TCrit {
			return true
		}
	}
	return false
}

// testable returns the variables subject to the pruner: calendar effects
// and user variables that were not prespecified.
func testable(spec *regarima.ModelSpec) []regarima.Variable {
	var out []regarima.Variable
	for _, v := range spec.Variables {
		if v.Status == regarima.Prespecified {
			continue
		}
		switch v.Kind {
		case regarima.KindTradingDays, regarima.KindLeapYear, regarima.KindEaster, regarima.KindUser:
			out = append(out, v)
		}
	}
	return out
}

func status(accepted bool) regarima.Status {
	if accepted {
		return regarima.Accepted
	}
	return regarima.Rejected
}
