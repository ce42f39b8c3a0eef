package autoarima

import (
	"fmt"
	"math"

	"github.com/sartorproj/goami/outliers"
	"github.com/sartorproj/goami/regarima"
	"github.com/sartorproj/goami/stats"
)

// OutlierState is the state of the outlier detection loop.
type OutlierState int

const (
	Searching OutlierState = iota
	BackwardChecking
	Converged
	Exhausted
)

var outlierStateNames = [...]string{"searching", "backward", "converged", "exhausted"}

func (s OutlierState) String() string {
	if s < 0 || int(s) >= len(outlierStateNames) {
		return fmt.Sprintf("OutlierState(%d)", int(s))
	}
	return outlierStateNames[s]
}

// OutlierDetector adds significant outliers one at a time and removes the
// ones that lose their significance.
type OutlierDetector struct {
	Types       []outliers.Type
	TCRate      float64
	MaxRounds   int
	MaxOutliers int
	// Reestimate re-fits the ARMA parameters after each addition; otherwise
	// only the regression is re-solved.
	Reestimate bool
	// RobustScale uses the MAD of the residuals instead of their standard
	// deviation.
	RobustScale bool
	opts        Options
}

// OutlierRun summarizes one run of the loop.
type OutlierRun struct {
	State   OutlierState
	Rounds  int
	CV      float64
	Added   []outliers.Outlier
	Removed []outliers.Outlier
	// Exit is set when an outlier was removed twice in a row.
	Exit bool
}

// NewOutlierDetector builds the loop from the options.
func NewOutlierDetector(opts Options) *OutlierDetector {
	return &OutlierDetector{
		Types:       opts.OutlierTypes,
		TCRate:      opts.TCRate,
		MaxRounds:   opts.MaxOutlierRounds,
		MaxOutliers: opts.MaxOutliers,
		Reestimate:  opts.ReestimateOutliers,
		RobustScale: opts.RobustScale,
		opts:        opts,
	}
}

func (d *OutlierDetector) Name() string { return "outliers" }

// CriticalValue returns the threshold used on ctx.
func (d *OutlierDetector) CriticalValue(ctx *Context) float64 {
	return d.opts.criticalValue(ctx.N(), ctx.selectivity)
}

func (d *OutlierDetector) Process(ctx *Context) ProcessingResult {
	if !ctx.OutlierDetection || len(d.Types) == 0 {
		return Unprocessed
	}
	log := ctx.Logger(d.Name())
	initial := outlierNames(ctx.Spec.DetectedOutliers())

	run, err := d.Run(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("outlier detection failed")
		return Failed
	}
	final := ctx.Spec.DetectedOutliers()
	ctx.Note(d.Name(), "outliers", outlierNames(final))
	log.Debug().Str("state", run.State.String()).Int("rounds", run.Rounds).Float64("cv", run.CV).
		Int("added", len(run.Added)).Int("removed", len(run.Removed)).Bool("exit", run.Exit).
		Int("count", len(final)).Msg("outlier detection done")

	if sameNames(initial, outlierNames(final)) {
		return Unchanged
	}
	return Changed
}

// Run executes the loop on the context specification.
func (d *OutlierDetector) Run(ctx *Context) (OutlierRun, error) {
	n := ctx.N()
	run := OutlierRun{CV: d.CriticalValue(ctx), State: Searching}
	factories, err := outliers.Factories(d.Types, ctx.Period, d.TCRate)
	if err != nil {
		return run, err
	}

	ex := outliers.NewExclusions(n)
	for _, p := range ctx.Missing {
		ex.ExcludePosition(p)
	}
	for _, o := range ctx.Spec.Outliers() {
		ex.Exclude(o)
	}

	mode := regarima.FitResidualsOnly
	if d.Reestimate {
		mode = regarima.FitFull
	}
	if _, err := ctx.Estimate(regarima.FitFull); err != nil {
		return run, err
	}

	var lastRemoved, lastAdded *outliers.Outlier
	for run.State == Searching || run.State == BackwardChecking {
		switch run.State {
		case Searching:
			if run.Rounds >= d.MaxRounds || len(ctx.Spec.DetectedOutliers()) >= d.MaxOutliers {
				run.State = Exhausted
				break
			}
			run.Rounds++
			est, err := ctx.Estimate(mode)
			if err != nil {
				return run, err
			}
			cand, ok := outliers.Search(est.Residuals, est.Model, factories, ex, d.scale(est))
			if !ok || math.Abs(cand.TStat) < run.CV {
				run.State = Converged
				break
			}
			v, err := regarima.NewOutlierVariable(cand.Outlier, n, ctx.Period, d.TCRate, regarima.Accepted)
			if err != nil {
				return run, err
			}
			ex.Exclude(cand.Outlier)
			var addErr error
			ctx.Modify(func(spec *regarima.ModelSpec) { addErr = spec.Add(v) })
			if addErr != nil {
				return run, addErr
			}
			o := cand.Outlier
			lastAdded = &o
			run.Added = append(run.Added, o)
			log := ctx.Logger(d.Name())
			log.Debug().Str("outlier", o.Name()).Float64("t", cand.TStat).Int("round", run.Rounds).Msg("outlier added")
			run.State = BackwardChecking

		case BackwardChecking:
			removed, ok, err := d.backwardStep(ctx, run.CV, mode)
			if err != nil {
				if lastAdded == nil {
					return run, err
				}
				// The last addition made the regression singular: drop it
				// and keep it excluded.
				name := lastAdded.Name()
				ctx.Modify(func(spec *regarima.ModelSpec) { spec.Remove(name) })
				run.Added = run.Added[:len(run.Added)-1]
				lastAdded = nil
				run.State = Searching
				break
			}
			lastAdded = nil
			if !ok {
				run.State = Searching
				break
			}
			ex.Include(removed)
			run.Removed = append(run.Removed, removed)
			if lastRemoved != nil && *lastRemoved == removed {
				run.Exit = true
				run.State = Converged
				break
			}
			lastRemoved = &removed
		}
	}

	if run.Exit || run.State == Exhausted {
		if err := d.strip(ctx, run.CV, mode); err != nil {
			return run, err
		}
	}
	return run, nil
}

// BackwardCheck removes insignificant detected outliers one at a time until
// every remaining one has |t| >= cv. It returns the removed outliers.
func (d *OutlierDetector) BackwardCheck(ctx *Context, cv float64) ([]outliers.Outlier, error) {
	var removed []outliers.Outlier
	for {
		o, ok, err := d.backwardStep(ctx, cv, regarima.FitFull)
		if err != nil {
			return removed, err
		}
		if !ok {
			return removed, nil
		}
		removed = append(removed, o)
	}
}

// backwardStep removes the least significant detected outlier when its
// |t| is below cv.
func (d *OutlierDetector) backwardStep(ctx *Context, cv float64, mode regarima.FitMode) (outliers.Outlier, bool, error) {
	est, err := ctx.Estimate(mode)
	if err != nil {
		return outliers.Outlier{}, false, err
	}
	o, t, ok := leastSignificant(ctx.Spec, est)
	if !ok || t >= cv {
		return outliers.Outlier{}, false, nil
	}
	ctx.Modify(func(spec *regarima.ModelSpec) { spec.Remove(o.Name()) })
	log := ctx.Logger(d.Name())
	log.Debug().Str("outlier", o.Name()).Float64("t", t).Msg("outlier removed")
	return o, true, nil
}

// strip removes at once every detected outlier below cv, using the current
// estimation.
func (d *OutlierDetector) strip(ctx *Context, cv float64, mode regarima.FitMode) error {
	est, err := ctx.Estimate(mode)
	if err != nil {
		return err
	}
	var weak []string
	for _, v := range ctx.Spec.Variables {
		if !isDetectedOutlier(v) {
			continue
		}
		if ve, ok := est.Variable(v.Name); ok && math.Abs(ve.TStat(0)) < cv {
			weak = append(weak, v.Name)
		}
	}
	if len(weak) == 0 {
		return nil
	}
	ctx.Modify(func(spec *regarima.ModelSpec) {
		for _, name := range weak {
			spec.Remove(name)
		}
	})
	return nil
}

func (d *OutlierDetector) scale(est *regarima.Estimation) float64 {
	if d.RobustScale {
		if s := stats.MAD(est.Residuals); s > 0 {
			return s
		}
	}
	return est.ResidualStd()
}

// leastSignificant returns the detected outlier with the smallest |t|.
func leastSignificant(spec *regarima.ModelSpec, est *regarima.Estimation) (outliers.Outlier, float64, bool) {
	var best outliers.Outlier
	minT := math.Inf(1)
	found := false
	for _, v := range spec.Variables {
		if !isDetectedOutlier(v) {
			continue
		}
		ve, ok := est.Variable(v.Name)
		if !ok {
			continue
		}
		if t := math.Abs(ve.TStat(0)); t < minT {
			best, minT, found = v.Outlier, t, true
		}
	}
	return best, minT, found
}

func isDetectedOutlier(v regarima.Variable) bool {
	return v.Kind == regarima.KindOutlier && v.Status.IsActive() && v.Status != regarima.Prespecified
}

func outlierNames(list []outliers.Outlier) []string {
	names := make([]string, len(list))
	for i, o := range list {
		names[i] = o.Name()
	}
	return names
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}
