package autoarima

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/sartorproj/goami/regarima"
	"github.com/sartorproj/goami/sarima"
)

// ModelRefiner estimates the current specification and simplifies its ARMA
// part, one reduction per iteration.
//
// A reduction is, in order of precedence: moving an AR unit root into a
// difference, cancelling a common AR/MA root, or dropping the last
// coefficient of a polynomial that is both insignificant and small.
type ModelRefiner struct {
	Iterations  int
	MaxAttempts int
	TSig        float64
	UB1         float64
	Cancel      float64
	MaxD        int
	MaxBD       int
	opts        Options
}

// Reduction is one simplification applied by the refiner.
type Reduction struct {
	Kind  string
	Order sarima.Order
}

// NewModelRefiner builds the refiner from the options.
func NewModelRefiner(opts Options) *ModelRefiner {
	return &ModelRefiner{
		Iterations:  opts.RefineIterations,
		MaxAttempts: opts.MaxAttempts,
		TSig:        opts.TSig,
		UB1:         opts.UB1,
		Cancel:      opts.Cancel,
		MaxD:        opts.MaxD,
		MaxBD:       opts.MaxBD,
		opts:        opts,
	}
}

func (r *ModelRefiner) Name() string { return "refiner" }

func (r *ModelRefiner) Process(ctx *Context) ProcessingResult {
	log := ctx.Logger(r.Name())
	cutoff := r.opts.finalCutoff(ctx.N())
	changed := false

	// At most Iterations reductions; the last reduced model is estimated
	// once more.
	for it := 0; ; it++ {
		ctx.attempts++
		if ctx.AutomaticModeling && ctx.attempts > r.MaxAttempts {
			log.Warn().Int("attempts", ctx.attempts).Msg("estimation attempt budget exhausted")
			return Failed
		}
		est, err := ctx.Estimate(regarima.FitFull)
		if err != nil {
			log.Warn().Err(err).Msg("estimation failed")
			return Failed
		}
		if !est.Converged {
			log.Warn().Str("spec", ctx.Spec.String()).Msg("estimation did not converge")
			return Failed
		}
		if !ctx.AutomaticModeling {
			return Unchanged
		}

		red, ok := r.Reduce(est, ctx.Spec.Order, cutoff)
		if !ok {
			if changed {
				return Changed
			}
			return Unchanged
		}
		if it == r.Iterations {
			log.Debug().Int("iterations", r.Iterations).Str("next", red.Kind).Msg("reduction limit reached")
			return Changed
		}
		ctx.Note(r.Name(), red.Kind, red.Order)
		log.Debug().Str("reduction", red.Kind).Str("order", red.Order.String()).Msg("model reduced")
		ctx.Modify(func(spec *regarima.ModelSpec) {
			if red.Order.D+red.Order.SD > spec.Order.D+spec.Order.SD {
				spec.Mean = false
			}
			spec.Order = red.Order
		})
		changed = true
	}
}

// Reduce returns the next simplification of o given its estimation, if any.
func (r *ModelRefiner) Reduce(est *regarima.Estimation, o sarima.Order, cutoff float64) (Reduction, bool) {
	m := est.Model
	if red, ok := r.promoteUnitRoot(m, o); ok {
		return red, true
	}
	if red, ok := r.cancelCommonRoots(m, o); ok {
		return red, true
	}
	return r.dropInsignificant(est, o, cutoff)
}

// promoteUnitRoot turns an AR factor close to (1 - B) into a difference.
func (r *ModelRefiner) promoteUnitRoot(m *sarima.Model, o sarima.Order) (Reduction, bool) {
	if o.P > 0 && o.D < r.MaxD {
		for _, root := range m.RegularAR().InverseRoots() {
			if math.Abs(imag(root)) < 1e-6 && real(root) >= r.UB1 {
				o.P--
				o.D++
				return Reduction{Kind: "unit-root", Order: o}, true
			}
		}
	}
	if o.SP > 0 && o.SD < r.MaxBD && o.M > 1 && m.SARCoeffs[0] <= -r.UB1 {
		o.SP--
		o.SD++
		return Reduction{Kind: "seasonal-unit-root", Order: o}, true
	}
	return Reduction{}, false
}

// cancelCommonRoots removes one AR and one MA order when both polynomials
// share a root.
func (r *ModelRefiner) cancelCommonRoots(m *sarima.Model, o sarima.Order) (Reduction, bool) {
	if o.P > 0 && o.Q > 0 {
		ma := m.RegularMA().InverseRoots()
		for _, ar := range m.RegularAR().InverseRoots() {
			for _, root := range ma {
				if cmplx.Abs(ar-root) < r.Cancel {
					o.P--
					o.Q--
					return Reduction{Kind: "common-root", Order: o}, true
				}
			}
		}
	}
	if o.SP == 1 && o.SQ == 1 {
		if math.Abs(m.SARCoeffs[0]-m.SMACoeffs[0]) < r.Cancel {
			o.SP--
			o.SQ--
			return Reduction{Kind: "seasonal-common-root", Order: o}, true
		}
	}
	return Reduction{}, false
}

// dropInsignificant removes the last coefficient of the first polynomial,
// in the order AR, SAR, MA, SMA, whose t-statistic is below TSig and whose
// size is below cutoff.
func (r *ModelRefiner) dropInsignificant(est *regarima.Estimation, o sarima.Order, cutoff float64) (Reduction, bool) {
	params := est.Model.Parameters()
	tstats := est.ARMATStats()
	if len(params) != o.NumParams() {
		return Reduction{}, false
	}
	groups := []struct {
		kind string
		n    *int
	}{
		{"ar", &o.P},
		{"sar", &o.SP},
		{"ma", &o.Q},
		{"sma", &o.SQ},
	}
	end := 0
	for _, g := range groups {
		end += *g.n
		if *g.n == 0 {
			continue
		}
		last := end - 1
		if math.Abs(tstats[last]) < r.TSig && math.Abs(params[last]) < cutoff {
			*g.n--
			return Reduction{Kind: fmt.Sprintf("drop-%s", g.kind), Order: o}, true
		}
	}
	return Reduction{}, false
}
