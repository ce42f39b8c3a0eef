package autoarima

import (
	"math"

	"github.com/sartorproj/goami/regarima"
	"github.com/sartorproj/goami/sarima"
	"github.com/sartorproj/goami/stats"
)

// SeasonalityController decides whether the model needs a seasonal part.
//
// The first pass scores the seasonality of the linearized series and moves
// to the matching airline model when the score contradicts the current
// choice. The airline model chosen there becomes the reference that later
// passes compare the identified model with.
type SeasonalityController struct {
	// PValue is the level of the Friedman and QS tests.
	PValue float64
	// Score is the number of tests (Friedman, QS, spectral peaks) that must
	// detect seasonality.
	Score int
	// ResidualPValue is the level of the residual Ljung-Box tests.
	ResidualPValue float64
	UB1            float64
	comparator     Comparator
}

// NewSeasonalityController builds the controller from the options.
func NewSeasonalityController(opts Options) *SeasonalityController {
	return &SeasonalityController{
		PValue:         opts.SeasonalityPValue,
		Score:          opts.SeasonalityScore,
		ResidualPValue: opts.ResidualPValue,
		UB1:            opts.UB1,
		comparator:     NewComparator(opts),
	}
}

func (c *SeasonalityController) Name() string { return "seasonality" }

func (c *SeasonalityController) Process(ctx *Context) ProcessingResult {
	if !ctx.AutomaticModeling || ctx.Period <= 1 {
		return Unprocessed
	}
	if !ctx.seasonalityTested {
		return c.firstPass(ctx)
	}
	return c.laterPass(ctx)
}

// SeasonalityScore counts the tests detecting seasonality in y, after a
// first difference.
func (c *SeasonalityController) SeasonalityScore(y []float64, period int) int {
	dy := sarima.Difference(y, sarima.DifferencingPolynomial(1, 0, period))
	score := 0
	if stats.Friedman(dy, period).Significant(c.PValue) {
		score++
	}
	if stats.QS(dy, period).Significant(c.PValue) {
		score++
	}
	if stats.DetectSpectralPeaks(dy, period).Count() > 0 {
		score++
	}
	return score
}

func (c *SeasonalityController) firstPass(ctx *Context) ProcessingResult {
	log := ctx.Logger(c.Name())
	ctx.seasonalityTested = true

	score := c.SeasonalityScore(ctx.Linearized(), ctx.Period)
	enough := ctx.N() >= 3*ctx.Period
	seasonal := enough && score >= c.Score

	st, err := ctx.Statistics()
	if err != nil {
		log.Warn().Err(err).Msg("estimation failed")
		return Failed
	}
	if enough && !seasonal && !ctx.Spec.Order.Seasonal() && st.SeasonalLjungBoxPValue < c.ResidualPValue {
		seasonal = true
	}
	target := airlineOrder(seasonal, ctx.Period)
	respecify := seasonal != ctx.HasSeasonalComponent ||
		(st.LjungBoxPValue < c.ResidualPValue && ctx.Spec.Order != target)

	ctx.Note(c.Name(), "score", score)
	log.Debug().Int("score", score).Bool("seasonal", seasonal).
		Float64("lb_pvalue", st.LjungBoxPValue).Float64("seasonal_lb_pvalue", st.SeasonalLjungBoxPValue).
		Msg("seasonality tested")

	result := Unchanged
	if respecify {
		if seasonal != ctx.HasSeasonalComponent {
			ctx.Note(c.Name(), "seasonal", seasonal)
			result = Changed
		}
		ctx.HasSeasonalComponent = seasonal
		if ctx.Spec.Order != target {
			ctx.Modify(func(spec *regarima.ModelSpec) { spec.Order = target })
			result = Changed
		}
	}
	ctx.reference = &snapshot{spec: ctx.Spec.Copy()}
	return result
}

// laterPass compares the identified model with the reference airline model
// carrying the same regressors, and restores the reference when it is
// preferred.
func (c *SeasonalityController) laterPass(ctx *Context) ProcessingResult {
	if ctx.reference == nil || !ctx.once("seasonality-reference") {
		return Unprocessed
	}
	log := ctx.Logger(c.Name())
	ref := ctx.Spec.Copy()
	ref.Order = ctx.reference.spec.Order
	ref.Mean = ctx.reference.spec.Mean
	if ref.Order == ctx.Spec.Order && ref.Mean == ctx.Spec.Mean {
		return Unchanged
	}

	cur, err := ctx.Statistics()
	if err != nil {
		log.Warn().Err(err).Msg("estimation failed")
		return Failed
	}
	refEst, refStats, err := ctx.Fit(ref)
	if err != nil {
		log.Debug().Err(err).Msg("reference model not estimable, keeping the current one")
		return Unchanged
	}

	pref := PreferFewerSeasonal
	if c.overDifferenced(ctx.Estimation().Model) || c.overDifferenced(refEst.Model) {
		pref = PreferDiagnostics
	}
	if c.comparator.WithPreference(pref).Compare(cur, refStats) <= 0 {
		return Unchanged
	}
	ctx.Note(c.Name(), "reference", ref.Order)
	log.Debug().Str("order", ref.Order.String()).Strs("wins", c.comparator.Wins(cur, refStats)).Msg("reference model restored")
	ctx.restore(&snapshot{spec: ref, est: refEst, stats: refStats})
	return Changed
}

// overDifferenced reports a seasonal MA root on the unit circle.
func (c *SeasonalityController) overDifferenced(m *sarima.Model) bool {
	return m != nil && m.Order.SD > 0 && len(m.SMACoeffs) > 0 && m.SMACoeffs[0] <= -c.UB1
}

// trial is a one-shot respecification kept only when the comparator
// prefers it to the current model.
type trial struct {
	name       string
	comparator Comparator
}

func (t trial) Name() string { return t.name }

// try fits the respecification built by f and adopts it when preferred.
func (t trial) try(ctx *Context, f func(spec *regarima.ModelSpec)) ProcessingResult {
	log := ctx.Logger(t.name)
	cur, err := ctx.Statistics()
	if err != nil {
		log.Warn().Err(err).Msg("estimation failed")
		return Failed
	}
	alt := ctx.Spec.Copy()
	f(alt)
	if err := alt.Order.Validate(); err != nil {
		return Unchanged
	}
	est, st, err := ctx.Fit(alt)
	if err != nil {
		log.Debug().Err(err).Str("order", alt.Order.String()).Msg("respecification not estimable")
		return Unchanged
	}
	if t.comparator.Compare(cur, st) != 1 {
		log.Debug().Str("order", alt.Order.String()).Msg("respecification rejected")
		return Unchanged
	}
	ctx.Note(t.name, "order", alt.Order)
	log.Debug().Str("order", alt.Order.String()).Strs("wins", t.comparator.Wins(cur, st)).Msg("respecification adopted")
	ctx.restore(&snapshot{spec: alt, est: est, stats: st})
	return Changed
}

// SeasonalUnderDifferencingTest tries a seasonal difference when the
// residuals keep seasonal autocorrelation or the seasonal AR factor is
// close to a unit root.
type SeasonalUnderDifferencingTest struct {
	trial
	MaxBD          int
	UB2            float64
	ResidualPValue float64
}

// NewSeasonalUnderDifferencingTest builds the test from the options.
func NewSeasonalUnderDifferencingTest(opts Options) *SeasonalUnderDifferencingTest {
	return &SeasonalUnderDifferencingTest{
		trial:          trial{name: "seasonal-underdifferencing", comparator: NewComparator(opts)},
		MaxBD:          opts.MaxBD,
		UB2:            opts.UB2,
		ResidualPValue: opts.ResidualPValue,
	}
}

func (t *SeasonalUnderDifferencingTest) Process(ctx *Context) ProcessingResult {
	o := ctx.Spec.Order
	if !ctx.AutomaticModeling || !ctx.HasSeasonalComponent || ctx.Period <= 1 || o.SD >= t.MaxBD || !ctx.once(t.name) {
		return Unprocessed
	}
	st, err := ctx.Statistics()
	if err != nil {
		return Failed
	}
	m := ctx.Estimation().Model
	quasiUnit := len(m.SARCoeffs) > 0 && m.SARCoeffs[0] <= -t.UB2
	if st.SeasonalLjungBoxPValue >= t.ResidualPValue && !quasiUnit {
		return Unchanged
	}
	return t.try(ctx, func(spec *regarima.ModelSpec) {
		spec.Order.SD++
		if spec.Order.SP > 0 {
			spec.Order.SP--
		}
		if spec.Order.SQ == 0 {
			spec.Order.SQ = 1
		}
		spec.Mean = false
	})
}

// RegularUnderDifferencingTest tries one more regular difference when the
// residuals are autocorrelated or the AR polynomial has a real root close to
// the unit circle.
type RegularUnderDifferencingTest struct {
	trial
	MaxD           int
	UB2            float64
	ResidualPValue float64
}

// NewRegularUnderDifferencingTest builds the test from the options.
func NewRegularUnderDifferencingTest(opts Options) *RegularUnderDifferencingTest {
	return &RegularUnderDifferencingTest{
		trial:          trial{name: "regular-underdifferencing", comparator: NewComparator(opts)},
		MaxD:           opts.MaxD,
		UB2:            opts.UB2,
		ResidualPValue: opts.ResidualPValue,
	}
}

func (t *RegularUnderDifferencingTest) Process(ctx *Context) ProcessingResult {
	if !ctx.AutomaticModeling || ctx.Spec.Order.D >= t.MaxD || !ctx.once(t.name) {
		return Unprocessed
	}
	st, err := ctx.Statistics()
	if err != nil {
		return Failed
	}
	quasiUnit := false
	for _, r := range ctx.Estimation().Model.RegularAR().InverseRoots() {
		if math.Abs(imag(r)) < 1e-6 && real(r) >= t.UB2 {
			quasiUnit = true
			break
		}
	}
	if st.LjungBoxPValue >= t.ResidualPValue && !quasiUnit {
		return Unchanged
	}
	return t.try(ctx, func(spec *regarima.ModelSpec) {
		spec.Order.D++
		if spec.Order.P > 0 {
			spec.Order.P--
		}
		if spec.Order.Q == 0 {
			spec.Order.Q = 1
		}
		spec.Mean = false
	})
}

// SeasonalOverDifferencingTest removes the seasonal difference when the
// seasonal MA factor cancels it.
type SeasonalOverDifferencingTest struct {
	trial
	UB1 float64
}

// NewSeasonalOverDifferencingTest builds the test from the options.
func NewSeasonalOverDifferencingTest(opts Options) *SeasonalOverDifferencingTest {
	return &SeasonalOverDifferencingTest{
		trial: trial{name: "seasonal-overdifferencing", comparator: NewComparator(opts)},
		UB1:   opts.UB1,
	}
}

func (t *SeasonalOverDifferencingTest) Process(ctx *Context) ProcessingResult {
	o := ctx.Spec.Order
	if !ctx.AutomaticModeling || o.SD == 0 || o.SQ == 0 || !ctx.once(t.name) {
		return Unprocessed
	}
	if _, err := ctx.Estimate(regarima.FitFull); err != nil {
		return Failed
	}
	if ctx.Estimation().Model.SMACoeffs[0] > -t.UB1 {
		return Unchanged
	}
	return t.try(ctx, func(spec *regarima.ModelSpec) {
		spec.Order.SD--
		spec.Order.SQ--
		spec.Mean = true
	})
}
