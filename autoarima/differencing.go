package autoarima

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/sartorproj/goami/regarima"
	"github.com/sartorproj/goami/sarima"
)

// DifferencingSelector chooses the regular and seasonal differencing orders
// and whether the model has a mean.
//
// Small autoregressive models are fitted on the series differenced by the
// orders found so far. An AR coefficient close to -1 that is not cancelled
// by the matching MA coefficient adds one difference. The first round fits
// AR(2)xSAR(1) and only screens for clear unit roots; the ARMA(1,1)xSARMA(1,1)
// rounds that follow always run at least once.
type DifferencingSelector struct {
	MaxD   int
	MaxBD  int
	UB1    float64
	UB2    float64
	Cancel float64
	Rounds int
}

// Differencing is the outcome of DifferencingSelector.Select.
type Differencing struct {
	D         int
	BD        int
	Mean      bool
	MeanTStat float64
	Rounds    int
}

// Coefficient sizes above which Hannan-Rissanen estimates are not trusted.
const (
	unstableFirstRound = 1.12
	unstableLaterRound = 1.02
)

// NewDifferencingSelector builds the selector from the options.
func NewDifferencingSelector(opts Options) *DifferencingSelector {
	return &DifferencingSelector{
		MaxD:   opts.MaxD,
		MaxBD:  opts.MaxBD,
		UB1:    opts.UB1,
		UB2:    opts.UB2,
		Cancel: opts.Cancel,
		Rounds: opts.DifferencingRounds,
	}
}

func (s *DifferencingSelector) Name() string { return "differencing" }

func (s *DifferencingSelector) Process(ctx *Context) ProcessingResult {
	if !ctx.AutomaticModeling {
		return Unprocessed
	}
	log := ctx.Logger(s.Name())
	seasonal := ctx.HasSeasonalComponent && ctx.Period > 1
	sel, err := s.Select(ctx.Estimator, ctx.Linearized(), ctx.Period, seasonal)
	if err != nil {
		log.Warn().Err(err).Msg("differencing selection failed")
		return Failed
	}
	ctx.Note(s.Name(), "orders", fmt.Sprintf("d=%d bd=%d mean=%t", sel.D, sel.BD, sel.Mean))
	log.Debug().Int("d", sel.D).Int("bd", sel.BD).Bool("mean", sel.Mean).
		Float64("mean_t", sel.MeanTStat).Int("rounds", sel.Rounds).Msg("differencing selected")

	o := ctx.Spec.Order
	if o.D == sel.D && o.SD == sel.BD && ctx.Spec.Mean == sel.Mean {
		return Unchanged
	}
	ctx.Modify(func(spec *regarima.ModelSpec) {
		spec.Order.D = sel.D
		spec.Order.SD = sel.BD
		spec.Mean = sel.Mean
	})
	return Changed
}

// Select runs the differencing rounds on y.
func (s *DifferencingSelector) Select(est regarima.Estimator, y []float64, period int, seasonal bool) (Differencing, error) {
	var res Differencing
	if period <= 1 {
		seasonal = false
	}
	din := 1.005 - s.UB2
	c := s.Cancel

	for round := 0; round < s.Rounds; round++ {
		w := sarima.Difference(y, sarima.DifferencingPolynomial(res.D, res.BD, period))
		if len(w) < minObservations {
			break
		}
		res.Rounds++
		order := s.roundOrder(round, period, seasonal)
		m, err := s.estimate(est, order, w, round)
		if err != nil {
			return res, err
		}

		regular, seasonalRoot := s.unitRoots(m, round, din, c)
		if !regular && !seasonalRoot {
			if round == 0 {
				continue
			}
			break
		}
		if regular {
			res.D++
		}
		if seasonalRoot {
			res.BD++
		}
		c -= 0.002
	}

	if res.D > s.MaxD {
		res.D = s.MaxD
	}
	if res.BD > s.MaxBD {
		res.BD = s.MaxBD
	}

	res.MeanTStat = s.meanTStat(est, y, res.D, res.BD, period, seasonal)
	res.Mean = math.Abs(res.MeanTStat) > meanThreshold(len(y)-res.D-res.BD*period)
	return res, nil
}

// roundOrder is AR(2)xSAR(1) in the first round (AR(1) for a period of 2)
// and ARMA(1,1)xSARMA(1,1) later.
func (s *DifferencingSelector) roundOrder(round, period int, seasonal bool) sarima.Order {
	o := sarima.Order{M: period}
	if round == 0 {
		o.P = 2
		if period == 2 {
			o.P = 1
		}
		if seasonal {
			o.SP = 1
		}
		return o
	}
	o.P, o.Q = 1, 1
	if seasonal {
		o.SP, o.SQ = 1, 1
	}
	return o
}

// estimate fits order on w by Hannan-Rissanen, switching to maximum
// likelihood when the estimates are numerically unstable.
func (s *DifferencingSelector) estimate(est regarima.Estimator, order sarima.Order, w []float64, round int) (*sarima.Model, error) {
	limit := unstableFirstRound
	if round > 0 {
		limit = unstableLaterRound
	}
	m, err := est.HannanRissanen(order, w)
	if err == nil && !exceeds(m, limit) {
		return m, nil
	}
	fit, ferr := est.Fit(w, regarima.NewModelSpec(order, true), nil, regarima.FitFull)
	if ferr != nil {
		if err != nil {
			return nil, fmt.Errorf("differencing round %d: %w", round, ferr)
		}
		// Keep the unstable estimates, they still point at a unit root.
		return m, nil
	}
	return fit.Model, nil
}

func exceeds(m *sarima.Model, limit float64) bool {
	for _, c := range m.Parameters() {
		if math.Abs(c) > limit {
			return true
		}
	}
	return false
}

// unitRoots reports whether the regular and seasonal AR factors of m hold a
// unit root not cancelled by the MA factor. In the first round a real
// inverse root of modulus at least UB1 counts as well; the inverse root of
// the seasonal factor 1 + sar B^m in B^m is -sar.
func (s *DifferencingSelector) unitRoots(m *sarima.Model, round int, din, c float64) (bool, bool) {
	regular, seasonal := false, false
	if len(m.ARCoeffs) > 0 {
		ar := m.ARCoeffs[0]
		near := ar < -1+din
		if len(m.MACoeffs) > 0 && math.Abs(ar-m.MACoeffs[0]) < c {
			near = false
		}
		regular = near || (round == 0 && s.hasRealUnitRoot(m.RegularAR()))
	}
	if len(m.SARCoeffs) > 0 {
		sar := m.SARCoeffs[0]
		near := sar < -1+din
		if len(m.SMACoeffs) > 0 && math.Abs(sar-m.SMACoeffs[0]) < c {
			near = false
		}
		seasonal = near || (round == 0 && -sar >= s.UB1)
	}
	return regular, seasonal
}

// hasRealUnitRoot reports whether p has a positive real inverse root of
// modulus at least UB1.
func (s *DifferencingSelector) hasRealUnitRoot(p sarima.Polynomial) bool {
	for _, r := range p.InverseRoots() {
		if math.Abs(imag(r)) < 1e-6 && real(r) > 0 && cmplx.Abs(r) >= s.UB1 {
			return true
		}
	}
	return false
}

// meanTStat returns the t-statistic of the mean of the differenced series
// under an ARMA(1,1) filter.
func (s *DifferencingSelector) meanTStat(est regarima.Estimator, y []float64, d, bd, period int, seasonal bool) float64 {
	w := sarima.Difference(y, sarima.DifferencingPolynomial(d, bd, period))
	order := sarima.Order{P: 1, Q: 1, M: period}
	if seasonal {
		order.SP, order.SQ = 1, 1
	}
	fit, err := est.Fit(w, regarima.NewModelSpec(order, true), nil, regarima.FitResidualsOnly)
	if err != nil {
		fit, err = est.Fit(w, regarima.NewModelSpec(sarima.Order{M: period}, true), nil, regarima.FitResidualsOnly)
		if err != nil {
			return 0
		}
	}
	return fit.MeanTStat()
}

// meanThreshold is the |t| above which the mean is kept, for n observations
// of the differenced series.
func meanThreshold(n int) float64 {
	switch {
	case n <= 80:
		return 1.96
	case n <= 155:
		return 1.98
	case n <= 230:
		return 2.1
	case n <= 320:
		return 2.3
	default:
		return 2.5
	}
}
