package autoarima

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goami/estimation"
	"github.com/sartorproj/goami/regarima"
	"github.com/sartorproj/goami/sarima"
	"github.com/sartorproj/goami/timeseries"
)

var errFake = errors.New("fake estimation failure")

// fakeEstimator returns fixed residuals and configurable t-statistics so
// that the control flow of the steps can be tested exactly.
type fakeEstimator struct {
	residuals []float64
	// tstat gives the t-statistic of every regression coefficient of a
	// variable; variables absent from the map get 10.
	tstat map[string]float64
	// meanT is the t-statistic of the mean.
	meanT float64
	// failOn makes Fit fail when the specification holds that variable.
	failOn string
	noHR   bool
	// hr gives the Hannan-Rissanen parameters of an order on w; nil
	// parameters give the zero model.
	hr   func(order sarima.Order, w []float64) []float64
	fits int
}

func (f *fakeEstimator) HannanRissanen(order sarima.Order, w []float64) (*sarima.Model, error) {
	if f.noHR {
		return nil, errFake
	}
	m := sarima.New(order)
	if f.hr != nil {
		if p := f.hr(order, w); p != nil {
			m.SetParameters(p)
		}
	}
	return m, nil
}

func (f *fakeEstimator) FastBIC(m *sarima.Model, w []float64) (float64, error) {
	return float64(m.Order.NumParams()), nil
}

func (f *fakeEstimator) Fit(y []float64, spec *regarima.ModelSpec, start *sarima.Model, mode regarima.FitMode) (*regarima.Estimation, error) {
	f.fits++
	if f.failOn != "" && spec.Index(f.failOn) >= 0 {
		return nil, errFake
	}
	o := spec.Order
	nd := o.D + o.SD*o.M
	if nd >= len(y) {
		return nil, errFake
	}
	res := make([]float64, len(y)-nd)
	copy(res, f.residuals[nd:])

	est := &regarima.Estimation{
		Model:      sarima.New(o),
		Residuals:  res,
		Linearized: append([]float64(nil), y...),
		Sigma2:     1,
		Converged:  true,
		NParams:    o.NumParams() + spec.NumRegressors() + 1,
		Likelihood: sarima.Likelihood{SSQ: float64(len(res)), N: len(res)},
	}
	if spec.Mean {
		est.HasMean = true
		est.Mean = f.meanT
		est.MeanStdErr = 1
	}
	for _, v := range spec.Active() {
		t, ok := f.tstat[v.Name]
		if !ok {
			t = 10
		}
		ve := regarima.VariableEstimate{Name: v.Name, Kind: v.Kind}
		for range v.Columns {
			ve.Coefficients = append(ve.Coefficients, t)
			ve.StdErrors = append(ve.StdErrors, 1)
		}
		est.Variables = append(est.Variables, ve)
	}
	return est, nil
}

// noise returns n standard normal draws.
func noise(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

// simulate draws n observations of m (differencing included) after a
// burn-in period.
func simulate(seed int64, m *sarima.Model, n int) []float64 {
	const burn = 100
	e := noise(seed, n+burn)
	den := m.ARPolynomial().Times(m.DifferencingPolynomial())
	y := sarima.Filter(e, m.MAPolynomial(), den)
	return y[burn:]
}

// airlineSeries simulates the airline model with regular MA theta and
// seasonal MA btheta.
func airlineSeries(seed int64, n int, theta, btheta float64) []float64 {
	m := sarima.New(sarima.Airline(12))
	m.SetParameters([]float64{theta, btheta})
	y := simulate(seed, m, n)
	for i := range y {
		y[i] += 100
	}
	return y
}

func monthly(t *testing.T, values []float64) *timeseries.Series {
	t.Helper()
	s, err := timeseries.NewPeriodic(values, 12, time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	s.Name = "test"
	return s
}

// fakeContext returns a context of n observations on a white-noise
// specification without seasonality.
func fakeContext(t *testing.T, opts Options, f *fakeEstimator) *Context {
	t.Helper()
	n := len(f.residuals)
	ctx, err := NewContext(timeseries.New(make([]float64, n)), opts, f, zerolog.Nop())
	require.NoError(t, err)
	ctx.Spec = regarima.NewModelSpec(sarima.Order{M: 1}, false)
	ctx.Invalidate()
	return ctx
}

func engineContext(t *testing.T, opts Options, values []float64) *Context {
	t.Helper()
	est := estimation.New(opts.Estimation, zerolog.Nop())
	ctx, err := NewContext(monthly(t, values), opts, est, zerolog.Nop())
	require.NoError(t, err)
	return ctx
}
