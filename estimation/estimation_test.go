package estimation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goami/outliers"
	"github.com/sartorproj/goami/regarima"
	"github.com/sartorproj/goami/sarima"
)

func newEngine() *Engine {
	return New(Config{}, zerolog.Nop())
}

// simulate draws n observations of m (differencing included) after a
// burn-in period.
func simulate(seed int64, m *sarima.Model, n int) []float64 {
	const burn = 100
	rng := rand.New(rand.NewSource(seed))
	e := make([]float64, n+burn)
	for i := range e {
		e[i] = rng.NormFloat64()
	}
	den := m.ARPolynomial().Times(m.DifferencingPolynomial())
	y := sarima.Filter(e, m.MAPolynomial(), den)
	return y[burn:]
}

func TestYuleWalker(t *testing.T) {
	// AR(2) autocorrelations for phi = (0.5, 0.2)
	r1 := 0.5 / (1 - 0.2)
	r2 := 0.5*r1 + 0.2
	r3 := 0.5*r2 + 0.2*r1
	phi := yuleWalker([]float64{1, r1, r2, r3}, 2)
	assert.InDeltaSlice(t, []float64{0.5, 0.2}, phi, 1e-9)

	phi3 := yuleWalker([]float64{1, r1, r2, r3}, 3)
	assert.InDelta(t, 0, phi3[2], 1e-9)
	assert.Nil(t, yuleWalker([]float64{1, 0.5}, 2))
}

func TestHannanRissanenAR(t *testing.T) {
	m := sarima.New(sarima.Order{P: 1})
	m.SetParameters([]float64{-0.6})
	w := simulate(1, m, 500)

	hr, err := newEngine().HannanRissanen(sarima.Order{P: 1}, w)
	require.NoError(t, err)
	assert.InDelta(t, -0.6, hr.ARCoeffs[0], 0.1)
}

func TestHannanRissanenMA(t *testing.T) {
	m := sarima.New(sarima.Order{Q: 1})
	m.SetParameters([]float64{0.5})
	w := simulate(2, m, 600)

	hr, err := newEngine().HannanRissanen(sarima.Order{Q: 1}, w)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, hr.MACoeffs[0], 0.15)
}

func TestHannanRissanenShortSeries(t *testing.T) {
	w := simulate(3, sarima.New(sarima.Order{}), 20)
	_, err := newEngine().HannanRissanen(sarima.Order{SQ: 1, M: 12}, w)
	assert.ErrorIs(t, err, ErrInsufficientData)

	zero, err := newEngine().HannanRissanen(sarima.Order{}, w)
	require.NoError(t, err)
	assert.Empty(t, zero.Parameters())
}

func TestFastBICPrefersTrueModel(t *testing.T) {
	m := sarima.New(sarima.Order{P: 1})
	m.SetParameters([]float64{-0.7})
	w := simulate(4, m, 300)

	e := newEngine()
	trueBIC, err := e.FastBIC(m, w)
	require.NoError(t, err)
	wnBIC, err := e.FastBIC(sarima.New(sarima.Order{}), w)
	require.NoError(t, err)
	assert.Less(t, trueBIC, wnBIC)

	unit := sarima.New(sarima.Order{P: 1})
	unit.SetParameters([]float64{-1})
	_, err = e.FastBIC(unit, w)
	assert.ErrorIs(t, err, sarima.ErrUnstable)
}

func TestFitAirline(t *testing.T) {
	order := sarima.Airline(12)
	m := sarima.New(order)
	m.SetParameters([]float64{-0.4, -0.6})
	y := simulate(5, m, 180)

	spec := regarima.NewModelSpec(order, false)
	est, err := newEngine().Fit(y, spec, nil, regarima.FitFull)
	require.NoError(t, err)

	assert.True(t, est.Converged)
	assert.InDelta(t, -0.4, est.Model.MACoeffs[0], 0.15)
	assert.InDelta(t, -0.6, est.Model.SMACoeffs[0], 0.25)
	assert.InDelta(t, 1, est.Sigma2, 0.3)
	assert.Len(t, est.Residuals, 180-13)
	require.Len(t, est.ARMAStdErrors, 2)
	for _, se := range est.ARMAStdErrors {
		assert.Greater(t, se, 0.0)
		assert.Less(t, se, 0.3)
	}
	assert.Equal(t, 3, est.NParams)
	assert.False(t, math.IsInf(est.Criteria.BIC, 0))
}

func TestFitRegressionWithMeanAndOutlier(t *testing.T) {
	order := sarima.Order{P: 1}
	m := sarima.New(order)
	m.SetParameters([]float64{-0.5})
	y := simulate(6, m, 300)
	for i := range y {
		y[i] += 3
	}
	y[50] += 10

	ao := outliers.Outlier{Type: outliers.AO, Position: 50}
	v, err := regarima.NewOutlierVariable(ao, len(y), 1, 0.7, regarima.Accepted)
	require.NoError(t, err)
	spec := regarima.NewModelSpec(order, true)
	require.NoError(t, spec.Add(v))

	est, err := newEngine().Fit(y, spec, nil, regarima.FitFull)
	require.NoError(t, err)

	assert.True(t, est.HasMean)
	assert.InDelta(t, 3, est.Mean, 0.5)
	assert.Greater(t, est.MeanTStat(), 5.0)

	ve, ok := est.Variable(ao.Name())
	require.True(t, ok)
	assert.InDelta(t, 10, ve.Coefficients[0], 2.5)
	assert.Greater(t, ve.TStat(0), 5.0)
	wald, ok := ve.Wald()
	require.True(t, ok)
	assert.InDelta(t, ve.TStat(0)*ve.TStat(0), wald, 1e-6)

	assert.InDelta(t, y[50]-ve.Coefficients[0], est.Linearized[50], 1e-9)
	// Sampling error of phi with n=300 is about 0.05.
	assert.InDelta(t, -0.5, est.Model.ARCoeffs[0], 0.2)
	require.Len(t, est.ARMAStdErrors, 1)
	assert.InDelta(t, 0.05, est.ARMAStdErrors[0], 0.03)
}

func TestFitResidualsOnlyKeepsParameters(t *testing.T) {
	order := sarima.Order{Q: 1}
	m := sarima.New(order)
	m.SetParameters([]float64{0.3})
	y := simulate(7, m, 120)

	start := sarima.New(order)
	start.SetParameters([]float64{0.1})
	est, err := newEngine().Fit(y, regarima.NewModelSpec(order, true), start, regarima.FitResidualsOnly)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1}, est.Model.MACoeffs)
	assert.NotSame(t, start, est.Model)
}

func TestFitRejectsShortSeries(t *testing.T) {
	_, err := newEngine().Fit([]float64{1, 2, 3, 4, 5}, regarima.NewModelSpec(sarima.Airline(4), false), nil, regarima.FitFull)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestStabilize(t *testing.T) {
	m := sarima.New(sarima.Order{P: 1, Q: 1})
	m.SetParameters([]float64{-1.3, 2})
	stabilize(m, 0.95)
	assert.True(t, m.IsStable())
	assert.True(t, m.IsInvertible())
}
