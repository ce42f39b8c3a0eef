package sarima

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAirlineOrder(t *testing.T) {
	o := Airline(12)
	assert.Equal(t, Order{D: 1, Q: 1, SD: 1, SQ: 1, M: 12}, o)
	assert.Equal(t, "(0,1,1)(0,1,1)[12]", o.String())
	assert.Equal(t, 2, o.NumParams())
	assert.True(t, o.Seasonal())

	ns := Airline(1)
	assert.Equal(t, "(0,1,1)", ns.String())
	assert.False(t, ns.Seasonal())
}

func TestOrderValidate(t *testing.T) {
	assert.NoError(t, Airline(4).Validate())
	assert.ErrorIs(t, Order{P: -1}.Validate(), ErrInvalidOrder)
	assert.ErrorIs(t, Order{SQ: 1, M: 1}.Validate(), ErrInvalidOrder)
}

func TestParametersRoundTrip(t *testing.T) {
	m := New(Order{P: 2, Q: 1, SP: 1, SQ: 1, M: 4})
	m.SetParameters([]float64{0.1, 0.2, 0.3, 0.4, 0.5})

	assert.Equal(t, []float64{0.1, 0.2}, m.ARCoeffs)
	assert.Equal(t, []float64{0.3}, m.SARCoeffs)
	assert.Equal(t, []float64{0.4}, m.MACoeffs)
	assert.Equal(t, []float64{0.5}, m.SMACoeffs)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4, 0.5}, m.Parameters())

	c := m.Copy()
	c.ARCoeffs[0] = 9
	assert.Equal(t, 0.1, m.ARCoeffs[0])
}

func TestFullPolynomials(t *testing.T) {
	m := New(Order{P: 1, SP: 1, Q: 1, SQ: 1, M: 4})
	m.SetParameters([]float64{-0.5, -0.3, 0.2, -0.6})

	ar := m.ARPolynomial()
	require.Len(t, ar, 6)
	assert.InDelta(t, -0.5, ar[1], 1e-12)
	assert.InDelta(t, -0.3, ar[4], 1e-12)
	assert.InDelta(t, 0.15, ar[5], 1e-12)

	ma := m.MAPolynomial()
	assert.InDelta(t, 0.2, ma[1], 1e-12)
	assert.InDelta(t, -0.6, ma[4], 1e-12)
	assert.InDelta(t, -0.12, ma[5], 1e-12)
}

func TestDifferencingPolynomial(t *testing.T) {
	p := DifferencingPolynomial(1, 1, 4)
	assert.Equal(t, Polynomial{1, -1, 0, 0, -1, 1}, p)
	assert.Equal(t, 5, p.Degree())
	assert.Equal(t, Polynomial{1, -2, 1}, DifferencingPolynomial(2, 1, 1))
}

func TestRootsAndStability(t *testing.T) {
	// (1 - 0.5z)(1 - 0.25z)
	p := Polynomial{1, -0.5}.Times(Polynomial{1, -0.25})
	inv := p.InverseRoots()
	require.Len(t, inv, 2)
	assert.InDelta(t, 0.5, real(inv[0]), 1e-9)
	assert.InDelta(t, 0.25, real(inv[1]), 1e-9)
	assert.True(t, p.IsStable(1))
	assert.False(t, p.IsStable(0.4))

	// Complex pair with modulus 0.9
	r := complex(0.9*math.Cos(1), 0.9*math.Sin(1))
	c := FromInverseRoots([]complex128{r, cmplx.Conj(r)})
	assert.InDelta(t, 0.9, c.MaxInverseRoot(), 1e-9)
	assert.InDelta(t, 0.81, c[2], 1e-12)

	assert.Nil(t, One().Roots())
	assert.Equal(t, 0.0, One().MaxInverseRoot())
}

func TestStabilize(t *testing.T) {
	p, changed := Polynomial{1, -2}.Stabilize(1)
	assert.True(t, changed)
	assert.InDelta(t, -0.5, p[1], 1e-9)

	same, changed := Polynomial{1, -0.5}.Stabilize(1)
	assert.False(t, changed)
	assert.Equal(t, Polynomial{1, -0.5}, same)
}

func TestMakeInvertible(t *testing.T) {
	m := New(Order{Q: 1, SQ: 1, M: 12})
	m.SetParameters([]float64{-2, -0.6})
	assert.False(t, m.IsInvertible())

	assert.True(t, m.MakeInvertible())
	assert.True(t, m.IsInvertible())
	assert.InDelta(t, -0.5, m.MACoeffs[0], 1e-9)
	assert.InDelta(t, -0.6, m.SMACoeffs[0], 1e-12)
	assert.False(t, m.MakeInvertible())
}

func TestStabilityScore(t *testing.T) {
	m := New(Order{P: 1, SQ: 1, M: 12})
	m.SetParameters([]float64{-0.3, -0.95})
	assert.InDelta(t, 0.95, m.StabilityScore(), 1e-9)
}

func TestFilterAndImpulse(t *testing.T) {
	y := Filter([]float64{1, 0, 0}, One(), Polynomial{1, -0.5})
	assert.InDeltaSlice(t, []float64{1, 0.5, 0.25}, y, 1e-12)

	m := New(Order{Q: 1})
	m.SetParameters([]float64{-0.4})
	psi := m.PsiWeights(3)
	assert.InDeltaSlice(t, []float64{1, -0.4, 0}, psi, 1e-12)
	pi := m.PiWeights(3)
	assert.InDeltaSlice(t, []float64{1, 0.4, 0.16}, pi, 1e-12)
}

func TestDifference(t *testing.T) {
	x := []float64{1, 3, 6, 10, 15}
	assert.Equal(t, []float64{2, 3, 4, 5}, Difference(x, Polynomial{1, -1}))
	assert.Nil(t, Difference([]float64{1}, Polynomial{1, -1}))
}

func TestKalmanWhiteNoise(t *testing.T) {
	kf, err := NewKalmanFilter(New(Order{}))
	require.NoError(t, err)

	ll, e := kf.Evaluate([]float64{1, -2, 3})
	assert.InDelta(t, 14, ll.SSQ, 1e-12)
	assert.InDelta(t, 0, ll.LogDet, 1e-12)
	assert.Equal(t, []float64{1, -2, 3}, e)
}

func TestKalmanAR1ExactLikelihood(t *testing.T) {
	m := New(Order{P: 1})
	m.SetParameters([]float64{-0.5})
	kf, err := NewKalmanFilter(m)
	require.NoError(t, err)

	ll, e := kf.Evaluate([]float64{1, 2, 3})
	assert.InDelta(t, 7, ll.SSQ, 1e-9)
	assert.InDelta(t, math.Log(4.0/3.0), ll.LogDet, 1e-9)
	assert.InDelta(t, 1.5, e[1], 1e-9)
	assert.InDelta(t, 2, e[2], 1e-9)
	assert.InDelta(t, 7.0/3.0, ll.Sigma2(), 1e-9)
}

func TestKalmanMA1ConvergesToInnovations(t *testing.T) {
	m := New(Order{Q: 1})
	m.SetParameters([]float64{-0.5})
	kf, err := NewKalmanFilter(m)
	require.NoError(t, err)

	n := 200
	w := make([]float64, n)
	eps := make([]float64, n)
	for i := range eps {
		eps[i] = math.Sin(float64(i)*1.7) + 0.3*math.Cos(float64(i)*0.3)
	}
	for i := range w {
		w[i] = eps[i]
		if i > 0 {
			w[i] -= 0.5 * eps[i-1]
		}
	}

	_, e := kf.Evaluate(w)
	// Far from the start the innovations match the true shocks.
	for i := n - 10; i < n; i++ {
		assert.InDelta(t, eps[i], e[i], 1e-6)
	}
}

func TestKalmanRejectsUnitRoot(t *testing.T) {
	m := New(Order{P: 1})
	m.SetParameters([]float64{-1})
	_, err := NewKalmanFilter(m)
	assert.ErrorIs(t, err, ErrUnstable)
}

func TestLikelihoodValues(t *testing.T) {
	l := Likelihood{SSQ: 10, LogDet: 0, N: 10}
	assert.InDelta(t, -5*(math.Log(2*math.Pi)+1), l.LogLikelihood(), 1e-12)
	assert.True(t, math.IsInf(Likelihood{}.LogLikelihood(), -1))
}
