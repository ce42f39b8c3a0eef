package sarima

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	lyapunovIterations = 64
	lyapunovTolerance  = 1e-13
	steadyTolerance    = 1e-10
)

// Likelihood is the outcome of an exact Gaussian likelihood evaluation with
// the innovation variance concentrated out.
type Likelihood struct {
	SSQ    float64 // Sum of squared standardized innovations
	LogDet float64 // Sum of log prediction-error variances
	N      int
}

// Sigma2 returns the ML estimate of the innovation variance.
func (l Likelihood) Sigma2() float64 {
	if l.N == 0 {
		return 0
	}
	return l.SSQ / float64(l.N)
}

// LogLikelihood returns the concentrated Gaussian log-likelihood.
func (l Likelihood) LogLikelihood() float64 {
	n := float64(l.N)
	if l.N == 0 || l.SSQ <= 0 {
		return math.Inf(-1)
	}
	return -0.5 * (n*(math.Log(2*math.Pi)+1+math.Log(l.SSQ/n)) + l.LogDet)
}

// KalmanFilter evaluates stationary ARMA processes in Harvey's state-space form
//
//	y_t = a_t[0]
//	a_{t+1} = T a_t + R e_t
//
// with T holding the AR coefficients in its first column and R = (1, MA...).
// Gains do not depend on the data, so several series can be filtered in one
// pass, which is what GLS with ARMA errors needs.
type KalmanFilter struct {
	phi   []float64 // y_t = phi1 y_{t-1} + ... (sign-flipped AR polynomial)
	r     []float64
	dim   int
	init0 []float64 // Row-major initial state covariance
}

// NewKalmanFilter builds the filter for the stationary part of m.
// It returns ErrUnstable when the AR polynomial is not stationary.
func NewKalmanFilter(m *Model) (*KalmanFilter, error) {
	if !m.IsStable() {
		return nil, ErrUnstable
	}
	ar := m.ARPolynomial()
	ma := m.MAPolynomial()
	p, q := ar.Degree(), ma.Degree()
	dim := p
	if q+1 > dim {
		dim = q + 1
	}

	kf := &KalmanFilter{
		phi: make([]float64, dim),
		r:   make([]float64, dim),
		dim: dim,
	}
	for i := 1; i <= p; i++ {
		kf.phi[i-1] = -ar[i]
	}
	kf.r[0] = 1
	for i := 1; i <= q; i++ {
		kf.r[i] = ma[i]
	}

	init0, err := kf.initialCovariance()
	if err != nil {
		return nil, err
	}
	kf.init0 = init0
	return kf, nil
}

// initialCovariance solves P = T P T' + R R' by the doubling algorithm.
func (kf *KalmanFilter) initialCovariance() ([]float64, error) {
	n := kf.dim
	t := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		t.Set(i, 0, kf.phi[i])
		if i+1 < n {
			t.Set(i, i+1, 1)
		}
	}
	rv := mat.NewVecDense(n, kf.r)
	p := mat.NewDense(n, n, nil)
	p.Outer(1, rv, rv)

	a := mat.DenseCopyOf(t)
	var apa, tmp, next mat.Dense
	for iter := 0; iter < lyapunovIterations; iter++ {
		tmp.Mul(a, p)
		apa.Mul(&tmp, a.T())
		p.Add(p, &apa)
		if mat.Norm(&apa, math.Inf(1)) < lyapunovTolerance*math.Max(1, mat.Norm(p, math.Inf(1))) {
			return p.RawMatrix().Data, nil
		}
		next.Mul(a, a)
		a.Copy(&next)
	}
	if sum := mat.Sum(p); math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, ErrUnstable
	}
	return p.RawMatrix().Data, nil
}

// Filter runs the filter over every series (all of the same length) and
// returns their standardized innovations along with the sum of log
// prediction-error variances.
func (kf *KalmanFilter) Filter(series ...[]float64) ([][]float64, float64) {
	if len(series) == 0 {
		return nil, 0
	}
	n := len(series[0])
	dim := kf.dim

	p := append([]float64(nil), kf.init0...)
	m := make([]float64, dim*dim)
	k := make([]float64, dim)
	states := make([][]float64, len(series))
	out := make([][]float64, len(series))
	for s := range series {
		states[s] = make([]float64, dim)
		out[s] = make([]float64, n)
	}

	logdet := 0.0
	steady := false
	for t := 0; t < n; t++ {
		f := p[0]
		if f <= 0 {
			f = 1e-12
		}
		sf := math.Sqrt(f)
		logdet += math.Log(f)

		// K = T P e1 / F
		for i := 0; i < dim; i++ {
			v := kf.phi[i] * p[0]
			if i+1 < dim {
				v += p[(i+1)*dim]
			}
			k[i] = v / f
		}

		for s, y := range series {
			a := states[s]
			v := y[t] - a[0]
			out[s][t] = v / sf
			a0 := a[0]
			for i := 0; i < dim; i++ {
				next := kf.phi[i] * a0
				if i+1 < dim {
					next += a[i+1]
				}
				a[i] = next + k[i]*v
			}
		}

		if steady {
			continue
		}

		// M = T P, then P = M T' + R R' - K K' F
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				v := kf.phi[i] * p[j]
				if i+1 < dim {
					v += p[(i+1)*dim+j]
				}
				m[i*dim+j] = v
			}
		}
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				v := m[i*dim] * kf.phi[j]
				if j+1 < dim {
					v += m[i*dim+j+1]
				}
				p[i*dim+j] = v + kf.r[i]*kf.r[j] - k[i]*k[j]*f
			}
		}
		if math.Abs(p[0]-1) < steadyTolerance {
			steady = true
			p[0] = 1
		}
	}
	return out, logdet
}

// Evaluate returns the exact likelihood of a stationary, zero-mean series.
func (kf *KalmanFilter) Evaluate(w []float64) (Likelihood, []float64) {
	res, logdet := kf.Filter(w)
	e := res[0]
	ssq := 0.0
	for _, v := range e {
		ssq += v * v
	}
	return Likelihood{SSQ: ssq, LogDet: logdet, N: len(w)}, e
}
