package estimation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/goami/regarima"
	"github.com/sartorproj/goami/sarima"
	"github.com/sartorproj/goami/stats"
)

// penalty is returned by the objective outside the stationary and
// invertible region.
const penalty = 1e10

// startStability bounds the inverse roots of starting values.
const startStability = 0.95

// problem is one fit: the differenced series and regressors.
type problem struct {
	order sarima.Order
	yd    []float64
	x     [][]float64
	n     float64
}

// objective returns the normalized concentrated deviance ln(ssq/n) + logdet/n
// of the ARMA parameters p, with the regression concentrated out by GLS.
func (pr *problem) objective(work *sarima.Model) func([]float64) float64 {
	return func(p []float64) float64 {
		work.SetParameters(p)
		if !work.IsStable() || !work.IsInvertible() {
			return penalty
		}
		kf, err := sarima.NewKalmanFilter(work)
		if err != nil {
			return penalty
		}
		g, err := gls(kf, pr.yd, pr.x)
		if err != nil || g.ssq <= 0 {
			return penalty
		}
		return math.Log(g.ssq/pr.n) + g.logdet/pr.n
	}
}

// Fit estimates spec on y by exact maximum likelihood.
//
// The series and the regressors are differenced, the regression is solved by
// GLS with ARMA errors for each candidate set of ARMA parameters, and the
// parameters are optimized with Nelder-Mead. start provides the starting
// point (or the fixed parameters with FitResidualsOnly); when nil or of a
// different order, Hannan-Rissanen estimates on the OLS residuals are used.
func (e *Engine) Fit(y []float64, spec *regarima.ModelSpec, start *sarima.Model, mode regarima.FitMode) (*regarima.Estimation, error) {
	order := spec.Order
	if err := order.Validate(); err != nil {
		return nil, err
	}
	delta := sarima.DifferencingPolynomial(order.D, order.SD, order.M)
	yd := sarima.Difference(y, delta)

	cols := spec.Columns()
	x := make([][]float64, 0, len(cols)+1)
	if spec.Mean {
		ones := make([]float64, len(yd))
		for i := range ones {
			ones[i] = 1
		}
		x = append(x, ones)
	}
	for _, c := range cols {
		x = append(x, sarima.Difference(c, delta))
	}

	nparams := order.NumParams()
	if len(yd) <= len(x)+nparams+2 {
		return nil, fmt.Errorf("%w: %d observations for %s", ErrInsufficientData, len(y), spec)
	}
	pr := &problem{order: order, yd: yd, x: x, n: float64(len(yd))}

	model := e.startingModel(pr, start)
	converged := true
	if mode == regarima.FitFull && nparams > 0 {
		var err error
		model, converged, err = e.optimize(pr, model)
		if err != nil {
			return nil, err
		}
	}

	kf, err := sarima.NewKalmanFilter(model)
	if err != nil {
		return nil, err
	}
	g, err := gls(kf, yd, x)
	if err != nil {
		return nil, err
	}
	if g.ssq <= 0 {
		return nil, fmt.Errorf("%w: zero residual variance", ErrSingular)
	}

	n := len(yd)
	sigma2 := g.ssq / float64(n)
	est := &regarima.Estimation{
		Model:      model,
		Likelihood: sarima.Likelihood{SSQ: g.ssq, LogDet: g.logdet, N: n},
		Sigma2:     sigma2,
		Converged:  converged,
		NParams:    nparams + len(x) + 1,
	}
	est.Criteria = stats.CalculateIC(est.Likelihood.LogLikelihood(), n, est.NParams)

	scale := math.Sqrt(sigma2)
	est.Residuals = make([]float64, n)
	floats.ScaleTo(est.Residuals, scale, g.resid)

	if nparams > 0 {
		est.ARMAStdErrors = e.armaStdErrors(pr, model)
	}

	if len(x) > 0 {
		cov, err := regressionCovariance(g.z, sigma2)
		if err != nil {
			return nil, err
		}
		fillRegression(est, spec, g.beta, cov)
	}

	est.Linearized = linearize(y, spec, est)
	return est, nil
}

// startingModel returns a stationary and invertible starting point.
func (e *Engine) startingModel(pr *problem, start *sarima.Model) *sarima.Model {
	if start != nil && start.Order.SameARMA(pr.order) && start.Order.M == pr.order.M {
		m := start.Copy()
		m.Order = pr.order
		return m
	}

	u := pr.yd
	if len(pr.x) > 0 {
		if g, err := gls(whiteNoiseFilter(), pr.yd, pr.x); err == nil {
			u = g.resid
		}
	}
	m, err := e.HannanRissanen(pr.order, u)
	if err != nil {
		e.logger.Debug().Err(err).Str("order", pr.order.String()).Msg("hannan-rissanen failed, starting from zero")
		return sarima.New(pr.order)
	}
	stabilize(m, startStability)
	return m
}

// stabilize pulls every AR and MA factor inside the circle of radius limit.
func stabilize(m *sarima.Model, limit float64) {
	pairs := []struct {
		poly  sarima.Polynomial
		coefs []float64
	}{
		{m.RegularAR(), m.ARCoeffs},
		{m.SeasonalAR(), m.SARCoeffs},
		{m.RegularMA(), m.MACoeffs},
		{m.SeasonalMA(), m.SMACoeffs},
	}
	for _, p := range pairs {
		if s, changed := p.poly.Stabilize(limit); changed {
			for i := range p.coefs {
				p.coefs[i] = 0
				if i+1 < len(s) {
					p.coefs[i] = s[i+1]
				}
			}
		}
	}
}

func whiteNoiseFilter() *sarima.KalmanFilter {
	kf, _ := sarima.NewKalmanFilter(sarima.New(sarima.Order{}))
	return kf
}

// optimize maximizes the likelihood starting from m.
func (e *Engine) optimize(pr *problem, m *sarima.Model) (*sarima.Model, bool, error) {
	work := m.Copy()
	f := pr.objective(work)
	x0 := m.Parameters()
	f0 := f(x0)

	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   e.cfg.Tolerance,
			Iterations: e.cfg.StallIterations,
		},
		FuncEvaluations: e.cfg.MaxEvaluations,
	}
	res, err := optimize.Minimize(optimize.Problem{Func: f}, x0, settings, &optimize.NelderMead{SimplexSize: 0.1})
	if res == nil {
		return nil, false, fmt.Errorf("%w: %v", ErrNotConverged, err)
	}
	converged := err == nil && !res.Status.Early()

	best := x0
	if res.F < f0 {
		best = res.X
	}
	if f(best) >= penalty {
		return nil, false, fmt.Errorf("%w: no admissible parameters for %s", ErrNotConverged, pr.order)
	}
	out := m.Copy()
	out.SetParameters(best)
	if !converged {
		e.logger.Debug().
			Str("order", pr.order.String()).
			Str("status", res.Status.String()).
			Int("evaluations", res.FuncEvaluations).
			Msg("likelihood optimization stopped early")
	}
	return out, converged, nil
}

// armaStdErrors returns standard errors of the ARMA parameters from the
// numerical Hessian of the concentrated log-likelihood. When the Hessian is
// not positive definite the asymptotic value sqrt((1-p²)/n) is used.
func (e *Engine) armaStdErrors(pr *problem, m *sarima.Model) []float64 {
	p := m.Parameters()
	k := len(p)
	out := make([]float64, k)
	fallback := func() []float64 {
		for i, v := range p {
			out[i] = math.Sqrt(math.Max(1-v*v, 1e-4) / pr.n)
		}
		return out
	}

	work := m.Copy()
	f := pr.objective(work)
	var h mat.SymDense
	fd.Hessian(&h, f, p, &fd.Settings{Formula: fd.Central})
	// -loglik = n/2 * objective + const
	h.ScaleSym(pr.n/2, &h)
	for i := 0; i < k; i++ {
		if v := h.At(i, i); math.IsNaN(v) || math.IsInf(v, 0) || v > penalty {
			return fallback()
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&h); !ok {
		return fallback()
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return fallback()
	}
	for i := 0; i < k; i++ {
		v := cov.At(i, i)
		if v <= 0 {
			return fallback()
		}
		out[i] = math.Sqrt(v)
	}
	return out
}

// fillRegression splits the GLS coefficients into the mean and the
// estimates of each variable.
func fillRegression(est *regarima.Estimation, spec *regarima.ModelSpec, beta []float64, cov *mat.SymDense) {
	j := 0
	if spec.Mean {
		est.HasMean = true
		est.Mean = beta[0]
		est.MeanStdErr = math.Sqrt(cov.At(0, 0))
		j = 1
	}
	for _, v := range spec.Active() {
		idx := make([]int, v.Dim())
		ve := regarima.VariableEstimate{
			Name:         v.Name,
			Kind:         v.Kind,
			Coefficients: make([]float64, v.Dim()),
			StdErrors:    make([]float64, v.Dim()),
		}
		for c := 0; c < v.Dim(); c++ {
			idx[c] = j
			ve.Coefficients[c] = beta[j]
			ve.StdErrors[c] = math.Sqrt(math.Max(cov.At(j, j), 0))
			j++
		}
		var sub mat.SymDense
		sub.SubsetSym(cov, idx)
		ve.Covariance = &sub
		est.Variables = append(est.Variables, ve)
	}
}

// linearize removes the regression effects (mean excluded) from y.
func linearize(y []float64, spec *regarima.ModelSpec, est *regarima.Estimation) []float64 {
	lin := append([]float64(nil), y...)
	for _, v := range spec.Active() {
		ve, ok := est.Variable(v.Name)
		if !ok {
			continue
		}
		for c, col := range v.Columns {
			floats.AddScaled(lin, -ve.Coefficients[c], col)
		}
	}
	return lin
}
