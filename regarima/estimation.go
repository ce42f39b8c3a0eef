package regarima

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/goami/sarima"
	"github.com/sartorproj/goami/stats"
)

// FitMode selects how much of a model is re-estimated.
type FitMode int

const (
	// FitFull estimates the ARMA parameters and the regression jointly.
	FitFull FitMode = iota
	// FitResidualsOnly keeps the ARMA parameters of the starting model and
	// only re-solves the regression.
	FitResidualsOnly
)

// Estimator is the estimation engine consumed by automatic identification.
type Estimator interface {
	// HannanRissanen returns initial ARMA estimates of a stationary series.
	HannanRissanen(order sarima.Order, w []float64) (*sarima.Model, error)
	// FastBIC returns the normalized BIC of m on the stationary series w.
	FastBIC(m *sarima.Model, w []float64) (float64, error)
	// Fit estimates spec on y. start, when not nil, provides starting (or
	// fixed, with FitResidualsOnly) ARMA parameters.
	Fit(y []float64, spec *ModelSpec, start *sarima.Model, mode FitMode) (*Estimation, error)
}

// VariableEstimate holds the coefficients of one regression variable.
type VariableEstimate struct {
	Name         string
	Kind         Kind
	Coefficients []float64
	StdErrors    []float64
	// Covariance of the coefficients, used by joint tests.
	Covariance *mat.SymDense
}

// TStat returns the t-statistic of coefficient i.
func (v VariableEstimate) TStat(i int) float64 {
	if v.StdErrors[i] == 0 {
		return 0
	}
	return v.Coefficients[i] / v.StdErrors[i]
}

// Wald returns the joint Wald statistic b' V^-1 b. The second result is
// false when the covariance is singular.
func (v VariableEstimate) Wald() (float64, bool) {
	k := len(v.Coefficients)
	if k == 0 || v.Covariance == nil {
		return 0, false
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(v.Covariance); !ok {
		return 0, false
	}
	b := mat.NewVecDense(k, append([]float64(nil), v.Coefficients...))
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, b); err != nil {
		return 0, false
	}
	return mat.Dot(b, &x), true
}

// Estimation is the fit of a ModelSpec.
type Estimation struct {
	Model *sarima.Model
	// ARMAStdErrors follows the order of sarima.Model.Parameters.
	ARMAStdErrors []float64
	// HasMean is set when the mean was estimated.
	HasMean    bool
	Mean       float64
	MeanStdErr float64
	Variables  []VariableEstimate

	Likelihood sarima.Likelihood
	Criteria   stats.InformationCriteria
	Sigma2     float64
	// Residuals are the one-step innovations of the differenced series.
	Residuals []float64
	// Linearized is the series on its original time axis with the
	// regression effects removed; the mean is kept.
	Linearized []float64
	// NParams counts ARMA parameters, regression coefficients and sigma.
	NParams   int
	Converged bool
}

// ARMATStats returns the t-statistics of the ARMA parameters.
func (e *Estimation) ARMATStats() []float64 {
	params := e.Model.Parameters()
	out := make([]float64, len(params))
	for i, p := range params {
		if i < len(e.ARMAStdErrors) && e.ARMAStdErrors[i] > 0 {
			out[i] = p / e.ARMAStdErrors[i]
		}
	}
	return out
}

// MeanTStat returns the t-statistic of the mean, 0 without mean.
func (e *Estimation) MeanTStat() float64 {
	if !e.HasMean || e.MeanStdErr == 0 {
		return 0
	}
	return e.Mean / e.MeanStdErr
}

// Variable returns the estimate of the variable called name.
func (e *Estimation) Variable(name string) (VariableEstimate, bool) {
	for _, v := range e.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return VariableEstimate{}, false
}

// BIC returns the normalized BIC.
func (e *Estimation) BIC() float64 {
	return e.Criteria.BICNorm
}

// ResidualStd returns the standard deviation of the residuals.
func (e *Estimation) ResidualStd() float64 {
	return math.Sqrt(e.Sigma2)
}
