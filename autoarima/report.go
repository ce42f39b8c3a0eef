package autoarima

import (
	"fmt"
	"time"

	"github.com/sartorproj/goami/regarima"
	"github.com/sartorproj/goami/timeseries"
)

// Report is the serializable summary of a Result.
type Report struct {
	ID             string              `json:"id" yaml:"id"`
	Name           string              `json:"name" yaml:"name"`
	Series         SeriesSummary       `json:"series" yaml:"series"`
	Order          string              `json:"order" yaml:"order"`
	Transformation string              `json:"transformation" yaml:"transformation"`
	Mean           *Coefficient        `json:"mean,omitempty" yaml:"mean,omitempty"`
	ARMA           []Coefficient       `json:"arma" yaml:"arma"`
	Regressors     []RegressorReport   `json:"regressors,omitempty" yaml:"regressors,omitempty"`
	Sigma2         float64             `json:"sigma2" yaml:"sigma2"`
	LogLikelihood  float64             `json:"loglik" yaml:"loglik"`
	AIC            float64             `json:"aic" yaml:"aic"`
	BIC            float64             `json:"bic" yaml:"bic"`
	Statistics     regarima.Statistics `json:"statistics" yaml:"statistics"`
	Seasonal       bool                `json:"seasonal" yaml:"seasonal"`
	Fallback       bool                `json:"fallback" yaml:"fallback"`
	Verified       bool                `json:"verified" yaml:"verified"`
	Trace          []StepResult        `json:"trace" yaml:"trace"`
	Diagnostics    []Diagnostic        `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// SeriesSummary describes the input series. Missing values are left out of
// the moments.
type SeriesSummary struct {
	Start     time.Time `json:"start" yaml:"start,omitempty"`
	Frequency int       `json:"frequency" yaml:"frequency"`
	NObs      int       `json:"nobs" yaml:"nobs"`
	Missing   int       `json:"missing" yaml:"missing"`
	Mean      float64   `json:"mean" yaml:"mean"`
	Std       float64   `json:"std" yaml:"std"`
	Min       float64   `json:"min" yaml:"min"`
}

func summarize(s *timeseries.Series) SeriesSummary {
	return SeriesSummary{
		Start:     s.Start(),
		Frequency: s.Frequency,
		NObs:      s.Len(),
		Missing:   len(s.MissingPositions()),
		Mean:      s.Mean(),
		Std:       s.Std(),
		Min:       s.Min(),
	}
}

// Coefficient is one estimated parameter.
type Coefficient struct {
	Name   string  `json:"name" yaml:"name"`
	Value  float64 `json:"value" yaml:"value"`
	StdErr float64 `json:"stderr" yaml:"stderr"`
	TStat  float64 `json:"t" yaml:"t"`
}

// RegressorReport describes one regression variable of the final model.
type RegressorReport struct {
	Name         string          `json:"name" yaml:"name"`
	Kind         regarima.Kind   `json:"kind" yaml:"kind"`
	Status       regarima.Status `json:"status" yaml:"status"`
	Coefficients []Coefficient   `json:"coefficients,omitempty" yaml:"coefficients,omitempty"`
}

// Report summarizes r.
func (r *Result) Report() Report {
	rep := Report{
		ID:             r.ID,
		Name:           r.Name,
		Series:         r.Summary,
		Order:          r.Spec.Order.String(),
		Transformation: r.Spec.Transformation.String(),
		Statistics:     r.Statistics,
		Seasonal:       r.Seasonal,
		Fallback:       r.Fallback,
		Verified:       r.Verified,
		Trace:          r.Trace,
		Diagnostics:    r.Diagnostics,
	}
	est := r.Estimation
	if est == nil {
		return rep
	}
	rep.Sigma2 = est.Sigma2
	rep.LogLikelihood = est.Criteria.LogLik
	rep.AIC = est.Criteria.AIC
	rep.BIC = est.Criteria.BIC

	if est.HasMean {
		rep.Mean = &Coefficient{Name: "mean", Value: est.Mean, StdErr: est.MeanStdErr, TStat: est.MeanTStat()}
	}
	params := est.Model.Parameters()
	tstats := est.ARMATStats()
	for i, name := range armaNames(r.Spec) {
		if i >= len(params) {
			break
		}
		c := Coefficient{Name: name, Value: params[i], TStat: tstats[i]}
		if i < len(est.ARMAStdErrors) {
			c.StdErr = est.ARMAStdErrors[i]
		}
		rep.ARMA = append(rep.ARMA, c)
	}
	for _, v := range r.Spec.Variables {
		rr := RegressorReport{Name: v.Name, Kind: v.Kind, Status: v.Status}
		if ve, ok := est.Variable(v.Name); ok {
			for i := range ve.Coefficients {
				name := v.Name
				if len(ve.Coefficients) > 1 {
					name = fmt.Sprintf("%s[%d]", v.Name, i)
				}
				rr.Coefficients = append(rr.Coefficients, Coefficient{
					Name:   name,
					Value:  ve.Coefficients[i],
					StdErr: ve.StdErrors[i],
					TStat:  ve.TStat(i),
				})
			}
		}
		rep.Regressors = append(rep.Regressors, rr)
	}
	return rep
}

// armaNames labels the parameters in the order of sarima.Model.Parameters.
func armaNames(spec *regarima.ModelSpec) []string {
	o := spec.Order
	var names []string
	for _, g := range []struct {
		prefix string
		n      int
	}{{"ar", o.P}, {"sar", o.SP}, {"ma", o.Q}, {"sma", o.SQ}} {
		for i := 1; i <= g.n; i++ {
			names = append(names, fmt.Sprintf("%s%d", g.prefix, i))
		}
	}
	return names
}
