package regarima

import (
	"github.com/sartorproj/goami/stats"
)

// Statistics is a read-only summary of an estimation, used to compare and
// verify models.
type Statistics struct {
	BIC float64 `json:"bic" yaml:"bic"` // Normalized BIC

	LjungBox               float64 `json:"ljung_box" yaml:"ljung_box"`
	LjungBoxPValue         float64 `json:"ljung_box_pvalue" yaml:"ljung_box_pvalue"`
	SeasonalLjungBox       float64 `json:"seasonal_ljung_box" yaml:"seasonal_ljung_box"`
	SeasonalLjungBoxPValue float64 `json:"seasonal_ljung_box_pvalue" yaml:"seasonal_ljung_box_pvalue"`

	Skewness        float64 `json:"skewness" yaml:"skewness"`
	SkewnessPValue  float64 `json:"skewness_pvalue" yaml:"skewness_pvalue"`
	Kurtosis        float64 `json:"kurtosis" yaml:"kurtosis"`
	Normality       float64 `json:"normality" yaml:"normality"` // Doornik-Hansen
	NormalityPValue float64 `json:"normality_pvalue" yaml:"normality_pvalue"`
	RunsPValue      float64 `json:"runs_pvalue" yaml:"runs_pvalue"`
	MeanPValue      float64 `json:"mean_pvalue" yaml:"mean_pvalue"`
	QSPValue        float64 `json:"qs_pvalue" yaml:"qs_pvalue"`
	DurbinWatson    float64 `json:"durbin_watson" yaml:"durbin_watson"`

	OutlierCount   int     `json:"outliers" yaml:"outliers"`
	NObs           int     `json:"nobs" yaml:"nobs"`
	StabilityScore float64 `json:"stability" yaml:"stability"`
	SeasonalParams int     `json:"seasonal_params" yaml:"seasonal_params"`
	Period         int     `json:"period" yaml:"period"`
}

// LjungBoxLags returns the number of autocorrelations used by the residual
// Ljung-Box test for a given period.
func LjungBoxLags(period int) int {
	if 2*period > 8 {
		return 2 * period
	}
	return 8
}

// ComputeStatistics derives the statistics snapshot of est for a series of
// nobs observations. Tests that cannot be computed report a p-value of 1.
func ComputeStatistics(spec *ModelSpec, est *Estimation, nobs, period int) Statistics {
	res := est.Residuals
	o := spec.Order
	s := Statistics{
		BIC:            est.BIC(),
		OutlierCount:   len(spec.DetectedOutliers()),
		NObs:           nobs,
		StabilityScore: est.Model.StabilityScore(),
		SeasonalParams: o.SP + o.SQ + o.SD,
		Period:         period,
		Skewness:       stats.Skewness(res),
		Kurtosis:       stats.Kurtosis(res),
		DurbinWatson:   stats.DurbinWatson(res),
	}

	s.LjungBox, s.LjungBoxPValue = pair(stats.LjungBox(res, LjungBoxLags(period), o.NumParams()))
	_, s.SkewnessPValue = pair(stats.SkewnessTest(res))
	s.Normality, s.NormalityPValue = pair(stats.DoornikHansen(res))
	_, s.RunsPValue = pair(stats.RunsTest(res))
	_, s.MeanPValue = pair(stats.MeanTest(res))
	if period > 1 {
		s.SeasonalLjungBox, s.SeasonalLjungBoxPValue = pair(stats.SeasonalLjungBox(res, period, 2, 0))
		_, s.QSPValue = pair(stats.QS(res, period))
	} else {
		s.SeasonalLjungBoxPValue = 1
		s.QSPValue = 1
	}
	return s
}

func pair(r *stats.TestResult) (float64, float64) {
	if r == nil {
		return 0, 1
	}
	return r.Statistic, r.PValue
}
