package regarima

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/goami/outliers"
	"github.com/sartorproj/goami/sarima"
	"github.com/sartorproj/goami/stats"
)

func outlierVar(t *testing.T, typ outliers.Type, pos int, status Status) Variable {
	t.Helper()
	v, err := NewOutlierVariable(outliers.Outlier{Type: typ, Position: pos}, 40, 4, 0.7, status)
	require.NoError(t, err)
	return v
}

func TestKindAndStatusText(t *testing.T) {
	assert.Equal(t, "trading_days", KindTradingDays.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
	b, err := Rejected.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "rejected", string(b))
	assert.True(t, ToRemove.IsActive())
	assert.False(t, Rejected.IsActive())
	assert.Equal(t, "log", TransformLog.String())
}

func TestOutlierVariable(t *testing.T) {
	v := outlierVar(t, outliers.LS, 10, Accepted)
	assert.Equal(t, "LS(10)", v.Name)
	assert.Equal(t, KindOutlier, v.Kind)
	require.Equal(t, 1, v.Dim())
	assert.Equal(t, 0.0, v.Columns[0][9])
	assert.Equal(t, 1.0, v.Columns[0][10])
	assert.Equal(t, 1.0, v.Columns[0][39])

	_, err := NewOutlierVariable(outliers.Outlier{Type: outliers.Type(99), Position: 1}, 40, 4, 0.7, Accepted)
	assert.Error(t, err)
}

func TestRampVariable(t *testing.T) {
	v := NewRampVariable(2, 6, 10)
	assert.Equal(t, "rp(2-6)", v.Name)
	assert.Equal(t, KindRamp, v.Kind)
	col := v.Columns[0]
	assert.Equal(t, -1.0, col[0])
	assert.Equal(t, -1.0, col[2])
	assert.InDelta(t, -0.5, col[4], 1e-12)
	assert.Equal(t, 0.0, col[6])
	assert.Equal(t, 0.0, col[9])
}

func TestModelSpecVariables(t *testing.T) {
	s := NewModelSpec(sarima.Airline(4), true)
	require.NoError(t, s.Add(outlierVar(t, outliers.AO, 5, Prespecified)))
	require.NoError(t, s.Add(outlierVar(t, outliers.LS, 12, Accepted)))
	require.NoError(t, s.Add(outlierVar(t, outliers.TC, 20, Rejected)))
	assert.Error(t, s.Add(outlierVar(t, outliers.LS, 12, Accepted)))

	assert.Equal(t, 3, s.NumRegressors())
	assert.Len(t, s.Columns(), 2)
	assert.Len(t, s.Active(), 2)
	assert.Len(t, s.Outliers(), 2)
	assert.Equal(t, []outliers.Outlier{{Type: outliers.LS, Position: 12}}, s.DetectedOutliers())
	assert.False(t, s.HasOutlier(outliers.Outlier{Type: outliers.TC, Position: 20}))
	assert.True(t, s.HasOutlier(outliers.Outlier{Type: outliers.AO, Position: 5}))
	assert.Equal(t, []int{0, 1, 2}, s.OfKind(KindOutlier))
	assert.Empty(t, s.OfKind(KindEaster))

	assert.True(t, s.SetStatus("TC(20)", Accepted))
	assert.False(t, s.SetStatus("TC(20)", Accepted))
	assert.False(t, s.SetStatus("missing", Accepted))
	assert.Equal(t, 4, s.NumRegressors())

	c := s.Copy()
	assert.True(t, c.Remove("LS(12)"))
	assert.False(t, c.Remove("LS(12)"))
	assert.Equal(t, 1, s.Index("LS(12)"))
	assert.Equal(t, -1, c.Index("LS(12)"))

	assert.Equal(t, 2, s.RemoveDetectedOutliers())
	require.Len(t, s.Variables, 1)
	assert.Equal(t, "AO(5)", s.Variables[0].Name)
	assert.Contains(t, s.String(), "mean")
}

func TestVariableEstimateWald(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{
		1, 0,
		0, 4,
	})
	v := VariableEstimate{
		Coefficients: []float64{2, 4},
		StdErrors:    []float64{1, 2},
		Covariance:   cov,
	}
	assert.Equal(t, 2.0, v.TStat(0))
	assert.Equal(t, 2.0, v.TStat(1))
	w, ok := v.Wald()
	require.True(t, ok)
	assert.InDelta(t, 8, w, 1e-12)

	singular := VariableEstimate{
		Coefficients: []float64{1, 1},
		StdErrors:    []float64{1, 1},
		Covariance:   mat.NewSymDense(2, []float64{1, 1, 1, 1}),
	}
	_, ok = singular.Wald()
	assert.False(t, ok)

	zero := VariableEstimate{Coefficients: []float64{1}, StdErrors: []float64{0}}
	assert.Equal(t, 0.0, zero.TStat(0))
}

func TestEstimationAccessors(t *testing.T) {
	m := sarima.New(sarima.Order{P: 1, Q: 1})
	m.SetParameters([]float64{-0.5, 0.2})
	est := &Estimation{
		Model:         m,
		ARMAStdErrors: []float64{0.1, 0},
		HasMean:       true,
		Mean:          3,
		MeanStdErr:    1.5,
		Criteria:      stats.InformationCriteria{BICNorm: 0.25},
		Sigma2:        4,
		Variables:     []VariableEstimate{{Name: "AO(3)"}},
	}
	assert.InDeltaSlice(t, []float64{-5, 0}, est.ARMATStats(), 1e-12)
	assert.Equal(t, 2.0, est.MeanTStat())
	assert.Equal(t, 0.25, est.BIC())
	assert.Equal(t, 2.0, est.ResidualStd())
	_, ok := est.Variable("AO(3)")
	assert.True(t, ok)
	_, ok = est.Variable("LS(3)")
	assert.False(t, ok)
}

func TestComputeStatistics(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	res := make([]float64, 120)
	for i := range res {
		res[i] = rng.NormFloat64()
	}
	spec := NewModelSpec(sarima.Airline(12), false)
	v, err := NewOutlierVariable(outliers.Outlier{Type: outliers.AO, Position: 30}, 133, 12, 0.7, Accepted)
	require.NoError(t, err)
	require.NoError(t, spec.Add(v))

	m := sarima.New(spec.Order)
	m.SetParameters([]float64{-0.3, -0.5})
	est := &Estimation{Model: m, Residuals: res, Criteria: stats.InformationCriteria{BICNorm: 1.2}}

	s := ComputeStatistics(spec, est, 133, 12)
	assert.Equal(t, 1.2, s.BIC)
	assert.Equal(t, 1, s.OutlierCount)
	assert.Equal(t, 133, s.NObs)
	// Airline: SQ and SD.
	assert.Equal(t, 2, s.SeasonalParams)
	assert.InDelta(t, 0.5, s.StabilityScore, 1e-9)
	assert.Greater(t, s.LjungBoxPValue, 0.01)
	assert.Greater(t, s.NormalityPValue, 0.01)
	assert.Greater(t, s.SeasonalLjungBoxPValue, 0.0)
	assert.InDelta(t, 2, s.DurbinWatson, 0.5)
	assert.False(t, math.IsNaN(s.QSPValue))

	flat := ComputeStatistics(NewModelSpec(sarima.Order{Q: 1}, true), &Estimation{Model: sarima.New(sarima.Order{Q: 1}), Residuals: res}, 120, 1)
	assert.Equal(t, 1.0, flat.SeasonalLjungBoxPValue)
	assert.Equal(t, 1.0, flat.QSPValue)
	assert.Equal(t, 0, flat.SeasonalParams)
}

func TestLjungBoxLags(t *testing.T) {
	assert.Equal(t, 8, LjungBoxLags(1))
	assert.Equal(t, 8, LjungBoxLags(4))
	assert.Equal(t, 24, LjungBoxLags(12))
}
