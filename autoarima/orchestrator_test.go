package autoarima

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goami/regarima"
	"github.com/sartorproj/goami/sarima"
)

func TestProcessFallsBackToAirline(t *testing.T) {
	f := &fakeEstimator{residuals: noise(1, 60), noHR: true}
	ctx := fakeContext(t, DefaultOptions(), f)

	res, err := Process(ctx)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, sarima.Order{D: 1, Q: 1, M: 1}, res.Spec.Order)
	assert.True(t, res.Spec.Mean)
	assert.NotNil(t, res.Estimation)
	assert.Equal(t, []StepResult{
		{Step: "loglevel", Result: Unprocessed},
		{Step: "seasonality", Result: Unprocessed},
		{Step: "differencing", Result: Unchanged},
		{Step: "arma", Result: Failed},
		{Step: "fallback", Result: Changed},
	}, res.Trace)
}

func TestFallbackKeepsPrespecifiedVariables(t *testing.T) {
	f := &fakeEstimator{residuals: noise(1, 60)}
	ctx := fakeContext(t, DefaultOptions(), f)
	require.NoError(t, ctx.Spec.Add(regarima.Variable{Name: "x", Kind: regarima.KindUser, Status: regarima.Prespecified, Columns: columns(1, 60)}))
	require.NoError(t, ctx.Spec.Add(regarima.Variable{Name: "y", Kind: regarima.KindUser, Status: regarima.Accepted, Columns: columns(1, 60)}))

	require.NoError(t, ctx.fallback())
	assert.Equal(t, 0, ctx.Spec.Index("x"))
	assert.Equal(t, -1, ctx.Spec.Index("y"))
	assert.NotNil(t, ctx.Estimation())

	f.failOn = "x"
	assert.ErrorIs(t, ctx.fallback(), ErrFallback)
}

func TestProcessWithoutAutomaticModeling(t *testing.T) {
	opts := DefaultOptions()
	opts.AutomaticModeling = false
	opts.OutlierDetection = false
	f := &fakeEstimator{residuals: noise(1, 60)}
	ctx, err := NewContext(monthly(t, positive(60)), opts, f, zerolog.Nop())
	require.NoError(t, err)

	res, err := Process(ctx)
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, sarima.Airline(12), res.Spec.Order)
	assert.True(t, res.Spec.Mean)
	assert.True(t, res.Seasonal)
	assert.Equal(t, "test", res.Name)
	assert.Equal(t, []StepResult{
		{Step: "loglevel", Result: Unprocessed},
		{Step: "outliers", Result: Unprocessed},
		{Step: "refiner", Result: Unchanged},
	}, res.Trace)
}

func TestProcessNilContext(t *testing.T) {
	_, err := Process(nil)
	assert.Error(t, err)
}

func TestIdentifyRejectsInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxD = 5
	_, err := Identify(monthly(t, positive(60)), opts)
	assert.Error(t, err)

	_, err = NewIdentifier(opts, zerolog.Nop())
	assert.Error(t, err)
}

func TestResultReport(t *testing.T) {
	spec := regarima.NewModelSpec(sarima.Order{P: 1, D: 1, Q: 1, SQ: 1, SD: 1, M: 12}, true)
	require.NoError(t, spec.Add(regarima.Variable{Name: "td", Kind: regarima.KindTradingDays, Status: regarima.Accepted, Columns: columns(2, 60)}))
	require.NoError(t, spec.Add(regarima.Variable{Name: "x", Kind: regarima.KindUser, Status: regarima.Rejected, Columns: columns(1, 60)}))

	m := sarima.New(spec.Order)
	m.SetParameters([]float64{0.3, -0.4, -0.6})
	est := &regarima.Estimation{
		Model:         m,
		ARMAStdErrors: []float64{0.1, 0.1, 0.2},
		HasMean:       true,
		Mean:          2,
		MeanStdErr:    0.5,
		Variables: []regarima.VariableEstimate{{
			Name: "td", Kind: regarima.KindTradingDays,
			Coefficients: []float64{0.4, -0.2},
			StdErrors:    []float64{0.1, 0.1},
		}},
		Sigma2: 1.5,
	}
	res := &Result{ID: "run", Name: "series", Spec: spec, Estimation: est, Seasonal: true, Verified: true,
		Trace: []StepResult{{Step: "arma", Result: Changed}}}

	rep := res.Report()
	assert.Equal(t, "run", rep.ID)
	assert.Equal(t, spec.Order.String(), rep.Order)
	assert.Equal(t, "none", rep.Transformation)
	require.NotNil(t, rep.Mean)
	assert.Equal(t, 4.0, rep.Mean.TStat)

	require.Len(t, rep.ARMA, 3)
	assert.Equal(t, []string{"ar1", "ma1", "sma1"}, []string{rep.ARMA[0].Name, rep.ARMA[1].Name, rep.ARMA[2].Name})
	assert.InDelta(t, -3.0, rep.ARMA[2].TStat, 1e-12)

	require.Len(t, rep.Regressors, 2)
	td := rep.Regressors[0]
	require.Len(t, td.Coefficients, 2)
	assert.Equal(t, "td[1]", td.Coefficients[1].Name)
	assert.InDelta(t, -2.0, td.Coefficients[1].TStat, 1e-12)
	assert.Equal(t, regarima.Rejected, rep.Regressors[1].Status)
	assert.Empty(t, rep.Regressors[1].Coefficients)

	data, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"rejected"`)
	assert.Contains(t, string(data), `"result":"changed"`)

	out, err := yaml.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(out), "kind: trading_days")
}

func TestResultReportWithoutEstimation(t *testing.T) {
	res := &Result{Spec: regarima.NewModelSpec(sarima.Airline(4), false), Fallback: true}
	rep := res.Report()
	assert.True(t, rep.Fallback)
	assert.Nil(t, rep.Mean)
	assert.Empty(t, rep.ARMA)
}

// Scenario: an airline series is identified end to end, the same way on
// every run.
func TestIdentifyAirlineSeries(t *testing.T) {
	if testing.Short() {
		t.Skip("full identification")
	}
	id, err := NewIdentifier(DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)
	y := airlineSeries(3, 120, -0.5, -0.6)

	first, err := id.Identify(monthly(t, y))
	require.NoError(t, err)
	require.NotNil(t, first.Estimation)
	require.NotEmpty(t, first.Trace)
	assert.Equal(t, StepResult{Step: "loglevel", Result: Unprocessed}, first.Trace[0])
	assert.Equal(t, 120, first.Statistics.NObs)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 1, first.Spec.Order.D)
	assert.Equal(t, 1, first.Spec.Order.SD)

	second, err := id.Identify(monthly(t, y))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Spec.String(), second.Spec.String())
	assert.Equal(t, first.Spec.DetectedOutliers(), second.Spec.DetectedOutliers())
	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}
