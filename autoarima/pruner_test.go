package autoarima

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/goami/regarima"
	"github.com/sartorproj/goami/sarima"
)

func columns(k, n int) [][]float64 {
	out := make([][]float64, k)
	for i := range out {
		out[i] = noise(int64(i+1), n)
	}
	return out
}

// calendarSpec returns a specification with two trading-day columns and a
// leap-year column.
func calendarSpec(t *testing.T) *regarima.ModelSpec {
	t.Helper()
	spec := regarima.NewModelSpec(sarima.Airline(12), false)
	require.NoError(t, spec.Add(regarima.Variable{Name: "td", Kind: regarima.KindTradingDays, Status: regarima.Accepted, Columns: columns(2, 60)}))
	require.NoError(t, spec.Add(regarima.Variable{Name: "lp", Kind: regarima.KindLeapYear, Status: regarima.Accepted, Columns: columns(1, 60)}))
	return spec
}

func estimate(name string, kind regarima.Kind, tstats ...float64) regarima.VariableEstimate {
	ve := regarima.VariableEstimate{Name: name, Kind: kind}
	for _, t := range tstats {
		ve.Coefficients = append(ve.Coefficients, t)
		ve.StdErrors = append(ve.StdErrors, 1)
	}
	return ve
}

func TestPrunerLeapYearFollowsTradingDays(t *testing.T) {
	p := NewRegressionPruner(DefaultOptions())
	p.Joint = false
	spec := calendarSpec(t)

	est := &regarima.Estimation{Variables: []regarima.VariableEstimate{
		estimate("td", regarima.KindTradingDays, 0.5, 0.3),
		estimate("lp", regarima.KindLeapYear, 5),
	}}
	got := p.Decide(spec, est, 50)
	assert.Equal(t, regarima.Rejected, got["td"])
	assert.Equal(t, regarima.Rejected, got["lp"])

	est.Variables[0] = estimate("td", regarima.KindTradingDays, 3, 0.1)
	got = p.Decide(spec, est, 50)
	assert.Equal(t, regarima.Accepted, got["td"])
	assert.Equal(t, regarima.Accepted, got["lp"])
}

func TestPrunerPrespecifiedTradingDays(t *testing.T) {
	p := NewRegressionPruner(DefaultOptions())
	spec := calendarSpec(t)
	spec.Variables[0].Status = regarima.Prespecified

	est := &regarima.Estimation{Variables: []regarima.VariableEstimate{
		estimate("td", regarima.KindTradingDays, 0.5, 0.3),
		estimate("lp", regarima.KindLeapYear, 5),
	}}
	got := p.Decide(spec, est, 50)
	_, tested := got["td"]
	assert.False(t, tested)
	assert.Equal(t, regarima.Accepted, got["lp"])
}

func TestPrunerJointTest(t *testing.T) {
	spec := regarima.NewModelSpec(sarima.Airline(12), false)
	require.NoError(t, spec.Add(regarima.Variable{Name: "td", Kind: regarima.KindTradingDays, Status: regarima.Accepted, Columns: columns(6, 120)}))

	ve := estimate("td", regarima.KindTradingDays, 1.8, 1.8, 1.8, 1.8, 1.8, 1.8)
	ve.Covariance = mat.NewSymDense(6, []float64{
		1, 0, 0, 0, 0, 0,
		0, 1, 0, 0, 0, 0,
		0, 0, 1, 0, 0, 0,
		0, 0, 0, 1, 0, 0,
		0, 0, 0, 0, 1, 0,
		0, 0, 0, 0, 0, 1,
	})
	est := &regarima.Estimation{Variables: []regarima.VariableEstimate{ve}}

	// No single coefficient reaches 1.96, the six together do.
	p := NewRegressionPruner(DefaultOptions())
	assert.True(t, p.Joint)
	assert.Equal(t, regarima.Accepted, p.Decide(spec, est, 100)["td"])

	p.Joint = false
	assert.Equal(t, regarima.Rejected, p.Decide(spec, est, 100)["td"])
}

func TestPrunerRejectsUserVariable(t *testing.T) {
	f := &fakeEstimator{residuals: noise(1, 60), tstat: map[string]float64{"x": 0.5, "y": 4}}
	ctx := fakeContext(t, DefaultOptions(), f)
	for _, name := range []string{"x", "y"} {
		require.NoError(t, ctx.Spec.Add(regarima.Variable{Name: name, Kind: regarima.KindUser, Status: regarima.Accepted, Columns: columns(1, 60)}))
	}
	p := NewRegressionPruner(ctx.Options)

	assert.Equal(t, Changed, p.Process(ctx))
	assert.Equal(t, regarima.Rejected, ctx.Spec.Variables[ctx.Spec.Index("x")].Status)
	assert.Equal(t, regarima.Accepted, ctx.Spec.Variables[ctx.Spec.Index("y")].Status)
	assert.Contains(t, ctx.Diagnostics(), Diagnostic{Step: "regression", Key: "x", Value: "rejected"})

	assert.Equal(t, Unchanged, p.Process(ctx))
}

func TestPrunerMeanHysteresis(t *testing.T) {
	withMean := func(t *testing.T, meanT float64) (*Context, *fakeEstimator) {
		f := &fakeEstimator{residuals: noise(1, 60), meanT: meanT}
		ctx := fakeContext(t, DefaultOptions(), f)
		ctx.Modify(func(spec *regarima.ModelSpec) { spec.Mean = true })
		return ctx, f
	}

	t.Run("between thresholds", func(t *testing.T) {
		ctx, _ := withMean(t, 2.0)
		assert.Equal(t, Unchanged, NewRegressionPruner(ctx.Options).Process(ctx))
		assert.True(t, ctx.Spec.Mean)
	})

	t.Run("below low threshold", func(t *testing.T) {
		ctx, _ := withMean(t, 1.0)
		assert.Equal(t, Changed, NewRegressionPruner(ctx.Options).Process(ctx))
		assert.False(t, ctx.Spec.Mean)
	})

	t.Run("significant mean dropped once it falls below", func(t *testing.T) {
		ctx, f := withMean(t, 3)
		p := NewRegressionPruner(ctx.Options)
		assert.Equal(t, Unchanged, p.Process(ctx))
		assert.True(t, ctx.Spec.Mean)

		f.meanT = 1.0
		ctx.Invalidate()
		assert.Equal(t, Changed, p.Process(ctx))
		assert.False(t, ctx.Spec.Mean)
	})

	t.Run("dropped mean restored above high threshold", func(t *testing.T) {
		ctx, f := withMean(t, 1.0)
		p := NewRegressionPruner(ctx.Options)
		assert.Equal(t, Changed, p.Process(ctx))
		assert.False(t, ctx.Spec.Mean)

		f.meanT = 2.0
		assert.Equal(t, Unchanged, p.Process(ctx))
		assert.False(t, ctx.Spec.Mean)

		f.meanT = 3.0
		assert.Equal(t, Changed, p.Process(ctx))
		assert.True(t, ctx.Spec.Mean)
		assert.Contains(t, ctx.Diagnostics(), Diagnostic{Step: "regression", Key: "mean", Value: "true"})

		// Restored means follow the low threshold again.
		f.meanT = 2.0
		ctx.Invalidate()
		assert.Equal(t, Unchanged, p.Process(ctx))
		assert.True(t, ctx.Spec.Mean)
	})
}

func TestPrunerUnprocessed(t *testing.T) {
	f := &fakeEstimator{residuals: noise(1, 60)}
	ctx := fakeContext(t, DefaultOptions(), f)
	p := NewRegressionPruner(ctx.Options)
	assert.Equal(t, Unprocessed, p.Process(ctx))

	ctx.Modify(func(spec *regarima.ModelSpec) { spec.Mean = true })
	ctx.AutomaticModeling = false
	assert.Equal(t, Unprocessed, p.Process(ctx))
	assert.Zero(t, f.fits)
}
