package autoarima

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goami/estimation"
	"github.com/sartorproj/goami/sarima"
)

func cand(p, q int, bic float64) Candidate {
	return Candidate{Order: sarima.Order{P: p, Q: q, M: 1}, BIC: bic}
}

func TestSelectBestParsimony(t *testing.T) {
	s := NewArmaSearch(DefaultOptions())

	// One parameter saved, BIC loss above the scaled tolerance.
	got := s.selectBest([]Candidate{cand(1, 1, 1.000), cand(0, 1, 1.005)})
	assert.Equal(t, sarima.Order{P: 1, Q: 1, M: 1}, got.Order)

	// Within the tolerance.
	got = s.selectBest([]Candidate{cand(1, 1, 1.000), cand(0, 1, 1.003)})
	assert.Equal(t, sarima.Order{Q: 1, M: 1}, got.Order)

	// Same size, fewer AR terms.
	got = s.selectBest([]Candidate{cand(1, 0, 1.000), cand(0, 1, 1.001)})
	assert.Equal(t, sarima.Order{Q: 1, M: 1}, got.Order)

	// Larger models never replace the best.
	got = s.selectBest([]Candidate{cand(0, 1, 1.000), cand(2, 1, 1.0001)})
	assert.Equal(t, sarima.Order{Q: 1, M: 1}, got.Order)
}

func TestSelectBestWhiteNoise(t *testing.T) {
	s := NewArmaSearch(DefaultOptions())
	survivors := []Candidate{cand(0, 0, 0.9), cand(0, 1, 1.0), cand(1, 0, 1.1)}

	got := s.selectBest(survivors)
	assert.Equal(t, sarima.Order{Q: 1, M: 1}, got.Order)

	s.AcceptWhiteNoise = true
	got = s.selectBest(survivors)
	assert.Equal(t, sarima.Order{M: 1}, got.Order)
}

func TestMergeCandidates(t *testing.T) {
	list := []Candidate{cand(0, 1, 1.0)}
	out := merge(list, []Candidate{cand(0, 1, 0.5), cand(1, 0, 0.8), cand(2, 0, 1.2)}, 0)
	require.Len(t, out, 3)
	assert.Equal(t, cand(1, 0, 0.8), out[0])
	assert.Equal(t, cand(0, 1, 1.0), out[1])
	assert.Equal(t, cand(2, 0, 1.2), out[2])

	out = merge(list, []Candidate{cand(1, 0, 0.8), cand(2, 0, 1.2)}, 2)
	assert.Equal(t, []Candidate{cand(1, 0, 0.8), cand(0, 1, 1.0)}, out)
}

func TestArmaSearchGridSize(t *testing.T) {
	f := &fakeEstimator{residuals: noise(1, 60)}
	s := NewArmaSearch(DefaultOptions())

	res, err := s.Search(f, noise(2, 60), 1, 1, 12, true)
	require.NoError(t, err)
	// Seasonal pre-search, regular grid, seasonal grid.
	assert.Equal(t, 4+16+4, res.ModelsEvaluated)
	assert.Len(t, res.Survivors, s.MaxSurvivors)
	for _, c := range res.Survivors {
		assert.Equal(t, 1, c.Order.D)
		assert.Equal(t, 1, c.Order.SD)
	}

	res, err = s.Search(f, noise(2, 60), 0, 1, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 16, res.ModelsEvaluated)
	assert.Equal(t, 0, res.Best.Order.SD)
}

func TestArmaSearchNoCandidate(t *testing.T) {
	f := &fakeEstimator{residuals: noise(1, 60), noHR: true}
	_, err := NewArmaSearch(DefaultOptions()).Search(f, noise(2, 60), 0, 0, 1, false)
	assert.ErrorIs(t, err, ErrNoStableModel)

	ctx := fakeContext(t, DefaultOptions(), f)
	assert.Equal(t, Failed, NewArmaSearch(ctx.Options).Process(ctx))
}

// Scenario: the orders of simulated airline series are recovered from their
// stationary transform.
func TestArmaSearchAirline(t *testing.T) {
	if testing.Short() {
		t.Skip("hannan-rissanen grid")
	}
	opts := DefaultOptions()
	est := estimation.New(opts.Estimation, zerolog.Nop())
	airline := sarima.Order{Q: 1, SQ: 1}

	var found []string
	exact := 0
	for seed := int64(10); seed < 15; seed++ {
		y := airlineSeries(seed, 120, -0.5, -0.6)
		w := sarima.Difference(y, sarima.DifferencingPolynomial(1, 1, 12))

		res, err := NewArmaSearch(opts).Search(est, w, 1, 1, 12, true)
		require.NoError(t, err)
		require.NotEmpty(t, res.Survivors)
		for i, c := range res.Survivors {
			assert.True(t, c.Model.IsStable(), c.Order.String())
			assert.True(t, c.Model.IsInvertible(), c.Order.String())
			if i > 0 {
				assert.LessOrEqual(t, res.Survivors[i-1].BIC, c.BIC)
			}
		}

		best := res.Best.Order
		assert.Equal(t, 1, best.D)
		assert.Equal(t, 1, best.SD)
		assert.Equal(t, 1, best.SQ, "seed %d: %s", seed, best)
		found = append(found, best.String())
		if best.P == airline.P && best.Q == airline.Q && best.SP == airline.SP && best.SQ == airline.SQ {
			exact++
		}
	}
	// One sampling miss in five is tolerated.
	assert.GreaterOrEqual(t, exact, 4, "orders found: %v", found)
}
