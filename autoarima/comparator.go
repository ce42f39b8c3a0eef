package autoarima

import (
	"math"

	"github.com/sartorproj/goami/regarima"
)

// Preference selects how the comparator breaks ties.
type Preference int

const (
	// PreferDiagnostics needs a strict diagnostic win to prefer a model.
	PreferDiagnostics Preference = iota
	// PreferFewerSeasonal also prefers an acceptable candidate with fewer
	// seasonal parameters.
	PreferFewerSeasonal
)

// Comparator decides between two fitted models from their statistics.
type Comparator struct {
	// KBic bounds the relative BIC deterioration accepted from a candidate.
	KBic float64
	// KLB is the ratio of Ljung-Box statistics needed to win on whiteness.
	KLB float64
	// KOut is the outlier fraction a candidate may add and still be acceptable.
	KOut float64
	// KSk is the ratio of absolute skewness needed to win on symmetry.
	KSk float64
	// KStab is the decrease of the largest inverse root needed to win on stability.
	KStab float64
	// PValue is the level under which a residual test is considered failed.
	PValue     float64
	Preference Preference
}

// NewComparator builds a comparator from the options.
func NewComparator(opts Options) Comparator {
	return Comparator{
		KBic:   opts.KBic,
		KLB:    opts.KLB,
		KOut:   opts.KOut,
		KSk:    opts.KSk,
		KStab:  opts.KStab,
		PValue: opts.LjungBoxPValue,
	}
}

// WithPreference returns a copy of c using p.
func (c Comparator) WithPreference(p Preference) Comparator {
	c.Preference = p
	return c
}

// Compare returns 1 when b is preferred to a, -1 when a is preferred to b
// and 0 otherwise. Compare(a, a) is 0 and Compare(a, b) == -Compare(b, a).
func (c Comparator) Compare(a, b regarima.Statistics) int {
	ab, ba := c.prefers(a, b), c.prefers(b, a)
	switch {
	case ab && !ba:
		return 1
	case ba && !ab:
		return -1
	}
	return 0
}

// comparison is the outcome of one named test: whether the candidate is
// acceptable and whether it strictly wins.
type comparison struct {
	name       string
	acceptable bool
	wins       bool
}

// prefers reports whether candidate b should replace reference a.
func (c Comparator) prefers(a, b regarima.Statistics) bool {
	if b.BIC > a.BIC+math.Abs(a.BIC)*c.KBic {
		return false
	}
	tests := c.tests(a, b)
	won := false
	for _, t := range tests {
		if !t.acceptable {
			return false
		}
		won = won || t.wins
	}
	if won {
		return true
	}
	return c.Preference == PreferFewerSeasonal && b.SeasonalParams < a.SeasonalParams
}

// Wins returns the names of the tests won by b against a.
func (c Comparator) Wins(a, b regarima.Statistics) []string {
	var names []string
	for _, t := range c.tests(a, b) {
		if t.wins {
			names = append(names, t.name)
		}
	}
	return names
}

func (c Comparator) tests(a, b regarima.Statistics) []comparison {
	return []comparison{
		c.whiterResiduals(a, b),
		c.fewerOutliers(a, b),
		c.whiterSeasonalResiduals(a, b),
		c.lowerSkewness(a, b),
		c.betterStability(a, b),
	}
}

func (c Comparator) whiterResiduals(a, b regarima.Statistics) comparison {
	return comparison{
		name:       "lb",
		acceptable: b.LjungBoxPValue >= c.PValue || b.LjungBox <= a.LjungBox,
		wins:       b.LjungBox < c.KLB*a.LjungBox,
	}
}

func (c Comparator) fewerOutliers(a, b regarima.Statistics) comparison {
	fa, fb := outlierFraction(a), outlierFraction(b)
	return comparison{
		name:       "outliers",
		acceptable: fb <= fa+c.KOut,
		wins:       b.OutlierCount < a.OutlierCount && fb < fa-c.KOut/2,
	}
}

func (c Comparator) whiterSeasonalResiduals(a, b regarima.Statistics) comparison {
	if a.Period <= 1 || b.Period <= 1 {
		return comparison{name: "seasonal-lb", acceptable: true}
	}
	return comparison{
		name:       "seasonal-lb",
		acceptable: b.SeasonalLjungBoxPValue >= c.PValue || b.SeasonalLjungBox <= a.SeasonalLjungBox,
		wins:       b.SeasonalLjungBox < c.KLB*a.SeasonalLjungBox,
	}
}

func (c Comparator) lowerSkewness(a, b regarima.Statistics) comparison {
	sa, sb := math.Abs(a.Skewness), math.Abs(b.Skewness)
	return comparison{
		name:       "skewness",
		acceptable: b.SkewnessPValue >= c.PValue || sb <= sa,
		wins:       sb < c.KSk*sa,
	}
}

func (c Comparator) betterStability(a, b regarima.Statistics) comparison {
	return comparison{
		name:       "stability",
		acceptable: b.StabilityScore < 1 && b.StabilityScore <= math.Max(a.StabilityScore, 1-c.KStab),
		wins:       b.StabilityScore < a.StabilityScore-c.KStab,
	}
}

func outlierFraction(s regarima.Statistics) float64 {
	if s.NObs == 0 {
		return 0
	}
	return float64(s.OutlierCount) / float64(s.NObs)
}
