package autoarima

import (
	"fmt"
	"math"

	"github.com/sartorproj/goami/regarima"
)

// Verifier is the final acceptance gate of an identified model.
type Verifier struct {
	// MaxOutlierPercent is the largest share of outliers, in percent of
	// the number of observations.
	MaxOutlierPercent int
	// PValue is the level of the normality, skewness, runs, mean and
	// seasonality tests.
	PValue float64
	// LjungBoxPValue is the level of the residual Ljung-Box test.
	LjungBoxPValue float64
}

// NewVerifier builds a verifier from the options.
func NewVerifier(opts Options) Verifier {
	return Verifier{
		MaxOutlierPercent: opts.MaxOutlierPercent,
		PValue:            opts.VerifyPValue,
		LjungBoxPValue:    opts.LjungBoxPValue,
	}
}

type check struct {
	name  string
	p     float64
	level float64
}

// Verify returns nil when the model passes every check, or an error naming
// the first failed one.
func (v Verifier) Verify(s regarima.Statistics) error {
	if s.OutlierCount*100 > v.MaxOutlierPercent*s.NObs {
		return fmt.Errorf("%d outliers for %d observations", s.OutlierCount, s.NObs)
	}
	checks := []check{
		{"normality", s.NormalityPValue, v.PValue},
		{"ljung-box", s.LjungBoxPValue, v.LjungBoxPValue},
		{"skewness", s.SkewnessPValue, v.PValue},
		{"runs", s.RunsPValue, v.PValue},
		{"mean", s.MeanPValue, v.PValue},
	}
	if s.Period > 1 {
		checks = append(checks,
			check{"seasonal-ljung-box", s.SeasonalLjungBoxPValue, v.PValue},
			check{"qs", s.QSPValue, v.PValue},
		)
	}
	for _, c := range checks {
		if math.IsNaN(c.p) || c.p < c.level {
			return fmt.Errorf("%s test failed (p=%.4f)", c.name, c.p)
		}
	}
	return nil
}

// Accept reports whether s passes Verify.
func (v Verifier) Accept(s regarima.Statistics) bool {
	return v.Verify(s) == nil
}
