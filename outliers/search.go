package outliers

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/sartorproj/goami/sarima"
)

// Exclusions marks positions and (type, position) pairs that the search must
// skip. Lookups are O(1).
type Exclusions struct {
	n         int
	positions []bool
	cells     []bool
}

// NewExclusions returns an empty exclusion table for a series of length n.
func NewExclusions(n int) *Exclusions {
	return &Exclusions{
		n:         n,
		positions: make([]bool, n),
		cells:     make([]bool, n*int(numTypes)),
	}
}

// ExcludePosition removes pos from the search for every outlier type.
func (e *Exclusions) ExcludePosition(pos int) {
	if pos >= 0 && pos < e.n {
		e.positions[pos] = true
	}
}

// Exclude removes a single (type, position) pair from the search.
func (e *Exclusions) Exclude(o Outlier) {
	if i := e.index(o); i >= 0 {
		e.cells[i] = true
	}
}

// Include reverts Exclude for o. Position-wide exclusions are kept.
func (e *Exclusions) Include(o Outlier) {
	if i := e.index(o); i >= 0 {
		e.cells[i] = false
	}
}

// IsExcluded reports whether o must be skipped.
func (e *Exclusions) IsExcluded(o Outlier) bool {
	if o.Position < 0 || o.Position >= e.n {
		return true
	}
	return e.positions[o.Position] || e.cells[e.index(o)]
}

// Copy returns an independent copy of e.
func (e *Exclusions) Copy() *Exclusions {
	return &Exclusions{
		n:         e.n,
		positions: append([]bool(nil), e.positions...),
		cells:     append([]bool(nil), e.cells...),
	}
}

func (e *Exclusions) index(o Outlier) int {
	if o.Position < 0 || o.Position >= e.n || o.Type < 0 || o.Type >= numTypes {
		return -1
	}
	return int(o.Type)*e.n + o.Position
}

// Candidate is the best outlier found by a search.
type Candidate struct {
	Outlier
	Coefficient float64
	TStat       float64
}

// memoryTolerance is the relative size below which the tail of a filtered
// regressor is ignored.
const memoryTolerance = 1e-9

// Search scans every admissible (type, position) pair and returns the one
// with the largest |t|-statistic.
//
// residuals are the innovations AR(B)δ(B)/MA(B) y of the linearized series
// y under m, so residuals[i] refers to observation i+nd where nd is the
// degree of the differencing operator. scale is the residual standard error
// (robust or not). The second result is false when nothing can be tested.
func Search(residuals []float64, m *sarima.Model, factories []Factory, ex *Exclusions, scale float64) (Candidate, bool) {
	var best Candidate
	found := false
	if scale <= 0 || len(residuals) == 0 {
		return best, false
	}

	nd := m.DifferencingPolynomial().Degree()
	n := len(residuals) + nd

	for _, f := range factories {
		start, end := f.DefinitionDomain(n, nd)
		if start >= end {
			continue
		}
		h := f.FilterRepresentation(m, n-start)
		mem := effectiveMemory(h)

		cum := make([]float64, len(h)+1)
		for k, v := range h {
			cum[k+1] = cum[k] + v*v
		}

		for pos := start; pos < end; pos++ {
			o := f.Instantiate(pos)
			if ex != nil && ex.IsExcluded(o) {
				continue
			}
			i0 := pos - nd
			w := n - pos
			if w > mem {
				w = mem
			}
			sxx := cum[w]
			if sxx <= 1e-12 {
				continue
			}
			sxy := floats.Dot(h[:w], residuals[i0:i0+w])
			coef := sxy / sxx
			t := coef * math.Sqrt(sxx) / scale
			if !found || math.Abs(t) > math.Abs(best.TStat) {
				best = Candidate{Outlier: o, Coefficient: coef, TStat: t}
				found = true
			}
		}
	}
	return best, found
}

// effectiveMemory returns the length of h once its negligible tail is cut.
func effectiveMemory(h []float64) int {
	if len(h) == 0 {
		return 0
	}
	hmax := floats.Norm(h, math.Inf(1))
	mem := len(h)
	for mem > 1 && math.Abs(h[mem-1]) <= memoryTolerance*hmax {
		mem--
	}
	return mem
}
