// Package sarima implements Seasonal ARIMA (SARIMA) model structures.
package sarima

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOrder is returned for negative orders or a seasonal part without period.
	ErrInvalidOrder = errors.New("invalid SARIMA order")
	// ErrUnstable is returned when an AR polynomial has roots on or inside the unit circle.
	ErrUnstable = errors.New("non-stationary autoregressive polynomial")
)

// Order represents SARIMA model order (p, d, q) x (P, D, Q, m).
type Order struct {
	P int // Non-seasonal AR order
	D int // Non-seasonal differencing order
	Q int // Non-seasonal MA order
	// Seasonal components
	SP int // Seasonal AR order
	SD int // Seasonal differencing order
	SQ int // Seasonal MA order
	M  int // Seasonal period (e.g., 12 for monthly data with yearly seasonality)
}

// Airline returns the (0,1,1)(0,1,1) order, or (0,1,1) when period <= 1.
func Airline(period int) Order {
	if period <= 1 {
		return Order{Q: 1, D: 1, M: period}
	}
	return Order{D: 1, Q: 1, SD: 1, SQ: 1, M: period}
}

// NumParams returns the number of ARMA coefficients.
func (o Order) NumParams() int {
	return o.P + o.Q + o.SP + o.SQ
}

// Seasonal reports whether the order has any seasonal component.
func (o Order) Seasonal() bool {
	return o.M > 1 && o.SP+o.SD+o.SQ > 0
}

// SameARMA reports whether o and other have identical ARMA orders,
// ignoring differencing.
func (o Order) SameARMA(other Order) bool {
	return o.P == other.P && o.Q == other.Q && o.SP == other.SP && o.SQ == other.SQ
}

// Validate checks the order is well formed.
func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 || o.SP < 0 || o.SD < 0 || o.SQ < 0 {
		return fmt.Errorf("%w: negative order %s", ErrInvalidOrder, o)
	}
	if o.SP+o.SD+o.SQ > 0 && o.M <= 1 {
		return fmt.Errorf("%w: seasonal part needs a period > 1", ErrInvalidOrder)
	}
	return nil
}

// String formats the order as (p,d,q)(P,D,Q)[m].
func (o Order) String() string {
	if o.M <= 1 {
		return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
	}
	return fmt.Sprintf("(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

// Model represents a SARIMA model.
//
// Polynomials follow the convention
//
//	(1 + AR1 B + ...)(1 + SAR1 B^m + ...) w_t = (1 + MA1 B + ...)(1 + SMA1 B^m + ...) e_t
//
// so a unit root shows up as a lag-1 coefficient close to -1, and the airline
// model with theta = -0.6 has MACoeffs = [-0.6].
type Model struct {
	Order     Order
	ARCoeffs  []float64 // Non-seasonal AR coefficients
	MACoeffs  []float64 // Non-seasonal MA coefficients
	SARCoeffs []float64 // Seasonal AR coefficients
	SMACoeffs []float64 // Seasonal MA coefficients
}

// New creates a SARIMA model with zero coefficients.
func New(order Order) *Model {
	return &Model{
		Order:     order,
		ARCoeffs:  make([]float64, order.P),
		MACoeffs:  make([]float64, order.Q),
		SARCoeffs: make([]float64, order.SP),
		SMACoeffs: make([]float64, order.SQ),
	}
}

// Copy creates a deep copy of the model.
func (m *Model) Copy() *Model {
	return &Model{
		Order:     m.Order,
		ARCoeffs:  append([]float64(nil), m.ARCoeffs...),
		MACoeffs:  append([]float64(nil), m.MACoeffs...),
		SARCoeffs: append([]float64(nil), m.SARCoeffs...),
		SMACoeffs: append([]float64(nil), m.SMACoeffs...),
	}
}

// Parameters returns the coefficients in the order AR, SAR, MA, SMA.
func (m *Model) Parameters() []float64 {
	out := make([]float64, 0, m.Order.NumParams())
	out = append(out, m.ARCoeffs...)
	out = append(out, m.SARCoeffs...)
	out = append(out, m.MACoeffs...)
	out = append(out, m.SMACoeffs...)
	return out
}

// SetParameters stores p (AR, SAR, MA, SMA) into the model.
func (m *Model) SetParameters(p []float64) {
	i := copy(m.ARCoeffs, p)
	i += copy(m.SARCoeffs, p[i:])
	i += copy(m.MACoeffs, p[i:])
	copy(m.SMACoeffs, p[i:])
}

// RegularAR returns 1 + AR1 z + ...
func (m *Model) RegularAR() Polynomial { return withOne(m.ARCoeffs) }

// SeasonalAR returns 1 + SAR1 z + ... as a polynomial in z = B^m.
func (m *Model) SeasonalAR() Polynomial { return withOne(m.SARCoeffs) }

// RegularMA returns 1 + MA1 z + ...
func (m *Model) RegularMA() Polynomial { return withOne(m.MACoeffs) }

// SeasonalMA returns 1 + SMA1 z + ... as a polynomial in z = B^m.
func (m *Model) SeasonalMA() Polynomial { return withOne(m.SMACoeffs) }

// ARPolynomial returns the full stationary AR operator in B.
func (m *Model) ARPolynomial() Polynomial {
	return m.RegularAR().Times(m.SeasonalAR().Expand(m.Order.M))
}

// MAPolynomial returns the full MA operator in B.
func (m *Model) MAPolynomial() Polynomial {
	return m.RegularMA().Times(m.SeasonalMA().Expand(m.Order.M))
}

// DifferencingPolynomial returns (1-B)^d (1-B^m)^D.
func (m *Model) DifferencingPolynomial() Polynomial {
	return DifferencingPolynomial(m.Order.D, m.Order.SD, m.Order.M)
}

// IsStable reports whether both AR factors are stationary.
func (m *Model) IsStable() bool {
	return m.RegularAR().IsStable(1) && m.SeasonalAR().IsStable(1)
}

// IsInvertible reports whether both MA factors are invertible.
func (m *Model) IsInvertible() bool {
	return m.RegularMA().IsStable(1) && m.SeasonalMA().IsStable(1)
}

// MakeInvertible reflects non-invertible MA roots inside the unit circle, in
// both factors. It reports whether anything changed.
func (m *Model) MakeInvertible() bool {
	changed := false
	if p, ok := m.RegularMA().Stabilize(1); ok {
		setCoeffs(m.MACoeffs, p)
		changed = true
	}
	if p, ok := m.SeasonalMA().Stabilize(1); ok {
		setCoeffs(m.SMACoeffs, p)
		changed = true
	}
	return changed
}

// StabilityScore returns the largest inverse-root modulus across all AR and MA
// factors. Values close to 1 indicate quasi-unit roots.
func (m *Model) StabilityScore() float64 {
	score := 0.0
	for _, p := range []Polynomial{m.RegularAR(), m.SeasonalAR(), m.RegularMA(), m.SeasonalMA()} {
		if r := p.MaxInverseRoot(); r > score {
			score = r
		}
	}
	return score
}

// PsiWeights returns the first n coefficients of MA(B)/AR(B).
func (m *Model) PsiWeights(n int) []float64 {
	return ImpulseResponse(m.MAPolynomial(), m.ARPolynomial(), n)
}

// PiWeights returns the first n coefficients of AR(B)/MA(B).
func (m *Model) PiWeights(n int) []float64 {
	return ImpulseResponse(m.ARPolynomial(), m.MAPolynomial(), n)
}

// String formats the model order and coefficients.
func (m *Model) String() string {
	return fmt.Sprintf("%s ar=%v sar=%v ma=%v sma=%v",
		m.Order, m.ARCoeffs, m.SARCoeffs, m.MACoeffs, m.SMACoeffs)
}

// setCoeffs copies p[1:] into dst, zero-filling the tail.
func setCoeffs(dst []float64, p Polynomial) {
	for i := range dst {
		dst[i] = 0
		if i+1 < len(p) {
			dst[i] = p[i+1]
		}
	}
}

func withOne(c []float64) Polynomial {
	p := make(Polynomial, len(c)+1)
	p[0] = 1
	copy(p[1:], c)
	return p
}
