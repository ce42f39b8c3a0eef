package sarima

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Polynomial holds the coefficients c0 + c1 z + ... + cn z^n in increasing degree.
type Polynomial []float64

// One returns the constant polynomial 1.
func One() Polynomial {
	return Polynomial{1}
}

// Degree returns the index of the highest non-zero coefficient.
func (p Polynomial) Degree() int {
	for i := len(p) - 1; i > 0; i-- {
		if p[i] != 0 {
			return i
		}
	}
	return 0
}

// Times returns the product p*q.
func (p Polynomial) Times(q Polynomial) Polynomial {
	if len(p) == 0 || len(q) == 0 {
		return nil
	}
	out := make(Polynomial, len(p)+len(q)-1)
	for i, a := range p {
		if a == 0 {
			continue
		}
		for j, b := range q {
			out[i+j] += a * b
		}
	}
	return out
}

// Evaluate returns p(x).
func (p Polynomial) Evaluate(x float64) float64 {
	v := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		v = v*x + p[i]
	}
	return v
}

// Expand returns p(z^lag), the polynomial in z obtained by spreading p's
// coefficients every lag positions.
func (p Polynomial) Expand(lag int) Polynomial {
	if lag <= 1 {
		return append(Polynomial(nil), p...)
	}
	out := make(Polynomial, (len(p)-1)*lag+1)
	for i, c := range p {
		out[i*lag] = c
	}
	return out
}

// Roots returns the complex roots of p, computed as the eigenvalues of the
// companion matrix. Constant polynomials have no roots.
func (p Polynomial) Roots() []complex128 {
	n := p.Degree()
	switch n {
	case 0:
		return nil
	case 1:
		return []complex128{complex(-p[0]/p[1], 0)}
	}

	lead := p[n]
	companion := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		companion.Set(0, j, -p[n-1-j]/lead)
	}
	for i := 1; i < n; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil
	}
	roots := eig.Values(nil)
	sort.Slice(roots, func(i, j int) bool {
		return cmplx.Abs(roots[i]) < cmplx.Abs(roots[j])
	})
	return roots
}

// InverseRoots returns 1/r for every root r of p, sorted by decreasing modulus.
// A polynomial 1 + c1 z + ... is stationary when every inverse root lies
// strictly inside the unit circle.
func (p Polynomial) InverseRoots() []complex128 {
	roots := p.Roots()
	inv := make([]complex128, 0, len(roots))
	for _, r := range roots {
		if r != 0 {
			inv = append(inv, 1/r)
		}
	}
	sort.SliceStable(inv, func(i, j int) bool {
		return cmplx.Abs(inv[i]) > cmplx.Abs(inv[j])
	})
	return inv
}

// MaxInverseRoot returns the largest modulus among the inverse roots, 0 for
// constant polynomials.
func (p Polynomial) MaxInverseRoot() float64 {
	inv := p.InverseRoots()
	if len(inv) == 0 {
		return 0
	}
	return cmplx.Abs(inv[0])
}

// IsStable reports whether all roots lie outside the circle of radius 1/limit
// i.e. every inverse root modulus is below limit. Use limit = 1 for the
// usual stationarity/invertibility condition.
func (p Polynomial) IsStable(limit float64) bool {
	switch p.Degree() {
	case 0:
		return true
	case 1:
		return math.Abs(p[1]/p[0]) < limit
	}
	return p.MaxInverseRoot() < limit
}

// Stabilize reflects every inverse root with modulus >= limit inside the unit
// circle. It returns the new polynomial (normalized with c0 = 1) and whether
// any root was changed. The reflected roots are scaled so their modulus is
// strictly below limit.
func (p Polynomial) Stabilize(limit float64) (Polynomial, bool) {
	if p.IsStable(limit) {
		return append(Polynomial(nil), p...), false
	}
	inv := p.InverseRoots()
	for i, r := range inv {
		m := cmplx.Abs(r)
		if m >= limit {
			if m > 1 {
				r = 1 / cmplx.Conj(r)
				m = cmplx.Abs(r)
			}
			if m >= limit {
				r *= complex(limit*0.99/m, 0)
			}
			inv[i] = r
		}
	}
	return FromInverseRoots(inv), true
}

// FromInverseRoots builds prod(1 - r_i z). Complex roots must come in
// conjugate pairs; the imaginary parts of the result are dropped.
func FromInverseRoots(inv []complex128) Polynomial {
	c := []complex128{1}
	for _, r := range inv {
		next := make([]complex128, len(c)+1)
		for i, v := range c {
			next[i] += v
			next[i+1] -= v * r
		}
		c = next
	}
	out := make(Polynomial, len(c))
	for i, v := range c {
		out[i] = real(v)
	}
	return out
}

// DifferencingPolynomial returns (1-z)^d (1-z^period)^bd.
func DifferencingPolynomial(d, bd, period int) Polynomial {
	p := One()
	for i := 0; i < d; i++ {
		p = p.Times(Polynomial{1, -1})
	}
	if period > 1 {
		seasonal := Polynomial{1, -1}.Expand(period)
		for i := 0; i < bd; i++ {
			p = p.Times(seasonal)
		}
	}
	return p
}
