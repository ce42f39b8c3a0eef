package estimation

import "github.com/sartorproj/goami/stats"

// yuleWalker estimates AR coefficients phi (x_t = sum phi_i x_{t-i} + e_t)
// from autocorrelations with the Levinson-Durbin recursion.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	next := make([]float64, order)
	for i := 1; i < order; i++ {
		if v <= 0 {
			break
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next[:i+1])

		v *= 1 - lambda*lambda
	}

	return phi
}

// longARResiduals fits AR(order) by Yule-Walker and returns its residuals.
// The first order values are zero.
func longARResiduals(w []float64, order int) []float64 {
	acf := stats.ACF(w, order)
	if acf == nil {
		return nil
	}
	phi := yuleWalker(acf, order)
	a := make([]float64, len(w))
	for t := order; t < len(w); t++ {
		v := w[t]
		for i, p := range phi {
			v -= p * w[t-i-1]
		}
		a[t] = v
	}
	return a
}
