// Package sarima provides the SARIMA model structures used by the
// identification engine.
//
// A SARIMA(p,d,q)(P,D,Q)[m] model is written with polynomials in the
// backshift operator B:
//
//	Φ(B) Φs(B^m) (1-B)^d (1-B^m)^D y_t = Θ(B) Θs(B^m) e_t
//
// All polynomials carry a leading 1 and use a plus sign for the remaining
// coefficients, so AR(1) with φ = 0.5 is stored as ARCoeffs = []float64{-0.5}.
//
// # Polynomials
//
// Polynomial is a plain coefficient slice with root finding (companion
// matrix eigenvalues), stability tests and root reflection:
//
//	p := sarima.Polynomial{1, -1.2, 0.35}
//	p.IsStable(1)            // true: inverse roots 0.7 and 0.5
//	p.MaxInverseRoot()       // 0.7
//
// # Likelihood
//
// KalmanFilter evaluates the exact Gaussian likelihood of a stationary ARMA
// process. The initial state covariance comes from the doubling algorithm
// and gains are shared between series, so regression columns can be filtered
// in the same pass as the data:
//
//	kf, err := sarima.NewKalmanFilter(model)
//	if err != nil {
//	    return err // sarima.ErrUnstable
//	}
//	ll, residuals := kf.Evaluate(w)
//	fmt.Println(ll.LogLikelihood(), ll.Sigma2())
//
// # Common Models
//
// Airline returns the (0,1,1)(0,1,1) order used as the default fallback:
//
//	model := sarima.New(sarima.Airline(12))
//	model.SetParameters([]float64{-0.6, -0.6})
package sarima
