package estimation

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/goami/sarima"
)

// glsResult is the GLS regression of a differenced series on differenced
// regressors with ARMA errors.
type glsResult struct {
	beta   []float64
	ssq    float64
	logdet float64
	// resid are the standardized innovations of the regression errors.
	resid []float64
	// z holds the filtered regressors, one column per coefficient.
	z *mat.Dense
}

// gls filters yd and every column of x through kf and solves the resulting
// least-squares problem.
func gls(kf *sarima.KalmanFilter, yd []float64, x [][]float64) (*glsResult, error) {
	series := make([][]float64, 0, len(x)+1)
	series = append(series, yd)
	series = append(series, x...)
	out, logdet := kf.Filter(series...)

	ey := out[0]
	res := &glsResult{logdet: logdet, resid: ey}
	if len(x) == 0 {
		res.ssq = floats.Dot(ey, ey)
		return res, nil
	}

	n, k := len(yd), len(x)
	z := mat.NewDense(n, k, nil)
	for j := 0; j < k; j++ {
		z.SetCol(j, out[j+1])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(z, mat.NewVecDense(n, ey)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var fit mat.VecDense
	fit.MulVec(z, &beta)
	resid := make([]float64, n)
	floats.SubTo(resid, ey, fit.RawVector().Data)

	res.beta = append([]float64(nil), beta.RawVector().Data...)
	res.ssq = floats.Dot(resid, resid)
	res.resid = resid
	res.z = z
	return res, nil
}

// regressionCovariance returns sigma2 (Z'Z)^-1.
func regressionCovariance(z *mat.Dense, sigma2 float64) (*mat.SymDense, error) {
	var ztz mat.SymDense
	ztz.SymOuterK(1, z.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&ztz); !ok {
		return nil, ErrSingular
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	inv.ScaleSym(sigma2, &inv)
	return &inv, nil
}
