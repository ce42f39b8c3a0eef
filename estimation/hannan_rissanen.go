package estimation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goami/sarima"
)

// HannanRissanen returns initial ARMA estimates of the stationary series w.
//
// A long autoregression approximates the innovations, then w is regressed on
// its own lags and on lagged innovations. Lags of the regular and seasonal
// factors enter separately, with their cross products as free regressors.
// The returned model may be non-stationary or non-invertible.
func (e *Engine) HannanRissanen(order sarima.Order, w []float64) (*sarima.Model, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	m := sarima.New(order)
	if order.NumParams() == 0 {
		return m, nil
	}
	n := len(w)
	period := order.M
	if period < 1 {
		period = 1
	}

	mean := stat.Mean(w, nil)
	wc := make([]float64, n)
	for i, v := range w {
		wc[i] = v - mean
	}

	arLags := factorLags(order.P, order.SP, period)
	maLags := factorLags(order.Q, order.SQ, period)
	maxAR := maxLag(arLags)
	maxMA := maxLag(maLags)

	var a []float64
	start := maxAR
	if len(maLags) > 0 {
		long := int(math.Max(float64(2*max(maxAR, maxMA)), math.Pow(math.Log(float64(n)), 2)))
		if long > n/4 {
			long = n / 4
		}
		if long <= maxMA {
			return nil, fmt.Errorf("%w: %d observations for %s", ErrInsufficientData, n, order)
		}
		a = longARResiduals(wc, long)
		if a == nil {
			return nil, fmt.Errorf("%w: constant series", ErrSingular)
		}
		start = max(start, long+maxMA)
	}

	cols := len(arLags) + len(maLags)
	rows := n - start
	if rows <= cols+2 {
		return nil, fmt.Errorf("%w: %d observations for %s", ErrInsufficientData, n, order)
	}

	x := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := start + r
		y.SetVec(r, wc[t])
		j := 0
		for _, l := range arLags {
			x.Set(r, j, wc[t-l.lag])
			j++
		}
		for _, l := range maLags {
			x.Set(r, j, a[t-l.lag])
			j++
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	j := 0
	for _, l := range arLags {
		assign(m.ARCoeffs, m.SARCoeffs, l, -beta.AtVec(j))
		j++
	}
	for _, l := range maLags {
		assign(m.MACoeffs, m.SMACoeffs, l, beta.AtVec(j))
		j++
	}
	return m, nil
}

// lagTerm is one regressor of the second Hannan-Rissanen stage.
type lagTerm struct {
	lag      int
	regular  int // 1-based regular index, 0 if not a pure regular lag
	seasonal int // 1-based seasonal index, 0 if not a pure seasonal lag
}

// factorLags lists the lags of (1 + ... B^p)(1 + ... B^(sp*period)),
// including cross products.
func factorLags(p, sp, period int) []lagTerm {
	var out []lagTerm
	for i := 1; i <= p; i++ {
		out = append(out, lagTerm{lag: i, regular: i})
	}
	for j := 1; j <= sp; j++ {
		out = append(out, lagTerm{lag: j * period, seasonal: j})
		for i := 1; i <= p; i++ {
			out = append(out, lagTerm{lag: j*period + i})
		}
	}
	return out
}

func maxLag(terms []lagTerm) int {
	m := 0
	for _, t := range terms {
		m = max(m, t.lag)
	}
	return m
}

func assign(regular, seasonal []float64, l lagTerm, v float64) {
	switch {
	case l.regular > 0:
		regular[l.regular-1] = v
	case l.seasonal > 0:
		seasonal[l.seasonal-1] = v
	}
}

// FastBIC returns the normalized BIC ln(ssq/n) + logdet/n + k ln(n)/n of m
// on the stationary series w, after removing its mean.
func (e *Engine) FastBIC(m *sarima.Model, w []float64) (float64, error) {
	n := len(w)
	if n == 0 {
		return 0, ErrInsufficientData
	}
	kf, err := sarima.NewKalmanFilter(m)
	if err != nil {
		return 0, err
	}
	mean := stat.Mean(w, nil)
	wc := make([]float64, n)
	for i, v := range w {
		wc[i] = v - mean
	}
	ll, _ := kf.Evaluate(wc)
	if ll.SSQ <= 0 {
		return 0, fmt.Errorf("%w: zero residual variance", ErrSingular)
	}
	nf := float64(n)
	k := float64(m.Order.NumParams())
	return math.Log(ll.SSQ/nf) + ll.LogDet/nf + k*math.Log(nf)/nf, nil
}
