package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// RunsTest performs the Wald-Wolfowitz runs test around the median.
// Values equal to the median are skipped. A small p-value means the signs
// are not randomly ordered.
func RunsTest(x []float64) *TestResult {
	if len(x) < 10 {
		return nil
	}
	med := Median(x)

	runs, above, below := 0, 0, 0
	last := 0
	for _, v := range x {
		sign := 0
		switch {
		case v > med:
			sign = 1
			above++
		case v < med:
			sign = -1
			below++
		default:
			continue
		}
		if sign != last {
			runs++
			last = sign
		}
	}
	if above == 0 || below == 0 {
		return nil
	}

	n1, n2 := float64(above), float64(below)
	n := n1 + n2
	mu := 2*n1*n2/n + 1
	v := 2 * n1 * n2 * (2*n1*n2 - n) / (n * n * (n - 1))
	if v <= 0 {
		return nil
	}
	z := (float64(runs) - mu) / math.Sqrt(v)
	return &TestResult{Statistic: z, PValue: twoSidedNormal(z)}
}

// MeanTest tests whether x has zero mean with a Student t statistic on n-1
// degrees of freedom.
func MeanTest(x []float64) *TestResult {
	n := len(x)
	if n < 3 {
		return nil
	}
	mean, std := stat.MeanStdDev(x, nil)
	if std == 0 {
		return nil
	}
	t := mean / (std / math.Sqrt(float64(n)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	return &TestResult{
		Statistic: t,
		PValue:    2 * dist.Survival(math.Abs(t)),
		DOF:       n - 1,
	}
}
