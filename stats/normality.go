package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Skewness returns the sample skewness of x.
func Skewness(x []float64) float64 {
	if len(x) < 3 {
		return 0
	}
	return stat.Skew(x, nil)
}

// Kurtosis returns the sample excess kurtosis of x.
func Kurtosis(x []float64) float64 {
	if len(x) < 4 {
		return 0
	}
	return stat.ExKurtosis(x, nil)
}

// SkewnessTest tests for zero skewness with the statistic S*sqrt(n/6), which
// is asymptotically standard normal. The p-value is two-sided.
func SkewnessTest(x []float64) *TestResult {
	n := len(x)
	if n < 8 {
		return nil
	}
	z := Skewness(x) * math.Sqrt(float64(n)/6)
	return &TestResult{Statistic: z, PValue: twoSidedNormal(z)}
}

// KurtosisTest tests for zero excess kurtosis with K*sqrt(n/24).
func KurtosisTest(x []float64) *TestResult {
	n := len(x)
	if n < 8 {
		return nil
	}
	z := Kurtosis(x) * math.Sqrt(float64(n)/24)
	return &TestResult{Statistic: z, PValue: twoSidedNormal(z)}
}

// JarqueBera performs the Jarque-Bera normality test, n/6 (S² + K²/4), with a
// chi-squared(2) p-value.
func JarqueBera(x []float64) *TestResult {
	n := len(x)
	if n < 8 {
		return nil
	}
	s, k := Skewness(x), Kurtosis(x)
	jb := float64(n) / 6 * (s*s + k*k/4)
	return &TestResult{
		Statistic: jb,
		PValue:    distuv.ChiSquared{K: 2}.Survival(jb),
		DOF:       2,
	}
}

// DoornikHansen performs the Doornik-Hansen omnibus normality test. Skewness
// and kurtosis are transformed to approximately standard normal variates
// whose squares sum to a chi-squared(2) statistic.
func DoornikHansen(x []float64) *TestResult {
	n := float64(len(x))
	if len(x) < 8 {
		return nil
	}
	s := Skewness(x)
	k := Kurtosis(x) + 3

	// Skewness (D'Agostino)
	beta := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) / ((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta-1))
	delta := 1 / math.Sqrt(math.Log(math.Sqrt(w2)))
	y := s * math.Sqrt((w2-1)*(n+1)*(n+3)/(12*(n-2)))
	z1 := delta * math.Log(y+math.Sqrt(y*y+1))

	// Kurtosis (Wilson-Hilferty on a gamma approximation)
	d := (n - 3) * (n + 1) * (n*n + 15*n - 4)
	a := (n - 2) * (n + 5) * (n + 7) * (n*n + 27*n - 70) / (6 * d)
	c := (n - 7) * (n + 5) * (n + 7) * (n*n + 2*n - 5) / (6 * d)
	kk := (n + 5) * (n + 7) * (n*n*n + 37*n*n + 11*n - 313) / (12 * d)
	alpha := a + s*s*c
	chi := (k - 1 - s*s) * 2 * kk
	z2 := (math.Cbrt(chi/(2*alpha)) - 1 + 1/(9*alpha)) * math.Sqrt(9*alpha)

	dh := z1*z1 + z2*z2
	if math.IsNaN(dh) {
		return nil
	}
	return &TestResult{
		Statistic: dh,
		PValue:    distuv.ChiSquared{K: 2}.Survival(dh),
		DOF:       2,
	}
}

func twoSidedNormal(z float64) float64 {
	return 2 * distuv.UnitNormal.Survival(math.Abs(z))
}
