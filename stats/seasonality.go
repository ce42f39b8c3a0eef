package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// QS computes the seasonal QS statistic
//
//	QS = n(n+2) [ρ(s)² / (n-s) + ρ(2s)² / (n-2s)]
//
// where only positive autocorrelations contribute and ρ(2s) is ignored when
// ρ(s) is not positive. The p-value uses a chi-squared distribution with 2
// degrees of freedom.
func QS(x []float64, period int) *TestResult {
	n := len(x)
	if period <= 1 || n <= 2*period {
		return nil
	}
	acf := ACF(x, 2*period)
	if acf == nil {
		return nil
	}

	q := 0.0
	if r := acf[period]; r > 0 {
		q += r * r / float64(n-period)
		if r2 := acf[2*period]; r2 > 0 {
			q += r2 * r2 / float64(n-2*period)
		}
	}
	q *= float64(n * (n + 2))

	return &TestResult{
		Statistic: q,
		PValue:    distuv.ChiSquared{K: 2}.Survival(q),
		DOF:       2,
	}
}

// Friedman performs the non-parametric Friedman test for stable seasonality.
// The last complete cycles of x are arranged as a table with one row per
// cycle and one column per period, then ranked within each row. A
// significant result means the periods have different medians.
func Friedman(x []float64, period int) *TestResult {
	if period <= 1 {
		return nil
	}
	rows := len(x) / period
	if rows < 2 {
		return nil
	}
	start := len(x) - rows*period

	colRanks := make([]float64, period)
	ranks := make([]float64, period)
	for r := 0; r < rows; r++ {
		row := x[start+r*period : start+(r+1)*period]
		rankInto(ranks, row)
		floats.Add(colRanks, ranks)
	}

	b, k := float64(rows), float64(period)
	sum := floats.Dot(colRanks, colRanks)
	q := 12/(b*k*(k+1))*sum - 3*b*(k+1)
	if q < 0 {
		q = 0
	}

	return &TestResult{
		Statistic: q,
		PValue:    distuv.ChiSquared{K: k - 1}.Survival(q),
		DOF:       period - 1,
	}
}

// rankInto writes 1-based ranks of values into dst, averaging ties.
func rankInto(dst, values []float64) {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			dst[idx[k]] = avg
		}
		i = j + 1
	}
}

// TukeySpectrum returns the Blackman-Tukey spectral estimate of x at the
// given angular frequencies, using a Tukey-Hanning lag window of size
// window. A window <= 0 selects 3*sqrt(n).
func TukeySpectrum(x []float64, window int, freqs []float64) []float64 {
	n := len(x)
	if n < 4 {
		return nil
	}
	if window <= 0 {
		window = int(3 * math.Sqrt(float64(n)))
	}
	if window >= n {
		window = n - 1
	}

	mean := stat.Mean(x, nil)
	cov := make([]float64, window+1)
	for k := 0; k <= window; k++ {
		s := 0.0
		for t := k; t < n; t++ {
			s += (x[t] - mean) * (x[t-k] - mean)
		}
		cov[k] = s / float64(n)
	}

	out := make([]float64, len(freqs))
	for i, w := range freqs {
		s := cov[0]
		for k := 1; k <= window; k++ {
			weight := 0.5 * (1 + math.Cos(math.Pi*float64(k)/float64(window)))
			s += 2 * weight * cov[k] * math.Cos(w*float64(k))
		}
		out[i] = s / (2 * math.Pi)
	}
	return out
}

// SpectralPeaks reports the seasonal frequencies 2πj/period that show a peak
// in the Tukey spectrum.
type SpectralPeaks struct {
	Harmonics []int // j for each peak frequency 2πj/period
}

// Count returns the number of seasonal peaks.
func (p *SpectralPeaks) Count() int {
	if p == nil {
		return 0
	}
	return len(p.Harmonics)
}

// spectralPeakRatio is the minimum ratio between the spectrum at a seasonal
// frequency and both of its neighbours.
const spectralPeakRatio = 1.5

// DetectSpectralPeaks looks for peaks at the seasonal frequencies of x. A
// frequency is a peak when its spectral value exceeds both neighbours, half a
// harmonic away, by spectralPeakRatio and is above the spectrum median.
func DetectSpectralPeaks(x []float64, period int) *SpectralPeaks {
	if period <= 1 || len(x) < 3*period {
		return nil
	}

	const grid = 120
	freqs := make([]float64, grid+1)
	for i := range freqs {
		freqs[i] = math.Pi * float64(i) / grid
	}
	spec := TukeySpectrum(x, 0, freqs)
	if spec == nil {
		return nil
	}
	med := Median(spec)

	at := func(w float64) float64 {
		i := int(math.Round(w / math.Pi * grid))
		if i < 0 {
			i = 0
		}
		if i > grid {
			i = grid
		}
		return spec[i]
	}

	half := math.Pi / float64(period)
	peaks := &SpectralPeaks{}
	for j := 1; j <= period/2; j++ {
		w := 2 * math.Pi * float64(j) / float64(period)
		v := at(w)
		if v <= med {
			continue
		}
		left := at(w - half)
		right := left
		if w+half <= math.Pi+1e-12 {
			right = at(w + half)
		}
		if v >= spectralPeakRatio*left && v >= spectralPeakRatio*right {
			peaks.Harmonics = append(peaks.Harmonics, j)
		}
	}
	return peaks
}
