package calendar

import "time"

// Years used to compute the long-term mean of the Easter regressor.
const (
	easterMeanFrom = 1900
	easterMeanTo   = 2099
)

// Easter returns the date of Easter Sunday in the Gregorian calendar.
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// easterShare returns the fraction of the duration days before Easter of
// year that fall in [start, end).
func easterShare(year int, start, end time.Time, duration int) float64 {
	e := Easter(year)
	in := 0
	for k := 1; k <= duration; k++ {
		d := e.AddDate(0, 0, -k)
		if !d.Before(start) && d.Before(end) {
			in++
		}
	}
	return float64(in) / float64(duration)
}

// EasterColumn returns the Easter regressor: the share of the duration days
// preceding Easter Sunday that fall in each period, minus its long-term mean
// for that period of the year.
func EasterColumn(periods []time.Time, freq, duration int) ([]float64, error) {
	if err := checkFrequency(freq); err != nil {
		return nil, err
	}
	if duration <= 0 {
		duration = 6
	}

	// Long-term mean per month of the period start
	var mean [13]float64
	for month := time.January; month <= time.December; month += time.Month(12 / freq) {
		sum := 0.0
		for y := easterMeanFrom; y <= easterMeanTo; y++ {
			start := time.Date(y, month, 1, 0, 0, 0, 0, time.UTC)
			sum += easterShare(y, start, periodEnd(start, freq), duration)
		}
		mean[month] = sum / float64(easterMeanTo-easterMeanFrom+1)
	}

	col := make([]float64, len(periods))
	for i, start := range periods {
		col[i] = easterShare(start.Year(), start, periodEnd(start, freq), duration) - mean[start.Month()]
	}
	return col, nil
}
