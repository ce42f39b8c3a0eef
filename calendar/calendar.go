package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrFrequency is returned for series that are neither monthly nor quarterly.
var ErrFrequency = errors.New("calendar regressors need monthly or quarterly data")

// TradingDaysType selects the trading-day specification.
type TradingDaysType int

const (
	NoTradingDays TradingDaysType = iota
	// WorkingDays is one contrast: weekdays minus 5/2 weekend days.
	WorkingDays
	// TradingDays is six contrasts: each of Monday..Saturday minus Sunday.
	TradingDays
)

var tradingDaysNames = [...]string{"none", "wd", "td"}

func (t TradingDaysType) String() string {
	if t < 0 || int(t) >= len(tradingDaysNames) {
		return fmt.Sprintf("TradingDaysType(%d)", int(t))
	}
	return tradingDaysNames[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t TradingDaysType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TradingDaysType) UnmarshalText(b []byte) error {
	for i, name := range tradingDaysNames {
		if strings.EqualFold(string(b), name) {
			*t = TradingDaysType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown trading days type %q", string(b))
}

// Columns returns the number of regressors of the specification.
func (t TradingDaysType) Columns() int {
	switch t {
	case WorkingDays:
		return 1
	case TradingDays:
		return 6
	}
	return 0
}

// ColumnNames returns one label per regressor.
func (t TradingDaysType) ColumnNames() []string {
	switch t {
	case WorkingDays:
		return []string{"week days"}
	case TradingDays:
		return []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
	}
	return nil
}

func checkFrequency(freq int) error {
	if freq != 4 && freq != 12 {
		return fmt.Errorf("%w: got %d", ErrFrequency, freq)
	}
	return nil
}

// periodEnd returns the first day after the period starting at start.
func periodEnd(start time.Time, freq int) time.Time {
	return start.AddDate(0, 12/freq, 0)
}

// dayCounts returns the number of each weekday in [start, end).
func dayCounts(start, end time.Time) [7]int {
	var counts [7]int
	days := int(end.Sub(start).Hours()/24 + 0.5)
	full := days / 7
	for d := range counts {
		counts[d] = full
	}
	wd := start.Weekday()
	for i := 0; i < days%7; i++ {
		counts[(int(wd)+i)%7]++
	}
	return counts
}

// TradingDayColumns returns the regressors of kind for observations starting
// at each of periods.
func TradingDayColumns(periods []time.Time, freq int, kind TradingDaysType) ([][]float64, error) {
	if kind == NoTradingDays {
		return nil, nil
	}
	if err := checkFrequency(freq); err != nil {
		return nil, err
	}

	cols := make([][]float64, kind.Columns())
	for j := range cols {
		cols[j] = make([]float64, len(periods))
	}
	for i, start := range periods {
		c := dayCounts(start, periodEnd(start, freq))
		sunday := float64(c[time.Sunday])
		switch kind {
		case WorkingDays:
			week := c[time.Monday] + c[time.Tuesday] + c[time.Wednesday] + c[time.Thursday] + c[time.Friday]
			weekend := c[time.Saturday] + c[time.Sunday]
			cols[0][i] = float64(week) - 2.5*float64(weekend)
		case TradingDays:
			for j := 0; j < 6; j++ {
				cols[j][i] = float64(c[time.Weekday(j+1)]) - sunday
			}
		}
	}
	return cols, nil
}

// LeapYearColumn returns 0.75 for the period holding February of a leap year,
// -0.25 for the period holding February of other years and 0 elsewhere.
func LeapYearColumn(periods []time.Time, freq int) ([]float64, error) {
	if err := checkFrequency(freq); err != nil {
		return nil, err
	}
	col := make([]float64, len(periods))
	for i, start := range periods {
		feb := time.Date(start.Year(), time.February, 1, 0, 0, 0, 0, time.UTC)
		if feb.Before(start) || !feb.Before(periodEnd(start, freq)) {
			continue
		}
		if isLeap(start.Year()) {
			col[i] = 0.75
		} else {
			col[i] = -0.25
		}
	}
	return col, nil
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
