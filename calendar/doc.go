// Package calendar computes calendar regressors aligned with the periods of
// a monthly or quarterly series:
//
//	cols, err := calendar.TradingDayColumns(series.Timestamps, 12, calendar.TradingDays)
//	leap, err := calendar.LeapYearColumn(series.Timestamps, 12)
//	easter, err := calendar.EasterColumn(series.Timestamps, 12, 6)
//
// Trading-day regressors are contrasts against Sunday (or against the weekend
// for the working-days variant), so they carry no length-of-month effect;
// that effect is left to the leap-year regressor.
package calendar
