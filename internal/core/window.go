package core

import (
	"fmt"
	"time"
)

// Window is a half-open reporting interval [Start, End). Every aggregation
// query is scoped by a window; the half-open end bound means a window built
// from calendar dates includes the whole final day regardless of
// time-of-day on the stored transactions.
type Window struct {
	Start time.Time
	End   time.Time
}

// AllTime is the zero window, used as a sentinel for unbounded sums.
var AllTime = Window{}

// IsZero reports whether the window is the all-time sentinel.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Contains reports whether t falls inside the window. The all-time window
// contains everything.
func (w Window) Contains(t time.Time) bool {
	if w.IsZero() {
		return true
	}
	return !t.Before(w.Start) && t.Before(w.End)
}

// MonthWindow covers one calendar month: [1st 00:00, 1st of next month 00:00).
// December rolls into January of the following year.
func MonthWindow(year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// CurrentMonth returns the calendar month containing now.
func CurrentMonth(now time.Time) Window {
	return MonthWindow(now.Year(), now.Month())
}

// PreviousMonth returns the calendar month immediately before the one
// containing now.
func PreviousMonth(now time.Time) Window {
	return MonthWindow(now.Year(), now.Month()).Shift(-1)
}

// Shift moves the window by whole months. Only meaningful for windows
// produced by MonthWindow.
func (w Window) Shift(months int) Window {
	return Window{Start: w.Start.AddDate(0, months, 0), End: w.End.AddDate(0, months, 0)}
}

// DayRangeWindow builds a window from two inclusive calendar dates:
// [start 00:00, end 00:00 + 1 day). Times of day on the inputs are dropped.
func DayRangeWindow(start, end time.Time) Window {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return Window{Start: s, End: e.AddDate(0, 0, 1)}
}

// RangeLabel renders an explicit window as "dd/mm/yyyy - dd/mm/yyyy",
// showing the inclusive end date rather than the half-open bound.
func (w Window) RangeLabel() string {
	last := w.End.AddDate(0, 0, -1)
	return fmt.Sprintf("%s - %s", w.Start.Format("02/01/2006"), last.Format("02/01/2006"))
}

// MonthLabel renders a month window as "January 2006".
func (w Window) MonthLabel() string {
	return w.Start.Format("January 2006")
}
