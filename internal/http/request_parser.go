package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tirelire/internal/core"
)

const dateLayout = "2006-01-02"

var errHalfRange = errors.New("start_date and end_date must be provided together")

// parseWindow reads the optional start_date/end_date query parameters.
// Both absent yields the zero window, which callers treat as the current
// month. One without the other, a malformed date, or an inverted range
// is a client error.
func parseWindow(r *http.Request) (core.Window, error) {
	startStr := strings.TrimSpace(r.URL.Query().Get("start_date"))
	endStr := strings.TrimSpace(r.URL.Query().Get("end_date"))

	if startStr == "" && endStr == "" {
		return core.Window{}, nil
	}
	if startStr == "" || endStr == "" {
		return core.Window{}, errHalfRange
	}

	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return core.Window{}, fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD", startStr)
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return core.Window{}, fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD", endStr)
	}
	if end.Before(start) {
		return core.Window{}, fmt.Errorf("end_date %s precedes start_date %s", endStr, startStr)
	}

	return core.DayRangeWindow(start, end), nil
}

// parseYearMonth reads the optional year/month query parameters for the
// review endpoint. Both absent yields (0, 0), meaning the previous
// month.
func parseYearMonth(r *http.Request) (int, time.Month, error) {
	yearStr := strings.TrimSpace(r.URL.Query().Get("year"))
	monthStr := strings.TrimSpace(r.URL.Query().Get("month"))

	if yearStr == "" && monthStr == "" {
		return 0, 0, nil
	}
	if yearStr == "" || monthStr == "" {
		return 0, 0, errors.New("year and month must be provided together")
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1970 || year > 9999 {
		return 0, 0, fmt.Errorf("invalid year %q", yearStr)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %q: must be 1-12", monthStr)
	}

	return year, time.Month(month), nil
}
