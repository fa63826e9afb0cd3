package http

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantZero  bool
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{
			name:     "no parameters",
			query:    "",
			wantZero: true,
		},
		{
			name:      "valid range",
			query:     "?start_date=2024-03-01&end_date=2024-03-15",
			wantStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "same day range",
			query:     "?start_date=2024-03-15&end_date=2024-03-15",
			wantStart: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{"only start", "?start_date=2024-03-01", false, time.Time{}, time.Time{}, true},
		{"only end", "?end_date=2024-03-01", false, time.Time{}, time.Time{}, true},
		{"garbage start", "?start_date=yesterday&end_date=2024-03-15", false, time.Time{}, time.Time{}, true},
		{"garbage end", "?start_date=2024-03-01&end_date=soon", false, time.Time{}, time.Time{}, true},
		{"inverted range", "?start_date=2024-03-15&end_date=2024-03-01", false, time.Time{}, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/dashboard/stats"+tt.query, nil)
			w, err := parseWindow(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseWindow() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantZero {
				if !w.IsZero() {
					t.Errorf("window = %+v, want zero", w)
				}
				return
			}
			if !w.Start.Equal(tt.wantStart) || !w.End.Equal(tt.wantEnd) {
				t.Errorf("window = [%v, %v), want [%v, %v)", w.Start, w.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParseYearMonth(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantYear  int
		wantMonth time.Month
		wantErr   bool
	}{
		{"no parameters", "", 0, 0, false},
		{"valid", "?year=2024&month=2", 2024, time.February, false},
		{"only year", "?year=2024", 0, 0, true},
		{"only month", "?month=2", 0, 0, true},
		{"month zero", "?year=2024&month=0", 0, 0, true},
		{"month thirteen", "?year=2024&month=13", 0, 0, true},
		{"garbage year", "?year=twenty&month=2", 0, 0, true},
		{"year too small", "?year=1200&month=2", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/dashboard/monthly-review"+tt.query, nil)
			year, month, err := parseYearMonth(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseYearMonth() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if year != tt.wantYear || month != tt.wantMonth {
				t.Errorf("parseYearMonth() = (%d, %v), want (%d, %v)", year, month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}
