package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tirelire/internal/core"
)

// Forecaster projects the rest of the current month from recurring
// templates that have not come due yet. It reads templates and the
// all-time balance; it never writes.
type Forecaster struct {
	ledger    LedgerStore
	templates TemplateStore
	now       func() time.Time
}

func NewForecaster(ledger LedgerStore, templates TemplateStore) *Forecaster {
	return &Forecaster{ledger: ledger, templates: templates, now: time.Now}
}

// Forecast lists templates strictly after today in the current month and
// estimates the end-of-month balance. A template due today is the
// materializer's business, not a forecast line, so the comparison is
// strict. Scheduled days are clamped to the month's length first, which
// keeps a day-31 template visible in a 30-day month.
func (f *Forecaster) Forecast(ctx context.Context, userID string) (core.Forecast, error) {
	now := f.now().UTC()

	templates, err := f.templates.ListTemplates(ctx, userID, core.Monthly)
	if err != nil {
		return core.Forecast{}, fmt.Errorf("listing templates: %w", err)
	}

	income, err := f.ledger.SumByKind(ctx, userID, core.Income, core.AllTime)
	if err != nil {
		return core.Forecast{}, fmt.Errorf("summing income: %w", err)
	}
	expense, err := f.ledger.SumByKind(ctx, userID, core.Expense, core.AllTime)
	if err != nil {
		return core.Forecast{}, fmt.Errorf("summing expense: %w", err)
	}
	balance := income - expense

	var change int64
	upcoming := make([]core.UpcomingItem, 0, len(templates))
	for _, tmpl := range templates {
		day := core.ClampDay(tmpl.DayOfMonth, now.Year(), now.Month())
		if day <= now.Day() {
			continue
		}
		delta := tmpl.Amount.Cents
		if tmpl.Kind == core.Expense {
			delta = -delta
		}
		change += delta
		upcoming = append(upcoming, core.UpcomingItem{
			Description: tmpl.Description,
			Amount:      tmpl.Amount.Float(),
			Kind:        tmpl.Kind,
			DayOfMonth:  day,
		})
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].DayOfMonth < upcoming[j].DayOfMonth })

	return core.Forecast{
		TotalUpcomingChange:        core.Money{Cents: change}.Float(),
		EstimatedEndOfMonthBalance: core.Money{Cents: balance + change}.Float(),
		Upcoming:                   upcoming,
	}, nil
}
