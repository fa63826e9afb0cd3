package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"tirelire/internal/core"
)

// unknownCategory labels spend whose category was deleted or never set.
const unknownCategory = "Unknown"

// Stats computes dashboard snapshots straight from the ledger. Every call
// recomputes from stored transactions; there is no snapshot cache to
// invalidate or drift.
type Stats struct {
	ledger    LedgerStore
	reference ReferenceStore
	now       func() time.Time
}

func NewStats(ledger LedgerStore, reference ReferenceStore) *Stats {
	return &Stats{ledger: ledger, reference: reference, now: time.Now}
}

// Snapshot aggregates the user's ledger over the window. A zero window
// defaults to the calendar month containing today.
func (s *Stats) Snapshot(ctx context.Context, userID string, w core.Window) (core.Snapshot, error) {
	display := ""
	if w.IsZero() {
		w = core.CurrentMonth(s.now().UTC())
		display = w.MonthLabel()
	} else {
		display = w.RangeLabel()
	}

	var (
		allTimeIncome  int64
		allTimeExpense int64
		periodIncome   int64
		periodExpense  int64
		byCategory     map[string]int64
		names          map[string]string
		budgets        []core.Budget
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		allTimeIncome, err = s.ledger.SumByKind(gctx, userID, core.Income, core.AllTime)
		return err
	})
	g.Go(func() (err error) {
		allTimeExpense, err = s.ledger.SumByKind(gctx, userID, core.Expense, core.AllTime)
		return err
	})
	g.Go(func() (err error) {
		periodIncome, err = s.ledger.SumByKind(gctx, userID, core.Income, w)
		return err
	})
	g.Go(func() (err error) {
		periodExpense, err = s.ledger.SumByKind(gctx, userID, core.Expense, w)
		return err
	})
	g.Go(func() (err error) {
		byCategory, err = s.ledger.ExpenseTotalsByCategory(gctx, userID, w)
		return err
	})
	g.Go(func() (err error) {
		names, err = s.reference.CategoryNames(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = s.reference.ListBudgets(gctx, userID)
		return err
	})

	series, err := s.monthlySeries(ctx, userID, w.Start.Year())
	if err != nil {
		return core.Snapshot{}, err
	}
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, fmt.Errorf("aggregating snapshot: %w", err)
	}

	return core.Snapshot{
		DisplayPeriod:    display,
		AllTimeBalance:   core.Money{Cents: allTimeIncome - allTimeExpense}.Float(),
		PeriodIncome:     core.Money{Cents: periodIncome}.Float(),
		PeriodExpense:    core.Money{Cents: periodExpense}.Float(),
		PeriodSaved:      core.Money{Cents: periodIncome - periodExpense}.Float(),
		ExpenseBreakdown: breakdown(byCategory, names),
		MonthlyData:      series,
		BudgetProgress:   budgetProgress(budgets, byCategory, names),
	}, nil
}

// monthlySeries builds the twelve income/expense pairs for the year. Each
// month is an independent pair of sums, so they run concurrently.
func (s *Stats) monthlySeries(ctx context.Context, userID string, year int) ([]core.MonthlyPoint, error) {
	points := make([]core.MonthlyPoint, 12)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 12; i++ {
		month := time.Month(i + 1)
		idx := i
		g.Go(func() error {
			w := core.MonthWindow(year, month)
			income, err := s.ledger.SumByKind(gctx, userID, core.Income, w)
			if err != nil {
				return err
			}
			expense, err := s.ledger.SumByKind(gctx, userID, core.Expense, w)
			if err != nil {
				return err
			}
			points[idx] = core.MonthlyPoint{
				Month:   w.Start.Format("Jan"),
				Income:  core.Money{Cents: income}.Float(),
				Expense: core.Money{Cents: expense}.Float(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building monthly series: %w", err)
	}
	return points, nil
}

// breakdown joins expense totals to category names. Uncategorized spend
// and dangling references have no name to join into and are left out; the
// period totals still count them, and budgets render them as "Unknown".
func breakdown(byCategory map[string]int64, names map[string]string) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(byCategory))
	for categoryID, cents := range byCategory {
		name, ok := names[categoryID]
		if !ok {
			continue
		}
		out = append(out, core.CategoryAmount{
			Name:   name,
			Amount: core.Money{Cents: cents}.Float(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func budgetProgress(budgets []core.Budget, byCategory map[string]int64, names map[string]string) []core.BudgetProgress {
	out := make([]core.BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		spent := byCategory[b.CategoryID]
		out = append(out, core.BudgetProgress{
			ID:             b.ID,
			CategoryID:     b.CategoryID,
			CategoryName:   categoryName(names, b.CategoryID),
			AmountBudgeted: b.Amount.Float(),
			AmountSpent:    core.Money{Cents: spent}.Float(),
			Remaining:      core.Money{Cents: b.Amount.Cents - spent}.Float(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryName < out[j].CategoryName })
	return out
}

func categoryName(names map[string]string, categoryID string) string {
	if name, ok := names[categoryID]; ok && categoryID != "" {
		return name
	}
	return unknownCategory
}
