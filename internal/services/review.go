package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tirelire/internal/core"
)

// Reviewer builds the monthly retrospective: totals, savings rate, the
// single biggest expense, and each budget classified as respected or
// exceeded.
type Reviewer struct {
	ledger    LedgerStore
	reference ReferenceStore
	now       func() time.Time
}

func NewReviewer(ledger LedgerStore, reference ReferenceStore) *Reviewer {
	return &Reviewer{ledger: ledger, reference: reference, now: time.Now}
}

// Review summarizes one closed calendar month. A zero year selects the
// month before the current one, which is the month people actually want
// to look back at. The savings rate is zero, not NaN, for a month with no
// income. A budget is exceeded only when spend strictly passes it;
// landing exactly on budget still counts as respected.
func (r *Reviewer) Review(ctx context.Context, userID string, year int, month time.Month) (core.MonthlyReview, error) {
	var w core.Window
	if year == 0 {
		w = core.PreviousMonth(r.now().UTC())
	} else {
		w = core.MonthWindow(year, month)
	}

	transactions, err := r.ledger.ListTransactions(ctx, userID, w)
	if err != nil {
		return core.MonthlyReview{}, fmt.Errorf("listing transactions: %w", err)
	}
	budgets, err := r.reference.ListBudgets(ctx, userID)
	if err != nil {
		return core.MonthlyReview{}, fmt.Errorf("listing budgets: %w", err)
	}
	names, err := r.reference.CategoryNames(ctx, userID)
	if err != nil {
		return core.MonthlyReview{}, fmt.Errorf("listing categories: %w", err)
	}

	var income, expense int64
	spentByCategory := make(map[string]int64)
	var biggest *core.BiggestExpense
	for _, txn := range transactions {
		switch txn.Kind {
		case core.Income:
			income += txn.Amount.Cents
		case core.Expense:
			expense += txn.Amount.Cents
			spentByCategory[txn.CategoryID] += txn.Amount.Cents
			if biggest == nil || txn.Amount.Float() > biggest.Amount {
				biggest = &core.BiggestExpense{
					Description: txn.Description,
					Amount:      txn.Amount.Float(),
					Date:        txn.Date,
				}
			}
		}
	}

	saved := income - expense
	savingsRate := 0.0
	if income > 0 {
		savingsRate = float64(saved) / float64(income) * 100
	}

	respected := make([]core.BudgetReviewLine, 0, len(budgets))
	exceeded := make([]core.BudgetReviewLine, 0)
	for _, b := range budgets {
		spent := spentByCategory[b.CategoryID]
		line := core.BudgetReviewLine{
			CategoryName:   categoryName(names, b.CategoryID),
			AmountBudgeted: b.Amount.Float(),
			AmountSpent:    core.Money{Cents: spent}.Float(),
			Difference:     core.Money{Cents: b.Amount.Cents - spent}.Float(),
		}
		if spent > b.Amount.Cents {
			exceeded = append(exceeded, line)
		} else {
			respected = append(respected, line)
		}
	}
	sort.Slice(respected, func(i, j int) bool { return respected[i].CategoryName < respected[j].CategoryName })
	sort.Slice(exceeded, func(i, j int) bool { return exceeded[i].CategoryName < exceeded[j].CategoryName })

	return core.MonthlyReview{
		DisplayPeriod:    w.MonthLabel(),
		TotalIncome:      core.Money{Cents: income}.Float(),
		TotalExpense:     core.Money{Cents: expense}.Float(),
		TotalSaved:       core.Money{Cents: saved}.Float(),
		SavingsRate:      savingsRate,
		BiggestExpense:   biggest,
		RespectedBudgets: respected,
		ExceededBudgets:  exceeded,
	}, nil
}
