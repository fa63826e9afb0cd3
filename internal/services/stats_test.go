package services

import (
	"context"
	"testing"
	"time"

	"tirelire/internal/core"
)

func entry(userID string, date time.Time, cents int64, kind core.Kind, desc, catID string) core.Transaction {
	return core.Transaction{
		ID:          uuidLike(desc, date),
		UserID:      userID,
		Date:        date,
		Amount:      core.Money{Cents: cents},
		Kind:        kind,
		Description: desc,
		CategoryID:  catID,
	}
}

func uuidLike(desc string, date time.Time) string {
	return desc + "-" + date.Format("20060102")
}

func seededStore() *fakeStore {
	store := newFakeStore()
	store.categories = map[string]string{
		"cat-food": "Groceries",
		"cat-home": "Housing",
	}
	store.transactions = []core.Transaction{
		entry("user-1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 300000, core.Income, "Salary feb", "cat-pay"),
		entry("user-1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 300000, core.Income, "Salary mar", "cat-pay"),
		entry("user-1", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 40000, core.Expense, "Groceries week 1", "cat-food"),
		entry("user-1", time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), 100000, core.Expense, "Rent", "cat-home"),
		entry("user-1", time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), 2500, core.Expense, "Parking", ""),
		entry("user-2", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 999900, core.Expense, "Yacht", "cat-home"),
	}
	return store
}

func TestSnapshotMonthWindow(t *testing.T) {
	store := seededStore()
	s := NewStats(store, store)
	s.now = fixedClock(time.Date(2024, 3, 25, 12, 0, 0, 0, time.UTC))

	snap, err := s.Snapshot(context.Background(), "user-1", core.Window{})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if snap.DisplayPeriod != "March 2024" {
		t.Errorf("DisplayPeriod = %q, want %q", snap.DisplayPeriod, "March 2024")
	}
	// All-time: 6000 income, 1425 expense.
	if snap.AllTimeBalance != 4575.0 {
		t.Errorf("AllTimeBalance = %v, want 4575", snap.AllTimeBalance)
	}
	if snap.PeriodIncome != 3000.0 {
		t.Errorf("PeriodIncome = %v, want 3000", snap.PeriodIncome)
	}
	if snap.PeriodExpense != 1425.0 {
		t.Errorf("PeriodExpense = %v, want 1425", snap.PeriodExpense)
	}
	if snap.PeriodSaved != 1575.0 {
		t.Errorf("PeriodSaved = %v, want 1575", snap.PeriodSaved)
	}
}

func TestSnapshotExpenseBreakdown(t *testing.T) {
	store := seededStore()
	s := NewStats(store, store)
	s.now = fixedClock(time.Date(2024, 3, 25, 12, 0, 0, 0, time.UTC))

	snap, err := s.Snapshot(context.Background(), "user-1", core.Window{})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	// The uncategorized parking expense has no category to join into: it
	// stays out of the breakdown but still counts toward the period total.
	want := []core.CategoryAmount{
		{Name: "Housing", Amount: 1000},
		{Name: "Groceries", Amount: 400},
	}
	if len(snap.ExpenseBreakdown) != len(want) {
		t.Fatalf("breakdown has %d slices, want %d: %+v", len(snap.ExpenseBreakdown), len(want), snap.ExpenseBreakdown)
	}
	for i, w := range want {
		if snap.ExpenseBreakdown[i] != w {
			t.Errorf("breakdown[%d] = %+v, want %+v", i, snap.ExpenseBreakdown[i], w)
		}
	}
	if snap.PeriodExpense != 1425.0 {
		t.Errorf("PeriodExpense = %v, want 1425 including uncategorized spend", snap.PeriodExpense)
	}
}

func TestSnapshotExplicitRange(t *testing.T) {
	store := seededStore()
	s := NewStats(store, store)

	w := core.DayRangeWindow(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	)
	snap, err := s.Snapshot(context.Background(), "user-1", w)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if snap.DisplayPeriod != "01/03/2024 - 10/03/2024" {
		t.Errorf("DisplayPeriod = %q", snap.DisplayPeriod)
	}
	// Only the March 5 groceries fall inside; rent on the 12th does not.
	if snap.PeriodExpense != 400.0 {
		t.Errorf("PeriodExpense = %v, want 400", snap.PeriodExpense)
	}
	if snap.PeriodIncome != 3000.0 {
		t.Errorf("PeriodIncome = %v, want 3000", snap.PeriodIncome)
	}
}

func TestSnapshotMonthlySeries(t *testing.T) {
	store := seededStore()
	s := NewStats(store, store)
	s.now = fixedClock(time.Date(2024, 3, 25, 12, 0, 0, 0, time.UTC))

	snap, err := s.Snapshot(context.Background(), "user-1", core.Window{})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.MonthlyData) != 12 {
		t.Fatalf("series has %d points, want 12", len(snap.MonthlyData))
	}
	jan := snap.MonthlyData[0]
	if jan.Month != "Jan" || jan.Income != 0 || jan.Expense != 0 {
		t.Errorf("January point = %+v, want empty Jan", jan)
	}
	feb := snap.MonthlyData[1]
	if feb.Income != 3000.0 || feb.Expense != 0 {
		t.Errorf("February point = %+v", feb)
	}
	mar := snap.MonthlyData[2]
	if mar.Income != 3000.0 || mar.Expense != 1425.0 {
		t.Errorf("March point = %+v", mar)
	}
}

func TestSnapshotBudgetProgress(t *testing.T) {
	store := seededStore()
	store.budgets = []core.Budget{
		{ID: "b-1", UserID: "user-1", CategoryID: "cat-food", Amount: core.Money{Cents: 50000}},
		{ID: "b-2", UserID: "user-1", CategoryID: "cat-travel", Amount: core.Money{Cents: 30000}},
	}
	store.categories["cat-travel"] = "Travel"
	s := NewStats(store, store)
	s.now = fixedClock(time.Date(2024, 3, 25, 12, 0, 0, 0, time.UTC))

	snap, err := s.Snapshot(context.Background(), "user-1", core.Window{})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.BudgetProgress) != 2 {
		t.Fatalf("progress has %d lines, want 2", len(snap.BudgetProgress))
	}
	food := snap.BudgetProgress[0]
	if food.CategoryName != "Groceries" || food.AmountSpent != 400.0 || food.Remaining != 100.0 {
		t.Errorf("groceries line = %+v", food)
	}
	// A budget with no spend this window still shows up, untouched.
	travel := snap.BudgetProgress[1]
	if travel.CategoryName != "Travel" || travel.AmountSpent != 0.0 || travel.Remaining != 300.0 {
		t.Errorf("travel line = %+v", travel)
	}
}

func TestSnapshotEmptyLedger(t *testing.T) {
	store := newFakeStore()
	s := NewStats(store, store)
	s.now = fixedClock(time.Date(2024, 3, 25, 12, 0, 0, 0, time.UTC))

	snap, err := s.Snapshot(context.Background(), "user-9", core.Window{})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.AllTimeBalance != 0 || snap.PeriodIncome != 0 || snap.PeriodExpense != 0 {
		t.Errorf("empty ledger should produce zero totals: %+v", snap)
	}
	if len(snap.ExpenseBreakdown) != 0 {
		t.Errorf("breakdown should be empty, got %+v", snap.ExpenseBreakdown)
	}
	if len(snap.MonthlyData) != 12 {
		t.Errorf("series should still have 12 points, got %d", len(snap.MonthlyData))
	}
}
