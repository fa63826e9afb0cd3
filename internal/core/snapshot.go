package core

import "time"

// CategoryAmount is one slice of the expense breakdown: spend grouped by
// category and joined to its display name.
type CategoryAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"value"`
}

// MonthlyPoint is one bar of the year chart.
type MonthlyPoint struct {
	Month   string  `json:"month"` // "Jan" .. "Dec"
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// BudgetProgress reports consumption of one budget within the reporting
// window. A budget with no matching spend still appears, with zero spent.
type BudgetProgress struct {
	ID             string  `json:"id"`
	CategoryID     string  `json:"category_id"`
	CategoryName   string  `json:"category_name"`
	AmountBudgeted float64 `json:"amount_budgeted"`
	AmountSpent    float64 `json:"amount_spent"`
	Remaining      float64 `json:"remaining"`
}

// Snapshot is the dashboard view for one reporting window. It is computed
// from the ledger on every request; nothing here is cached.
type Snapshot struct {
	DisplayPeriod    string           `json:"display_period"`
	AllTimeBalance   float64          `json:"all_time_balance"`
	PeriodIncome     float64          `json:"period_income"`
	PeriodExpense    float64          `json:"period_expense"`
	PeriodSaved      float64          `json:"period_saved"`
	ExpenseBreakdown []CategoryAmount `json:"expense_breakdown"`
	MonthlyData      []MonthlyPoint   `json:"monthly_data"`
	BudgetProgress   []BudgetProgress `json:"budget_progress"`
}

// UpcomingItem is a recurring template still ahead of today in the
// current month.
type UpcomingItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Kind        Kind    `json:"kind"`
	DayOfMonth  int     `json:"day_of_month"`
}

// Forecast projects cash flow for the remainder of the current month. It
// is a pure read; nothing is pre-materialized.
type Forecast struct {
	TotalUpcomingChange        float64        `json:"total_upcoming_change"`
	EstimatedEndOfMonthBalance float64        `json:"estimated_end_of_month_balance"`
	Upcoming                   []UpcomingItem `json:"upcoming_transactions"`
}

// BiggestExpense flags the single largest expense of a review period.
type BiggestExpense struct {
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
}

// BudgetReviewLine classifies one budget against the spend of a closed
// month.
type BudgetReviewLine struct {
	CategoryName   string  `json:"category_name"`
	AmountBudgeted float64 `json:"amount_budgeted"`
	AmountSpent    float64 `json:"amount_spent"`
	Difference     float64 `json:"difference"`
}

// MonthlyReview is the retrospective for a closed calendar month.
type MonthlyReview struct {
	DisplayPeriod    string             `json:"display_period"`
	TotalIncome      float64            `json:"total_income"`
	TotalExpense     float64            `json:"total_expense"`
	TotalSaved       float64            `json:"total_saved"`
	SavingsRate      float64            `json:"savings_rate"`
	BiggestExpense   *BiggestExpense    `json:"biggest_expense"`
	RespectedBudgets []BudgetReviewLine `json:"respected_budgets"`
	ExceededBudgets  []BudgetReviewLine `json:"exceeded_budgets"`
}
