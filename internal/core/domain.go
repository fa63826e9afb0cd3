package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	Monthly Frequency = "monthly"
)

type (
	// Kind partitions every money-flow record into income or expense.
	// Amounts are stored as positive magnitudes; the sign is implied by Kind.
	Kind string

	// Frequency is the schedule of a recurring template. Only monthly
	// schedules are materialized today.
	Frequency string

	// Transaction is a concrete ledger entry owned by a user. It is created
	// by manual entry, bulk import, or the materializer, and is immutable
	// once reconciled into statistics.
	Transaction struct {
		ID            string
		UserID        string
		Date          time.Time // UTC
		Amount        Money
		Kind          Kind
		Description   string
		CategoryID    string // empty when uncategorized
		SubcategoryID string
		CreatedAt     time.Time
	}

	// RecurringTransaction is a template for a recurring obligation or
	// income. It never appears in statistics itself; only the transactions
	// materialized from it do.
	RecurringTransaction struct {
		ID            string
		UserID        string
		Amount        Money
		Kind          Kind
		Description   string
		CategoryID    string
		SubcategoryID string
		Frequency     Frequency
		DayOfMonth    int // 1-31
		CreatedAt     time.Time
	}

	Category struct {
		ID        string
		UserID    string
		Name      string
		Kind      Kind
		CreatedAt time.Time
	}

	// Budget caps monthly spending for one category. At most one budget
	// exists per (user, category).
	Budget struct {
		ID         string
		UserID     string
		CategoryID string
		Amount     Money
		CreatedAt  time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid kind")
	ErrInvalidDay       = errors.New("invalid day of month")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyUser        = errors.New("empty user id")
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUser
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (rt RecurringTransaction) Validate() error {
	if strings.TrimSpace(rt.UserID) == "" {
		return ErrEmptyUser
	}
	if !rt.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if rt.DayOfMonth < 1 || rt.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	switch rt.Frequency {
	case Monthly:
	default:
		return ErrInvalidFrequency
	}
	if len(rt.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(b.CategoryID) == "" {
		return errors.New("empty category id")
	}
	return b.Amount.Validate()
}

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay maps a template's scheduled day onto a month that may be too
// short for it: day 31 becomes the 30th in April and the 28th (or 29th)
// in February. Days already in range pass through unchanged.
func ClampDay(day, year int, month time.Month) int {
	if last := LastDayOfMonth(year, month); day > last {
		return last
	}
	return day
}
