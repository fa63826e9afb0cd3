package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tirelire/internal/core"
)

// fakeStore backs all service tests with an in-memory ledger. Sums and
// groupings are computed from the transaction slice the same way the SQL
// queries would, so windowing behavior is exercised for real.
type fakeStore struct {
	mu           sync.Mutex
	transactions []core.Transaction
	templates    []core.RecurringTransaction
	budgets      []core.Budget
	categories   map[string]string
	claims       map[string]bool

	insertErr error            // fails every booking
	bookErr   map[string]error // fails booking for one template id
	listErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories: make(map[string]string),
		claims:     make(map[string]bool),
	}
}

// BookMaterialization mirrors the SQL repository's atomicity: an injected
// failure leaves neither the claim nor the transaction behind.
func (f *fakeStore) BookMaterialization(_ context.Context, txn core.Transaction, templateID string, year int, month time.Month) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s|%s|%d|%d", txn.UserID, templateID, year, int(month))
	if f.claims[key] {
		return false, nil
	}
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if err := f.bookErr[templateID]; err != nil {
		return false, err
	}
	f.claims[key] = true
	f.transactions = append(f.transactions, txn)
	return true, nil
}

func (f *fakeStore) ListTransactions(_ context.Context, userID string, w core.Window) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.Transaction
	for _, txn := range f.transactions {
		if txn.UserID == userID && w.Contains(txn.Date) {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakeStore) SumByKind(_ context.Context, userID string, kind core.Kind, w core.Window) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, txn := range f.transactions {
		if txn.UserID == userID && txn.Kind == kind && w.Contains(txn.Date) {
			total += txn.Amount.Cents
		}
	}
	return total, nil
}

func (f *fakeStore) ExpenseTotalsByCategory(_ context.Context, userID string, w core.Window) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	totals := make(map[string]int64)
	for _, txn := range f.transactions {
		if txn.UserID == userID && txn.Kind == core.Expense && w.Contains(txn.Date) {
			totals[txn.CategoryID] += txn.Amount.Cents
		}
	}
	return totals, nil
}

func (f *fakeStore) ListTemplates(_ context.Context, userID string, freq core.Frequency) ([]core.RecurringTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.RecurringTransaction
	for _, tmpl := range f.templates {
		if tmpl.UserID == userID && tmpl.Frequency == freq {
			out = append(out, tmpl)
		}
	}
	return out, nil
}

func (f *fakeStore) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Budget
	for _, b := range f.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) CategoryNames(_ context.Context, _ string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make(map[string]string, len(f.categories))
	for id, name := range f.categories {
		names[id] = name
	}
	return names, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *fakePublisher) PublishLedgerSync(_ context.Context, transactionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, transactionID)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
