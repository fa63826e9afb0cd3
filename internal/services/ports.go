package services

import (
	"context"
	"time"

	"tirelire/internal/core"
)

// LedgerStore is the persistence boundary for concrete transactions.
type LedgerStore interface {
	ListTransactions(ctx context.Context, userID string, w core.Window) ([]core.Transaction, error)
	// SumByKind returns the total amount in cents for one kind within the
	// window. The all-time window sums the whole ledger.
	SumByKind(ctx context.Context, userID string, kind core.Kind, w core.Window) (int64, error)
	// ExpenseTotalsByCategory groups expense cents by category id within
	// the window. Uncategorized spend appears under the empty key.
	ExpenseTotalsByCategory(ctx context.Context, userID string, w core.Window) (map[string]int64, error)
	// BookMaterialization writes a generated transaction together with the
	// month claim for its template, atomically: a failed write leaves no
	// claim behind, so a later pass can book the month again. It returns
	// false without writing when another writer already holds the claim.
	BookMaterialization(ctx context.Context, txn core.Transaction, templateID string, year int, month time.Month) (bool, error)
}

// TemplateStore lists recurring templates for the materializer and the
// forecast.
type TemplateStore interface {
	ListTemplates(ctx context.Context, userID string, freq core.Frequency) ([]core.RecurringTransaction, error)
}

// ReferenceStore serves the lookup data reports join against.
type ReferenceStore interface {
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	// CategoryNames maps category id to display name for the user.
	CategoryNames(ctx context.Context, userID string) (map[string]string, error)
}

// EventPublisher announces ledger changes to downstream consumers. A nil
// publisher is allowed; callers must treat publishing as best-effort.
type EventPublisher interface {
	PublishLedgerSync(ctx context.Context, transactionID string) error
}
