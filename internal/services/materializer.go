package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"tirelire/internal/core"
)

// Materializer turns recurring templates into concrete ledger entries.
// Each run scans the user's monthly templates, decides which are due, and
// books one transaction per due template that the current month does not
// already record.
type Materializer struct {
	ledger    LedgerStore
	templates TemplateStore
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time

	group singleflight.Group
}

func NewMaterializer(ledger LedgerStore, templates TemplateStore, publisher EventPublisher, logger *slog.Logger) *Materializer {
	return &Materializer{
		ledger:    ledger,
		templates: templates,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Materialize runs one generation pass for the user and returns how many
// transactions it created. Concurrent calls for the same user and month
// collapse into a single pass; the month claim in the store covers
// competing processes. A template that fails to book is skipped so the
// rest of the batch still lands, and the failures come back joined into
// the returned error: nothing is written for a failed template, so the
// caller can simply run the pass again.
func (m *Materializer) Materialize(ctx context.Context, userID string) (int, error) {
	now := m.now().UTC()
	key := fmt.Sprintf("%s/%d-%02d", userID, now.Year(), int(now.Month()))

	v, err, _ := m.group.Do(key, func() (any, error) {
		return m.run(ctx, userID, now)
	})
	created, _ := v.(int)
	return created, err
}

func (m *Materializer) run(ctx context.Context, userID string, now time.Time) (int, error) {
	templates, err := m.templates.ListTemplates(ctx, userID, core.Monthly)
	if err != nil {
		return 0, fmt.Errorf("listing templates: %w", err)
	}
	if len(templates) == 0 {
		return 0, nil
	}

	month := core.CurrentMonth(now)
	existing, err := m.ledger.ListTransactions(ctx, userID, month)
	if err != nil {
		return 0, fmt.Errorf("listing current month transactions: %w", err)
	}

	created := 0
	var failed []error
	for _, tmpl := range templates {
		ok, err := m.materializeOne(ctx, tmpl, existing, now)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to materialize template",
				"template_id", tmpl.ID,
				"user_id", userID,
				"error", err)
			failed = append(failed, fmt.Errorf("template %s: %w", tmpl.ID, err))
			continue
		}
		if ok {
			created++
		}
	}

	m.logger.InfoContext(ctx, "materialization pass finished",
		"user_id", userID,
		"templates", len(templates),
		"created", created,
		"failed", len(failed))
	return created, errors.Join(failed...)
}

func (m *Materializer) materializeOne(ctx context.Context, tmpl core.RecurringTransaction, existing []core.Transaction, now time.Time) (bool, error) {
	effectiveDay := core.ClampDay(tmpl.DayOfMonth, now.Year(), now.Month())
	if now.Day() < effectiveDay {
		return false, nil
	}

	for _, txn := range existing {
		if core.IsDuplicate(tmpl, txn) {
			return false, nil
		}
	}

	txn := core.Transaction{
		ID:            uuid.NewString(),
		UserID:        tmpl.UserID,
		Date:          time.Date(now.Year(), now.Month(), effectiveDay, 0, 0, 0, 0, time.UTC),
		Amount:        tmpl.Amount,
		Kind:          tmpl.Kind,
		Description:   tmpl.Description,
		CategoryID:    tmpl.CategoryID,
		SubcategoryID: tmpl.SubcategoryID,
		CreatedAt:     now,
	}
	booked, err := m.ledger.BookMaterialization(ctx, txn, tmpl.ID, now.Year(), now.Month())
	if err != nil {
		return false, fmt.Errorf("booking transaction: %w", err)
	}
	if !booked {
		// A competing process already holds the month claim.
		return false, nil
	}

	if m.publisher != nil {
		if err := m.publisher.PublishLedgerSync(ctx, txn.ID); err != nil {
			m.logger.WarnContext(ctx, "failed to publish ledger sync",
				"transaction_id", txn.ID,
				"error", err)
		}
	}
	return true, nil
}
