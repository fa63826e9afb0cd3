package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tirelire/internal/core"
	"tirelire/internal/sheets"
	"tirelire/internal/storage"
)

// SyncStore is the slice of the repository the statement mirror needs.
type SyncStore interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListPendingExports(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkSynced(ctx context.Context, transactionID string) error
	MarkSyncError(ctx context.Context, transactionID string, cause error) error
	CategoryNames(ctx context.Context, userID string) (map[string]string, error)
}

// SyncWorker mirrors ledger transactions into the external statement.
// It is driven two ways: AMQP messages for freshly booked transactions
// and a periodic sweep that picks up anything the queue missed.
type SyncWorker struct {
	store     SyncStore
	writer    sheets.StatementWriter
	batchSize int
}

func NewSyncWorker(store SyncStore, writer sheets.StatementWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		writer:    writer,
		batchSize: batchSize,
	}
}

// SyncOne mirrors a single transaction by id. A transaction that no
// longer exists is dropped silently so stale queue messages drain. A
// write failure is recorded on the row and returned, letting the AMQP
// path requeue.
func (w *SyncWorker) SyncOne(ctx context.Context, transactionID string) error {
	txn, err := w.store.GetTransaction(ctx, transactionID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction gone before sync, dropping", "transaction_id", transactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	return w.export(ctx, txn)
}

func (w *SyncWorker) export(ctx context.Context, txn core.Transaction) error {
	categoryName := ""
	if txn.CategoryID != "" {
		names, err := w.store.CategoryNames(ctx, txn.UserID)
		if err != nil {
			return fmt.Errorf("resolve category name: %w", err)
		}
		if name, ok := names[txn.CategoryID]; ok {
			categoryName = name
		} else {
			categoryName = "Unknown"
		}
	}

	rowRef, err := w.writer.Append(ctx, txn, categoryName)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, txn.ID, err); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record sync error", "transaction_id", txn.ID, "error", markErr)
		}
		return fmt.Errorf("append to statement: %w", err)
	}

	if err := w.store.MarkSynced(ctx, txn.ID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	slog.InfoContext(ctx, "Transaction mirrored",
		"transaction_id", txn.ID,
		"row_ref", rowRef)
	return nil
}

// ProcessPending sweeps one batch of unmirrored transactions. Failures
// are recorded per row and do not stop the batch.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListPendingExports(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	synced := 0
	for _, txn := range pending {
		if err := w.export(ctx, txn); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction", "transaction_id", txn.ID, "error", err)
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Pending sweep finished", "pending", len(pending), "synced", synced)
	return nil
}
