package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"tirelire/internal/core"
	"tirelire/internal/storage"
)

type syncStoreStub struct {
	transactions map[string]core.Transaction
	pending      []core.Transaction
	categories   map[string]string
	synced       []string
	syncErrors   map[string]string
}

func newSyncStoreStub() *syncStoreStub {
	return &syncStoreStub{
		transactions: make(map[string]core.Transaction),
		categories:   make(map[string]string),
		syncErrors:   make(map[string]string),
	}
}

func (s *syncStoreStub) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	txn, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return txn, nil
}

func (s *syncStoreStub) ListPendingExports(_ context.Context, limit int) ([]core.Transaction, error) {
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *syncStoreStub) MarkSynced(_ context.Context, transactionID string) error {
	s.synced = append(s.synced, transactionID)
	return nil
}

func (s *syncStoreStub) MarkSyncError(_ context.Context, transactionID string, cause error) error {
	s.syncErrors[transactionID] = cause.Error()
	return nil
}

func (s *syncStoreStub) CategoryNames(_ context.Context, _ string) (map[string]string, error) {
	return s.categories, nil
}

type writerStub struct {
	appended      []core.Transaction
	categoryNames []string
	err           error
}

func (w *writerStub) Append(_ context.Context, txn core.Transaction, categoryName string) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.appended = append(w.appended, txn)
	w.categoryNames = append(w.categoryNames, categoryName)
	return "Ledger!A2:E2", nil
}

func sampleTxn(id, catID string) core.Transaction {
	return core.Transaction{
		ID:     id,
		UserID: "user-1",
		Date:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount: core.Money{Cents: 5000},
		Kind:   core.Expense, Description: "Rent",
		CategoryID: catID,
	}
}

func TestSyncOne(t *testing.T) {
	store := newSyncStoreStub()
	store.transactions["txn-1"] = sampleTxn("txn-1", "cat-home")
	store.categories["cat-home"] = "Housing"
	writer := &writerStub{}
	w := NewSyncWorker(store, writer, 10)

	if err := w.SyncOne(context.Background(), "txn-1"); err != nil {
		t.Fatalf("SyncOne() error = %v", err)
	}
	if len(writer.appended) != 1 {
		t.Fatalf("appended %d rows, want 1", len(writer.appended))
	}
	if writer.categoryNames[0] != "Housing" {
		t.Errorf("category name = %q, want Housing", writer.categoryNames[0])
	}
	if len(store.synced) != 1 || store.synced[0] != "txn-1" {
		t.Errorf("synced = %v", store.synced)
	}
}

func TestSyncOneDropsMissingTransaction(t *testing.T) {
	store := newSyncStoreStub()
	writer := &writerStub{}
	w := NewSyncWorker(store, writer, 10)

	if err := w.SyncOne(context.Background(), "gone"); err != nil {
		t.Fatalf("missing transaction should not error, got %v", err)
	}
	if len(writer.appended) != 0 {
		t.Errorf("nothing should be appended")
	}
}

func TestSyncOneRecordsWriteFailure(t *testing.T) {
	store := newSyncStoreStub()
	store.transactions["txn-1"] = sampleTxn("txn-1", "")
	writer := &writerStub{err: errors.New("quota exhausted")}
	w := NewSyncWorker(store, writer, 10)

	if err := w.SyncOne(context.Background(), "txn-1"); err == nil {
		t.Fatal("write failure should propagate")
	}
	if store.syncErrors["txn-1"] != "quota exhausted" {
		t.Errorf("recorded error = %q", store.syncErrors["txn-1"])
	}
	if len(store.synced) != 0 {
		t.Errorf("nothing should be marked synced")
	}
}

func TestSyncOneUnknownCategoryFallback(t *testing.T) {
	store := newSyncStoreStub()
	// Category was deleted after booking.
	store.transactions["txn-1"] = sampleTxn("txn-1", "cat-gone")
	writer := &writerStub{}
	w := NewSyncWorker(store, writer, 10)

	if err := w.SyncOne(context.Background(), "txn-1"); err != nil {
		t.Fatalf("SyncOne() error = %v", err)
	}
	if writer.categoryNames[0] != "Unknown" {
		t.Errorf("category name = %q, want Unknown", writer.categoryNames[0])
	}
}

func TestProcessPendingContinuesPastFailures(t *testing.T) {
	store := newSyncStoreStub()
	good := sampleTxn("txn-good", "")
	bad := sampleTxn("txn-bad", "")
	store.pending = []core.Transaction{bad, good}
	store.transactions["txn-good"] = good
	store.transactions["txn-bad"] = bad

	writer := &selectiveWriter{failID: "txn-bad"}
	w := NewSyncWorker(store, writer, 10)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}
	if len(store.synced) != 1 || store.synced[0] != "txn-good" {
		t.Errorf("synced = %v, want [txn-good]", store.synced)
	}
	if _, ok := store.syncErrors["txn-bad"]; !ok {
		t.Error("failure should be recorded on txn-bad")
	}
}

type selectiveWriter struct {
	failID string
}

func (w *selectiveWriter) Append(_ context.Context, txn core.Transaction, _ string) (string, error) {
	if txn.ID == w.failID {
		return "", errors.New("rejected")
	}
	return "Ledger!A2:E2", nil
}

func TestProcessPendingRespectsBatchSize(t *testing.T) {
	store := newSyncStoreStub()
	for _, id := range []string{"txn-1", "txn-2", "txn-3"} {
		txn := sampleTxn(id, "")
		store.pending = append(store.pending, txn)
		store.transactions[id] = txn
	}
	writer := &writerStub{}
	w := NewSyncWorker(store, writer, 2)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}
	if len(writer.appended) != 2 {
		t.Errorf("appended %d rows, want batch of 2", len(writer.appended))
	}
}
