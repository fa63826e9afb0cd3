package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tirelire/internal/core"

	_ "modernc.org/sqlite"
)

// Export statuses for the statement mirror. A transaction starts pending,
// moves to synced once mirrored, or to error with the failure recorded.
const (
	ExportPending = "pending"
	ExportSynced  = "synced"
	ExportError   = "error"
)

var ErrNotFound = errors.New("not found")

// SQLiteRepository persists the ledger, templates, and reference data in
// one SQLite file. It implements the service ports plus the maintenance
// operations the workers and handlers need.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// windowClause appends window bounds to a WHERE fragment. The all-time
// window adds nothing.
func windowClause(w core.Window, args []any) (string, []any) {
	if w.IsZero() {
		return "", args
	}
	return " AND date >= ? AND date < ?", append(args, w.Start, w.End)
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, txn core.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, date, amount_cents, kind, description, category_id, subcategory_id, export_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.UserID, txn.Date.UTC(), txn.Amount.Cents, string(txn.Kind),
		txn.Description, txn.CategoryID, txn.SubcategoryID, ExportPending, txn.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, amount_cents, kind, description, category_id, subcategory_id, created_at
		FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return txn, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, w core.Window) ([]core.Transaction, error) {
	query := `
		SELECT id, user_id, date, amount_cents, kind, description, category_id, subcategory_id, created_at
		FROM transactions WHERE user_id = ?`
	args := []any{userID}
	clause, args := windowClause(w, args)
	query += clause + " ORDER BY date, created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) SumByKind(ctx context.Context, userID string, kind core.Kind, w core.Window) (int64, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE user_id = ? AND kind = ?`
	args := []any{userID, string(kind)}
	clause, args := windowClause(w, args)

	var total int64
	if err := r.db.QueryRowContext(ctx, query+clause, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum by kind: %w", err)
	}
	return total, nil
}

func (r *SQLiteRepository) ExpenseTotalsByCategory(ctx context.Context, userID string, w core.Window) (map[string]int64, error) {
	query := `SELECT category_id, SUM(amount_cents) FROM transactions WHERE user_id = ? AND kind = ?`
	args := []any{userID, string(core.Expense)}
	clause, args := windowClause(w, args)
	query += clause + " GROUP BY category_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expense totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var categoryID string
		var cents int64
		if err := rows.Scan(&categoryID, &cents); err != nil {
			return nil, fmt.Errorf("scan expense total: %w", err)
		}
		totals[categoryID] = cents
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("expense totals: %w", err)
	}
	return totals, nil
}

// BookMaterialization inserts a generated transaction and the month claim
// for its template in a single database transaction. The claim's primary
// key makes the pair race-safe: exactly one writer books the template for
// the month, every other one hits the constraint and backs off without
// writing. A failed insert rolls the claim back with it, so a transient
// error never leaves the month claimed but unbooked.
func (r *SQLiteRepository) BookMaterialization(ctx context.Context, txn core.Transaction, templateID string, year int, month time.Month) (bool, error) {
	if err := txn.Validate(); err != nil {
		return false, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin booking: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO materializations (user_id, template_id, year, month, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		txn.UserID, templateID, year, int(month), time.Now().UTC()); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("claim month: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, date, amount_cents, kind, description, category_id, subcategory_id, export_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.UserID, txn.Date.UTC(), txn.Amount.Cents, string(txn.Kind),
		txn.Description, txn.CategoryID, txn.SubcategoryID, ExportPending, txn.CreatedAt.UTC()); err != nil {
		return false, fmt.Errorf("insert generated transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit booking: %w", err)
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures in the message;
	// there is no exported sentinel to match on.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *SQLiteRepository) InsertTemplate(ctx context.Context, tmpl core.RecurringTransaction) error {
	if err := tmpl.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions (id, user_id, amount_cents, kind, description, category_id, subcategory_id, frequency, day_of_month, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tmpl.ID, tmpl.UserID, tmpl.Amount.Cents, string(tmpl.Kind), tmpl.Description,
		tmpl.CategoryID, tmpl.SubcategoryID, string(tmpl.Frequency), tmpl.DayOfMonth, tmpl.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListTemplates(ctx context.Context, userID string, freq core.Frequency) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount_cents, kind, description, category_id, subcategory_id, frequency, day_of_month, created_at
		FROM recurring_transactions WHERE user_id = ? AND frequency = ?
		ORDER BY day_of_month, created_at`, userID, string(freq))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTransaction
	for rows.Next() {
		var tmpl core.RecurringTransaction
		var kind, frequency string
		if err := rows.Scan(&tmpl.ID, &tmpl.UserID, &tmpl.Amount.Cents, &kind, &tmpl.Description,
			&tmpl.CategoryID, &tmpl.SubcategoryID, &frequency, &tmpl.DayOfMonth, &tmpl.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		tmpl.Kind = core.Kind(kind)
		tmpl.Frequency = core.Frequency(frequency)
		out = append(out, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

// ListUsersWithTemplates returns the distinct owners of recurring
// templates, for worker sweeps that materialize everyone.
func (r *SQLiteRepository) ListUsersWithTemplates(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM recurring_transactions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list template users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list template users: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, kind, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, string(c.Kind), c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// DeleteCategory removes the category and detaches everything that
// pointed at it. Transactions and budgets survive with the reference
// cleared; nothing cascades.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, categoryID, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE transactions SET category_id = '' WHERE user_id = ? AND category_id = ?`,
		userID, categoryID); err != nil {
		return fmt.Errorf("detach transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE budgets SET category_id = NULL WHERE user_id = ? AND category_id = ?`,
		userID, categoryID); err != nil {
		return fmt.Errorf("detach budgets: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CategoryNames(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list category names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list category names: %w", err)
	}
	return names, nil
}

func (r *SQLiteRepository) InsertBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category_id, amount_cents, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.CategoryID, b.Amount.Cents, b.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, amount_cents, created_at
		FROM budgets WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		var categoryID sql.NullString
		if err := rows.Scan(&b.ID, &b.UserID, &categoryID, &b.Amount.Cents, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.CategoryID = categoryID.String
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}

// ListPendingExports returns the oldest unmirrored transactions, up to
// limit, for the statement mirror worker.
func (r *SQLiteRepository) ListPendingExports(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, amount_cents, kind, description, category_id, subcategory_id, created_at
		FROM transactions WHERE export_status = ?
		ORDER BY created_at LIMIT ?`, ExportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending exports: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		out = append(out, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending exports: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, transactionID string) error {
	return r.setExportStatus(ctx, transactionID, ExportSynced, "")
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, transactionID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.setExportStatus(ctx, transactionID, ExportError, msg)
}

func (r *SQLiteRepository) setExportStatus(ctx context.Context, transactionID, status, msg string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET export_status = ?, export_error = ? WHERE id = ?`,
		status, msg, transactionID)
	if err != nil {
		return fmt.Errorf("set export status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set export status: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var txn core.Transaction
	var kind string
	err := row.Scan(&txn.ID, &txn.UserID, &txn.Date, &txn.Amount.Cents, &kind,
		&txn.Description, &txn.CategoryID, &txn.SubcategoryID, &txn.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	txn.Kind = core.Kind(kind)
	txn.Date = txn.Date.UTC()
	txn.CreatedAt = txn.CreatedAt.UTC()
	return txn, nil
}
