package sheets

import (
	"context"

	"tirelire/internal/core"
)

// Ports for outbound adapters.
type (
	// StatementWriter appends one ledger transaction to the external
	// statement mirror and returns a reference to the written row.
	StatementWriter interface {
		Append(ctx context.Context, txn core.Transaction, categoryName string) (rowRef string, err error)
	}
)
