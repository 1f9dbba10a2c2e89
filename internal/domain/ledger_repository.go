package domain

import "context"

// LedgerRepository stores transaction records. Implementations must assign
// ids atomically and monotonically, never reusing one, and must keep Query
// and Range results in a stable id order.
type LedgerRepository interface {
	// Create assigns the next id, persists the record and returns it as
	// stored. It fails only on storage errors.
	Create(ctx context.Context, tx Transaction) (Transaction, error)

	// GetByID returns ErrNotFound when no record has the id.
	GetByID(ctx context.Context, id int64) (Transaction, error)

	// Query returns every record matching the filter in insertion order.
	Query(ctx context.Context, filter TransactionFilter) ([]Transaction, error)

	// Range returns up to limit records received by accountID, newest
	// first, skipping the first offset matches. A zero limit or an offset
	// past the end yields an empty result, not an error.
	Range(ctx context.Context, accountID int64, offset, limit int) ([]Transaction, error)

	// Delete removes the record; deleting a missing id is a silent no-op.
	Delete(ctx context.Context, id int64) error

	// Confirm marks the record confirmed. Confirming an absent id returns
	// ErrNotFound; confirming an already confirmed record does nothing.
	Confirm(ctx context.Context, id int64) error
}
