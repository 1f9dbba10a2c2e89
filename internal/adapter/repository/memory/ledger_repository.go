package memory

import (
	"context"
	"sync"

	"github.com/silverpine/guildbank/internal/domain"
)

// LedgerRepository keeps the ledger in an insertion-ordered slice. Intended
// for tests and single-node setups that can afford to lose the ledger on
// restart.
type LedgerRepository struct {
	mu     sync.Mutex
	nextID int64
	items  []domain.Transaction
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{nextID: 1}
}

func (r *LedgerRepository) Create(_ context.Context, tx domain.Transaction) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx.ID = r.nextID
	r.nextID++
	r.items = append(r.items, tx)
	return tx, nil
}

func (r *LedgerRepository) GetByID(_ context.Context, id int64) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.Transaction{}, domain.ErrNotFound
}

func (r *LedgerRepository) Query(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Transaction
	for _, item := range r.items {
		if filter.Matches(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *LedgerRepository) Range(_ context.Context, receiverAccount int64, offset, limit int) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Transaction
	skipped := 0
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		item := r.items[i]
		if item.ReceiverAccount != receiverAccount {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *LedgerRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, item := range r.items {
		if item.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *LedgerRepository) Confirm(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Confirmed = true
			return nil
		}
	}
	return domain.ErrNotFound
}
