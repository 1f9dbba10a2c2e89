package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/silverpine/guildbank/internal/domain"
)

const (
	keyPrefix     = "tx/"
	metaNextIDKey = "meta/next_id"
)

// LedgerRepository persists the ledger in a Badger key-value store. Keys are
// zero-padded ids under a common prefix so lexicographic key order matches
// id order; writes go through a single mutex so ids stay monotonic and
// transactions never hit Badger's conflict detection. The id counter is
// persisted alongside every record, so an id stays burned even when the
// newest records are deleted before a restart.
type LedgerRepository struct {
	mu     sync.Mutex
	db     *badger.DB
	nextID int64
}

// Open opens or creates a Badger store at path.
func Open(path string) (*LedgerRepository, error) {
	return open(badger.DefaultOptions(path).WithLogger(nil))
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*LedgerRepository, error) {
	return open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

func open(opts badger.Options) (*LedgerRepository, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}

	repo := &LedgerRepository{db: db, nextID: 1}
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaNextIDKey))
		if err == nil {
			return item.Value(func(val []byte) error {
				next, err := strconv.ParseInt(string(val), 10, 64)
				if err != nil {
					return fmt.Errorf("malformed next id %q: %w", val, err)
				}
				repo.nextID = next
				return nil
			})
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		// Stores written before the counter key existed: fall back to the
		// newest record key.
		itOpts := badger.DefaultIteratorOptions
		itOpts.Reverse = true
		itOpts.PrefetchValues = false
		it := txn.NewIterator(itOpts)
		defer it.Close()

		it.Seek(seekLast())
		if !it.ValidForPrefix([]byte(keyPrefix)) {
			return nil
		}
		id, err := idFromKey(it.Item().Key())
		if err != nil {
			return err
		}
		repo.nextID = id + 1
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load next transaction id: %w", err)
	}
	return repo, nil
}

func (r *LedgerRepository) Close() error {
	return r.db.Close()
}

func (r *LedgerRepository) Create(_ context.Context, tx domain.Transaction) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx.ID = r.nextID
	payload, err := json.Marshal(toRecord(tx))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("encode transaction: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(keyFor(tx.ID), payload); err != nil {
			return err
		}
		return txn.Set([]byte(metaNextIDKey), []byte(strconv.FormatInt(tx.ID+1, 10)))
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("store transaction: %w", err)
	}

	r.nextID++
	return tx, nil
}

func (r *LedgerRepository) GetByID(_ context.Context, id int64) (domain.Transaction, error) {
	var out domain.Transaction
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyFor(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tx, err := decode(val)
			if err != nil {
				return err
			}
			out = tx
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Transaction{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}
	return out, nil
}

func (r *LedgerRepository) Query(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := r.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				tx, err := decode(val)
				if err != nil {
					return err
				}
				if filter.Matches(tx) {
					out = append(out, tx)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return out, nil
}

func (r *LedgerRepository) Range(_ context.Context, receiverAccount int64, offset, limit int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := r.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Reverse = true
		it := txn.NewIterator(itOpts)
		defer it.Close()

		skipped := 0
		for it.Seek(seekLast()); it.ValidForPrefix([]byte(keyPrefix)) && len(out) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				tx, err := decode(val)
				if err != nil {
					return err
				}
				if tx.ReceiverAccount != receiverAccount {
					return nil
				}
				if skipped < offset {
					skipped++
					return nil
				}
				out = append(out, tx)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return out, nil
}

func (r *LedgerRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keyFor(id))
	})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Confirm(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyFor(id))
		if err != nil {
			return err
		}
		var tx domain.Transaction
		err = item.Value(func(val []byte) error {
			tx, err = decode(val)
			return err
		})
		if err != nil {
			return err
		}
		tx.Confirmed = true
		payload, err := json.Marshal(toRecord(tx))
		if err != nil {
			return err
		}
		return txn.Set(keyFor(id), payload)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("confirm transaction: %w", err)
	}
	return nil
}

func keyFor(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, id))
}

// seekLast is a key past every possible transaction key, used to start
// reverse iteration at the newest record.
func seekLast() []byte {
	return append([]byte(keyPrefix), 0xFF)
}

func idFromKey(key []byte) (int64, error) {
	raw := strings.TrimPrefix(string(key), keyPrefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed transaction key %q: %w", key, err)
	}
	return id, nil
}

type record struct {
	ID              int64                          `json:"id"`
	Timestamp       time.Time                      `json:"timestamp"`
	ActorID         int64                          `json:"actorId"`
	SenderAccount   int64                          `json:"senderAccount"`
	ReceiverAccount int64                          `json:"receiverAccount"`
	Amounts         [domain.NumDenominations]int64 `json:"amounts"`
	Description     string                         `json:"description"`
	Confirmed       bool                           `json:"confirmed"`
}

func toRecord(tx domain.Transaction) record {
	return record{
		ID:              tx.ID,
		Timestamp:       tx.Timestamp,
		ActorID:         tx.ActorID,
		SenderAccount:   tx.SenderAccount,
		ReceiverAccount: tx.ReceiverAccount,
		Amounts:         tx.Amounts,
		Description:     tx.Description,
		Confirmed:       tx.Confirmed,
	}
}

func decode(val []byte) (domain.Transaction, error) {
	var rec record
	if err := json.Unmarshal(val, &rec); err != nil {
		return domain.Transaction{}, fmt.Errorf("decode transaction: %w", err)
	}
	return domain.Transaction{
		ID:              rec.ID,
		Timestamp:       rec.Timestamp,
		ActorID:         rec.ActorID,
		SenderAccount:   rec.SenderAccount,
		ReceiverAccount: rec.ReceiverAccount,
		Amounts:         domain.Amounts(rec.Amounts),
		Description:     rec.Description,
		Confirmed:       rec.Confirmed,
	}, nil
}
