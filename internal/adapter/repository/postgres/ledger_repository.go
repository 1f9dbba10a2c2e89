package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/silverpine/guildbank/internal/domain"
	"github.com/silverpine/guildbank/internal/logger"
)

// LedgerRepository persists the ledger in Postgres. Ids come from an
// identity column, so they are monotonic and never handed out twice even
// after the newest rows are deleted.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const transactionColumns = `
	id,
	booked_at,
	actor_id,
	sender_account,
	receiver_account,
	platinum,
	gold,
	electrum,
	silver,
	copper,
	description,
	confirmed`

func (r *LedgerRepository) Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	logger.Info("ledger repository create", logger.Fields{
		"actorId":         tx.ActorID,
		"senderAccount":   tx.SenderAccount,
		"receiverAccount": tx.ReceiverAccount,
		"confirmed":       tx.Confirmed,
	})

	const query = `
INSERT INTO transactions (
	booked_at,
	actor_id,
	sender_account,
	receiver_account,
	platinum,
	gold,
	electrum,
	silver,
	copper,
	description,
	confirmed
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
)
RETURNING id`

	var id int64
	if err := r.db.QueryRowContext(
		ctx,
		query,
		tx.Timestamp,
		tx.ActorID,
		tx.SenderAccount,
		tx.ReceiverAccount,
		tx.Amounts[domain.Platinum],
		tx.Amounts[domain.Gold],
		tx.Amounts[domain.Electrum],
		tx.Amounts[domain.Silver],
		tx.Amounts[domain.Copper],
		tx.Description,
		tx.Confirmed,
	).Scan(&id); err != nil {
		logger.Error("ledger repository create failed", err, logger.Fields{
			"actorId":         tx.ActorID,
			"receiverAccount": tx.ReceiverAccount,
		})
		return domain.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	tx.ID = id
	return tx, nil
}

func (r *LedgerRepository) GetByID(ctx context.Context, id int64) (domain.Transaction, error) {
	query := `
SELECT` + transactionColumns + `
FROM transactions
WHERE id = $1`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return domain.Transaction{}, domain.ErrNotFound
	}
	if err != nil {
		logger.Error("ledger repository get failed", err, logger.Fields{"transactionId": id})
		return domain.Transaction{}, fmt.Errorf("select transaction: %w", err)
	}
	return tx, nil
}

func (r *LedgerRepository) Query(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	query := `
SELECT` + transactionColumns + `
FROM transactions
WHERE ($1::bigint IS NULL OR receiver_account = $1)
  AND ($2::boolean IS NULL OR confirmed = $2)
ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, filter.ReceiverAccount, filter.Confirmed)
	if err != nil {
		logger.Error("ledger repository query failed", err, nil)
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (r *LedgerRepository) Range(ctx context.Context, receiverAccount int64, offset, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT` + transactionColumns + `
FROM transactions
WHERE receiver_account = $1
ORDER BY id DESC
OFFSET $2
LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, receiverAccount, offset, limit)
	if err != nil {
		logger.Error("ledger repository range failed", err, logger.Fields{
			"receiverAccount": receiverAccount,
		})
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (r *LedgerRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM transactions WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		logger.Error("ledger repository delete failed", err, logger.Fields{"transactionId": id})
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Confirm(ctx context.Context, id int64) error {
	const query = `UPDATE transactions SET confirmed = TRUE WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		logger.Error("ledger repository confirm failed", err, logger.Fields{"transactionId": id})
		return fmt.Errorf("update transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var tx domain.Transaction
	err := row.Scan(
		&tx.ID,
		&tx.Timestamp,
		&tx.ActorID,
		&tx.SenderAccount,
		&tx.ReceiverAccount,
		&tx.Amounts[domain.Platinum],
		&tx.Amounts[domain.Gold],
		&tx.Amounts[domain.Electrum],
		&tx.Amounts[domain.Silver],
		&tx.Amounts[domain.Copper],
		&tx.Description,
		&tx.Confirmed,
	)
	return tx, err
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
