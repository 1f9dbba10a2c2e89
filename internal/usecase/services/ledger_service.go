package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/silverpine/guildbank/internal/domain"
	"github.com/silverpine/guildbank/internal/logger"
)

// LedgerService validates transaction requests, enforces the double-entry
// mirror invariant and serves balance and history queries. A single RWMutex
// makes a mirrored pair visible to readers atomically: Record holds the
// write lock across both inserts, reads hold the read lock and so never
// block each other.
type LedgerService struct {
	mu     sync.RWMutex
	ledger domain.LedgerRepository
}

func NewLedgerService(ledger domain.LedgerRepository) *LedgerService {
	return &LedgerService{ledger: ledger}
}

// RecordRequest carries one transaction request as the caller phrased it.
// AmountString follows the grammar of domain.ParseAmounts. Privileged
// requests are booked confirmed and may move negative quantities.
type RecordRequest struct {
	ActorID         int64
	SenderAccount   int64
	ReceiverAccount int64
	AmountString    string
	Description     string
	Privileged      bool
}

// Record books the request on the ledger. A self transaction (sender ==
// receiver) stores one record; anything else stores the record and its
// mirror as an all-or-nothing pair, primary first in the returned slice.
// Validation failures leave the ledger untouched.
func (s *LedgerService) Record(ctx context.Context, req RecordRequest) ([]domain.Transaction, error) {
	logger.Info("ledger service record request", logger.Fields{
		"actorId":         req.ActorID,
		"senderAccount":   req.SenderAccount,
		"receiverAccount": req.ReceiverAccount,
		"amountString":    req.AmountString,
		"privileged":      req.Privileged,
	})

	if req.Description == "" {
		return nil, fmt.Errorf("%w: description", domain.ErrMissingField)
	}
	if req.AmountString == "" {
		return nil, fmt.Errorf("%w: amount string", domain.ErrMissingField)
	}

	amounts, err := domain.ParseAmounts(req.AmountString)
	if err != nil {
		return nil, err
	}
	if !req.Privileged && amounts.HasNegative() {
		return nil, domain.ErrNegativeAmount
	}

	primary := domain.Transaction{
		Timestamp:       time.Now().UTC(),
		ActorID:         req.ActorID,
		SenderAccount:   req.SenderAccount,
		ReceiverAccount: req.ReceiverAccount,
		Amounts:         amounts,
		Description:     req.Description,
		Confirmed:       req.Privileged,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.ledger.Create(ctx, primary)
	if err != nil {
		logger.Error("ledger service create failed", err, logger.Fields{
			"actorId":         req.ActorID,
			"receiverAccount": req.ReceiverAccount,
		})
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	if stored.SelfTransfer() {
		logger.Info("ledger service record success", logger.Fields{
			"transactionId": stored.ID,
			"confirmed":     stored.Confirmed,
		})
		return []domain.Transaction{stored}, nil
	}

	mirror, err := s.ledger.Create(ctx, stored.Mirror())
	if err != nil {
		if rbErr := s.ledger.Delete(ctx, stored.ID); rbErr != nil {
			logger.Error("ledger service mirror rollback failed, unmatched record remains", rbErr, logger.Fields{
				"transactionId": stored.ID,
			})
			return nil, fmt.Errorf("create mirror transaction: %w; rollback of transaction %d failed: %v: %w",
				err, stored.ID, rbErr, domain.ErrLedgerInconsistent)
		}
		logger.Error("ledger service mirror create failed, primary rolled back", err, logger.Fields{
			"transactionId": stored.ID,
		})
		return nil, fmt.Errorf("create mirror transaction: %w", err)
	}

	logger.Info("ledger service record success", logger.Fields{
		"transactionId": stored.ID,
		"mirrorId":      mirror.ID,
		"confirmed":     stored.Confirmed,
	})
	return []domain.Transaction{stored, mirror}, nil
}

// Balance sums every confirmed transaction received by the account, one
// accumulator per denomination. Pending records never contribute.
func (s *LedgerService) Balance(ctx context.Context, accountID int64) (domain.Amounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	confirmed := true
	records, err := s.ledger.Query(ctx, domain.TransactionFilter{
		ReceiverAccount: &accountID,
		Confirmed:       &confirmed,
	})
	if err != nil {
		return domain.Amounts{}, fmt.Errorf("query confirmed transactions: %w", err)
	}

	var balance domain.Amounts
	for _, record := range records {
		balance = balance.Add(record.Amounts)
	}
	return balance, nil
}

// History returns up to limit records received by the account, newest
// first, skipping the first offset matches.
func (s *LedgerService) History(ctx context.Context, accountID int64, offset, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.ledger.Range(ctx, accountID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("range transactions: %w", err)
	}
	return records, nil
}

// Pending returns every unconfirmed transaction in insertion order.
func (s *LedgerService) Pending(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	confirmed := false
	records, err := s.ledger.Query(ctx, domain.TransactionFilter{Confirmed: &confirmed})
	if err != nil {
		return nil, fmt.Errorf("query pending transactions: %w", err)
	}
	return records, nil
}

// Confirm marks a single record confirmed. It never cascades to the mirror;
// callers wanting both halves confirmed confirm both ids.
func (s *LedgerService) Confirm(ctx context.Context, id int64) error {
	logger.Info("ledger service confirm", logger.Fields{"transactionId": id})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.Confirm(ctx, id); err != nil {
		return fmt.Errorf("confirm transaction %d: %w", id, err)
	}
	return nil
}

// Delete removes a single record. It never cascades to the mirror, so
// deleting one half of a pair leaves the ledger unbalanced by that amount.
func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	logger.Info("ledger service delete", logger.Fields{"transactionId": id})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}
