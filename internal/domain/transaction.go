package domain

import "time"

// TreasuryAccount is the singleton bank account id.
const TreasuryAccount int64 = 0

// Transaction is one ledger record. Once confirmed it is immutable; before
// that only the Confirmed flag may change, exactly once.
type Transaction struct {
	ID              int64
	Timestamp       time.Time
	ActorID         int64
	SenderAccount   int64
	ReceiverAccount int64
	Amounts         Amounts
	Description     string
	Confirmed       bool
}

// SelfTransfer reports whether the record books against a single account,
// which is how the treasury writes its own ledger entries.
func (t Transaction) SelfTransfer() bool {
	return t.SenderAccount == t.ReceiverAccount
}

// Mirror returns the counterpart record of a non-self transaction: roles
// swapped, every amount negated, id cleared for the store to assign.
// Timestamp, actor, description and confirmed state carry over so the pair
// stays matched.
func (t Transaction) Mirror() Transaction {
	mirror := t
	mirror.ID = 0
	mirror.SenderAccount = t.ReceiverAccount
	mirror.ReceiverAccount = t.SenderAccount
	mirror.Amounts = t.Amounts.Negated()
	return mirror
}

// TransactionFilter narrows Query results; nil fields match everything.
type TransactionFilter struct {
	ReceiverAccount *int64
	Confirmed       *bool
}

// Matches reports whether the transaction satisfies every set filter field.
func (f TransactionFilter) Matches(t Transaction) bool {
	if f.ReceiverAccount != nil && t.ReceiverAccount != *f.ReceiverAccount {
		return false
	}
	if f.Confirmed != nil && t.Confirmed != *f.Confirmed {
		return false
	}
	return true
}
