package domain

import "errors"

var (
	ErrNotFound              = errors.New("transaction not found")
	ErrInvalidFormat         = errors.New("invalid amount string")
	ErrMissingField          = errors.New("missing required field")
	ErrNegativeAmount        = errors.New("negative amounts are not allowed")
	ErrDuplicateDenomination = errors.New("duplicate denomination")
	ErrLedgerInconsistent    = errors.New("ledger may be inconsistent")
)
