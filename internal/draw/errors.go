package draw

import (
	"errors" // Sentinel errors
	"fmt"    // Error formatting
)

var (
	// ErrInsufficientTickets is the only draw failure shown to players.
	ErrInsufficientTickets = errors.New("not enough tickets to play this game")
	// ErrUnknownPayoutTarget marks a prize whose voucher code or ticket name does not resolve.
	// It is recovered inside the draw and never returned to callers.
	ErrUnknownPayoutTarget = errors.New("unknown payout target")
	ErrLedgerNotFound      = errors.New("ledger not found")
	ErrEmptyPrizeTable     = errors.New("prize table is empty")
)

// TxError wraps any storage failure that rolled a draw back.
type TxError struct {
	Op  string // Operation, e.g. "draw spin"
	Err error  // Underlying storage error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("%s: transaction rolled back: %v", e.Op, e.Err)
}

func (e *TxError) Unwrap() error {
	return e.Err
}

// IsExpected reports whether err is a domain outcome rather than a storage failure.
func IsExpected(err error) bool {
	return errors.Is(err, ErrInsufficientTickets) ||
		errors.Is(err, ErrLedgerNotFound) ||
		errors.Is(err, ErrEmptyPrizeTable)
}
