package draw

import (
	"context" // Transaction scope

	"shinsen_rewards/internal/domain" // Importing domain models
)

// Store opens transactions over the reward ledger.
// WithinTx commits when fn returns nil and rolls back on any error or panic;
// the Tx must not be used after fn returns.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is one open transaction. It is bound to the context given to WithinTx.
type Tx interface {
	// LockLedger reads the user's ledger row and holds an exclusive lock on it
	// until the transaction ends. Returns ErrLedgerNotFound for unknown users.
	LockLedger(userID uint) (domain.Ledger, error)
	AddTickets(userID uint, t domain.TicketType, delta int64) error
	AddCoins(userID uint, amount int64) error
	// PrizeTable returns the mode's entries ordered by ordinal.
	PrizeTable(mode domain.GameMode) ([]domain.PrizeEntry, error)
	VoucherByCode(code string) (domain.Voucher, bool, error)
	// GrantVoucher inserts the (user, voucher) pair; granted is false when it already existed.
	GrantVoucher(userID, voucherID uint) (granted bool, err error)
	RecordDraw(rec *domain.DrawRecord) error
}

// Sampler produces uniform samples in [0,1).
type Sampler interface {
	Float64() float64
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func() float64

func (f SamplerFunc) Float64() float64 { return f() }

// Observer receives one call per finished draw.
type Observer interface {
	ObserveDraw(mode domain.GameMode, outcome string, kind domain.PayoutKind, seconds float64)
}

// Draw outcomes reported to the Observer
const (
	OutcomeWon          = "won"                  // Weighted walk matched
	OutcomeFallback     = "fallback"             // Weights did not cover the sample
	OutcomeInsufficient = "insufficient_tickets" // Player had no ticket
	OutcomeError        = "error"                // Rolled back
)

type nopObserver struct{}

func (nopObserver) ObserveDraw(domain.GameMode, string, domain.PayoutKind, float64) {}
