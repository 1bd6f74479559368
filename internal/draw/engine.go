package draw

import (
	"context"      // Deadlines per draw
	"errors"       // Error classification
	"math/rand/v2" // Sample source
	"strconv"      // Payout value text
	"time"         // Draw timeout

	"shinsen_rewards/internal/domain" // Importing domain models

	"github.com/google/uuid"     // Draw IDs
	"github.com/sirupsen/logrus" // Logging library
)

// Result is what a player sees after one play
type Result struct {
	DrawID      string            `json:"draw_id"`       // Audit record ID
	Ordinal     int               `json:"prize_ordinal"` // Slice to land the animation on
	Name        string            `json:"prize_name"`    // Prize display name
	Kind        domain.PayoutKind `json:"prize_kind"`    // Payout kind
	Value       any               `json:"prize_value"`   // Amount, code or ticket name
	TicketsLeft int64             `json:"tickets_left"`  // Remaining tickets for this game
}

// Engine runs draws against a Store
type Engine struct {
	store    Store            // Transactional ledger and prize storage
	sampler  Sampler          // Uniform samples in [0, 1)
	observer Observer         // Metrics hook
	timeout  time.Duration    // Bound for one draw, zero for none
	now      func() time.Time // Clock, replaced in tests
}

// Option configures an Engine
type Option func(*Engine)

// WithSampler replaces the random source
func WithSampler(s Sampler) Option {
	return func(e *Engine) { e.sampler = s }
}

// WithObserver registers a draw observer such as a metrics recorder
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithTimeout bounds every draw transaction; zero disables the bound
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// NewEngine builds an Engine, rejecting a nil store
func NewEngine(store Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("draw: nil store passed to engine")
	}
	e := &Engine{
		store:    store,
		sampler:  SamplerFunc(rand.Float64),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Draw plays mode once for userID: it spends one ticket, picks a prize and pays
// it out in a single transaction. The ledger row stays locked for the whole
// unit, so concurrent plays by the same user run one after the other.
func (e *Engine) Draw(ctx context.Context, userID uint, mode domain.GameMode) (Result, error) {
	ticket := mode.Ticket()
	if _, ok := ticket.Column(); !ok {
		return Result{}, domain.ErrUnknownGameMode
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	start := e.now()
	fields := logrus.Fields{"user_id": userID, "game_mode": mode}

	var (
		res     Result
		matched bool
	)
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		ledger, err := tx.LockLedger(userID)
		if err != nil {
			return err
		}
		if ledger.Tickets(ticket) <= 0 {
			return ErrInsufficientTickets
		}
		// Spend the ticket before the prize is known
		if err := tx.AddTickets(userID, ticket, -1); err != nil {
			return err
		}
		ledger.AddTickets(ticket, -1)

		table, err := tx.PrizeTable(mode)
		if err != nil {
			return err
		}
		sample := e.sampler.Float64()
		var idx int
		idx, matched = Pick(table, sample)
		if idx < 0 {
			return ErrEmptyPrizeTable
		}
		prize := table[idx]
		if !matched {
			logrus.WithFields(fields).WithFields(logrus.Fields{
				"sample":  sample,
				"ordinal": prize.Ordinal,
			}).Warn("Prize weights did not cover sample, using fallback prize")
		}

		skipped, err := e.payout(tx, userID, prize, &ledger)
		if err != nil {
			return err
		}

		rec := domain.DrawRecord{
			ID:        uuid.NewString(),
			UserID:    userID,
			GameMode:  mode,
			Ordinal:   prize.Ordinal,
			PrizeName: prize.Name,
			Kind:      prize.Kind,
			Value:     recordValue(prize),
			Skipped:   skipped,
		}
		if err := tx.RecordDraw(&rec); err != nil {
			return err
		}
		res = Result{
			DrawID:      rec.ID,
			Ordinal:     prize.Ordinal,
			Name:        prize.Name,
			Kind:        prize.Kind,
			Value:       prize.PayoutValue(),
			TicketsLeft: ledger.Tickets(ticket),
		}
		return nil
	})
	elapsed := e.now().Sub(start).Seconds()

	switch {
	case err == nil:
		outcome := OutcomeWon
		if !matched {
			outcome = OutcomeFallback
		}
		e.observer.ObserveDraw(mode, outcome, res.Kind, elapsed)
		logrus.WithFields(fields).WithFields(logrus.Fields{
			"draw_id": res.DrawID,
			"ordinal": res.Ordinal,
			"kind":    res.Kind,
		}).Info("Draw completed")
		return res, nil
	case errors.Is(err, ErrInsufficientTickets):
		e.observer.ObserveDraw(mode, OutcomeInsufficient, "", elapsed)
		return Result{}, err
	case IsExpected(err): // Caller mistakes, nothing to wrap
		e.observer.ObserveDraw(mode, OutcomeError, "", elapsed)
		logrus.WithFields(fields).WithField("error", err.Error()).Error("Draw rejected")
		return Result{}, err
	default:
		e.observer.ObserveDraw(mode, OutcomeError, "", elapsed)
		logrus.WithFields(fields).WithField("error", err.Error()).Error("Draw failed")
		return Result{}, &TxError{Op: "draw " + string(mode), Err: err}
	}
}

// payout applies the prize to the ledger. skipped is true when the prize
// pointed at a voucher or ticket counter that does not exist.
func (e *Engine) payout(tx Tx, userID uint, prize domain.PrizeEntry, ledger *domain.Ledger) (skipped bool, err error) {
	fields := logrus.Fields{"user_id": userID, "game_mode": prize.GameMode, "ordinal": prize.Ordinal}
	switch prize.Kind {
	case domain.PayoutNone:
		return false, nil
	case domain.PayoutCurrency:
		if prize.Amount <= 0 {
			logrus.WithFields(fields).WithField("amount", prize.Amount).Warn("Currency prize without a positive amount")
			return true, nil
		}
		if err := tx.AddCoins(userID, prize.Amount); err != nil {
			return false, err
		}
		ledger.Coins += prize.Amount
		return false, nil
	case domain.PayoutTicket:
		t, err := domain.ParseTicketType(prize.Value)
		if err != nil {
			logrus.WithFields(fields).WithFields(logrus.Fields{
				"ticket": prize.Value,
				"error":  ErrUnknownPayoutTarget.Error(),
			}).Warn("Ticket prize skipped")
			return true, nil
		}
		amount := prize.Amount
		if amount <= 0 {
			amount = 1 // A ticket prize without an amount is worth one ticket
		}
		if err := tx.AddTickets(userID, t, amount); err != nil {
			return false, err
		}
		ledger.AddTickets(t, amount)
		return false, nil
	case domain.PayoutVoucher:
		v, found, err := tx.VoucherByCode(prize.Value)
		if err != nil {
			return false, err
		}
		if !found {
			logrus.WithFields(fields).WithFields(logrus.Fields{
				"voucher_code": prize.Value,
				"error":        ErrUnknownPayoutTarget.Error(),
			}).Warn("Voucher prize skipped")
			return true, nil
		}
		granted, err := tx.GrantVoucher(userID, v.ID)
		if err != nil {
			return false, err
		}
		if !granted {
			logrus.WithFields(fields).WithField("voucher_code", v.Code).Debug("Voucher already granted")
		}
		return false, nil
	}
	logrus.WithFields(fields).WithField("kind", prize.Kind).Warn("Unknown payout kind, prize skipped")
	return true, nil
}

func recordValue(p domain.PrizeEntry) string {
	if p.Kind == domain.PayoutCurrency {
		return strconv.FormatInt(p.Amount, 10)
	}
	if p.Kind == domain.PayoutTicket && p.Amount > 1 {
		return p.Value + " x" + strconv.FormatInt(p.Amount, 10)
	}
	return p.Value
}
