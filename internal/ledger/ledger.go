// Package ledger holds the ledger mutations that happen outside of a draw.
// They take the same row lock as the draw engine.
package ledger

import (
	"context" // Request scoped contexts
	"errors"  // Error classification
	"fmt"     // Error wrapping

	"shinsen_rewards/internal/domain" // Importing domain models
	"shinsen_rewards/internal/draw"   // Store ports

	"github.com/sirupsen/logrus" // Logging library
)

// ErrInvalidAmount rejects zero or negative credits
var ErrInvalidAmount = errors.New("amount must be positive")

// Store is a draw.Store that can also credit every ledger at once
type Store interface {
	draw.Store
	CreditAll(ctx context.Context, t domain.TicketType, amount int64) (int64, error)
}

// Service applies admin and scheduled ticket credits
type Service struct {
	store Store // Ledger storage
}

// NewService builds a Service, rejecting a nil store
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("ledger: nil store passed to service")
	}
	return &Service{store: store}, nil
}

// GrantTickets credits amount tickets of type t to one user and returns the updated ledger
func (s *Service) GrantTickets(ctx context.Context, userID uint, t domain.TicketType, amount int64) (domain.Ledger, error) {
	if _, ok := t.Column(); !ok {
		return domain.Ledger{}, domain.ErrUnknownTicketType
	}
	if amount <= 0 {
		return domain.Ledger{}, ErrInvalidAmount
	}
	var updated domain.Ledger
	err := s.store.WithinTx(ctx, func(tx draw.Tx) error {
		// Lock first so the returned balance is the committed one
		l, err := tx.LockLedger(userID)
		if err != nil {
			return err
		}
		if err := tx.AddTickets(userID, t, amount); err != nil {
			return err
		}
		l.AddTickets(t, amount)
		updated = l
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"ticket":  t,
			"amount":  amount,
			"error":   err.Error(),
		}).Error("Ticket grant failed")
		return domain.Ledger{}, fmt.Errorf("grant %s tickets: %w", t, err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"ticket":  t,
		"amount":  amount,
		"balance": updated.Tickets(t),
	}).Info("Tickets granted")
	return updated, nil
}

// CreditAllowance gives every user amount tickets of type t
func (s *Service) CreditAllowance(ctx context.Context, t domain.TicketType, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	n, err := s.store.CreditAll(ctx, t, amount)
	if err != nil {
		return 0, fmt.Errorf("credit %s allowance: %w", t, err)
	}
	return n, nil
}
