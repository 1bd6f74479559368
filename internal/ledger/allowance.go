package ledger

import (
	"context" // Job deadline
	"time"    // Job timeout

	"shinsen_rewards/internal/domain" // Importing domain models

	"github.com/robfig/cron/v3"  // Cron scheduler
	"github.com/sirupsen/logrus" // Logging library
)

// Allowance is a recurring ticket credit for every user
type Allowance struct {
	Spec    string            // Cron expression, e.g. "0 0 * * *"
	Ticket  domain.TicketType // Counter to credit
	Amount  int64             // Tickets per run
	Timeout time.Duration     // Upper bound for one run
}

// Job returns the cron job body for a
func (s *Service) Job(a Allowance) func() {
	return func() {
		ctx := context.Background()
		if a.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.Timeout)
			defer cancel()
		}
		n, err := s.CreditAllowance(ctx, a.Ticket, a.Amount) // One UPDATE across all ledgers
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"ticket": a.Ticket,
				"amount": a.Amount,
				"error":  err.Error(),
			}).Error("Daily allowance failed")
			return
		}
		logrus.WithFields(logrus.Fields{
			"ticket":  a.Ticket,
			"amount":  a.Amount,
			"ledgers": n,
		}).Info("Daily allowance credited")
	}
}

// Schedule registers the allowance on c. The cron must be started by the caller.
func (s *Service) Schedule(c *cron.Cron, a Allowance) (cron.EntryID, error) {
	if _, ok := a.Ticket.Column(); !ok {
		return 0, domain.ErrUnknownTicketType
	}
	if a.Amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return c.AddFunc(a.Spec, s.Job(a))
}
