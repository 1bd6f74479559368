package domain

// Ledger holds the mutable balances of one user: coins plus one ticket counter per game.
// Counters are never negative between transactions.
type Ledger struct {
	ID             uint  `gorm:"primaryKey" json:"id"`                                             // Primary key
	UserID         uint  `gorm:"uniqueIndex;not null" json:"user_id"`                              // Foreign key to User
	Coins          int64 `gorm:"not null;default:0" json:"coins"`                                  // Currency balance
	SpinTickets    int64 `gorm:"not null;default:0" json:"spin_tickets"`                           // Spin wheel entries
	GiftBoxTickets int64 `gorm:"column:giftbox_tickets;not null;default:0" json:"giftbox_tickets"` // Gift box entries
	MemoryTickets  int64 `gorm:"not null;default:0" json:"memory_tickets"`                         // Memory game entries
	WhackTickets   int64 `gorm:"not null;default:0" json:"whack_tickets"`                          // Whack-a-mole entries
	PuzzleTickets  int64 `gorm:"not null;default:0" json:"puzzle_tickets"`                         // Sliding puzzle entries
	SnakeTickets   int64 `gorm:"not null;default:0" json:"snake_tickets"`                          // Snake game entries
	UpdatedAt      int64 `gorm:"autoUpdateTime:milli" json:"updated_at"`                           // Last mutation in milliseconds
}

// Tickets returns the balance of the given ticket counter
func (l Ledger) Tickets(t TicketType) int64 {
	switch t {
	case TicketSpin:
		return l.SpinTickets
	case TicketGiftBox:
		return l.GiftBoxTickets
	case TicketMemory:
		return l.MemoryTickets
	case TicketWhack:
		return l.WhackTickets
	case TicketPuzzle:
		return l.PuzzleTickets
	case TicketSnake:
		return l.SnakeTickets
	}
	return 0
}

// AddTickets adjusts the given ticket counter in memory
func (l *Ledger) AddTickets(t TicketType, delta int64) {
	switch t {
	case TicketSpin:
		l.SpinTickets += delta
	case TicketGiftBox:
		l.GiftBoxTickets += delta
	case TicketMemory:
		l.MemoryTickets += delta
	case TicketWhack:
		l.WhackTickets += delta
	case TicketPuzzle:
		l.PuzzleTickets += delta
	case TicketSnake:
		l.SnakeTickets += delta
	}
}
