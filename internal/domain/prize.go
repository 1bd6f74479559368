package domain

// PayoutKind describes what winning a prize does to the ledger
type PayoutKind string

const (
	PayoutCurrency PayoutKind = "currency" // Credit coins
	PayoutVoucher  PayoutKind = "voucher"  // Grant a voucher by code
	PayoutTicket   PayoutKind = "ticket"   // Credit a ticket counter
	PayoutNone     PayoutKind = "none"     // Losing slice, nothing happens
)

// PrizeEntry Model, one row of a game's prize table
type PrizeEntry struct {
	ID       uint       `gorm:"primaryKey" json:"-"`                                                   // Primary key
	GameMode GameMode   `gorm:"type:varchar(16);not null;uniqueIndex:idx_prize_slot" json:"game_mode"` // Owning game
	Ordinal  int        `gorm:"not null;uniqueIndex:idx_prize_slot" json:"ordinal"`                    // Position in the table
	Name     string     `gorm:"not null" json:"name"`                                                  // Display name
	Kind     PayoutKind `gorm:"type:varchar(16);not null" json:"kind"`                                 // Payout kind
	Value    string     `json:"value,omitempty"`                                                       // Voucher code or ticket name
	Amount   int64      `gorm:"not null;default:0" json:"amount,omitempty"`                            // Coins or tickets to credit
	Weight   float64    `gorm:"not null;default:0" json:"weight"`                                      // Probability in [0,1]
}

// PayoutValue is what clients see as the prize value: the amount for coin
// prizes and the stored value text otherwise, empty for a losing slice.
func (p PrizeEntry) PayoutValue() any {
	if p.Kind == PayoutCurrency {
		return p.Amount
	}
	return p.Value
}

// Voucher Model
type Voucher struct {
	ID          uint   `gorm:"primaryKey" json:"id"`                   // Primary key
	Code        string `gorm:"unique;not null" json:"code"`            // Redeemable code
	Description string `json:"description"`                            // Shown to the customer
	DiscountPct int    `gorm:"not null;default:0" json:"discount_pct"` // Percentage off at checkout
}

// VoucherGrant links a user to a voucher they won; one row per pair
type VoucherGrant struct {
	ID        uint    `gorm:"primaryKey" json:"id"`                                     // Primary key
	UserID    uint    `gorm:"not null;uniqueIndex:idx_voucher_owner" json:"user_id"`    // Owner
	VoucherID uint    `gorm:"not null;uniqueIndex:idx_voucher_owner" json:"voucher_id"` // Granted voucher
	Voucher   Voucher `gorm:"constraint:OnDelete:CASCADE;" json:"voucher"`              // Voucher details
	CreatedAt int64   `gorm:"autoCreateTime:milli" json:"created_at"`                   // Grant time in milliseconds
}

// DrawRecord is the audit row written by every committed draw
type DrawRecord struct {
	ID        string     `gorm:"primaryKey;type:char(36)" json:"id"`           // UUID
	UserID    uint       `gorm:"index;not null" json:"user_id"`                // Player
	GameMode  GameMode   `gorm:"type:varchar(16);index" json:"game_mode"`      // Game played
	Ordinal   int        `json:"ordinal"`                                      // Winning slice
	PrizeName string     `json:"prize_name"`                                   // Winning prize name
	Kind      PayoutKind `gorm:"type:varchar(16)" json:"kind"`                 // Payout kind
	Value     string     `json:"value"`                                        // Payout value as text
	Skipped   bool       `json:"skipped"`                                      // Payout target did not resolve
	CreatedAt int64      `gorm:"autoCreateTime:milli;index" json:"created_at"` // Timestamp in milliseconds
}
