// Package store implements the reward ledger on MySQL through GORM.
package store

import (
	"context" // Request scoped contexts
	"errors"  // Error classification

	"shinsen_rewards/internal/domain" // Importing domain models
	"shinsen_rewards/internal/draw"   // Store ports

	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // Row locks and upserts
)

// Store is the GORM backed draw.Store
type Store struct {
	db *gorm.DB // Connection pool
}

// New wraps an open GORM connection
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("store: nil database handle")
	}
	return &Store{db: db}, nil
}

// WithinTx runs fn inside a database transaction bound to ctx.
// GORM commits when fn returns nil and rolls back on error or panic.
func (s *Store) WithinTx(ctx context.Context, fn func(tx draw.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&Tx{db: gtx})
	})
}

// CreditAll adds amount to one ticket counter on every ledger row in a single statement
func (s *Store) CreditAll(ctx context.Context, t domain.TicketType, amount int64) (int64, error) {
	col, ok := t.Column()
	if !ok {
		return 0, domain.ErrUnknownTicketType
	}
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&domain.Ledger{}).
		Update(col, gorm.Expr("? + ?", clause.Column{Name: col}, amount))
	return res.RowsAffected, res.Error
}

// Tx is one open GORM transaction
type Tx struct {
	db *gorm.DB // Transaction handle
}

// LockLedger selects the ledger row FOR UPDATE
func (t *Tx) LockLedger(userID uint) (domain.Ledger, error) {
	var l domain.Ledger
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Ledger{}, draw.ErrLedgerNotFound
	}
	return l, err
}

// AddTickets adjusts one allow-listed ticket counter. Decrements are guarded
// so a counter can never go below zero even if the caller skipped the lock.
func (t *Tx) AddTickets(userID uint, tt domain.TicketType, delta int64) error {
	col, ok := tt.Column()
	if !ok {
		return domain.ErrUnknownTicketType
	}
	q := t.db.Model(&domain.Ledger{}).Where("user_id = ?", userID)
	if delta < 0 {
		// WHERE col >= -delta
		q = q.Where(clause.Gte{Column: clause.Column{Name: col}, Value: -delta})
	}
	res := q.Update(col, gorm.Expr("? + ?", clause.Column{Name: col}, delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if delta < 0 {
			return draw.ErrInsufficientTickets
		}
		return draw.ErrLedgerNotFound // No row matched the user
	}
	return nil
}

// AddCoins credits the currency balance
func (t *Tx) AddCoins(userID uint, amount int64) error {
	res := t.db.Model(&domain.Ledger{}).
		Where("user_id = ?", userID).
		Update("coins", gorm.Expr("coins + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return draw.ErrLedgerNotFound
	}
	return nil
}

// PrizeTable loads a game's entries in ordinal order
func (t *Tx) PrizeTable(mode domain.GameMode) ([]domain.PrizeEntry, error) {
	var table []domain.PrizeEntry
	err := t.db.Where("game_mode = ?", mode).Order("ordinal asc").Find(&table).Error
	return table, err
}

// VoucherByCode looks a voucher up by its code
func (t *Tx) VoucherByCode(code string) (domain.Voucher, bool, error) {
	var v domain.Voucher
	err := t.db.Where("code = ?", code).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Voucher{}, false, nil
	}
	if err != nil {
		return domain.Voucher{}, false, err
	}
	return v, true, nil
}

// GrantVoucher inserts the grant, ignoring a duplicate (user, voucher) pair
func (t *Tx) GrantVoucher(userID, voucherID uint) (bool, error) {
	grant := domain.VoucherGrant{UserID: userID, VoucherID: voucherID}
	// ON DUPLICATE KEY UPDATE on MySQL; repeats hit the unique (user, voucher) index
	res := t.db.Clauses(clause.OnConflict{DoNothing: true}).Omit("Voucher").Create(&grant)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RecordDraw appends the audit row
func (t *Tx) RecordDraw(rec *domain.DrawRecord) error {
	return t.db.Create(rec).Error
}
