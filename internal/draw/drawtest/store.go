// Package drawtest provides an in-memory draw.Store with row locks and rollback,
// for tests that should not need a database.
package drawtest

import (
	"context" // Port signatures
	"sort"    // Ordinal ordering
	"sync"    // Row locks

	"shinsen_rewards/internal/domain" // Importing domain models
	"shinsen_rewards/internal/draw"   // Store ports
)

// Operation names accepted by FailOn
const (
	OpLockLedger    = "LockLedger"
	OpAddTickets    = "AddTickets"
	OpAddCoins      = "AddCoins"
	OpPrizeTable    = "PrizeTable"
	OpVoucherByCode = "VoucherByCode"
	OpGrantVoucher  = "GrantVoucher"
	OpRecordDraw    = "RecordDraw"
	OpCommit        = "Commit"
)

type grantKey struct{ userID, voucherID uint }

// Store keeps committed state in maps. Each transaction stages its writes and
// publishes them only on commit; LockLedger holds a per-user mutex until the
// transaction ends.
type Store struct {
	mu       sync.Mutex                              // Guards the committed state
	rowLocks map[uint]*sync.Mutex                    // Per-user FOR UPDATE stand-in
	ledgers  map[uint]domain.Ledger                  // Committed ledgers
	prizes   map[domain.GameMode][]domain.PrizeEntry // Prize tables by game
	vouchers map[string]domain.Voucher               // Vouchers by code
	grants   map[grantKey]bool                       // Granted (user, voucher) pairs
	records  []domain.DrawRecord                     // Committed draw records
	failures map[string]error                        // Injected errors by operation
	commits  int                                     // Committed transactions
	rollback int                                     // Rolled back transactions
}

// NewStore returns an empty Store
func NewStore() *Store {
	return &Store{
		rowLocks: make(map[uint]*sync.Mutex),
		ledgers:  make(map[uint]domain.Ledger),
		prizes:   make(map[domain.GameMode][]domain.PrizeEntry),
		vouchers: make(map[string]domain.Voucher),
		grants:   make(map[grantKey]bool),
		failures: make(map[string]error),
	}
}

// PutLedger stores a committed ledger row
func (s *Store) PutLedger(l domain.Ledger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[l.UserID] = l
}

// Ledger returns the committed ledger row
func (s *Store) Ledger(userID uint) domain.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledgers[userID]
}

// PutPrizes replaces a game's prize table
func (s *Store) PutPrizes(mode domain.GameMode, table []domain.PrizeEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]domain.PrizeEntry(nil), table...)
	for i := range cp {
		cp[i].GameMode = mode
	}
	s.prizes[mode] = cp
}

// PutVoucher registers a voucher; IDs are assigned in insertion order
func (s *Store) PutVoucher(v domain.Voucher) domain.Voucher {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == 0 {
		v.ID = uint(len(s.vouchers) + 1)
	}
	s.vouchers[v.Code] = v
	return v
}

// GrantCount counts committed voucher grants of one user
func (s *Store) GrantCount(userID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.grants {
		if k.userID == userID {
			n++
		}
	}
	return n
}

// Records returns committed draw records
func (s *Store) Records() []domain.DrawRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DrawRecord(nil), s.records...)
}

// Stats returns how many transactions committed and rolled back
func (s *Store) Stats() (commits, rollbacks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits, s.rollback
}

// FailOn makes every later call of op return err; a nil err clears it
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) failure(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[op]
}

func (s *Store) rowLock(userID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[userID] = l
	}
	return l
}

// WithinTx implements draw.Store
func (s *Store) WithinTx(ctx context.Context, fn func(tx draw.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &Tx{
		ctx:     ctx,
		store:   s,
		ledgers: make(map[uint]domain.Ledger),
		grants:  make(map[grantKey]bool),
	}
	defer tx.release()
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.rollback++
			s.mu.Unlock()
			panic(r)
		}
	}()

	if err = fn(tx); err == nil {
		err = s.failure(OpCommit)
	}
	if err == nil {
		err = ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.rollback++
		return err
	}
	for id, l := range tx.ledgers {
		s.ledgers[id] = l
	}
	for k := range tx.grants {
		s.grants[k] = true
	}
	s.records = append(s.records, tx.records...)
	s.commits++
	return nil
}

// CreditAll adds amount to the ticket counter of every ledger in one step
func (s *Store) CreditAll(ctx context.Context, t domain.TicketType, amount int64) (int64, error) {
	if _, ok := t.Column(); !ok {
		return 0, domain.ErrUnknownTicketType
	}
	if err := s.failure(OpAddTickets); err != nil {
		return 0, err
	}
	ids := make([]uint, 0)
	s.mu.Lock()
	for id := range s.ledgers {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		lock := s.rowLock(id)
		lock.Lock()
		s.mu.Lock()
		l := s.ledgers[id]
		l.AddTickets(t, amount)
		s.ledgers[id] = l
		s.mu.Unlock()
		lock.Unlock()
	}
	return int64(len(ids)), nil
}

// Tx is a staged transaction over Store
type Tx struct {
	ctx     context.Context
	store   *Store
	locks   []*sync.Mutex
	ledgers map[uint]domain.Ledger
	grants  map[grantKey]bool
	records []domain.DrawRecord
}

func (tx *Tx) release() {
	for i := len(tx.locks) - 1; i >= 0; i-- {
		tx.locks[i].Unlock()
	}
	tx.locks = nil
}

func (tx *Tx) check(op string) error {
	if err := tx.ctx.Err(); err != nil {
		return err
	}
	return tx.store.failure(op)
}

// LockLedger implements draw.Tx
func (tx *Tx) LockLedger(userID uint) (domain.Ledger, error) {
	if err := tx.check(OpLockLedger); err != nil {
		return domain.Ledger{}, err
	}
	if l, ok := tx.ledgers[userID]; ok {
		return l, nil
	}
	lock := tx.store.rowLock(userID)
	lock.Lock()
	tx.locks = append(tx.locks, lock)

	tx.store.mu.Lock()
	l, ok := tx.store.ledgers[userID]
	tx.store.mu.Unlock()
	if !ok {
		return domain.Ledger{}, draw.ErrLedgerNotFound
	}
	tx.ledgers[userID] = l
	return l, nil
}

func (tx *Tx) staged(userID uint) (domain.Ledger, error) {
	l, ok := tx.ledgers[userID]
	if !ok {
		// Writes without a prior lock are a programming error in the caller.
		return tx.LockLedger(userID)
	}
	return l, nil
}

// AddTickets implements draw.Tx
func (tx *Tx) AddTickets(userID uint, t domain.TicketType, delta int64) error {
	if err := tx.check(OpAddTickets); err != nil {
		return err
	}
	if _, ok := t.Column(); !ok {
		return domain.ErrUnknownTicketType
	}
	l, err := tx.staged(userID)
	if err != nil {
		return err
	}
	if l.Tickets(t)+delta < 0 {
		return draw.ErrInsufficientTickets
	}
	l.AddTickets(t, delta)
	tx.ledgers[userID] = l
	return nil
}

// AddCoins implements draw.Tx
func (tx *Tx) AddCoins(userID uint, amount int64) error {
	if err := tx.check(OpAddCoins); err != nil {
		return err
	}
	l, err := tx.staged(userID)
	if err != nil {
		return err
	}
	l.Coins += amount
	tx.ledgers[userID] = l
	return nil
}

// PrizeTable implements draw.Tx
func (tx *Tx) PrizeTable(mode domain.GameMode) ([]domain.PrizeEntry, error) {
	if err := tx.check(OpPrizeTable); err != nil {
		return nil, err
	}
	tx.store.mu.Lock()
	table := append([]domain.PrizeEntry(nil), tx.store.prizes[mode]...)
	tx.store.mu.Unlock()
	sort.SliceStable(table, func(i, j int) bool { return table[i].Ordinal < table[j].Ordinal })
	return table, nil
}

// VoucherByCode implements draw.Tx
func (tx *Tx) VoucherByCode(code string) (domain.Voucher, bool, error) {
	if err := tx.check(OpVoucherByCode); err != nil {
		return domain.Voucher{}, false, err
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	v, ok := tx.store.vouchers[code]
	return v, ok, nil
}

// GrantVoucher implements draw.Tx
func (tx *Tx) GrantVoucher(userID, voucherID uint) (bool, error) {
	if err := tx.check(OpGrantVoucher); err != nil {
		return false, err
	}
	k := grantKey{userID, voucherID}
	tx.store.mu.Lock()
	exists := tx.store.grants[k]
	tx.store.mu.Unlock()
	if exists || tx.grants[k] {
		return false, nil
	}
	tx.grants[k] = true
	return true, nil
}

// RecordDraw implements draw.Tx
func (tx *Tx) RecordDraw(rec *domain.DrawRecord) error {
	if err := tx.check(OpRecordDraw); err != nil {
		return err
	}
	tx.records = append(tx.records, *rec)
	return nil
}
