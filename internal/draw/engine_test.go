package draw_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shinsen_rewards/internal/domain"
	"shinsen_rewards/internal/draw"
	"shinsen_rewards/internal/draw/drawtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const testUser uint = 7

func fixed(v float64) draw.Sampler {
	return draw.SamplerFunc(func() float64 { return v })
}

func coinTable() []domain.PrizeEntry {
	return []domain.PrizeEntry{
		{Ordinal: 0, Name: "100 coins", Kind: domain.PayoutCurrency, Amount: 100, Weight: 0.5},
		{Ordinal: 1, Name: "fail", Kind: domain.PayoutNone, Weight: 0.5},
	}
}

func newEngine(t *testing.T, store draw.Store, sample float64, opts ...draw.Option) *draw.Engine {
	t.Helper()
	opts = append([]draw.Option{draw.WithSampler(fixed(sample))}, opts...)
	e, err := draw.NewEngine(store, opts...)
	require.NoError(t, err)
	return e
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveDraw(_ domain.GameMode, outcome string, _ domain.PayoutKind, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func TestNewEngineRejectsNilStore(t *testing.T) {
	_, err := draw.NewEngine(nil)
	assert.Error(t, err)
}

func TestDrawCurrencyAndNoop(t *testing.T) {
	t.Run("sample 0.3 wins 100 coins", func(t *testing.T) {
		store := drawtest.NewStore()
		store.PutLedger(domain.Ledger{UserID: testUser, SpinTickets: 1, Coins: 20})
		store.PutPrizes(domain.GameSpin, coinTable())

		res, err := newEngine(t, store, 0.3).Draw(context.Background(), testUser, domain.GameSpin)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Ordinal)
		assert.Equal(t, "100 coins", res.Name)
		assert.Equal(t, domain.PayoutCurrency, res.Kind)
		assert.Equal(t, int64(100), res.Value)
		assert.Equal(t, int64(0), res.TicketsLeft)
		assert.NotEmpty(t, res.DrawID)

		l := store.Ledger(testUser)
		assert.Equal(t, int64(0), l.SpinTickets)
		assert.Equal(t, int64(120), l.Coins)
	})

	t.Run("sample 0.7 loses", func(t *testing.T) {
		store := drawtest.NewStore()
		store.PutLedger(domain.Ledger{UserID: testUser, SpinTickets: 1, Coins: 20})
		store.PutPrizes(domain.GameSpin, coinTable())

		res, err := newEngine(t, store, 0.7).Draw(context.Background(), testUser, domain.GameSpin)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Ordinal)
		assert.Equal(t, "fail", res.Name)
		assert.Equal(t, domain.PayoutNone, res.Kind)
		assert.Equal(t, "", res.Value)

		l := store.Ledger(testUser)
		assert.Equal(t, int64(0), l.SpinTickets)
		assert.Equal(t, int64(20), l.Coins)
	})
}

func TestDrawInsufficientTickets(t *testing.T) {
	store := drawtest.NewStore()
	store.PutLedger(domain.Ledger{UserID: testUser, SpinTickets: 0, GiftBoxTickets: 3})
	store.PutPrizes(domain.GameSpin, coinTable())
	obs := &recordingObserver{}

	_, err := newEngine(t, store, 0.3, draw.WithObserver(obs)).Draw(context.Background(), testUser, domain.GameSpin)
	require.ErrorIs(t, err, draw.ErrInsufficientTickets)

	l := store.Ledger(testUser)
	assert.Equal(t, int64(0), l.SpinTickets)
	assert.Equal(t, int64(3), l.GiftBoxTickets)
	assert.Empty(t, store.Records())
	commits, rollbacks := store.Stats()
	assert.Equal(t, 0, commits)
	assert.Equal(t, 1, rollbacks)
	assert.Equal(t, []string{draw.OutcomeInsufficient}, obs.outcomes)
}

func TestDrawUnknownUser(t *testing.T) {
	store := drawtest.NewStore()
	store.PutPrizes(domain.GameSpin, coinTable())

	_, err := newEngine(t, store, 0.3).Draw(context.Background(), 99, domain.GameSpin)
	assert.ErrorIs(t, err, draw.ErrLedgerNotFound)
}

func TestDrawUnknownMode(t *testing.T) {
	store := drawtest.NewStore()
	_, err := newEngine(t, store, 0.3).Draw(context.Background(), testUser, domain.GameMode("roulette"))
	assert.ErrorIs(t, err, domain.ErrUnknownGameMode)
}

func TestDrawMisconfiguredTableFallsBack(t *testing.T) {
	t.Run("explicit no-op entry", func(t *testing.T) {
		store := drawtest.NewStore()
		store.PutLedger(domain.Ledger{UserID: testUser, GiftBoxTickets: 1})
		store.PutPrizes(domain.GameGiftBox, []domain.PrizeEntry{
			{Ordinal: 0, Name: "200 coins", Kind: domain.PayoutCurrency, Amount: 200, Weight: 0.3},
			{Ordinal: 1, Name: "empty box", Kind: domain.PayoutNone, Weight: 0.3},
			{Ordinal: 2, Name: "extra spin", Kind: domain.PayoutTicket, Value: "spin", Weight: 0.2},
		})
		obs := &recordingObserver{}

		var res draw.Result
		var err error
		require.NotPanics(t, func() {
			res, err = newEngine(t, store, 0.95, draw.WithObserver(obs)).Draw(context.Background(), testUser, domain.GameGiftBox)
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Ordinal)
		assert.Equal(t, "empty box", res.Name)
		assert.Equal(t, int64(0), store.Ledger(testUser).GiftBoxTickets)
		assert.Equal(t, []string{draw.OutcomeFallback}, obs.outcomes)
	})

	t.Run("first ordinal", func(t *testing.T) {
		store := drawtest.NewStore()
		store.PutLedger(domain.Ledger{UserID: testUser, GiftBoxTickets: 1})
		store.PutPrizes(domain.GameGiftBox, []domain.PrizeEntry{
			{Ordinal: 2, Name: "extra spin", Kind: domain.PayoutTicket, Value: "spin", Weight: 0.4},
			{Ordinal: 1, Name: "30 coins", Kind: domain.PayoutCurrency, Amount: 30, Weight: 0.4},
		})

		res, err := newEngine(t, store, 0.95).Draw(context.Background(), testUser, domain.GameGiftBox)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Ordinal)
		assert.Equal(t, int64(30), store.Ledger(testUser).Coins)
	})

	t.Run("empty table rolls back", func(t *testing.T) {
		store := drawtest.NewStore()
		store.PutLedger(domain.Ledger{UserID: testUser, GiftBoxTickets: 1})

		_, err := newEngine(t, store, 0.5).Draw(context.Background(), testUser, domain.GameGiftBox)
		require.ErrorIs(t, err, draw.ErrEmptyPrizeTable)
		assert.Equal(t, int64(1), store.Ledger(testUser).GiftBoxTickets)
	})
}

func TestDrawTicketPrize(t *testing.T) {
	store := drawtest.NewStore()
	store.PutLedger(domain.Ledger{UserID: testUser, MemoryTickets: 1, SpinTickets: 2})
	store.PutPrizes(domain.GameMemory, []domain.PrizeEntry{
		{Ordinal: 0, Name: "3 spins", Kind: domain.PayoutTicket, Value: "spin_tickets", Amount: 3, Weight: 0.5},
		{Ordinal: 1, Name: "memory replay", Kind: domain.PayoutTicket, Value: "memory", Weight: 0.5},
	})

	res, err := newEngine(t, store, 0.2).Draw(context.Background(), testUser, domain.GameMemory)
	require.NoError(t, err)
	assert.Equal(t, "spin_tickets", res.Value)
	l := store.Ledger(testUser)
	assert.Equal(t, int64(5), l.SpinTickets)
	assert.Equal(t, int64(0), l.MemoryTickets)

	// amount defaults to one and the replay lands on the counter just spent
	store.PutLedger(domain.Ledger{UserID: testUser, MemoryTickets: 1})
	res, err = newEngine(t, store, 0.9).Draw(context.Background(), testUser, domain.GameMemory)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.TicketsLeft)
	assert.Equal(t, int64(1), store.Ledger(testUser).MemoryTickets)
}

func TestDrawUnknownPayoutTargetIsSkipped(t *testing.T) {
	t.Run("ticket name outside the allow-list", func(t *testing.T) {
		store := drawtest.NewStore()
		store.PutLedger(domain.Ledger{UserID: testUser, WhackTickets: 1})
		store.PutPrizes(domain.GameWhack, []domain.PrizeEntry{
			{Ordinal: 0, Name: "bonus", Kind: domain.PayoutTicket, Value: "coins = coins + 1000; --", Weight: 1},
		})

		res, err := newEngine(t, store, 0.5).Draw(context.Background(), testUser, domain.GameWhack)
		require.NoError(t, err)
		assert.Equal(t, "bonus", res.Name)
		l := store.Ledger(testUser)
		assert.Equal(t, int64(0), l.WhackTickets)
		assert.Equal(t, int64(0), l.Coins)
		recs := store.Records()
		require.Len(t, recs, 1)
		assert.True(t, recs[0].Skipped)
	})

	t.Run("voucher code that does not resolve", func(t *testing.T) {
		store := drawtest.NewStore()
		store.PutLedger(domain.Ledger{UserID: testUser, PuzzleTickets: 1})
		store.PutPrizes(domain.GamePuzzle, []domain.PrizeEntry{
			{Ordinal: 0, Name: "mystery voucher", Kind: domain.PayoutVoucher, Value: "GONE", Weight: 1},
		})

		_, err := newEngine(t, store, 0.5).Draw(context.Background(), testUser, domain.GamePuzzle)
		require.NoError(t, err)
		assert.Equal(t, 0, store.GrantCount(testUser))
		assert.Equal(t, int64(0), store.Ledger(testUser).PuzzleTickets)
	})
}

func TestDrawVoucherIsIdempotent(t *testing.T) {
	store := drawtest.NewStore()
	store.PutLedger(domain.Ledger{UserID: testUser, SnakeTickets: 2})
	store.PutVoucher(domain.Voucher{Code: "SAVE10", DiscountPct: 10})
	store.PutPrizes(domain.GameSnake, []domain.PrizeEntry{
		{Ordinal: 0, Name: "10% off", Kind: domain.PayoutVoucher, Value: "SAVE10", Weight: 1},
	})
	e := newEngine(t, store, 0.5)

	for i := 0; i < 2; i++ {
		res, err := e.Draw(context.Background(), testUser, domain.GameSnake)
		require.NoError(t, err)
		assert.Equal(t, "SAVE10", res.Value)
	}
	assert.Equal(t, 1, store.GrantCount(testUser))
	assert.Equal(t, int64(0), store.Ledger(testUser).SnakeTickets)
	assert.Len(t, store.Records(), 2)
}

func TestDrawIsAtomic(t *testing.T) {
	boom := errors.New("connection reset")
	for _, op := range []string{
		drawtest.OpPrizeTable,
		drawtest.OpAddCoins,
		drawtest.OpRecordDraw,
		drawtest.OpCommit,
	} {
		t.Run(op, func(t *testing.T) {
			store := drawtest.NewStore()
			store.PutLedger(domain.Ledger{UserID: testUser, SpinTickets: 1, Coins: 5})
			store.PutPrizes(domain.GameSpin, coinTable())
			store.FailOn(op, boom)

			_, err := newEngine(t, store, 0.3).Draw(context.Background(), testUser, domain.GameSpin)
			require.ErrorIs(t, err, boom)
			var txErr *draw.TxError
			require.ErrorAs(t, err, &txErr)
			assert.False(t, draw.IsExpected(err))

			l := store.Ledger(testUser)
			assert.Equal(t, int64(1), l.SpinTickets)
			assert.Equal(t, int64(5), l.Coins)
			assert.Empty(t, store.Records())
		})
	}

	t.Run("voucher grant failure", func(t *testing.T) {
		store := drawtest.NewStore()
		store.PutLedger(domain.Ledger{UserID: testUser, SpinTickets: 1})
		store.PutVoucher(domain.Voucher{Code: "FREESHIP"})
		store.PutPrizes(domain.GameSpin, []domain.PrizeEntry{
			{Ordinal: 0, Name: "free shipping", Kind: domain.PayoutVoucher, Value: "FREESHIP", Weight: 1},
		})
		store.FailOn(drawtest.OpGrantVoucher, boom)

		_, err := newEngine(t, store, 0.3).Draw(context.Background(), testUser, domain.GameSpin)
		require.ErrorIs(t, err, boom)
		assert.Equal(t, int64(1), store.Ledger(testUser).SpinTickets)
		assert.Equal(t, 0, store.GrantCount(testUser))
	})
}

func TestDrawCancelledContextRollsBack(t *testing.T) {
	store := drawtest.NewStore()
	store.PutLedger(domain.Ledger{UserID: testUser, SpinTickets: 1})
	store.PutPrizes(domain.GameSpin, coinTable())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(t, store, 0.3).Draw(ctx, testUser, domain.GameSpin)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(1), store.Ledger(testUser).SpinTickets)
}

func TestDrawConcurrentSameUser(t *testing.T) {
	t.Run("one ticket two players", func(t *testing.T) {
		store := drawtest.NewStore()
		store.PutLedger(domain.Ledger{UserID: testUser, SpinTickets: 1})
		store.PutPrizes(domain.GameSpin, coinTable())
		e := newEngine(t, store, 0.3, draw.WithTimeout(5*time.Second))

		errs := runConcurrently(2, func() error {
			_, err := e.Draw(context.Background(), testUser, domain.GameSpin)
			return err
		})
		var ok, insufficient int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, draw.ErrInsufficientTickets):
				insufficient++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, insufficient)
		l := store.Ledger(testUser)
		assert.Equal(t, int64(0), l.SpinTickets)
		assert.Equal(t, int64(100), l.Coins)
	})

	t.Run("many players drain exactly the balance", func(t *testing.T) {
		store := drawtest.NewStore()
		store.PutLedger(domain.Ledger{UserID: testUser, SpinTickets: 5})
		store.PutLedger(domain.Ledger{UserID: testUser + 1, SpinTickets: 5})
		store.PutPrizes(domain.GameSpin, coinTable())
		e := newEngine(t, store, 0.3)

		errs := runConcurrently(40, func() error {
			_, err := e.Draw(context.Background(), testUser, domain.GameSpin)
			return err
		})
		var ok int
		for _, err := range errs {
			if err == nil {
				ok++
			} else {
				require.ErrorIs(t, err, draw.ErrInsufficientTickets)
			}
		}
		assert.Equal(t, 5, ok)
		assert.Equal(t, int64(0), store.Ledger(testUser).SpinTickets)
		assert.Equal(t, int64(500), store.Ledger(testUser).Coins)
		assert.Equal(t, int64(5), store.Ledger(testUser+1).SpinTickets)
	})
}

func runConcurrently(n int, fn func() error) []error {
	errs := make([]error, n)
	start := make(chan struct{})
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			<-start
			errs[i] = fn()
			return nil
		})
	}
	close(start)
	_ = g.Wait()
	return errs
}
