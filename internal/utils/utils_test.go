package utils

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCache(rdb, time.Minute), mr
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "admin", "s3cret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestJWTRejects(t *testing.T) {
	token, err := GenerateJWT(42, "user", "s3cret", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "other")
	assert.Error(t, err)

	expired, err := GenerateJWT(42, "user", "s3cret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "s3cret")
	assert.Error(t, err)

	_, err = GenerateJWT(42, "user", "", time.Hour)
	assert.Error(t, err)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "ledger:user:9", LedgerKey(9))
	assert.Equal(t, "vouchers:user:9", VouchersKey(9))
	assert.Equal(t, "drawhistory:user:9:page:2:size:20", HistoryKey(9, 2, 20))
	assert.True(t, strings.HasPrefix(HistoryKey(9, 1, 50), historyPrefix(9)))
	assert.False(t, strings.HasPrefix(HistoryKey(91, 1, 50), historyPrefix(9)))
	assert.Equal(t, "prizes:mode:spin", PrizeTableKey("spin"))
}

func TestDisabledCacheMisses(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*Cache{nil, NewCache(nil, time.Minute)} {
		var dest map[string]int
		found, err := c.Get(ctx, "k", &dest)
		assert.NoError(t, err)
		assert.False(t, found)
		assert.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}))
		assert.NoError(t, c.InvalidateUser(ctx, 1))
	}
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	type balance struct {
		Coins int64 `json:"coins"`
	}
	var got balance
	found, err := c.Get(ctx, LedgerKey(7), &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, LedgerKey(7), balance{Coins: 250}))
	found, err = c.Get(ctx, LedgerKey(7), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(250), got.Coins)
	assert.Equal(t, time.Minute, mr.TTL(LedgerKey(7)))

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, LedgerKey(7), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidateUserKeepsOtherUsers(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	for _, id := range []uint{7, 70} {
		require.NoError(t, c.Set(ctx, LedgerKey(id), map[string]int{"coins": 1}))
		require.NoError(t, c.Set(ctx, VouchersKey(id), []string{"SPIN5"}))
		require.NoError(t, c.Set(ctx, HistoryKey(id, 1, 20), map[string]int{"total": 3}))
	}
	require.NoError(t, c.Set(ctx, HistoryKey(7, 2, 50), map[string]int{"total": 3}))
	require.NoError(t, c.Set(ctx, PrizeTableKey("spin"), []string{"10 coins"}))

	require.NoError(t, c.InvalidateUser(ctx, 7))

	assert.Equal(t, []string{
		"drawhistory:user:70:page:1:size:20",
		"ledger:user:70",
		"prizes:mode:spin",
		"vouchers:user:70",
	}, mr.Keys())
}

func TestDeletePrefixWithoutMatches(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	require.NoError(t, c.Set(ctx, LedgerKey(1), 1))

	assert.NoError(t, c.DeletePrefix(ctx, "drawhistory:user:1:"))
	assert.True(t, mr.Exists(LedgerKey(1)))
}
