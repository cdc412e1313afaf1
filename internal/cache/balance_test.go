package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growshop/lockledger/internal/currency"
	"github.com/growshop/lockledger/internal/repos/accounts"
)

func TestBalanceCache_RoundTrip(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	c := NewBalanceCache(rdb)

	updatedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	bal := accounts.Balance{
		Amount:    currency.Amount{WL: 50, DL: 1},
		UpdatedAt: updatedAt,
	}

	raw, err := json.Marshal(cachedBalance{WL: 50, DL: 1, BGL: 0, UpdatedAt: updatedAt})
	require.NoError(t, err)

	mock.ExpectSet("balance:7", raw, defaultTTL).SetVal("OK")
	c.Set(context.Background(), 7, bal)

	mock.ExpectGet("balance:7").SetVal(string(raw))
	got, ok := c.Get(context.Background(), 7)
	require.True(t, ok)
	assert.Equal(t, bal.Amount, got.Amount)
	assert.True(t, got.UpdatedAt.Equal(updatedAt))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceCache_MissAndErrors(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	c := NewBalanceCache(rdb)

	mock.ExpectGet("balance:1").RedisNil()
	_, ok := c.Get(context.Background(), 1)
	assert.False(t, ok)

	// backend errors behave like a miss
	mock.ExpectGet("balance:1").SetErr(errors.New("broken pipe"))
	_, ok = c.Get(context.Background(), 1)
	assert.False(t, ok)

	// corrupt entries behave like a miss
	mock.ExpectGet("balance:1").SetVal("{not json")
	_, ok = c.Get(context.Background(), 1)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceCache_Invalidate(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	c := NewBalanceCache(rdb)

	mock.ExpectDel("balance:3").SetVal(1)
	c.Invalidate(context.Background(), 3)

	// invalidation failures are logged and swallowed
	mock.ExpectDel("balance:3").SetErr(errors.New("down"))
	c.Invalidate(context.Background(), 3)

	assert.NoError(t, mock.ExpectationsWereMet())
}
