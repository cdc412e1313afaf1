// Package cache provides an optional Redis read cache for balance lookups.
// Cache errors never surface to callers: a miss or a backend failure just
// falls through to the authoritative store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/growshop/lockledger/internal/currency"
	"github.com/growshop/lockledger/internal/repos/accounts"
)

const defaultTTL = 30 * time.Second

type cachedBalance struct {
	WL        int64     `json:"wl"`
	DL        int64     `json:"dl"`
	BGL       int64     `json:"bgl"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BalanceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBalanceCache(rdb *redis.Client) *BalanceCache {
	return &BalanceCache{rdb: rdb, ttl: defaultTTL}
}

func balanceKey(accountID int64) string {
	return fmt.Sprintf("balance:%d", accountID)
}

func (c *BalanceCache) Get(ctx context.Context, accountID int64) (accounts.Balance, bool) {
	raw, err := c.rdb.Get(ctx, balanceKey(accountID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("balance cache get failed", "error", err)
		}

		return accounts.Balance{}, false
	}

	var cb cachedBalance
	err = json.Unmarshal(raw, &cb)
	if err != nil {
		slog.Warn("balance cache entry corrupt", "error", err)
		return accounts.Balance{}, false
	}

	return accounts.Balance{
		Amount:    currency.Amount{WL: cb.WL, DL: cb.DL, BGL: cb.BGL},
		UpdatedAt: cb.UpdatedAt,
	}, true
}

func (c *BalanceCache) Set(ctx context.Context, accountID int64, bal accounts.Balance) {
	raw, err := json.Marshal(cachedBalance{
		WL:        bal.Amount.WL,
		DL:        bal.Amount.DL,
		BGL:       bal.Amount.BGL,
		UpdatedAt: bal.UpdatedAt,
	})
	if err != nil {
		return
	}

	err = c.rdb.Set(ctx, balanceKey(accountID), raw, c.ttl).Err()
	if err != nil {
		slog.Warn("balance cache set failed", "error", err)
	}
}

func (c *BalanceCache) Invalidate(ctx context.Context, accountID int64) {
	err := c.rdb.Del(ctx, balanceKey(accountID)).Err()
	if err != nil {
		slog.Warn("balance cache invalidate failed", "error", err)
	}
}
