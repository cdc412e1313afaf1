package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/growshop/lockledger/internal/currency"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrIdentityExists  = errors.New("identity already registered")
)

// Balance is the stored canonical triple plus its last-mutated timestamp.
type Balance struct {
	Amount    currency.Amount
	UpdatedAt time.Time
}

// Accounts is the account store. Resolve and GetBalance are read-only and
// safe to call concurrently; the tx-scoped methods participate in the
// caller's mutation transaction.
type Accounts interface {
	// Resolve maps a display identity (GrowID) to the account key.
	// Byte-exact comparison, no case folding or trimming.
	Resolve(ctx context.Context, growid string) (int64, error)
	Create(ctx context.Context, growid string) (int64, error)
	GetBalance(ctx context.Context, accountID int64) (Balance, error)
	// LockAndGetBalance locks the account row for the duration of the
	// enclosing transaction, serializing mutations on the same key.
	LockAndGetBalance(tx *sql.Tx, accountID int64) (Balance, error)
	// UpdateBalance writes a canonical triple and returns the new
	// last-mutated timestamp.
	UpdateBalance(tx *sql.Tx, accountID int64, amount currency.Amount) (time.Time, error)
}
