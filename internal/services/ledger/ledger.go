// Package ledger owns the authoritative balance mutation path: every
// credit, debit, or set runs as one DB transaction that locks the account
// row, re-normalizes the denomination triple, writes the new balance, and
// appends the audit entry documenting it.
package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/growshop/lockledger/internal/currency"
	"github.com/growshop/lockledger/internal/infra/pgutils"
	"github.com/growshop/lockledger/internal/repos/accounts"
	pgaccounts "github.com/growshop/lockledger/internal/repos/accounts/postgres"
	"github.com/growshop/lockledger/internal/repos/audit"
	pgaudit "github.com/growshop/lockledger/internal/repos/audit/postgres"
)

// BalanceCache is an optional read-through cache for GetBalance. Misses and
// backend errors fall through to the store; mutations invalidate after
// commit.
type BalanceCache interface {
	Get(ctx context.Context, accountID int64) (accounts.Balance, bool)
	Set(ctx context.Context, accountID int64, bal accounts.Balance)
	Invalidate(ctx context.Context, accountID int64)
}

type Service struct {
	db       *sql.DB
	accounts accounts.Accounts
	audit    audit.Audit
	cache    BalanceCache // nil disables caching
}

func New(db *sql.DB) *Service {
	return &Service{
		db:       db,
		accounts: pgaccounts.New(db),
		audit:    pgaudit.New(db),
	}
}

// WithCache attaches a balance read cache.
func (s *Service) WithCache(c BalanceCache) *Service {
	s.cache = c
	return s
}

// Resolve maps a display identity to its account key.
func (s *Service) Resolve(ctx context.Context, growid string) (int64, error) {
	id, err := s.accounts.Resolve(ctx, growid)
	if err != nil {
		return 0, fmt.Errorf("resolve %q: %w", growid, err)
	}

	return id, nil
}

// Register creates an account with a zero balance.
func (s *Service) Register(ctx context.Context, growid string) (int64, error) {
	id, err := s.accounts.Create(ctx, growid)
	if err != nil {
		return 0, fmt.Errorf("register %q: %w", growid, err)
	}

	return id, nil
}

// GetBalance returns the current balance for an account key (no locks).
func (s *Service) GetBalance(ctx context.Context, accountID int64) (accounts.Balance, error) {
	if s.cache != nil {
		bal, ok := s.cache.Get(ctx, accountID)
		if ok {
			return bal, nil
		}
	}

	bal, err := s.accounts.GetBalance(ctx, accountID)
	if err != nil {
		return accounts.Balance{}, fmt.Errorf("get balance: %w", err)
	}

	if s.cache != nil {
		// A read racing a mutation can re-populate the cache with the
		// pre-commit balance after that mutation's invalidate, so cached
		// reads may lag the store by up to the cache TTL. Mutation
		// responses always return the committed balance.
		s.cache.Set(ctx, accountID, bal)
	}

	return bal, nil
}

// Credit atomically adds deltaWL smallest units to the account. A non-empty
// idemKey makes the credit idempotent: reusing a key fails with
// audit.ErrDuplicateMutation and changes nothing.
func (s *Service) Credit(ctx context.Context, accountID, deltaWL int64, cause, idemKey string) (accounts.Balance, error) {
	if deltaWL <= 0 {
		return accounts.Balance{}, fmt.Errorf("credit of %d wl: %w", deltaWL, currency.ErrInvalidAmount)
	}

	bal, err := s.mutate(ctx, accountID, audit.KindCredit, deltaWL, cause, idemKey)
	if err != nil {
		return accounts.Balance{}, fmt.Errorf("credit: %w", err)
	}

	return bal, nil
}

// Debit is the symmetric withdrawal; it fails with currency.ErrUnderflow if
// amountWL exceeds the balance, leaving the account untouched.
func (s *Service) Debit(ctx context.Context, accountID, amountWL int64, cause, idemKey string) (accounts.Balance, error) {
	if amountWL <= 0 {
		return accounts.Balance{}, fmt.Errorf("debit of %d wl: %w", amountWL, currency.ErrInvalidAmount)
	}

	bal, err := s.mutate(ctx, accountID, audit.KindDebit, -amountWL, cause, idemKey)
	if err != nil {
		return accounts.Balance{}, fmt.Errorf("debit: %w", err)
	}

	return bal, nil
}

// SetBalance overwrites the balance with an explicit amount (normalized
// first), audited with kind "set" and the signed difference as delta.
func (s *Service) SetBalance(ctx context.Context, accountID int64, amount currency.Amount, cause string) (accounts.Balance, error) {
	target, err := currency.Normalize(amount)
	if err != nil {
		return accounts.Balance{}, fmt.Errorf("set balance: %w", err)
	}

	var newBal accounts.Balance

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		cur, err := s.accounts.LockAndGetBalance(tx, accountID)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		updatedAt, err := s.accounts.UpdateBalance(tx, accountID, target)
		if err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		_, err = s.audit.Insert(tx, audit.Entry{
			AccountID:  accountID,
			Kind:       audit.KindSet,
			DeltaWL:    target.TotalWL() - cur.Amount.TotalWL(),
			OldBalance: currency.EncodeTriple(cur.Amount),
			NewBalance: currency.EncodeTriple(target),
			Cause:      cause,
		})
		if err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}

		newBal = accounts.Balance{Amount: target, UpdatedAt: updatedAt}

		return nil
	})
	if err != nil {
		return accounts.Balance{}, fmt.Errorf("set balance: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, accountID)
	}

	return newBal, nil
}

// ListAudit returns every audit entry for the account, ascending by
// sequence id.
func (s *Service) ListAudit(ctx context.Context, accountID int64) ([]audit.Entry, error) {
	// Existence check so an unknown key reports ErrAccountNotFound instead
	// of an empty listing.
	_, err := s.accounts.GetBalance(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}

	entries, err := s.audit.ListForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}

	return entries, nil
}

// ListRecentAudit returns the newest entries across all accounts.
func (s *Service) ListRecentAudit(ctx context.Context, limit int) ([]audit.Entry, error) {
	entries, err := s.audit.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit: %w", err)
	}

	return entries, nil
}

// mutate runs the full read-modify-write in a single DB transaction:
//
// 1) Lock the account row (FOR UPDATE) — serializes same-key mutations.
// 2) Apply the delta and re-normalize the triple.
// 3) Write the new balance.
// 4) Append the audit entry (unique idempotency key -> ErrDuplicateMutation).
//
// Commit is atomic, so no partially applied balance+audit state is ever
// observable; any failure rolls the whole mutation back.
func (s *Service) mutate(ctx context.Context, accountID int64, kind audit.Kind, deltaWL int64, cause, idemKey string) (accounts.Balance, error) {
	var newBal accounts.Balance

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		cur, err := s.accounts.LockAndGetBalance(tx, accountID)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		newAmount, err := currency.Add(cur.Amount, deltaWL)
		if err != nil {
			return err
		}

		updatedAt, err := s.accounts.UpdateBalance(tx, accountID, newAmount)
		if err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		_, err = s.audit.Insert(tx, audit.Entry{
			AccountID:      accountID,
			Kind:           kind,
			DeltaWL:        deltaWL,
			OldBalance:     currency.EncodeTriple(cur.Amount),
			NewBalance:     currency.EncodeTriple(newAmount),
			Cause:          cause,
			IdempotencyKey: idemKey,
		})
		if err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}

		newBal = accounts.Balance{Amount: newAmount, UpdatedAt: updatedAt}

		return nil
	})
	if err != nil {
		return accounts.Balance{}, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, accountID)
	}

	return newBal, nil
}
