package accounts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/growshop/lockledger/internal/currency"
	"github.com/growshop/lockledger/internal/infra/pgtestutil"
	"github.com/growshop/lockledger/internal/repos/accounts"
)

func seedAccount(t *testing.T, db *sql.DB, growid string, wl, dl, bgl int64) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(`
		INSERT INTO accounts (growid, balance_wl, balance_dl, balance_bgl)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, growid, wl, dl, bgl).Scan(&id)
	if err != nil {
		t.Fatalf("seed account %q: %v", growid, err)
	}

	return id
}

func TestAccounts_Resolve(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	id := seedAccount(t, db, "Foo", 0, 0, 0)
	repo := New(db)

	ctx, cancel := context.WithTimeout(testContext(t), 5*time.Second)
	defer cancel()

	got, err := repo.Resolve(ctx, "Foo")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != id {
		t.Fatalf("resolve = %d, want %d", got, id)
	}

	// byte-exact: different case is a different identity
	_, err = repo.Resolve(ctx, "foo")
	if !errors.Is(err, accounts.ErrAccountNotFound) {
		t.Fatalf("resolve lowercase: err = %v, want ErrAccountNotFound", err)
	}

	_, err = repo.Resolve(ctx, "Nobody")
	if !errors.Is(err, accounts.ErrAccountNotFound) {
		t.Fatalf("resolve unknown: err = %v, want ErrAccountNotFound", err)
	}
}

func TestAccounts_Create(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	ctx, cancel := context.WithTimeout(testContext(t), 5*time.Second)
	defer cancel()

	id, err := repo.Create(ctx, "Newcomer")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bal, err := repo.GetBalance(ctx, id)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if bal.Amount != (currency.Amount{}) {
		t.Fatalf("new account balance = %+v, want zero", bal.Amount)
	}

	_, err = repo.Create(ctx, "Newcomer")
	if !errors.Is(err, accounts.ErrIdentityExists) {
		t.Fatalf("duplicate create: err = %v, want ErrIdentityExists", err)
	}
}

func TestAccounts_GetBalance(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	id := seedAccount(t, db, "Rich", 50, 1, 2)
	repo := New(db)

	ctx, cancel := context.WithTimeout(testContext(t), 5*time.Second)
	defer cancel()

	bal, err := repo.GetBalance(ctx, id)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}

	want := currency.Amount{WL: 50, DL: 1, BGL: 2}
	if bal.Amount != want {
		t.Fatalf("balance = %+v, want %+v", bal.Amount, want)
	}
	if bal.UpdatedAt.IsZero() {
		t.Fatalf("updated_at not populated")
	}

	_, err = repo.GetBalance(ctx, id+1000)
	if !errors.Is(err, accounts.ErrAccountNotFound) {
		t.Fatalf("unknown id: err = %v, want ErrAccountNotFound", err)
	}
}

func TestAccounts_LockAndUpdateBalance(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	id := seedAccount(t, db, "Locker", 60, 0, 0)
	repo := New(db)

	ctx, cancel := context.WithTimeout(testContext(t), 5*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	bal, err := repo.LockAndGetBalance(tx, id)
	if err != nil {
		t.Fatalf("lock and get: %v", err)
	}
	if bal.Amount != (currency.Amount{WL: 60}) {
		t.Fatalf("locked balance = %+v, want 60 wl", bal.Amount)
	}

	updatedAt, err := repo.UpdateBalance(tx, id, currency.Amount{WL: 10, DL: 1})
	if err != nil {
		t.Fatalf("update balance: %v", err)
	}
	if updatedAt.IsZero() {
		t.Fatalf("updated_at not returned")
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := repo.GetBalance(ctx, id)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if got.Amount != (currency.Amount{WL: 10, DL: 1}) {
		t.Fatalf("balance = %+v, want 1 dl 10 wl", got.Amount)
	}
}
