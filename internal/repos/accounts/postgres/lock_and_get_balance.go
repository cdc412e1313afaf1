package accounts

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/growshop/lockledger/internal/repos/accounts"
)

func (r *accountsRepo) LockAndGetBalance(tx *sql.Tx, accountID int64) (accounts.Balance, error) {
	var bal accounts.Balance

	// FOR UPDATE serializes mutations on one account row; rows for other
	// accounts stay unlocked.
	err := tx.QueryRow(`
		SELECT balance_wl, balance_dl, balance_bgl, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID).Scan(&bal.Amount.WL, &bal.Amount.DL, &bal.Amount.BGL, &bal.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.Balance{}, accounts.ErrAccountNotFound
		}

		return accounts.Balance{}, fmt.Errorf("lock/get balance: %w", err)
	}

	return bal, nil
}
