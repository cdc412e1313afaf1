package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/growshop/lockledger/internal/currency"
	"github.com/growshop/lockledger/internal/repos/accounts"
)

func (r *accountsRepo) UpdateBalance(tx *sql.Tx, accountID int64, amount currency.Amount) (time.Time, error) {
	var updatedAt time.Time

	err := tx.QueryRow(`
		UPDATE accounts
		SET balance_wl = $2,
		    balance_dl = $3,
		    balance_bgl = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, accountID, amount.WL, amount.DL, amount.BGL).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, accounts.ErrAccountNotFound
		}

		return time.Time{}, fmt.Errorf("update balance: %w", err)
	}

	return updatedAt, nil
}
