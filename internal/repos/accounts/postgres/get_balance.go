package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/growshop/lockledger/internal/repos/accounts"
)

func (r *accountsRepo) GetBalance(ctx context.Context, accountID int64) (accounts.Balance, error) {
	var bal accounts.Balance

	err := r.db.QueryRowContext(ctx, `
		SELECT balance_wl, balance_dl, balance_bgl, updated_at
		FROM accounts
		WHERE id = $1
	`, accountID).Scan(&bal.Amount.WL, &bal.Amount.DL, &bal.Amount.BGL, &bal.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.Balance{}, accounts.ErrAccountNotFound
		}

		return accounts.Balance{}, fmt.Errorf("get balance: %w", err)
	}

	return bal, nil
}
