package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/growshop/lockledger/internal/repos/accounts"
)

func (r *accountsRepo) Resolve(ctx context.Context, growid string) (int64, error) {
	var id int64

	// growid comparison is byte-exact; the column has no CITEXT or
	// case-folding collation.
	err := r.db.QueryRowContext(ctx, `
		SELECT id
		FROM accounts
		WHERE growid = $1
	`, growid).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, accounts.ErrAccountNotFound
		}

		return 0, fmt.Errorf("resolve identity: %w", err)
	}

	return id, nil
}
