package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/growshop/lockledger/internal/repos/accounts"
)

func (r *accountsRepo) Create(ctx context.Context, growid string) (int64, error) {
	var id int64

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO accounts (growid)
		VALUES ($1)
		RETURNING id
	`, growid).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return 0, accounts.ErrIdentityExists
			}
		}

		return 0, fmt.Errorf("create account: %w", err)
	}

	return id, nil
}
