package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/growshop/lockledger/internal/repos/audit"
)

var _ audit.Audit = (*auditRepo)(nil)

type auditRepo struct{ db *sql.DB }

func New(db *sql.DB) *auditRepo {
	return &auditRepo{db: db}
}

func (r *auditRepo) Insert(tx *sql.Tx, entry audit.Entry) (int64, error) {
	var id int64

	// NULLIF keeps the partial unique index on idempotency_key out of play
	// for mutations that carry no key.
	err := tx.QueryRow(`
		INSERT INTO audit_entries (account_id, kind, delta_wl, old_balance, new_balance, cause, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING id
	`, entry.AccountID, string(entry.Kind), entry.DeltaWL,
		entry.OldBalance, entry.NewBalance, entry.Cause, entry.IdempotencyKey).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return 0, audit.ErrDuplicateMutation
			}
		}

		return 0, fmt.Errorf("insert audit entry: %w", err)
	}

	return id, nil
}

func (r *auditRepo) ListForAccount(ctx context.Context, accountID int64) ([]audit.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, kind, delta_wl, old_balance, new_balance, cause, COALESCE(idempotency_key, ''), created_at
		FROM audit_entries
		WHERE account_id = $1
		ORDER BY id
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *auditRepo) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, kind, delta_wl, old_balance, new_balance, cause, COALESCE(idempotency_key, ''), created_at
		FROM audit_entries
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry

	for rows.Next() {
		var e audit.Entry
		var kind string

		err := rows.Scan(&e.ID, &e.AccountID, &kind, &e.DeltaWL,
			&e.OldBalance, &e.NewBalance, &e.Cause, &e.IdempotencyKey, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		e.Kind = audit.Kind(kind)
		entries = append(entries, e)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}
