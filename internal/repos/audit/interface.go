package audit

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrDuplicateMutation = errors.New("duplicate mutation")

// Kind is the mutation kind recorded on an entry.
type Kind string

const (
	KindCredit Kind = "credit"
	KindDebit  Kind = "debit"
	KindSet    Kind = "set"
)

// Entry is one immutable audit record. ID is the monotonic sequence id
// assigned at write time; OldBalance and NewBalance are "wl|dl|bgl"
// snapshots taken inside the same transaction as the balance write.
type Entry struct {
	ID             int64
	AccountID      int64
	Kind           Kind
	DeltaWL        int64
	OldBalance     string
	NewBalance     string
	Cause          string
	IdempotencyKey string
	CreatedAt      time.Time
}

// Audit is the append-only audit log. Insert runs inside the caller's
// mutation transaction so the entry commits or rolls back with the balance
// write it documents.
type Audit interface {
	Insert(tx *sql.Tx, entry Entry) (int64, error)
	// ListForAccount returns all entries for an account, ascending by id.
	ListForAccount(ctx context.Context, accountID int64) ([]Entry, error)
	// ListRecent returns the newest entries across all accounts.
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}
