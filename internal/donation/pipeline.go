package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/growshop/lockledger/internal/repos/accounts"
	"github.com/growshop/lockledger/internal/repos/audit"
)

// OutcomeKind is the terminal result of one ingestion attempt.
type OutcomeKind string

const (
	OutcomeCredited           OutcomeKind = "credited"
	OutcomeUnresolvedIdentity OutcomeKind = "unresolved_identity"
	OutcomeMalformed          OutcomeKind = "malformed"
	OutcomeDuplicate          OutcomeKind = "duplicate"
	OutcomeFailed             OutcomeKind = "failed"
)

// Outcome is the terminal state of an ingestion attempt. Err is set only
// for OutcomeFailed.
type Outcome struct {
	Kind      OutcomeKind
	GrowID    string
	AccountID int64
	TotalWL   int64
	Balance   accounts.Balance
	Err       error
}

// Ledger is the slice of the ledger service the pipeline needs.
type Ledger interface {
	Resolve(ctx context.Context, growid string) (int64, error)
	GetBalance(ctx context.Context, accountID int64) (accounts.Balance, error)
	Credit(ctx context.Context, accountID, deltaWL int64, cause, idemKey string) (accounts.Balance, error)
}

// Sink receives a human-readable summary of every terminal outcome.
// Notification is best-effort: implementations swallow their own failures
// and the pipeline never retries or rolls back a credit over them.
type Sink interface {
	Notify(ctx context.Context, message string)
}

// Pipeline orchestrates Parse -> Resolve -> Credit -> notify.
type Pipeline struct {
	ledger Ledger
	sink   Sink
}

func NewPipeline(ledger Ledger, sink Sink) *Pipeline {
	return &Pipeline{ledger: ledger, sink: sink}
}

// Ingest processes one raw webhook message to a terminal outcome. Malformed
// text and unregistered identities are expected, frequent inputs: they are
// reported as outcomes, never as errors. idemKey is the caller-supplied
// deduplication key; the bare webhook path passes none, so redelivered
// messages credit again.
func (p *Pipeline) Ingest(ctx context.Context, rawText, idemKey string) Outcome {
	outcome := p.run(ctx, rawText, idemKey)
	p.notify(ctx, outcome)

	return outcome
}

func (p *Pipeline) run(ctx context.Context, rawText, idemKey string) Outcome {
	claim, err := Parse(rawText)
	if err != nil {
		slog.Warn("donation message malformed", "error", err)

		return Outcome{Kind: OutcomeMalformed}
	}

	totalWL := claim.Amount.TotalWL()

	accountID, err := p.ledger.Resolve(ctx, claim.GrowID)
	if err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			slog.Warn("donation for unregistered identity", "growid", claim.GrowID)

			return Outcome{Kind: OutcomeUnresolvedIdentity, GrowID: claim.GrowID, TotalWL: totalWL}
		}

		return Outcome{Kind: OutcomeFailed, GrowID: claim.GrowID, TotalWL: totalWL, Err: err}
	}

	// A deposit line whose clauses carry no recognizable value totals zero.
	// That is a well-formed donation of nothing: report it credited with
	// the untouched balance instead of pushing a no-op through the ledger.
	if totalWL == 0 {
		bal, err := p.ledger.GetBalance(ctx, accountID)
		if err != nil {
			slog.Error("donation balance read failed", "growid", claim.GrowID, "error", err)

			return Outcome{Kind: OutcomeFailed, GrowID: claim.GrowID, AccountID: accountID, Err: err}
		}

		slog.Info("donation credited", "growid", claim.GrowID, "total_wl", int64(0))

		return Outcome{
			Kind:      OutcomeCredited,
			GrowID:    claim.GrowID,
			AccountID: accountID,
			Balance:   bal,
		}
	}

	bal, err := p.ledger.Credit(ctx, accountID, totalWL,
		fmt.Sprintf("donation: %s", claim.Amount), idemKey)
	if err != nil {
		if errors.Is(err, audit.ErrDuplicateMutation) {
			slog.Warn("duplicate donation delivery", "growid", claim.GrowID, "key", idemKey)

			return Outcome{Kind: OutcomeDuplicate, GrowID: claim.GrowID, AccountID: accountID, TotalWL: totalWL}
		}

		slog.Error("donation credit failed", "growid", claim.GrowID, "error", err)

		return Outcome{Kind: OutcomeFailed, GrowID: claim.GrowID, AccountID: accountID, TotalWL: totalWL, Err: err}
	}

	slog.Info("donation credited", "growid", claim.GrowID, "total_wl", totalWL)

	return Outcome{
		Kind:      OutcomeCredited,
		GrowID:    claim.GrowID,
		AccountID: accountID,
		TotalWL:   totalWL,
		Balance:   bal,
	}
}

func (p *Pipeline) notify(ctx context.Context, o Outcome) {
	if p.sink == nil {
		return
	}

	var msg string

	switch o.Kind {
	case OutcomeCredited:
		msg = fmt.Sprintf("[donation] %s credited %d wl, balance now %s",
			o.GrowID, o.TotalWL, o.Balance.Amount)
	case OutcomeUnresolvedIdentity:
		msg = fmt.Sprintf("[donation failed] GrowID %q is not registered", o.GrowID)
	case OutcomeMalformed:
		msg = "[donation failed] unrecognized message format"
	case OutcomeDuplicate:
		msg = fmt.Sprintf("[donation skipped] duplicate delivery for %s", o.GrowID)
	case OutcomeFailed:
		msg = fmt.Sprintf("[donation error] could not credit %s: %v", o.GrowID, o.Err)
	default:
		return
	}

	p.sink.Notify(ctx, msg)
}
