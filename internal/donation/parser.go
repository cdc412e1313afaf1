// Package donation parses free-text deposit webhook messages and feeds the
// resulting credits through the ledger.
package donation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/growshop/lockledger/internal/currency"
)

var ErrMissingField = errors.New("missing required field")

const (
	growIDLabel  = "GrowID:"
	depositLabel = "Deposit:"
)

// Claim is the parsed form of one donation message. Ephemeral: it lives
// only for the duration of a single ingestion attempt.
type Claim struct {
	RawText string
	GrowID  string
	Amount  currency.Amount
}

// Parse extracts the identity and deposit lines from a raw webhook message.
// The two labeled lines may appear anywhere and in any order; if a label
// repeats, the last occurrence wins. Missing either label fails with
// ErrMissingField.
//
// The deposit line is split on commas into clauses; each clause is matched
// by substring against the denomination synonyms (world lock/wl,
// diamond lock/dl, blue gem lock/bgl) and its numeral is whatever digit
// characters the clause contains. Clauses matching no denomination are
// dropped, not rejected: upstream webhook text routinely carries trailing
// noise.
func Parse(text string) (Claim, error) {
	var growid, deposit string
	var haveGrowID, haveDeposit bool

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.Contains(line, growIDLabel):
			growid = afterLastLabel(line, growIDLabel)
			haveGrowID = true
		case strings.Contains(line, depositLabel):
			deposit = afterLastLabel(line, depositLabel)
			haveDeposit = true
		}
	}

	if !haveGrowID || growid == "" {
		return Claim{}, fmt.Errorf("%w: GrowID", ErrMissingField)
	}
	if !haveDeposit || deposit == "" {
		return Claim{}, fmt.Errorf("%w: Deposit", ErrMissingField)
	}

	amount, err := parseDeposit(deposit)
	if err != nil {
		return Claim{}, err
	}

	return Claim{RawText: text, GrowID: growid, Amount: amount}, nil
}

// afterLastLabel returns the trimmed text after the last occurrence of
// label; a line repeating its own label keeps only the final value.
func afterLastLabel(line, label string) string {
	return strings.TrimSpace(line[strings.LastIndex(line, label)+len(label):])
}

func parseDeposit(text string) (currency.Amount, error) {
	var raw currency.Amount

	for _, clause := range strings.Split(strings.ToLower(text), ",") {
		clause = strings.TrimSpace(clause)
		amount := clauseDigits(clause)

		switch {
		case strings.Contains(clause, "world lock") || strings.Contains(clause, "wl"):
			raw.WL += amount
		case strings.Contains(clause, "diamond lock") || strings.Contains(clause, "dl"):
			raw.DL += amount
		case strings.Contains(clause, "blue gem lock") || strings.Contains(clause, "bgl"):
			raw.BGL += amount
		}
		// anything else: unrecognized clause, dropped
	}

	return currency.Normalize(raw)
}

// clauseDigits concatenates all digit characters in the clause; a clause
// with no digits counts as zero.
func clauseDigits(clause string) int64 {
	var b strings.Builder
	for _, r := range clause {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return 0
	}

	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		// more digits than int64 holds; treat like no amount
		return 0
	}

	return n
}
