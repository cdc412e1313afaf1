// Package currency implements carry arithmetic for the three-tier lock
// currency: WL (world lock, smallest unit), DL = 100 WL, BGL = 100 DL.
package currency

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// WLPerDL is the WL value of one diamond lock.
	WLPerDL = 100
	// WLPerBGL is the WL value of one blue gem lock.
	WLPerBGL = 10_000
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrUnderflow     = errors.New("balance underflow")
)

// Amount is a denomination triple. The canonical (carried) form satisfies
// 0 <= WL < 100 and 0 <= DL < 100; BGL is unbounded.
type Amount struct {
	WL  int64
	DL  int64
	BGL int64
}

// Normalize folds WL overflow into DL and DL overflow into BGL, after
// summation across tiers. A single pass suffices: BGL has no upper bound.
func Normalize(a Amount) (Amount, error) {
	if a.WL < 0 || a.DL < 0 || a.BGL < 0 {
		return Amount{}, fmt.Errorf("%w: negative denomination (%d wl, %d dl, %d bgl)",
			ErrInvalidAmount, a.WL, a.DL, a.BGL)
	}

	a.DL += a.WL / WLPerDL
	a.WL %= WLPerDL
	a.BGL += a.DL / WLPerDL
	a.DL %= WLPerDL

	return a, nil
}

// TotalWL returns the smallest-unit total. Used for comparison and
// reporting only; balances are stored as the carried triple.
func (a Amount) TotalWL() int64 {
	return a.WL + a.DL*WLPerDL + a.BGL*WLPerBGL
}

// FromTotalWL converts a non-negative smallest-unit total into the
// canonical carried triple.
func FromTotalWL(total int64) (Amount, error) {
	if total < 0 {
		return Amount{}, fmt.Errorf("%w: negative total %d wl", ErrInvalidAmount, total)
	}

	return Amount{
		WL:  total % WLPerDL,
		DL:  (total / WLPerDL) % WLPerDL,
		BGL: total / WLPerBGL,
	}, nil
}

// Add applies a signed smallest-unit delta to a current canonical triple
// and re-normalizes. The canonical form is unique for a given total, so
// applying the delta to the total and re-splitting is equivalent to
// per-tier addition followed by carry.
func Add(current Amount, deltaWL int64) (Amount, error) {
	cur, err := Normalize(current)
	if err != nil {
		return Amount{}, err
	}

	total := cur.TotalWL() + deltaWL
	if total < 0 {
		return Amount{}, fmt.Errorf("%w: %d wl - %d wl", ErrUnderflow, cur.TotalWL(), -deltaWL)
	}

	return FromTotalWL(total)
}

// AddAmount adds a per-denomination delta (each tier non-negative) to a
// current canonical triple and re-normalizes.
func AddAmount(current, delta Amount) (Amount, error) {
	d, err := Normalize(delta)
	if err != nil {
		return Amount{}, err
	}

	return Add(current, d.TotalWL())
}

// EncodeTriple serializes an amount as "wl|dl|bgl", the snapshot form used
// by audit entries.
func EncodeTriple(a Amount) string {
	return fmt.Sprintf("%d|%d|%d", a.WL, a.DL, a.BGL)
}

// ParseTriple decodes a "wl|dl|bgl" snapshot.
func ParseTriple(s string) (Amount, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return Amount{}, fmt.Errorf("%w: malformed triple %q", ErrInvalidAmount, s)
	}

	var vals [3]int64
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return Amount{}, fmt.Errorf("%w: malformed triple %q", ErrInvalidAmount, s)
		}
		if v < 0 {
			return Amount{}, fmt.Errorf("%w: negative tier in %q", ErrInvalidAmount, s)
		}
		vals[i] = v
	}

	return Amount{WL: vals[0], DL: vals[1], BGL: vals[2]}, nil
}

// String renders the amount for human-readable output, skipping zero tiers
// ("1 bgl, 2 dl, 50 wl"); a zero amount renders as "0 wl".
func (a Amount) String() string {
	var parts []string
	if a.BGL != 0 {
		parts = append(parts, fmt.Sprintf("%d bgl", a.BGL))
	}
	if a.DL != 0 {
		parts = append(parts, fmt.Sprintf("%d dl", a.DL))
	}
	if a.WL != 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d wl", a.WL))
	}

	return strings.Join(parts, ", ")
}
