// Package money provides decimal currency utility functions.
package money

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CentPlaces is the number of decimal places carried by monetary values.
const CentPlaces = 2

// Cent is the smallest representable monetary unit.
var Cent = decimal.New(1, -CentPlaces)

// RoundCents rounds a value to two decimals, i.e. to represent real currency.
func RoundCents(val decimal.Decimal) decimal.Decimal {
	return val.Round(CentPlaces)
}

// Min returns the minimum of two decimal values.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the maximum of two decimal values.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Clamp bounds val to the interval [lo, hi].
func Clamp(val, lo, hi decimal.Decimal) decimal.Decimal {
	return Max(lo, Min(val, hi))
}

// DistributeProRata splits amount across weights in proportion to each weight,
// in cents, such that the parts sum exactly to amount. Rounding leftovers are
// assigned largest-fractional-remainder first; ties go to the earlier index so
// the split is deterministic. Zero or negative weights receive nothing. If all
// weights are zero the whole amount lands on the first slot.
func DistributeProRata(amount decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	parts := make([]decimal.Decimal, len(weights))
	if len(weights) == 0 || amount.IsZero() {
		return parts
	}

	total := decimal.Zero
	for _, w := range weights {
		if w.IsPositive() {
			total = total.Add(w)
		}
	}
	if total.IsZero() {
		parts[0] = amount
		for i := 1; i < len(weights); i++ {
			parts[i] = decimal.Zero
		}
		return parts
	}

	type remainder struct {
		index int
		frac  decimal.Decimal
	}

	assigned := decimal.Zero
	remainders := make([]remainder, 0, len(weights))
	for i, w := range weights {
		if !w.IsPositive() {
			parts[i] = decimal.Zero
			continue
		}
		exact := amount.Mul(w).Div(total)
		floored := exact.RoundDown(CentPlaces)
		parts[i] = floored
		assigned = assigned.Add(floored)
		remainders = append(remainders, remainder{index: i, frac: exact.Sub(floored)})
	}

	// Hand out the leftover cents by descending fractional remainder.
	sort.SliceStable(remainders, func(a, b int) bool {
		return remainders[a].frac.GreaterThan(remainders[b].frac)
	})
	leftover := amount.Sub(assigned)
	for _, r := range remainders {
		if !leftover.IsPositive() {
			break
		}
		grant := Min(leftover, Cent)
		parts[r.index] = parts[r.index].Add(grant)
		leftover = leftover.Sub(grant)
	}
	if leftover.IsPositive() {
		parts[remainders[0].index] = parts[remainders[0].index].Add(leftover)
	}

	return parts
}
