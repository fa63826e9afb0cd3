package core

import "strings"

// amount tolerance for duplicate detection, as a ratio: a ledger amount
// within [4/5, 6/5] of the template amount still counts as the same
// obligation.
const (
	toleranceNum = 5
	toleranceLow = 4
	toleranceHi  = 6
)

// IsDuplicate reports whether a ledger entry already records the
// template's obligation for the period the caller scoped it to. The match
// is deliberately fuzzy: the category must agree, and then either the
// entry's description contains the template's description
// (case-insensitive) or the amount falls within ±20% of the template
// amount, bounds inclusive. The tolerance absorbs small manual edits —
// a grocery total that came out a few euros different — while still
// recognizing the obligation as already booked.
//
// An empty template description matches any entry, so such templates are
// deduplicated on category and amount alone.
func IsDuplicate(tmpl RecurringTransaction, txn Transaction) bool {
	if txn.CategoryID != tmpl.CategoryID {
		return false
	}
	if strings.Contains(strings.ToLower(txn.Description), strings.ToLower(tmpl.Description)) {
		return true
	}
	return AmountWithinTolerance(tmpl.Amount, txn.Amount)
}

// AmountWithinTolerance reports whether candidate lies in
// [0.8×reference, 1.2×reference], bounds inclusive. Computed in integer
// cents so the boundary cases are exact.
func AmountWithinTolerance(reference, candidate Money) bool {
	scaled := candidate.Cents * toleranceNum
	return scaled >= reference.Cents*toleranceLow && scaled <= reference.Cents*toleranceHi
}
