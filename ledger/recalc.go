/*
recalc.go - Cascade recalculation engine

PURPOSE:
  After any retroactive insert, edit, or delete, every entry from the
  changed date onward must re-derive its opening balance from its
  predecessor's closing balance. This is the mechanism that keeps the
  ledger a correct running total under arbitrary historical changes.

ALGORITHM:
  1. Load all entries with date >= from, ascending.
  2. Load the anchor: the latest entry dated strictly before from.
  3. Seed the running balance from the anchor's balance, or from the
     first loaded entry's own opening balance when no anchor exists
     (preserves a manually supplied first-ever opening balance).
  4. Walk forward: opening = clean(running), re-derive total/balance,
     fail on any negative balance, carry balance into the next entry.
  5. Persist the whole recomputed range as one atomic batch.

ALL-OR-NOTHING:
  The full projection is computed and validated in memory before a
  single write happens. A NegativeBalanceError partway through the
  cascade leaves every persisted entry untouched.

ORDERING:
  Entries are processed strictly in ascending date order, one at a
  time. The running-balance dependency chain makes any parallel or
  out-of-order processing incorrect.
*/
package ledger

import "context"

// Recalculator rebuilds the running balances of a ledger from a date onward.
type Recalculator struct {
	Store Store
}

func NewRecalculator(store Store) *Recalculator {
	return &Recalculator{Store: store}
}

// Recalculate re-derives opening/total/balance for every entry with
// date >= from. No-op when no entries exist on or after the date.
//
// On success the adjacency invariant holds: each entry's opening balance
// equals the previous entry's closing balance. On a NegativeBalanceError
// nothing is persisted.
func (r *Recalculator) Recalculate(ctx context.Context, kind Kind, from string) error {
	if !kind.Valid() {
		return ErrUnknownKind
	}

	entries, err := r.Store.FindFrom(ctx, kind, from)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	anchor, err := r.Store.FindBefore(ctx, kind, from)
	if err != nil {
		return err
	}

	running := entries[0].OpeningBalance
	if anchor != nil {
		running = anchor.Balance
	}

	for i := range entries {
		e := &entries[i]
		e.OpeningBalance = Clean(running)
		e.Recompute()
		if e.Balance.IsNegative() {
			return &NegativeBalanceError{Kind: kind, Date: e.Date, Balance: e.Balance}
		}
		running = e.Balance
	}

	return r.Store.SaveAll(ctx, entries)
}
