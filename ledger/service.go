/*
service.go - Ledger entry lifecycle operations

PURPOSE:
  Create, update, and delete handlers for ledger entries. Each computes
  the entry's own derived totals, enforces the per-date uniqueness and
  first-entry invariants, persists, and then invokes the recalculation
  engine from the affected date onward.

CREATE vs UPDATE:
  Create auto-carries the opening balance forward from the previous
  entry, ignoring any client-supplied value unless the ledger is empty
  (then one is required). Update trusts the supplied values outright,
  including the opening balance - edits are corrections, and the cascade
  re-derives everything downstream anyway.

SEE ALSO:
  - recalc.go: the cascade invoked after every mutation
  - errors.go: the error kinds surfaced to callers
*/
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT
// =============================================================================

// Input carries the client-supplied quantities for a create or update.
type Input struct {
	Date           string
	OpeningBalance *decimal.Decimal // required for the first-ever entry; otherwise ignored on create
	Inflow         decimal.Decimal
	Outflows       map[string]decimal.Decimal
}

func (in Input) validate(kind Kind) error {
	if !kind.Valid() {
		return ErrUnknownKind
	}
	var unknown []string
	schema := kind.Schema()
	for name := range in.Outflows {
		found := false
		for _, def := range schema.Outflows {
			if def.Name == name {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return &UnknownFlowError{Kind: kind, Names: unknown}
	}
	if in.Inflow.IsNegative() {
		return ErrNegativeQuantity
	}
	if in.OpeningBalance != nil && in.OpeningBalance.IsNegative() {
		return ErrNegativeQuantity
	}
	for _, qty := range in.Outflows {
		if qty.IsNegative() {
			return ErrNegativeQuantity
		}
	}
	return nil
}

// apply writes the cleaned input quantities onto the entry, in schema order.
func (in Input) apply(e *Entry) {
	e.Date = in.Date
	e.Inflow = Clean(in.Inflow)
	e.Outflows = e.Outflows[:0]
	for _, def := range e.Kind.Schema().Outflows {
		e.Outflows = append(e.Outflows, Outflow{Name: def.Name, Qty: Clean(in.Outflows[def.Name])})
	}
}

// =============================================================================
// SERVICE
// =============================================================================

// Service exposes the ledger entry lifecycle operations.
type Service struct {
	store  Store
	recalc *Recalculator
	now    func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store:  store,
		recalc: NewRecalculator(store),
		now:    time.Now,
	}
}

// Create inserts a new entry for in.Date and cascades from that date.
//
// Fails with ErrDuplicateEntry when the date is taken, with
// ErrMissingOpeningBalance when the ledger is empty and no opening
// balance was supplied, and with ErrNegativeBalance when the entry's
// own balance or any downstream balance would go negative. The entry is
// not persisted when its own balance is negative.
func (s *Service) Create(ctx context.Context, kind Kind, in Input) (*Entry, error) {
	if err := in.validate(kind); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByDate(ctx, kind, in.Date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateEntryError{Kind: kind, Date: in.Date}
	}

	prev, err := s.store.FindBefore(ctx, kind, in.Date)
	if err != nil {
		return nil, err
	}

	var opening decimal.Decimal
	switch {
	case prev != nil:
		// Auto-carry-forward: the previous closing balance wins over any
		// client-supplied value.
		opening = prev.Balance
	case in.OpeningBalance != nil:
		opening = *in.OpeningBalance
	default:
		return nil, ErrMissingOpeningBalance
	}

	e := &Entry{
		ID:             uuid.NewString(),
		Kind:           kind,
		OpeningBalance: Clean(opening),
		CreatedAt:      s.now().UTC(),
	}
	in.apply(e)
	e.Recompute()
	if e.Balance.IsNegative() {
		return nil, &NegativeBalanceError{Kind: kind, Date: e.Date, Balance: e.Balance}
	}

	if err := s.store.Insert(ctx, e); err != nil {
		return nil, err
	}

	// Correct any later entries whose opening balances depended on this
	// insert landing in the middle of the sequence.
	if err := s.recalc.Recalculate(ctx, kind, e.Date); err != nil {
		return nil, err
	}

	return s.store.Get(ctx, kind, e.ID)
}

// Update recomputes the entry from the supplied values (opening balance
// included - unlike create, edits may set it directly), persists, and
// cascades. When the date moved, the cascade starts at the earlier of
// the old and new dates so entries between the two absorb the change.
func (s *Service) Update(ctx context.Context, kind Kind, id string, in Input) (*Entry, error) {
	if err := in.validate(kind); err != nil {
		return nil, err
	}

	e, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEntryNotFound
	}

	if in.Date != e.Date {
		other, err := s.store.FindByDate(ctx, kind, in.Date)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, &DuplicateEntryError{Kind: kind, Date: in.Date}
		}
	}

	oldDate := e.Date
	if in.OpeningBalance != nil {
		e.OpeningBalance = Clean(*in.OpeningBalance)
	}
	in.apply(e)
	e.Recompute()
	if e.Balance.IsNegative() {
		return nil, &NegativeBalanceError{Kind: kind, Date: e.Date, Balance: e.Balance}
	}

	if err := s.store.Save(ctx, e); err != nil {
		return nil, err
	}

	from := e.Date
	if oldDate < from {
		from = oldDate
	}
	if err := s.recalc.Recalculate(ctx, kind, from); err != nil {
		return nil, err
	}

	return s.store.Get(ctx, kind, id)
}

// Delete removes the entry and cascades from its date so subsequent
// entries absorb the gap.
func (s *Service) Delete(ctx context.Context, kind Kind, id string) error {
	if !kind.Valid() {
		return ErrUnknownKind
	}

	e, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEntryNotFound
	}

	if err := s.store.Delete(ctx, kind, id); err != nil {
		return err
	}

	return s.recalc.Recalculate(ctx, kind, e.Date)
}

// List returns all entries of the kind, newest created first.
func (s *Service) List(ctx context.Context, kind Kind) ([]Entry, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	return s.store.List(ctx, kind)
}

// OpeningBalanceBefore returns the closing balance of the latest entry
// dated strictly before date - the value a new entry for that date would
// carry forward. Nil when no prior entry exists.
func (s *Service) OpeningBalanceBefore(ctx context.Context, kind Kind, date string) (*decimal.Decimal, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	prev, err := s.store.FindBefore(ctx, kind, date)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, nil
	}
	b := prev.Balance
	return &b, nil
}

// Recalculate re-runs the cascade from a date. Exposed for admin use;
// normal mutations invoke it automatically.
func (s *Service) Recalculate(ctx context.Context, kind Kind, from string) error {
	return s.recalc.Recalculate(ctx, kind, from)
}
