/*
Package ledger implements the daily running-balance stock ledgers.

PURPOSE:
  A ledger is a dated sequence of entries, one per calendar day, each
  carrying an opening balance, an inflow, one or more outflows, and the
  derived total and closing balance. Two ledger kinds exist: raw yarn
  stock and unfinished (semi-finished) goods stock.

KEY CONCEPTS IN THIS FILE (types.go):
  - Kind:   which ledger an entry belongs to (yarn / unfinished goods)
  - Schema: the flow fields a kind carries and which outflows deduct
  - Entry:  one dated row with its quantities and derived balances

DERIVATION RULES:
  total   = clean(openingBalance + inflow)
  balance = clean(total - sum(deducted outflows))

  Both are recomputed by Entry.Recompute, never set by hand. The balance
  must never go negative; violations are hard errors, not clamped.

DATE ORDERING:
  Dates are stored as zero-padded strings (e.g. "2082-04-12") so that
  lexicographic comparison equals chronological comparison. The
  recalculation engine depends on this holding.

SEE ALSO:
  - service.go: create/update/delete lifecycle operations
  - recalc.go:  cascade recalculation from a date onward
  - store.go:   persistence interface
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// KIND - Which ledger an entry belongs to
// =============================================================================

type Kind string

const (
	// Yarn tracks raw yarn stock: purchases in, consumption and wastage out.
	Yarn Kind = "yarn"

	// UnfinishedGoods tracks semi-finished material: received quantities in,
	// finished kg out. Finished meters are recorded alongside for reporting
	// but do not deduct from the kg balance.
	UnfinishedGoods Kind = "unfinished_goods"
)

// Flow field names, shared between the ledger and its stores.
const (
	FlowPurchase      = "purchase"
	FlowConsumption   = "consumption"
	FlowWastage       = "wastage"
	FlowReceived      = "received"
	FlowFinishedMeter = "finished_meter"
	FlowFinishedKg    = "finished_kg"
)

// OutflowDef describes one outflow field of a ledger kind.
// Deducted outflows subtract from the closing balance; non-deducted ones
// are carried for reporting only.
type OutflowDef struct {
	Name     string
	Deducted bool
}

// Schema describes the flow fields of a ledger kind.
type Schema struct {
	Inflow   string
	Outflows []OutflowDef
}

var schemas = map[Kind]Schema{
	Yarn: {
		Inflow: FlowPurchase,
		Outflows: []OutflowDef{
			{Name: FlowConsumption, Deducted: true},
			{Name: FlowWastage, Deducted: true},
		},
	},
	UnfinishedGoods: {
		Inflow: FlowReceived,
		Outflows: []OutflowDef{
			{Name: FlowFinishedMeter, Deducted: false},
			{Name: FlowFinishedKg, Deducted: true},
		},
	},
}

// Schema returns the flow schema for the kind.
// Unknown kinds return a zero schema; use Valid to check first.
func (k Kind) Schema() Schema { return schemas[k] }

// Valid reports whether k is a known ledger kind.
func (k Kind) Valid() bool {
	_, ok := schemas[k]
	return ok
}

// Kinds returns all known ledger kinds.
func Kinds() []Kind { return []Kind{Yarn, UnfinishedGoods} }

// =============================================================================
// ENTRY - One dated ledger row
// =============================================================================

// Outflow is a named outflow quantity on an entry.
type Outflow struct {
	Name string
	Qty  decimal.Decimal
}

// Entry is one dated row of a ledger.
//
// INVARIANTS (after any successful operation):
//   - exactly one entry per (kind, date)
//   - openingBalance equals the previous entry's balance
//   - total and balance match the derivation rules
//   - balance >= 0
type Entry struct {
	ID             string
	Kind           Kind
	Date           string // zero-padded, sorts chronologically
	OpeningBalance decimal.Decimal
	Inflow         decimal.Decimal
	Total          decimal.Decimal
	Outflows       []Outflow
	Balance        decimal.Decimal

	CreatedAt time.Time // insertion order; the poka coupling targets the latest-created entry
	UpdatedAt time.Time
}

// Outflow returns the named outflow quantity, zero if absent.
func (e *Entry) Outflow(name string) decimal.Decimal {
	for _, f := range e.Outflows {
		if f.Name == name {
			return f.Qty
		}
	}
	return decimal.Zero
}

// SetOutflow replaces the named outflow quantity, appending if absent.
func (e *Entry) SetOutflow(name string, qty decimal.Decimal) {
	for i, f := range e.Outflows {
		if f.Name == name {
			e.Outflows[i].Qty = qty
			return
		}
	}
	e.Outflows = append(e.Outflows, Outflow{Name: name, Qty: qty})
}

// Deductions returns the sum of the outflows that deduct from the balance,
// per the kind's schema.
func (e *Entry) Deductions() decimal.Decimal {
	sum := decimal.Zero
	for _, def := range e.Kind.Schema().Outflows {
		if def.Deducted {
			sum = sum.Add(e.Outflow(def.Name))
		}
	}
	return sum
}

// Recompute derives Total and Balance from the entry's own quantities.
// It does not check the non-negative invariant; callers do.
func (e *Entry) Recompute() {
	e.Total = Clean(e.OpeningBalance.Add(e.Inflow))
	e.Balance = Clean(e.Total.Sub(e.Deductions()))
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Outflows = make([]Outflow, len(e.Outflows))
	copy(c.Outflows, e.Outflows)
	return &c
}
