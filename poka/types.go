/*
Package poka tracks finished-goods units through production, transfer,
and sale.

PURPOSE:
  A poka is a discrete finished unit (a wound bundle) with a unique
  number, a shade code, and meter/kg measurements. Units are produced in
  batches at the mill, optionally transferred to the warehouse, and
  eventually sold from either site. Every transition is reversible
  through a per-unit correction edit.

STATES:
  available@mill -> available@warehouse (transfer)
  available@*    -> sold                (sale)
  Corrections can move a unit between any of the three states, clearing
  date stamps that no longer apply.

  The "transferred" status value exists for legacy records; in practice
  a transferred unit is stored as available@warehouse.

LEDGER COUPLING:
  Producing a poka consumes unfinished-goods stock. Creation, measure
  edits, and deletion all push their meter/kg delta into the latest
  unfinished-goods ledger entry. See coupling.go.

SEE ALSO:
  - service.go:  bulk operations and the correction edit
  - coupling.go: the unfinished-goods side effect
  - store.go:    persistence interface
*/
package poka

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LOCATION & STATUS
// =============================================================================

// Location identifies which site holds a unit.
type Location string

const (
	// LocationMill is the production site.
	LocationMill Location = "mill"
	// LocationWarehouse is the downstream godown units transfer into.
	LocationWarehouse Location = "warehouse"
)

func (l Location) Valid() bool { return l == LocationMill || l == LocationWarehouse }

// Status is a unit's lifecycle state.
type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
	// StatusTransferred is kept for legacy records; transfers are stored
	// as available at the target location.
	StatusTransferred Status = "transferred"
)

func (s Status) Valid() bool {
	return s == StatusAvailable || s == StatusSold || s == StatusTransferred
}

// =============================================================================
// POKA
// =============================================================================

// Poka is one finished-goods unit.
type Poka struct {
	ID      string
	Date    string // production batch date
	PokaNo  string // globally unique human identifier, e.g. "P-001"
	ShadeNo string // shade (color/batch) code, e.g. "SH-01"
	Meter   decimal.Decimal
	Kg      decimal.Decimal

	Location Location
	Status   Status

	// Transition stamps. Set when the transition occurs, cleared when a
	// correction moves the unit back to a state that does not imply them.
	SaleDate        string
	TransferDate    string
	ReceivedDate    string
	TransferredFrom Location // provenance site, empty when never transferred

	// Sale metadata.
	SalePrice    *decimal.Decimal
	CustomerName string
	Remarks      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy of the unit.
func (p *Poka) Clone() *Poka {
	c := *p
	if p.SalePrice != nil {
		price := *p.SalePrice
		c.SalePrice = &price
	}
	return &c
}

// =============================================================================
// FILTER & PATCH
// =============================================================================

// Filter narrows store queries. Nil fields match everything.
type Filter struct {
	Location        *Location
	Status          *Status
	TransferredFrom *Location
	SaleDate        *string
	TransferDate    *string
}

// Patch is a partial update applied to many units at once by the bulk
// sale/transfer operations. Nil fields are left untouched; non-nil
// pointer-to-empty clears the field.
type Patch struct {
	Status          *Status
	Location        *Location
	SaleDate        *string
	TransferDate    *string
	TransferredFrom *Location
	SalePrice       *decimal.Decimal
	CustomerName    *string
}
