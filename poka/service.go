/*
service.go - Poka state machine operations

PURPOSE:
  Bulk produce/sell/transfer operations, the per-unit correction edit,
  and deletion. Every mutation that changes meter/kg or creates/removes
  a unit pushes its delta into the unfinished-goods ledger (coupling.go).

BULK SEMANTICS:
  Produce is all-or-nothing: one colliding poka number rejects the whole
  batch and leaves the ledger untouched. Sell and Transfer stamp the
  selected ids as-is without checking prior status - the caller selects
  only available units.

CORRECTION EDITS:
  Correct moves a single unit between available@mill, available@warehouse
  and sold, stamping dates the new state implies and clearing ones it no
  longer does. Identity and measurement fields (number, shade, meter, kg)
  can only change while the unit is still raw production data, i.e.
  available at the mill.
*/
package poka

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/weftworks/millstock/ledger"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service exposes the poka lifecycle operations.
type Service struct {
	pokas   Store
	entries ledger.Store
	now     func() time.Time
	today   func() string
}

func NewService(pokas Store, entries ledger.Store) *Service {
	s := &Service{
		pokas:   pokas,
		entries: entries,
		now:     time.Now,
	}
	s.today = func() string { return s.now().UTC().Format("2006-01-02") }
	return s
}

// SetToday overrides the date source used when a correction needs to
// stamp a transition date that was never recorded.
func (s *Service) SetToday(today func() string) { s.today = today }

// =============================================================================
// PRODUCE - Bulk batch creation
// =============================================================================

// Unit is one unit of a production batch.
type Unit struct {
	PokaNo  string
	ShadeNo string
	Meter   decimal.Decimal
	Kg      decimal.Decimal
	Remarks string
}

// Produce inserts a batch of new units at available@mill against the
// given batch date, then adds the batch's meter/kg totals to the
// unfinished-goods ledger's finished counters.
//
// All-or-nothing: any poka number already taken (or repeated within the
// batch) rejects the whole batch with DuplicatePokaNumberError listing
// every conflict, and no units are inserted.
func (s *Service) Produce(ctx context.Context, units []Unit, date string) error {
	if len(units) == 0 {
		return ErrNoPokasSelected
	}

	nos := make([]string, 0, len(units))
	seen := make(map[string]bool, len(units))
	var conflicts []string
	for _, u := range units {
		if u.PokaNo == "" || u.ShadeNo == "" || !u.Meter.IsPositive() || !u.Kg.IsPositive() {
			return ErrInvalidUnit
		}
		if seen[u.PokaNo] {
			conflicts = append(conflicts, u.PokaNo)
			continue
		}
		seen[u.PokaNo] = true
		nos = append(nos, u.PokaNo)
	}

	existing, err := s.pokas.FindByNumbers(ctx, nos)
	if err != nil {
		return err
	}
	for _, p := range existing {
		conflicts = append(conflicts, p.PokaNo)
	}
	if len(conflicts) > 0 {
		return &DuplicatePokaNumberError{Numbers: conflicts}
	}

	now := s.now().UTC()
	batch := make([]Poka, len(units))
	totalMeter, totalKg := decimal.Zero, decimal.Zero
	for i, u := range units {
		batch[i] = Poka{
			ID:        uuid.NewString(),
			Date:      date,
			PokaNo:    u.PokaNo,
			ShadeNo:   u.ShadeNo,
			Meter:     u.Meter,
			Kg:        u.Kg,
			Location:  LocationMill,
			Status:    StatusAvailable,
			Remarks:   u.Remarks,
			CreatedAt: now,
			UpdatedAt: now,
		}
		totalMeter = totalMeter.Add(u.Meter)
		totalKg = totalKg.Add(u.Kg)
	}

	if err := s.pokas.InsertMany(ctx, batch); err != nil {
		return err
	}

	// Finishing goods consumes unfinished stock.
	return s.applyFinishedDelta(ctx, ledger.Clean(totalMeter), ledger.Clean(totalKg))
}

// =============================================================================
// SELL / TRANSFER - Bulk transitions
// =============================================================================

// SaleMeta is optional buyer/price metadata recorded with a sale.
type SaleMeta struct {
	CustomerName string
	SalePrice    *decimal.Decimal
}

// Sell marks the selected units sold, stamped with the sale date and
// metadata. Idempotent per call; prior status is not checked.
func (s *Service) Sell(ctx context.Context, ids []string, date string, meta SaleMeta) (int, error) {
	if len(ids) == 0 {
		return 0, ErrNoPokasSelected
	}
	sold := StatusSold
	return s.pokas.UpdateMany(ctx, ids, Patch{
		Status:       &sold,
		SaleDate:     &date,
		CustomerName: &meta.CustomerName,
		SalePrice:    meta.SalePrice,
	})
}

// Transfer moves the selected units to the target location, available,
// stamped with the transfer date and provenance. The source location is
// inferred from the first selected unit when the caller has mixed or
// unknown origins.
func (s *Service) Transfer(ctx context.Context, ids []string, date string, target Location) (int, error) {
	if len(ids) == 0 {
		return 0, ErrNoPokasSelected
	}
	if !target.Valid() {
		target = LocationWarehouse
	}

	source := LocationMill
	if first, err := s.pokas.FindByID(ctx, ids[0]); err != nil {
		return 0, err
	} else if first != nil {
		source = first.Location
	}

	available := StatusAvailable
	return s.pokas.UpdateMany(ctx, ids, Patch{
		Location:        &target,
		Status:          &available,
		TransferDate:    &date,
		TransferredFrom: &source,
	})
}

// =============================================================================
// CORRECT - Single-unit edit
// =============================================================================

// Correction is a partial per-unit edit. Nil fields are untouched.
type Correction struct {
	PokaNo   *string
	ShadeNo  *string
	Meter    *decimal.Decimal
	Kg       *decimal.Decimal
	Status   *Status
	Location *Location
	Remarks  *string
}

func (c Correction) touchesMeasurements() bool {
	return c.PokaNo != nil || c.ShadeNo != nil || c.Meter != nil || c.Kg != nil
}

// Correct edits a single unit, including moving it between states.
//
// Identity/measurement fields may only change while the unit is
// available at the mill. State moves normalize the date stamps: leaving
// sold clears the sale date, arriving at the warehouse stamps a transfer
// date if one was never recorded, returning to the mill clears transfer
// provenance. A meter/kg change pushes its delta into the
// unfinished-goods ledger.
func (s *Service) Correct(ctx context.Context, id string, c Correction) error {
	p, err := s.pokas.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrPokaNotFound
	}

	if c.touchesMeasurements() && !(p.Status == StatusAvailable && p.Location == LocationMill) {
		return ErrMeasurementLocked
	}

	meterDelta, kgDelta := decimal.Zero, decimal.Zero
	if c.Meter != nil {
		meterDelta = c.Meter.Sub(p.Meter)
		p.Meter = *c.Meter
	}
	if c.Kg != nil {
		kgDelta = c.Kg.Sub(p.Kg)
		p.Kg = *c.Kg
	}
	if c.PokaNo != nil {
		p.PokaNo = *c.PokaNo
	}
	if c.ShadeNo != nil {
		p.ShadeNo = *c.ShadeNo
	}
	if c.Remarks != nil {
		p.Remarks = *c.Remarks
	}
	if c.Status != nil {
		p.Status = *c.Status
	}
	if c.Location != nil {
		p.Location = *c.Location
	}

	s.normalizeState(p)
	p.UpdatedAt = s.now().UTC()

	if err := s.pokas.Save(ctx, p); err != nil {
		return err
	}

	if !meterDelta.IsZero() || !kgDelta.IsZero() {
		return s.applyFinishedDelta(ctx, ledger.Clean(meterDelta), ledger.Clean(kgDelta))
	}
	return nil
}

// normalizeState clears date stamps the unit's final state no longer
// implies and stamps the ones it does.
func (s *Service) normalizeState(p *Poka) {
	switch p.Status {
	case StatusAvailable:
		p.SaleDate = ""
		switch p.Location {
		case LocationMill:
			p.TransferDate = ""
			p.TransferredFrom = ""
		case LocationWarehouse:
			p.TransferredFrom = LocationMill
			if p.TransferDate == "" {
				p.TransferDate = s.today()
			}
		}
	case StatusSold:
		if p.SaleDate == "" {
			p.SaleDate = s.today()
		}
	}
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes the unit and reverses its contribution to the
// unfinished-goods ledger's finished counters.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.pokas.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrPokaNotFound
	}

	if err := s.pokas.Delete(ctx, id); err != nil {
		return err
	}

	return s.applyFinishedDelta(ctx, ledger.Clean(p.Meter.Neg()), ledger.Clean(p.Kg.Neg()))
}

// =============================================================================
// QUERIES
// =============================================================================

// List returns units matching the filter, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Poka, error) {
	return s.pokas.Find(ctx, f)
}

// Get returns a single unit. Fails with ErrPokaNotFound when absent.
func (s *Service) Get(ctx context.Context, id string) (*Poka, error) {
	p, err := s.pokas.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPokaNotFound
	}
	return p, nil
}

// FinishedTotals returns the finished meter/kg counters of the current
// unfinished-goods working entry. Zeros when the ledger is empty.
func (s *Service) FinishedTotals(ctx context.Context) (meter, kg decimal.Decimal, err error) {
	latest, err := s.entries.Latest(ctx, ledger.UnfinishedGoods)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if latest == nil {
		return decimal.Zero, decimal.Zero, nil
	}
	return latest.Outflow(ledger.FlowFinishedMeter), latest.Outflow(ledger.FlowFinishedKg), nil
}
