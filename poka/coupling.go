/*
coupling.go - Poka to unfinished-goods ledger side effect

PURPOSE:
  Finishing goods consumes previously-received unfinished material.
  Producing pokas raises the "finished" counters of the unfinished-goods
  ledger and lowers its derived balance; deleting or shrinking a poka
  reverses that.

TARGET ENTRY:
  The delta lands on the most recently CREATED unfinished-goods entry
  (insertion time, not calendar date) - that row is the current work in
  progress regardless of what date filters the operator has been using.
  Production lag against the calendar is tolerated.

NO CASCADE:
  Only the one entry is rewritten; later-dated entries are not
  recalculated here, unlike ledger lifecycle mutations. The finished
  counters are floored at zero rather than erroring - over-deletion of
  pokas must not wedge the ledger.
*/
package poka

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/weftworks/millstock/ledger"
)

// applyFinishedDelta adjusts the latest unfinished-goods entry's finished
// counters by the given deltas and re-derives its balance. No-op when the
// unfinished-goods ledger has no entries.
func (s *Service) applyFinishedDelta(ctx context.Context, meterDelta, kgDelta decimal.Decimal) error {
	if meterDelta.IsZero() && kgDelta.IsZero() {
		return nil
	}

	latest, err := s.entries.Latest(ctx, ledger.UnfinishedGoods)
	if err != nil {
		return err
	}
	if latest == nil {
		return nil
	}

	meter := ledger.Clean(latest.Outflow(ledger.FlowFinishedMeter).Add(meterDelta))
	kg := ledger.Clean(latest.Outflow(ledger.FlowFinishedKg).Add(kgDelta))
	latest.SetOutflow(ledger.FlowFinishedMeter, decimal.Max(decimal.Zero, meter))
	latest.SetOutflow(ledger.FlowFinishedKg, decimal.Max(decimal.Zero, kg))
	latest.Recompute()

	return s.entries.Save(ctx, latest)
}
