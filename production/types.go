/*
Package production keeps the daily machine-production log.

PURPOSE:
  One entry per calendar day records, per machine, who operated which
  shift, how many kilograms came off, and every downtime window with its
  reason. A machine either runs a single combined shift or separate day
  and night shifts. Analytics over the log (analysis.go) aggregate
  production and downtime per machine and per reason.

  This log is independent of the stock ledgers: it feeds reporting, not
  balances.
*/
package production

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENTRY - One day of machine production
// =============================================================================

// Downtime is one stoppage window within a shift. From/To are wall-clock
// "HH:MM" strings; a window may cross midnight.
type Downtime struct {
	From   string
	To     string
	Reason string
}

// Shift records one operator's shift on one machine.
type Shift struct {
	Operator   string
	Production decimal.Decimal // kg
	Downtimes  []Downtime
}

// Machine is one machine's record within a day's entry.
type Machine struct {
	Number        int
	ShiftCombined bool
	Combined      *Shift // set when ShiftCombined
	Day           *Shift // set when not combined
	Night         *Shift
}

// Shifts returns the machine's populated shifts.
func (m Machine) Shifts() []*Shift {
	if m.ShiftCombined {
		if m.Combined != nil {
			return []*Shift{m.Combined}
		}
		return nil
	}
	var shifts []*Shift
	if m.Day != nil {
		shifts = append(shifts, m.Day)
	}
	if m.Night != nil {
		shifts = append(shifts, m.Night)
	}
	return shifts
}

// Entry is one day's production log. Dates are unique.
type Entry struct {
	ID              string
	Date            string
	Machines        []Machine
	TotalProduction decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ComputeTotal sums all shift production into TotalProduction.
func (e *Entry) ComputeTotal() {
	total := decimal.Zero
	for _, m := range e.Machines {
		for _, sh := range m.Shifts() {
			total = total.Add(sh.Production)
		}
	}
	e.TotalProduction = total
}
