/*
analysis.go - Downtime and production analytics

PURPOSE:
  Aggregates a set of production entries into totals, per-machine stats,
  per-reason downtime, and a downtime ranking - the numbers behind the
  production analysis screen.
*/
package production

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/weftworks/millstock/ledger"
)

// MachineStat aggregates one machine across the analyzed entries.
type MachineStat struct {
	Machine         int
	Production      decimal.Decimal
	DowntimeMinutes int
}

// ReasonStat totals downtime minutes per stoppage reason.
type ReasonStat struct {
	Reason  string
	Minutes int
}

// RankEntry is one row of the downtime ranking, worst machine first.
type RankEntry struct {
	Machine       string // "M3"
	DowntimeHours decimal.Decimal
	Production    decimal.Decimal
}

// Analysis is the aggregate over a set of entries.
type Analysis struct {
	TotalProduction      decimal.Decimal
	TotalDowntimeMinutes int
	EntryCount           int
	Machines             []MachineStat
	Reasons              []ReasonStat
	Ranking              []RankEntry
}

// Analyze aggregates the entries. Pure function over its input.
func Analyze(entries []Entry) Analysis {
	a := Analysis{
		TotalProduction: decimal.Zero,
		EntryCount:      len(entries),
	}

	machines := map[int]*MachineStat{}
	reasons := map[string]int{}

	for _, e := range entries {
		a.TotalProduction = ledger.Clean(a.TotalProduction.Add(e.TotalProduction))
		for _, m := range e.Machines {
			ms := machines[m.Number]
			if ms == nil {
				ms = &MachineStat{Machine: m.Number, Production: decimal.Zero}
				machines[m.Number] = ms
			}
			for _, sh := range m.Shifts() {
				ms.Production = ledger.Clean(ms.Production.Add(sh.Production))
				for _, dt := range sh.Downtimes {
					mins := DowntimeMinutes(dt.From, dt.To)
					a.TotalDowntimeMinutes += mins
					ms.DowntimeMinutes += mins
					reason := dt.Reason
					if reason == "" {
						reason = "Other"
					}
					reasons[reason] += mins
				}
			}
		}
	}

	for _, ms := range machines {
		a.Machines = append(a.Machines, *ms)
	}
	sort.Slice(a.Machines, func(i, j int) bool {
		return a.Machines[i].Machine < a.Machines[j].Machine
	})

	for reason, mins := range reasons {
		a.Reasons = append(a.Reasons, ReasonStat{Reason: reason, Minutes: mins})
	}
	sort.Slice(a.Reasons, func(i, j int) bool {
		if a.Reasons[i].Minutes != a.Reasons[j].Minutes {
			return a.Reasons[i].Minutes > a.Reasons[j].Minutes
		}
		return a.Reasons[i].Reason < a.Reasons[j].Reason
	})

	ranked := append([]MachineStat(nil), a.Machines...)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].DowntimeMinutes > ranked[j].DowntimeMinutes
	})
	for _, ms := range ranked {
		hours := decimal.NewFromInt(int64(ms.DowntimeMinutes)).Div(decimal.NewFromInt(60))
		a.Ranking = append(a.Ranking, RankEntry{
			Machine:       "M" + strconv.Itoa(ms.Machine),
			DowntimeHours: ledger.Clean(hours),
			Production:    ms.Production,
		})
	}

	return a
}

// DowntimeMinutes returns the length of a downtime window in minutes.
// From/To are "HH:MM"; a window whose end reads earlier than its start
// crosses midnight. Malformed times count as zero.
func DowntimeMinutes(from, to string) int {
	start, ok1 := parseClock(from)
	end, ok2 := parseClock(to)
	if !ok1 || !ok2 {
		return 0
	}
	if end < start {
		end += 24 * 60
	}
	return end - start
}

func parseClock(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return h*60 + m, true
}
