package production_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftworks/millstock/production"
)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// =============================================================================
// DOWNTIME WINDOWS
// =============================================================================

func TestDowntimeMinutes(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want int
	}{
		{"same hour", "10:00", "10:45", 45},
		{"across hours", "09:30", "12:15", 165},
		{"full day shift", "06:00", "18:00", 720},
		{"crosses midnight", "22:30", "01:15", 165},
		{"just before midnight", "23:59", "00:01", 2},
		{"zero length", "10:00", "10:00", 0},
		{"malformed from", "ten", "10:30", 0},
		{"malformed to", "10:00", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, production.DowntimeMinutes(tt.from, tt.to))
		})
	}
}

// =============================================================================
// AGGREGATION
// =============================================================================

func shift(operator string, kg float64, downtimes ...production.Downtime) *production.Shift {
	return &production.Shift{Operator: operator, Production: dec(kg), Downtimes: downtimes}
}

func sampleEntries() []production.Entry {
	day1 := production.Entry{
		Date: "2082-04-01",
		Machines: []production.Machine{
			{
				Number: 1,
				Day:    shift("Ram", 120, production.Downtime{From: "10:00", To: "11:00", Reason: "Power cut"}),
				Night:  shift("Shyam", 100),
			},
			{
				Number:        3,
				ShiftCombined: true,
				Combined:      shift("Hari", 180, production.Downtime{From: "22:00", To: "01:00", Reason: "Yarn break"}),
			},
		},
	}
	day1.ComputeTotal()

	day2 := production.Entry{
		Date: "2082-04-02",
		Machines: []production.Machine{
			{
				Number: 1,
				Day:    shift("Ram", 110, production.Downtime{From: "14:00", To: "14:30", Reason: "Power cut"}),
				Night:  shift("Shyam", 90),
			},
		},
	}
	day2.ComputeTotal()

	return []production.Entry{day1, day2}
}

func TestAnalyze_Totals(t *testing.T) {
	a := production.Analyze(sampleEntries())

	assert.Equal(t, 2, a.EntryCount)
	assert.True(t, a.TotalProduction.Equal(dec(600)), "total = %s", a.TotalProduction)
	// 60 + 180 (midnight crossing) + 30
	assert.Equal(t, 270, a.TotalDowntimeMinutes)
}

func TestAnalyze_PerMachine(t *testing.T) {
	a := production.Analyze(sampleEntries())

	require.Len(t, a.Machines, 2)
	m1, m3 := a.Machines[0], a.Machines[1]

	assert.Equal(t, 1, m1.Machine)
	assert.True(t, m1.Production.Equal(dec(420)), "m1 production = %s", m1.Production)
	assert.Equal(t, 90, m1.DowntimeMinutes)

	assert.Equal(t, 3, m3.Machine)
	assert.True(t, m3.Production.Equal(dec(180)))
	assert.Equal(t, 180, m3.DowntimeMinutes)
}

func TestAnalyze_ReasonsSortedByMinutes(t *testing.T) {
	a := production.Analyze(sampleEntries())

	require.Len(t, a.Reasons, 2)
	assert.Equal(t, "Yarn break", a.Reasons[0].Reason)
	assert.Equal(t, 180, a.Reasons[0].Minutes)
	assert.Equal(t, "Power cut", a.Reasons[1].Reason)
	assert.Equal(t, 90, a.Reasons[1].Minutes)
}

func TestAnalyze_RankingWorstFirst(t *testing.T) {
	a := production.Analyze(sampleEntries())

	require.Len(t, a.Ranking, 2)
	assert.Equal(t, "M3", a.Ranking[0].Machine)
	assert.True(t, a.Ranking[0].DowntimeHours.Equal(dec(3)), "hours = %s", a.Ranking[0].DowntimeHours)
	assert.Equal(t, "M1", a.Ranking[1].Machine)
	assert.True(t, a.Ranking[1].DowntimeHours.Equal(dec(1.5)), "hours = %s", a.Ranking[1].DowntimeHours)
}

func TestAnalyze_MissingReasonBucketsAsOther(t *testing.T) {
	e := production.Entry{
		Date: "2082-04-01",
		Machines: []production.Machine{
			{Number: 2, ShiftCombined: true, Combined: shift("Ram", 50, production.Downtime{From: "08:00", To: "08:20"})},
		},
	}
	e.ComputeTotal()

	a := production.Analyze([]production.Entry{e})
	require.Len(t, a.Reasons, 1)
	assert.Equal(t, "Other", a.Reasons[0].Reason)
	assert.Equal(t, 20, a.Reasons[0].Minutes)
}

func TestAnalyze_Empty(t *testing.T) {
	a := production.Analyze(nil)
	assert.Equal(t, 0, a.EntryCount)
	assert.True(t, a.TotalProduction.IsZero())
	assert.Empty(t, a.Machines)
}
