package memory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftworks/millstock/production"
	"github.com/weftworks/millstock/store/memory"
)

func TestProduction_ClonesOnReadAndWrite(t *testing.T) {
	// GIVEN: A stored production entry with nested shift and downtime data
	// WHEN: The caller mutates its own copy or a read result
	// THEN: The stored entry is unaffected

	store := memory.NewProduction()
	ctx := context.Background()

	in := &production.Entry{
		ID:   "pr1",
		Date: "2082-04-01",
		Machines: []production.Machine{
			{
				Number: 1,
				Day: &production.Shift{
					Operator:   "Ram",
					Production: decimal.NewFromInt(120),
					Downtimes:  []production.Downtime{{From: "10:00", To: "11:00", Reason: "Power cut"}},
				},
			},
		},
	}
	require.NoError(t, store.Insert(ctx, in))

	in.Machines[0].Day.Operator = "changed"
	in.Machines[0].Day.Downtimes[0].Reason = "changed"

	out, err := store.FindByDate(ctx, "2082-04-01")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "Ram", out.Machines[0].Day.Operator)
	assert.Equal(t, "Power cut", out.Machines[0].Day.Downtimes[0].Reason)

	out.Machines[0].Day.Operator = "scribbled"

	again, err := store.Get(ctx, "pr1")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, "Ram", again.Machines[0].Day.Operator)
}
