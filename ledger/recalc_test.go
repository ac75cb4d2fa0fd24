package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftworks/millstock/ledger"
	"github.com/weftworks/millstock/store/memory"
)

// seedEntry inserts a raw entry with derived totals, bypassing the service.
func seedEntry(t *testing.T, store *memory.Ledger, id, date string, opening, inflow, consumption float64) {
	t.Helper()
	e := &ledger.Entry{
		ID:             id,
		Kind:           ledger.Yarn,
		Date:           date,
		OpeningBalance: dec(opening),
		Inflow:         dec(inflow),
	}
	e.SetOutflow(ledger.FlowConsumption, dec(consumption))
	e.SetOutflow(ledger.FlowWastage, dec(0))
	e.Recompute()
	require.NoError(t, store.Insert(context.Background(), e))
}

func TestRecalculate_EmptyRange_NoOp(t *testing.T) {
	store := memory.NewLedger()
	r := ledger.NewRecalculator(store)

	assert.NoError(t, r.Recalculate(context.Background(), ledger.Yarn, "2082-04-01"))
}

func TestRecalculate_UnknownKind(t *testing.T) {
	r := ledger.NewRecalculator(memory.NewLedger())
	assert.ErrorIs(t, r.Recalculate(context.Background(), ledger.Kind("silk"), "2082-04-01"), ledger.ErrUnknownKind)
}

func TestRecalculate_SeedsFromAnchor(t *testing.T) {
	// GIVEN: An anchor entry before the range whose balances are stale
	// WHEN: Recalculating from inside the range
	// THEN: The first recomputed entry opens at the anchor's closing balance

	store := memory.NewLedger()
	ctx := context.Background()

	seedEntry(t, store, "a", "2082-04-01", 100, 0, 30) // closes 70
	// Stale: opens at 999 instead of 70.
	seedEntry(t, store, "b", "2082-04-02", 999, 10, 5)

	r := ledger.NewRecalculator(store)
	require.NoError(t, r.Recalculate(ctx, ledger.Yarn, "2082-04-02"))

	b, err := store.FindByDate(ctx, ledger.Yarn, "2082-04-02")
	require.NoError(t, err)
	assert.True(t, b.OpeningBalance.Equal(dec(70)), "opening = %s", b.OpeningBalance)
	assert.True(t, b.Balance.Equal(dec(75)), "balance = %s", b.Balance)
}

func TestRecalculate_NoAnchor_KeepsFirstOpeningBalance(t *testing.T) {
	// The first-ever entry's manually supplied opening balance survives a
	// full-history recalculation.

	store := memory.NewLedger()
	ctx := context.Background()

	seedEntry(t, store, "a", "2082-04-01", 100, 0, 30)
	seedEntry(t, store, "b", "2082-04-02", 0, 0, 20) // stale opening

	r := ledger.NewRecalculator(store)
	require.NoError(t, r.Recalculate(ctx, ledger.Yarn, "2082-04-01"))

	a, err := store.FindByDate(ctx, ledger.Yarn, "2082-04-01")
	require.NoError(t, err)
	assert.True(t, a.OpeningBalance.Equal(dec(100)))

	b, err := store.FindByDate(ctx, ledger.Yarn, "2082-04-02")
	require.NoError(t, err)
	assert.True(t, b.OpeningBalance.Equal(dec(70)), "opening = %s", b.OpeningBalance)
	assert.True(t, b.Balance.Equal(dec(50)), "balance = %s", b.Balance)
}

func TestRecalculate_Idempotent(t *testing.T) {
	// Running the cascade twice changes nothing the second time.

	store := memory.NewLedger()
	ctx := context.Background()

	seedEntry(t, store, "a", "2082-04-01", 100, 20, 30)
	seedEntry(t, store, "b", "2082-04-02", 0, 10, 5)
	seedEntry(t, store, "c", "2082-04-03", 0, 0, 40)

	r := ledger.NewRecalculator(store)
	require.NoError(t, r.Recalculate(ctx, ledger.Yarn, "2082-04-01"))

	first, err := store.FindFrom(ctx, ledger.Yarn, "2082-04-01")
	require.NoError(t, err)

	require.NoError(t, r.Recalculate(ctx, ledger.Yarn, "2082-04-01"))
	second, err := store.FindFrom(ctx, ledger.Yarn, "2082-04-01")
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].OpeningBalance.Equal(second[i].OpeningBalance))
		assert.True(t, first[i].Balance.Equal(second[i].Balance))
	}
}

func TestRecalculate_AdjacencyInvariantHolds(t *testing.T) {
	store := memory.NewLedger()
	ctx := context.Background()

	seedEntry(t, store, "a", "2082-04-01", 100, 20, 30)
	seedEntry(t, store, "b", "2082-04-02", 1, 10, 5)
	seedEntry(t, store, "c", "2082-04-03", 2, 0, 40)
	seedEntry(t, store, "d", "2082-04-04", 3, 15, 0)

	r := ledger.NewRecalculator(store)
	require.NoError(t, r.Recalculate(ctx, ledger.Yarn, "2082-04-01"))

	entries, err := store.FindFrom(ctx, ledger.Yarn, "2082-04-01")
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i].OpeningBalance.Equal(entries[i-1].Balance),
			"entry %s opens at %s, predecessor closes at %s",
			entries[i].Date, entries[i].OpeningBalance, entries[i-1].Balance)
	}
}

func TestRecalculate_NegativeMidCascade_NothingPersisted(t *testing.T) {
	// GIVEN: A cascade that goes negative at its second entry
	// WHEN: Recalculating
	// THEN: The error names the failing date and no entry changed, the
	//       valid prefix included

	store := memory.NewLedger()
	ctx := context.Background()

	seedEntry(t, store, "a", "2082-04-01", 30, 0, 0)  // closes 30
	seedEntry(t, store, "b", "2082-04-02", 99, 0, 50) // would reopen at 30, go to -20
	seedEntry(t, store, "c", "2082-04-03", 77, 5, 0)

	before, err := store.FindFrom(ctx, ledger.Yarn, "2082-04-01")
	require.NoError(t, err)

	r := ledger.NewRecalculator(store)
	err = r.Recalculate(ctx, ledger.Yarn, "2082-04-01")
	assert.ErrorIs(t, err, ledger.ErrNegativeBalance)

	after, err := store.FindFrom(ctx, ledger.Yarn, "2082-04-01")
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.True(t, after[i].OpeningBalance.Equal(before[i].OpeningBalance),
			"entry %s was partially persisted", after[i].Date)
		assert.True(t, after[i].Balance.Equal(before[i].Balance))
	}
}
