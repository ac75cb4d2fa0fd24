package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftworks/millstock/ledger"
	"github.com/weftworks/millstock/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestService() (*ledger.Service, *memory.Ledger) {
	store := memory.NewLedger()
	return ledger.NewService(store), store
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func decPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func yarnInput(date string, opening *decimal.Decimal, purchase, consumption, wastage float64) ledger.Input {
	return ledger.Input{
		Date:           date,
		OpeningBalance: opening,
		Inflow:         dec(purchase),
		Outflows: map[string]decimal.Decimal{
			ledger.FlowConsumption: dec(consumption),
			ledger.FlowWastage:     dec(wastage),
		},
	}
}

func entryByDate(t *testing.T, store *memory.Ledger, kind ledger.Kind, date string) *ledger.Entry {
	t.Helper()
	e, err := store.FindByDate(context.Background(), kind, date)
	require.NoError(t, err)
	require.NotNil(t, e, "no entry for %s", date)
	return e
}

// =============================================================================
// CREATE
// =============================================================================

func TestCreate_FirstEntry_RequiresOpeningBalance(t *testing.T) {
	// GIVEN: An empty yarn ledger
	// WHEN: Creating an entry without an opening balance
	// THEN: The create is rejected

	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), ledger.Yarn, yarnInput("2082-04-01", nil, 50, 10, 0))
	assert.ErrorIs(t, err, ledger.ErrMissingOpeningBalance)
}

func TestCreate_FirstEntry_DerivesTotals(t *testing.T) {
	// GIVEN: An empty yarn ledger
	// WHEN: Creating opening 100, purchase 50, consumption 30, wastage 5
	// THEN: total = 150, balance = 115

	svc, _ := newTestService()

	e, err := svc.Create(context.Background(), ledger.Yarn, yarnInput("2082-04-01", decPtr(100), 50, 30, 5))
	require.NoError(t, err)

	assert.True(t, e.Total.Equal(dec(150)), "total = %s", e.Total)
	assert.True(t, e.Balance.Equal(dec(115)), "balance = %s", e.Balance)
}

func TestCreate_CarriesForwardPreviousBalance(t *testing.T) {
	// GIVEN: A ledger whose latest entry closes at 60
	// WHEN: Creating a later entry with a conflicting opening balance supplied
	// THEN: The previous closing balance wins

	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-01", decPtr(100), 0, 40, 0))
	require.NoError(t, err)

	e, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-02", decPtr(999), 20, 30, 0))
	require.NoError(t, err)

	assert.True(t, e.OpeningBalance.Equal(dec(60)), "opening = %s", e.OpeningBalance)
	assert.True(t, e.Balance.Equal(dec(50)), "balance = %s", e.Balance)
}

func TestCreate_DuplicateDate_Rejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-01", decPtr(100), 0, 0, 0))
	require.NoError(t, err)

	_, err = svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-01", nil, 10, 0, 0))
	assert.ErrorIs(t, err, ledger.ErrDuplicateEntry)

	var dup *ledger.DuplicateEntryError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "2082-04-01", dup.Date)
}

func TestCreate_NegativeBalance_RejectedAndNotPersisted(t *testing.T) {
	// GIVEN: An empty yarn ledger
	// WHEN: The entry's own balance would be negative
	// THEN: The create fails and nothing is stored

	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-01", decPtr(10), 0, 25, 0))
	assert.ErrorIs(t, err, ledger.ErrNegativeBalance)

	e, err := store.FindByDate(ctx, ledger.Yarn, "2082-04-01")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestCreate_UnknownFlow_Rejected(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), ledger.Yarn, ledger.Input{
		Date:           "2082-04-01",
		OpeningBalance: decPtr(100),
		Outflows:       map[string]decimal.Decimal{"evaporation": dec(1)},
	})
	assert.ErrorIs(t, err, ledger.ErrUnknownFlow)
}

func TestCreate_NegativeQuantity_Rejected(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), ledger.Yarn, yarnInput("2082-04-01", decPtr(100), -5, 0, 0))
	assert.ErrorIs(t, err, ledger.ErrNegativeQuantity)
}

func TestCreate_RetroactiveInsert_CascadesForward(t *testing.T) {
	// GIVEN: Entries on 04-01 (closes 60) and 04-03 (opens 60, closes 50)
	// WHEN: Inserting 04-02 with purchase 25, consumption 5
	// THEN: 04-03 reopens at 80 and closes at 70

	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-01", decPtr(100), 0, 40, 0))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-03", nil, 0, 10, 0))
	require.NoError(t, err)

	mid, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-02", nil, 25, 5, 0))
	require.NoError(t, err)
	assert.True(t, mid.OpeningBalance.Equal(dec(60)))
	assert.True(t, mid.Balance.Equal(dec(80)))

	last := entryByDate(t, store, ledger.Yarn, "2082-04-03")
	assert.True(t, last.OpeningBalance.Equal(dec(80)), "opening = %s", last.OpeningBalance)
	assert.True(t, last.Balance.Equal(dec(70)), "balance = %s", last.Balance)
}

// =============================================================================
// UPDATE
// =============================================================================

func TestUpdate_EditCascadesForward(t *testing.T) {
	// GIVEN: Two consecutive entries
	// WHEN: Raising the first entry's purchase
	// THEN: The second entry's opening balance follows

	svc, store := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-01", decPtr(100), 0, 40, 0))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-02", nil, 0, 10, 0))
	require.NoError(t, err)

	_, err = svc.Update(ctx, ledger.Yarn, first.ID, yarnInput("2082-04-01", decPtr(100), 30, 40, 0))
	require.NoError(t, err)

	second := entryByDate(t, store, ledger.Yarn, "2082-04-02")
	assert.True(t, second.OpeningBalance.Equal(dec(90)), "opening = %s", second.OpeningBalance)
	assert.True(t, second.Balance.Equal(dec(80)), "balance = %s", second.Balance)
}

func TestUpdate_DateMove_CascadesFromEarlierDate(t *testing.T) {
	// GIVEN: Entries on 04-01, 04-02, 04-05
	// WHEN: Moving the 04-02 entry to 04-06
	// THEN: 04-05 reopens from 04-01's balance and 04-06 follows 04-05

	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-01", decPtr(100), 0, 0, 0))
	require.NoError(t, err)
	moved, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-02", nil, 50, 0, 0))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-05", nil, 0, 20, 0))
	require.NoError(t, err)

	_, err = svc.Update(ctx, ledger.Yarn, moved.ID, yarnInput("2082-04-06", nil, 50, 0, 0))
	require.NoError(t, err)

	mid := entryByDate(t, store, ledger.Yarn, "2082-04-05")
	assert.True(t, mid.OpeningBalance.Equal(dec(100)), "opening = %s", mid.OpeningBalance)
	assert.True(t, mid.Balance.Equal(dec(80)), "balance = %s", mid.Balance)

	last := entryByDate(t, store, ledger.Yarn, "2082-04-06")
	assert.True(t, last.OpeningBalance.Equal(dec(80)), "opening = %s", last.OpeningBalance)
	assert.True(t, last.Balance.Equal(dec(130)), "balance = %s", last.Balance)
}

func TestUpdate_DownstreamNegative_CascadeAborted(t *testing.T) {
	// GIVEN: 04-01 closes at 50, 04-02 consumes 45 of it
	// WHEN: Raising 04-01's consumption so 04-02 would go negative
	// THEN: The update fails and 04-02 keeps its previous balances

	svc, store := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-01", decPtr(50), 0, 0, 0))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-02", nil, 0, 45, 0))
	require.NoError(t, err)

	_, err = svc.Update(ctx, ledger.Yarn, first.ID, yarnInput("2082-04-01", decPtr(50), 0, 48, 0))
	assert.ErrorIs(t, err, ledger.ErrNegativeBalance)

	var nbe *ledger.NegativeBalanceError
	require.True(t, errors.As(err, &nbe))
	assert.Equal(t, "2082-04-02", nbe.Date)

	second := entryByDate(t, store, ledger.Yarn, "2082-04-02")
	assert.True(t, second.OpeningBalance.Equal(dec(50)), "opening = %s", second.OpeningBalance)
	assert.True(t, second.Balance.Equal(dec(5)), "balance = %s", second.Balance)
}

func TestUpdate_UnknownID(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Update(context.Background(), ledger.Yarn, "missing", yarnInput("2082-04-01", decPtr(10), 0, 0, 0))
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

// =============================================================================
// DELETE
// =============================================================================

func TestDelete_SuccessorsAbsorbTheGap(t *testing.T) {
	// GIVEN: Three consecutive entries
	// WHEN: Deleting the middle one
	// THEN: The last entry reopens from the first entry's balance

	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-01", decPtr(100), 0, 10, 0))
	require.NoError(t, err)
	mid, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-02", nil, 40, 0, 0))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-03", nil, 0, 30, 0))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, ledger.Yarn, mid.ID))

	last := entryByDate(t, store, ledger.Yarn, "2082-04-03")
	assert.True(t, last.OpeningBalance.Equal(dec(90)), "opening = %s", last.OpeningBalance)
	assert.True(t, last.Balance.Equal(dec(60)), "balance = %s", last.Balance)
}

func TestDelete_UnknownID(t *testing.T) {
	svc, _ := newTestService()
	assert.ErrorIs(t, svc.Delete(context.Background(), ledger.Yarn, "missing"), ledger.ErrEntryNotFound)
}

func TestDelete_RetroactiveInsertThenDelete_RestoresDownstream(t *testing.T) {
	// GIVEN: A three-day ledger with its balances snapshotted
	// WHEN: Retroactively inserting a mid-sequence entry and then deleting it
	// THEN: Every downstream entry carries its original opening and balance

	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-01", decPtr(100), 0, 10, 0))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-03", nil, 40, 0, 0))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-05", nil, 0, 30, 0))
	require.NoError(t, err)

	type snapshot struct{ opening, balance decimal.Decimal }
	before := map[string]snapshot{}
	for _, date := range []string{"2082-04-01", "2082-04-03", "2082-04-05"} {
		e := entryByDate(t, store, ledger.Yarn, date)
		before[date] = snapshot{e.OpeningBalance, e.Balance}
	}

	inserted, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-02", nil, 0, 25, 0))
	require.NoError(t, err)

	// The insert cascaded: downstream openings shifted down by 25.
	shifted := entryByDate(t, store, ledger.Yarn, "2082-04-03")
	require.True(t, shifted.OpeningBalance.Equal(dec(65)), "opening = %s", shifted.OpeningBalance)

	require.NoError(t, svc.Delete(ctx, ledger.Yarn, inserted.ID))

	for date, want := range before {
		e := entryByDate(t, store, ledger.Yarn, date)
		assert.True(t, e.OpeningBalance.Equal(want.opening), "%s opening = %s, want %s", date, e.OpeningBalance, want.opening)
		assert.True(t, e.Balance.Equal(want.balance), "%s balance = %s, want %s", date, e.Balance, want.balance)
	}
}

// =============================================================================
// UNFINISHED GOODS SCHEMA
// =============================================================================

func TestUnfinishedGoods_FinishedMeterDoesNotDeduct(t *testing.T) {
	// GIVEN: An unfinished goods entry with both finished counters set
	// WHEN: Deriving balances
	// THEN: Only finished kg deducts; finished meter is reporting-only

	svc, _ := newTestService()

	e, err := svc.Create(context.Background(), ledger.UnfinishedGoods, ledger.Input{
		Date:           "2082-04-01",
		OpeningBalance: decPtr(200),
		Inflow:         dec(100), // received
		Outflows: map[string]decimal.Decimal{
			ledger.FlowFinishedMeter: dec(5000),
			ledger.FlowFinishedKg:    dec(80),
		},
	})
	require.NoError(t, err)

	assert.True(t, e.Total.Equal(dec(300)), "total = %s", e.Total)
	assert.True(t, e.Balance.Equal(dec(220)), "balance = %s", e.Balance)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestOpeningBalanceBefore(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	got, err := svc.OpeningBalanceBefore(ctx, ledger.Yarn, "2082-04-05")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-01", decPtr(100), 0, 40, 0))
	require.NoError(t, err)

	got, err = svc.OpeningBalanceBefore(ctx, ledger.Yarn, "2082-04-05")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(dec(60)), "carry-forward = %s", got)

	// Strictly before: the entry's own date does not count.
	got, err = svc.OpeningBalanceBefore(ctx, ledger.Yarn, "2082-04-01")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLedgersAreIndependent(t *testing.T) {
	// Entries in one ledger never affect the other kind's balances.
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, ledger.Yarn, yarnInput("2082-04-01", decPtr(100), 0, 0, 0))
	require.NoError(t, err)

	entries, err := svc.List(ctx, ledger.UnfinishedGoods)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
