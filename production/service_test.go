package production_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftworks/millstock/production"
	"github.com/weftworks/millstock/store/memory"
)

func newTestService() *production.Service {
	return production.NewService(memory.NewProduction())
}

func dayEntry(date string, kgDay, kgNight float64) *production.Entry {
	return &production.Entry{
		Date: date,
		Machines: []production.Machine{
			{Number: 1, Day: shift("Ram", kgDay), Night: shift("Shyam", kgNight)},
		},
	}
}

func TestCreate_ComputesTotal(t *testing.T) {
	svc := newTestService()

	e, err := svc.Create(context.Background(), dayEntry("2082-04-01", 120, 100))
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.True(t, e.TotalProduction.Equal(dec(220)), "total = %s", e.TotalProduction)
}

func TestCreate_DuplicateDate_Rejected(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, dayEntry("2082-04-01", 120, 100))
	require.NoError(t, err)

	_, err = svc.Create(ctx, dayEntry("2082-04-01", 50, 50))
	assert.ErrorIs(t, err, production.ErrEntryExists)
}

func TestCreate_MissingShiftData_Rejected(t *testing.T) {
	svc := newTestService()

	_, err := svc.Create(context.Background(), &production.Entry{
		Date:     "2082-04-01",
		Machines: []production.Machine{{Number: 1}},
	})
	assert.ErrorIs(t, err, production.ErrMissingShiftData)

	_, err = svc.Create(context.Background(), &production.Entry{
		Date:     "2082-04-01",
		Machines: []production.Machine{{Number: 1, ShiftCombined: true}},
	})
	assert.ErrorIs(t, err, production.ErrMissingShiftData)
}

func TestCreate_IncompleteDowntime_Rejected(t *testing.T) {
	svc := newTestService()

	e := &production.Entry{
		Date: "2082-04-01",
		Machines: []production.Machine{
			{Number: 1, ShiftCombined: true, Combined: shift("Ram", 100, production.Downtime{From: "10:00"})},
		},
	}
	_, err := svc.Create(context.Background(), e)
	assert.ErrorIs(t, err, production.ErrInvalidDowntime)
}

func TestUpdateByDate_RecomputesTotal(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, dayEntry("2082-04-01", 120, 100))
	require.NoError(t, err)

	updated, err := svc.UpdateByDate(ctx, "2082-04-01", []production.Machine{
		{Number: 1, Day: shift("Ram", 130), Night: shift("Shyam", 95)},
		{Number: 2, ShiftCombined: true, Combined: shift("Hari", 200)},
	})
	require.NoError(t, err)
	assert.True(t, updated.TotalProduction.Equal(dec(425)), "total = %s", updated.TotalProduction)
}

func TestUpdateByDate_UnknownDate(t *testing.T) {
	svc := newTestService()
	_, err := svc.UpdateByDate(context.Background(), "2082-04-09", nil)
	assert.ErrorIs(t, err, production.ErrEntryNotFound)
}

func TestGetByDate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.GetByDate(ctx, "2082-04-01")
	assert.ErrorIs(t, err, production.ErrEntryNotFound)

	_, err = svc.Create(ctx, dayEntry("2082-04-01", 120, 100))
	require.NoError(t, err)

	e, err := svc.GetByDate(ctx, "2082-04-01")
	require.NoError(t, err)
	assert.Equal(t, "2082-04-01", e.Date)
}

func TestAnalyze_FiltersByDatePrefix(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, dayEntry("2082-04-01", 100, 0))
	require.NoError(t, err)
	_, err = svc.Create(ctx, dayEntry("2082-04-15", 50, 0))
	require.NoError(t, err)
	_, err = svc.Create(ctx, dayEntry("2082-05-01", 999, 0))
	require.NoError(t, err)

	a, err := svc.Analyze(ctx, "2082-04")
	require.NoError(t, err)
	assert.Equal(t, 2, a.EntryCount)
	assert.True(t, a.TotalProduction.Equal(dec(150)), "total = %s", a.TotalProduction)
}
