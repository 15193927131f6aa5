package store_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/factory-sim/internal/game"
	"github.com/everforgeworks/factory-sim/internal/store"
)

func newTestLedger(t *testing.T) *store.Ledger {
	l, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLedger_RecordsTicks(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)

	f := game.NewFactory(game.DefaultCatalog())
	pump, _ := f.Place(game.Pump, 0, 0)
	ref, _ := f.Place(game.Refinery, 1, 0)
	_, err := f.Deposit(ref.ID, game.Oil, 4)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		rep := f.Step()
		require.NoError(t, ledger.Record(ctx, rep.Tick, store.SourceStep, rep.Buildings))
	}

	// Pump: 3 produced rows. Refinery: two working ticks, 2 rows each.
	all, err := ledger.History(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 7)
	assert.Equal(t, uint64(3), all[0].Tick)

	hist, err := ledger.History(ctx, ref.ID, 10)
	require.NoError(t, err)
	require.Len(t, hist, 4)
	for _, rec := range hist {
		assert.Equal(t, "Refinery", rec.Building)
		assert.LessOrEqual(t, rec.Tick, uint64(2))
	}

	hist, err = ledger.History(ctx, pump.ID, 2)
	require.NoError(t, err)
	assert.Len(t, hist, 2)

	totals, err := ledger.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Total{
		{Resource: "Gas", Direction: store.Produced, Amount: 2},
		{Resource: "Oil", Direction: store.Consumed, Amount: 4},
		{Resource: "Water", Direction: store.Produced, Amount: 6},
	}, totals)
}

func TestLedger_IdleTickWritesNothing(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)

	require.NoError(t, ledger.Record(ctx, 1, store.SourceStep, []game.Report{{BuildingID: "x", Type: game.Pipe}}))

	all, err := ledger.History(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLedger_SeparatesProduceFromStep(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)

	f := game.NewFactory(game.DefaultCatalog())
	pump, _ := f.Place(game.Pump, 0, 0)

	step := f.Step()
	require.NoError(t, ledger.Record(ctx, step.Tick, store.SourceStep, step.Buildings))
	rep, err := f.Produce(pump.ID)
	require.NoError(t, err)
	require.NoError(t, ledger.Record(ctx, f.Tick(), store.SourceProduce, []game.Report{rep}))

	hist, err := ledger.History(ctx, pump.ID, 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)

	sources := map[string]int{}
	for _, rec := range hist {
		assert.Equal(t, uint64(1), rec.Tick)
		sources[rec.Source]++
	}
	assert.Equal(t, map[string]int{store.SourceStep: 1, store.SourceProduce: 1}, sources)
}

func TestProductionRecord_JSONKeys(t *testing.T) {
	raw, err := json.Marshal(store.ProductionRecord{ID: 7, Source: store.SourceStep})
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"id", "created_at", "tick", "source", "building_id", "resource", "direction", "amount"} {
		assert.Contains(t, fields, key)
	}
	assert.NotContains(t, fields, "ID")
	assert.NotContains(t, fields, "DeletedAt")
	assert.Equal(t, 7.0, fields["id"])
}
