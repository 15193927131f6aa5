package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStep_RunsEveryBuildingOnceInOrder(t *testing.T) {
	f := NewFactory(DefaultCatalog())
	pump, _ := f.Place(Pump, 0, 0)
	ref, _ := f.Place(Refinery, 1, 0)
	boiler, _ := f.Place(Boiler, 2, 0)
	store, _ := f.Place(Storage, 3, 0)

	_, err := f.Deposit(ref.ID, Oil, 5)
	require.NoError(t, err)
	_, err = f.Deposit(boiler.ID, Water, 1)
	require.NoError(t, err)

	rep := f.Step()

	assert.Equal(t, uint64(1), rep.Tick)
	require.Len(t, rep.Buildings, 4)
	assert.Equal(t, []string{pump.ID, ref.ID, boiler.ID, store.ID}, []string{
		rep.Buildings[0].BuildingID, rep.Buildings[1].BuildingID,
		rep.Buildings[2].BuildingID, rep.Buildings[3].BuildingID,
	})
	assert.Equal(t, 3, rep.Working())

	assert.Equal(t, map[ResourceType]float64{Water: 2}, rep.Buildings[0].Produced)
	assert.Empty(t, rep.Buildings[0].Consumed)
	assert.Equal(t, map[ResourceType]float64{Oil: 2}, rep.Buildings[1].Consumed)
	assert.Equal(t, map[ResourceType]float64{Gas: 1}, rep.Buildings[1].Produced)
	assert.Equal(t, map[ResourceType]float64{Water: 1}, rep.Buildings[2].Consumed)
	assert.Equal(t, map[ResourceType]float64{Steam: 1}, rep.Buildings[2].Produced)
	assert.False(t, rep.Buildings[3].Working)

	// Second tick: the refinery still has 3 oil, the boiler is dry.
	rep = f.Step()
	assert.Equal(t, uint64(2), rep.Tick)
	assert.True(t, rep.Buildings[1].Working)
	assert.False(t, rep.Buildings[2].Working)
	assert.Empty(t, rep.Buildings[2].Produced)

	got, _ := f.Get(ref.ID)
	assert.Equal(t, 1.0, got.Inputs[Oil])
	assert.Equal(t, 2.0, got.Outputs[Gas])
}

func TestProduce_UnknownBuilding(t *testing.T) {
	f := NewFactory(DefaultCatalog())
	_, err := f.Produce("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStep_EmptyFloor(t *testing.T) {
	f := NewFactory(DefaultCatalog())
	rep := f.Step()
	assert.Equal(t, uint64(1), rep.Tick)
	assert.Empty(t, rep.Buildings)
	assert.Equal(t, 0, rep.Working())
}
