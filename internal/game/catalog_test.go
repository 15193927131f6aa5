package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadCatalog_MissingFileUsesDefaults(t *testing.T) {
	cat, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog(), cat)
}

func TestParseCatalog_OverridesOnTopOfDefaults(t *testing.T) {
	cat, err := ParseCatalog([]byte(`
Pump:
  max_output: 80
boiler:
  max_input: 10
  color: "#010203"
`))
	require.NoError(t, err)

	assert.Equal(t, 80.0, cat[Pump].MaxOutput)
	assert.Equal(t, Color{80, 120, 200}, cat[Pump].Color)
	assert.Equal(t, 10.0, cat[Boiler].MaxInput)
	assert.Equal(t, 35.0, cat[Boiler].MaxOutput)
	assert.Equal(t, Color{1, 2, 3}, cat[Boiler].Color)
	assert.Equal(t, 200.0, cat[Storage].MaxStorage)
}

func TestParseCatalog_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown kind":      "Silo:\n  max_output: 1\n",
		"negative capacity": "Pump:\n  max_output: -1\n",
		"bad color":         "Pump:\n  color: red\n",
		"not a map":         "- Pump\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestCatalog_RoundTripsThroughYAML(t *testing.T) {
	out, err := yaml.Marshal(DefaultCatalog())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog(), cat)
}

func TestNewBuilding_UsesCatalogCapacities(t *testing.T) {
	cat := DefaultCatalog()
	cat[Mixer] = BuildingSpec{MaxInput: 5, MaxOutput: 7}

	b, err := cat.NewBuilding(Mixer, 1, 2)
	require.NoError(t, err)

	m := b.Machine.(*MixerMachine)
	assert.Equal(t, 5.0, m.Water.Capacity)
	assert.Equal(t, 5.0, m.Reagent.Capacity)
	assert.Equal(t, 7.0, m.Acid.Capacity)
	assert.Equal(t, 1.0, b.Efficiency)
	assert.Equal(t, 1.0, b.ProductionRate)
	assert.False(t, b.Working)
	assert.NotEmpty(t, b.ID)

	_, err = Catalog{}.NewBuilding(Pump, 0, 0)
	assert.ErrorIs(t, err, ErrUnknownBuilding)
}
