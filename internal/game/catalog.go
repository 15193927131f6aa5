/*
Package game
File: catalog.go
Description:
    The building catalog holds the per-kind tuning values: tank capacities
    and display colors. It maps directly to 'catalog.yaml'.

    A missing catalog file is not an error; the built-in defaults are used.
    Kinds left out of the file keep their default entry.
*/

package game

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// BuildingSpec is the static configuration of one building kind.
type BuildingSpec struct {
	MaxInput   float64 `yaml:"max_input" json:"max_input" validate:"gte=0"`     // Capacity of each input tank
	MaxOutput  float64 `yaml:"max_output" json:"max_output" validate:"gte=0"`   // Capacity of each output tank
	MaxStorage float64 `yaml:"max_storage" json:"max_storage" validate:"gte=0"` // Shared capacity (Storage only)
	Color      Color   `yaml:"color" json:"color"`                              // Display color
}

// Catalog maps every building kind to its spec.
type Catalog map[BuildingType]BuildingSpec

// DefaultCatalog returns the stock tuning values.
func DefaultCatalog() Catalog {
	return Catalog{
		Pump:     {MaxOutput: 50, Color: Color{80, 120, 200}},
		Refinery: {MaxInput: 30, MaxOutput: 20, Color: Color{150, 100, 50}},
		Boiler:   {MaxInput: 40, MaxOutput: 35, Color: Color{200, 100, 100}},
		Mixer:    {MaxInput: 25, MaxOutput: 40, Color: Color{100, 200, 100}},
		Storage:  {MaxStorage: 200, Color: Color{120, 120, 120}},
		Pipe:     {Color: Gray},
	}
}

var validate = validator.New()

// LoadCatalog reads a catalog file on top of the defaults.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes YAML keyed by building name, e.g.
//
//	Pump:
//	  max_output: 50
//	  color: "#5078c8"
func ParseCatalog(data []byte) (Catalog, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	cat := DefaultCatalog()
	for name, node := range raw {
		kind, err := ParseBuildingType(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		// Fields missing from the file keep their default value.
		spec := cat[kind]
		if err := node.Decode(&spec); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, kind, err)
		}
		if err := validate.Struct(spec); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, kind, err)
		}
		cat[kind] = spec
	}
	return cat, nil
}

// MarshalYAML writes the catalog back with building names as keys.
func (c Catalog) MarshalYAML() (interface{}, error) {
	out := make(map[string]BuildingSpec, len(c))
	for kind, spec := range c {
		out[kind.String()] = spec
	}
	return out, nil
}

// NewBuilding builds an idle machine of the given kind at (x, y).
func (c Catalog) NewBuilding(kind BuildingType, x, y int) (*Building, error) {
	spec, ok := c[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBuilding, kind)
	}

	var m Machine
	switch kind {
	case Pump:
		m = &PumpMachine{Water: Tank{Capacity: spec.MaxOutput}}
	case Refinery:
		m = &RefineryMachine{
			Oil: Tank{Capacity: spec.MaxInput},
			Gas: Tank{Capacity: spec.MaxOutput},
		}
	case Boiler:
		m = &BoilerMachine{
			Water: Tank{Capacity: spec.MaxInput},
			Steam: Tank{Capacity: spec.MaxOutput},
		}
	case Mixer:
		m = &MixerMachine{
			Water:   Tank{Capacity: spec.MaxInput},
			Reagent: Tank{Capacity: spec.MaxInput},
			Acid:    Tank{Capacity: spec.MaxOutput},
		}
	case Storage:
		m = &StorageMachine{
			Stock:    map[ResourceType]float64{Water: 0, Oil: 0, Gas: 0},
			Capacity: spec.MaxStorage,
		}
	case Pipe:
		m = &PipeMachine{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBuilding, kind)
	}

	return &Building{
		ID:             uuid.NewString(),
		X:              x,
		Y:              y,
		Type:           kind,
		Color:          spec.Color,
		Connected:      []string{},
		ProductionRate: 1.0,
		Efficiency:     1.0,
		Machine:        m,
	}, nil
}
