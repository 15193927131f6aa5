/*
Package game
File: models.go
Description:
    Defines the data structures of the factory floor: resource kinds,
    building kinds, the per-kind machines and the Building wrapper.
    Enums marshal as their display names so JSON and YAML stay readable.

    Each building kind is its own Machine variant holding only the tanks it
    actually uses. There is no way to ask a Pump for its oil input.
*/

package game

import (
	"fmt"
	"strings"
)

// ResourceType is a closed set of materials flowing through the factory.
type ResourceType int

const (
	Water ResourceType = iota
	Oil
	Gas
	Steam
	Acid
)

// ResourceTypes lists every resource in declaration order.
var ResourceTypes = []ResourceType{Water, Oil, Gas, Steam, Acid}

var resourceNames = map[ResourceType]string{
	Water: "Water",
	Oil:   "Oil",
	Gas:   "Gas",
	Steam: "Steam",
	Acid:  "Acid",
}

func (r ResourceType) String() string {
	if n, ok := resourceNames[r]; ok {
		return n
	}
	return fmt.Sprintf("ResourceType(%d)", int(r))
}

// ParseResourceType accepts a display name, case-insensitively.
func ParseResourceType(s string) (ResourceType, error) {
	for r, n := range resourceNames {
		if strings.EqualFold(n, s) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownResource, s)
}

func (r ResourceType) MarshalText() ([]byte, error) {
	if _, ok := resourceNames[r]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownResource, int(r))
	}
	return []byte(r.String()), nil
}

func (r *ResourceType) UnmarshalText(b []byte) error {
	parsed, err := ParseResourceType(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Color is an RGB triple. It renders as "#rrggbb" for clients.
type Color struct {
	R, G, B uint8
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	var r, g, bl uint8
	if _, err := fmt.Sscanf(string(b), "#%02x%02x%02x", &r, &g, &bl); err != nil {
		return fmt.Errorf("invalid color %q: %w", string(b), err)
	}
	*c = Color{R: r, G: g, B: bl}
	return nil
}

// Gray is returned for anything without a registered color.
var Gray = Color{128, 128, 128}

// resourceColors is the fixed display palette for resources.
var resourceColors = map[ResourceType]Color{
	Water: {100, 150, 255},
	Oil:   {50, 50, 50},
	Gas:   {200, 200, 100},
	Steam: {220, 220, 220},
	Acid:  {150, 255, 100},
}

// ResourceColor returns the display color for a resource kind.
func ResourceColor(r ResourceType) Color {
	if c, ok := resourceColors[r]; ok {
		return c
	}
	return Gray
}

// Resource is an amount of one material.
type Resource struct {
	Type   ResourceType `json:"type"`
	Amount float64      `json:"amount"`
}

func (r Resource) Color() Color {
	return ResourceColor(r.Type)
}

// BuildingType is a closed set of placeable structures.
type BuildingType int

const (
	Pump BuildingType = iota
	Refinery
	Boiler
	Mixer
	Storage
	Pipe
)

// BuildingTypes lists every building kind in declaration order.
var BuildingTypes = []BuildingType{Pump, Refinery, Boiler, Mixer, Storage, Pipe}

var buildingNames = map[BuildingType]string{
	Pump:     "Pump",
	Refinery: "Refinery",
	Boiler:   "Boiler",
	Mixer:    "Mixer",
	Storage:  "Storage",
	Pipe:     "Pipe",
}

func (b BuildingType) String() string {
	if n, ok := buildingNames[b]; ok {
		return n
	}
	return fmt.Sprintf("BuildingType(%d)", int(b))
}

// ParseBuildingType accepts a display name, case-insensitively.
func ParseBuildingType(s string) (BuildingType, error) {
	for b, n := range buildingNames {
		if strings.EqualFold(n, s) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBuilding, s)
}

func (b BuildingType) MarshalText() ([]byte, error) {
	if _, ok := buildingNames[b]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBuilding, int(b))
	}
	return []byte(b.String()), nil
}

func (b *BuildingType) UnmarshalText(text []byte) error {
	parsed, err := ParseBuildingType(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Tank is a single bounded slot of one resource.
type Tank struct {
	Level    float64 `json:"level"`
	Capacity float64 `json:"capacity"`
}

// Full reports whether the tank has reached its capacity.
func (t Tank) Full() bool { return t.Level >= t.Capacity }

// Machine is the production behaviour of one building kind.
// The set of implementations is closed: only this package can add one.
type Machine interface {
	Kind() BuildingType

	// Inputs and Outputs are snapshots keyed by resource.
	Inputs() map[ResourceType]float64
	Outputs() map[ResourceType]float64

	ready() bool
	run(efficiency float64)
	deposit(r ResourceType, amount float64) error
	withdraw(r ResourceType, amount float64) error
	clone() Machine
}

// PumpMachine draws water from the ground.
type PumpMachine struct {
	Water Tank `json:"water"`
}

// RefineryMachine cracks oil into gas.
type RefineryMachine struct {
	Oil Tank `json:"oil"`
	Gas Tank `json:"gas"`
}

// BoilerMachine turns water into steam.
type BoilerMachine struct {
	Water Tank `json:"water"`
	Steam Tank `json:"steam"`
}

// MixerMachine makes acid from water. It needs an acid reagent loaded in its
// input side to run; the reagent is not used up.
type MixerMachine struct {
	Water   Tank `json:"water"`
	Reagent Tank `json:"reagent"`
	Acid    Tank `json:"acid"`
}

// StorageMachine holds water, oil and gas against one shared capacity.
type StorageMachine struct {
	Stock    map[ResourceType]float64 `json:"stock"`
	Capacity float64                  `json:"capacity"`
}

// PipeMachine carries nothing on its own.
type PipeMachine struct{}

// Building is a placed machine with its position and runtime flags.
type Building struct {
	ID             string       `json:"id"`
	X              int          `json:"x"`
	Y              int          `json:"y"`
	Type           BuildingType `json:"type"`
	Color          Color        `json:"color"`
	Connected      []string     `json:"connected"`
	ProductionRate float64      `json:"production_rate"`
	Efficiency     float64      `json:"efficiency"`
	Working        bool         `json:"working"`

	Machine Machine `json:"-"`
}

// Inputs returns the current input amounts.
func (b *Building) Inputs() map[ResourceType]float64 { return b.Machine.Inputs() }

// Outputs returns the current output amounts.
func (b *Building) Outputs() map[ResourceType]float64 { return b.Machine.Outputs() }

// Snapshot is the read model handed out of the package.
type Snapshot struct {
	Building
	Inputs  map[ResourceType]float64 `json:"inputs"`
	Outputs map[ResourceType]float64 `json:"outputs"`
}

// Snapshot copies the building so callers can read it without the lock.
func (b *Building) Snapshot() Snapshot {
	cp := *b
	cp.Connected = append([]string(nil), b.Connected...)
	cp.Machine = b.Machine.clone()
	return Snapshot{
		Building: cp,
		Inputs:   cp.Machine.Inputs(),
		Outputs:  cp.Machine.Outputs(),
	}
}
