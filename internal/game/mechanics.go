/*
Package game
File: mechanics.go
Description:
    The rules engine of the factory floor. Each machine decides whether it
    can run this tick (ready) and applies its fixed conversion (run).

    Conversion table (per Produce call):
        Pump:     -              -> +2*eff Water
        Refinery: -2 Oil         -> +1*eff Gas
        Boiler:   -1 Water       -> +1*eff Steam
        Mixer:    -1 Water       -> +2*eff Acid   (needs >=1 Acid reagent)
        Storage, Pipe: never run.

    Inputs are consumed at face value; only outputs scale with efficiency.
    Outputs are not clamped after a run, so a nearly-full tank can overshoot.
*/

package game

import (
	"fmt"
	"math"
)

// CanProduce reports whether the building would run if Produce were called now.
func (b *Building) CanProduce() bool {
	return b.Machine.ready()
}

// Produce runs one production step. A building that is not ready just
// stops working; that is not an error.
func (b *Building) Produce() {
	if !b.CanProduce() {
		b.Working = false
		return
	}

	b.Working = true
	b.Machine.run(b.Efficiency)
}

func (t *Tank) fill(amount float64) error {
	if t.Level+amount > t.Capacity {
		return fmt.Errorf("%w: %.2f + %.2f > %.2f", ErrOverCapacity, t.Level, amount, t.Capacity)
	}
	t.Level += amount
	return nil
}

func (t *Tank) drain(amount float64) error {
	if amount > t.Level {
		return fmt.Errorf("%w: want %.2f, have %.2f", ErrInsufficient, amount, t.Level)
	}
	t.Level -= amount
	return nil
}

func validAmount(amount float64) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	return nil
}

func noSlot(kind BuildingType, r ResourceType) error {
	return fmt.Errorf("%w: %s has no %s slot", ErrNoSlot, kind, r)
}

// --- Pump ---

func (m *PumpMachine) Kind() BuildingType { return Pump }

func (m *PumpMachine) Inputs() map[ResourceType]float64 {
	return map[ResourceType]float64{}
}

func (m *PumpMachine) Outputs() map[ResourceType]float64 {
	return map[ResourceType]float64{Water: m.Water.Level}
}

func (m *PumpMachine) ready() bool { return !m.Water.Full() }

func (m *PumpMachine) run(eff float64) { m.Water.Level += 2 * eff }

func (m *PumpMachine) deposit(r ResourceType, _ float64) error { return noSlot(Pump, r) }

func (m *PumpMachine) withdraw(r ResourceType, amount float64) error {
	if r != Water {
		return noSlot(Pump, r)
	}
	return m.Water.drain(amount)
}

func (m *PumpMachine) clone() Machine { cp := *m; return &cp }

// --- Refinery ---

func (m *RefineryMachine) Kind() BuildingType { return Refinery }

func (m *RefineryMachine) Inputs() map[ResourceType]float64 {
	return map[ResourceType]float64{Oil: m.Oil.Level}
}

func (m *RefineryMachine) Outputs() map[ResourceType]float64 {
	return map[ResourceType]float64{Gas: m.Gas.Level}
}

func (m *RefineryMachine) ready() bool { return m.Oil.Level >= 2 && !m.Gas.Full() }

func (m *RefineryMachine) run(eff float64) {
	m.Oil.Level -= 2
	m.Gas.Level += 1 * eff
}

func (m *RefineryMachine) deposit(r ResourceType, amount float64) error {
	if r != Oil {
		return noSlot(Refinery, r)
	}
	return m.Oil.fill(amount)
}

func (m *RefineryMachine) withdraw(r ResourceType, amount float64) error {
	if r != Gas {
		return noSlot(Refinery, r)
	}
	return m.Gas.drain(amount)
}

func (m *RefineryMachine) clone() Machine { cp := *m; return &cp }

// --- Boiler ---

func (m *BoilerMachine) Kind() BuildingType { return Boiler }

func (m *BoilerMachine) Inputs() map[ResourceType]float64 {
	return map[ResourceType]float64{Water: m.Water.Level}
}

func (m *BoilerMachine) Outputs() map[ResourceType]float64 {
	return map[ResourceType]float64{Steam: m.Steam.Level}
}

func (m *BoilerMachine) ready() bool { return m.Water.Level >= 1 && !m.Steam.Full() }

func (m *BoilerMachine) run(eff float64) {
	m.Water.Level -= 1
	m.Steam.Level += 1 * eff
}

func (m *BoilerMachine) deposit(r ResourceType, amount float64) error {
	if r != Water {
		return noSlot(Boiler, r)
	}
	return m.Water.fill(amount)
}

func (m *BoilerMachine) withdraw(r ResourceType, amount float64) error {
	if r != Steam {
		return noSlot(Boiler, r)
	}
	return m.Steam.drain(amount)
}

func (m *BoilerMachine) clone() Machine { cp := *m; return &cp }

// --- Mixer ---

func (m *MixerMachine) Kind() BuildingType { return Mixer }

// Inputs reports the reagent under Acid, next to the water feed.
func (m *MixerMachine) Inputs() map[ResourceType]float64 {
	return map[ResourceType]float64{Water: m.Water.Level, Acid: m.Reagent.Level}
}

func (m *MixerMachine) Outputs() map[ResourceType]float64 {
	return map[ResourceType]float64{Acid: m.Acid.Level}
}

func (m *MixerMachine) ready() bool {
	return m.Water.Level >= 1 && m.Reagent.Level >= 1 && !m.Acid.Full()
}

func (m *MixerMachine) run(eff float64) {
	m.Water.Level -= 1
	m.Acid.Level += 2 * eff
}

func (m *MixerMachine) deposit(r ResourceType, amount float64) error {
	switch r {
	case Water:
		return m.Water.fill(amount)
	case Acid:
		return m.Reagent.fill(amount)
	}
	return noSlot(Mixer, r)
}

func (m *MixerMachine) withdraw(r ResourceType, amount float64) error {
	if r != Acid {
		return noSlot(Mixer, r)
	}
	return m.Acid.drain(amount)
}

func (m *MixerMachine) clone() Machine { cp := *m; return &cp }

// --- Storage ---

// storable is the set of resources a storage building accepts.
var storable = map[ResourceType]bool{Water: true, Oil: true, Gas: true}

func (m *StorageMachine) Kind() BuildingType { return Storage }

func (m *StorageMachine) Inputs() map[ResourceType]float64 {
	out := make(map[ResourceType]float64, len(m.Stock))
	for r, v := range m.Stock {
		out[r] = v
	}
	return out
}

func (m *StorageMachine) Outputs() map[ResourceType]float64 {
	return map[ResourceType]float64{}
}

// Total is the amount stored across all resources.
func (m *StorageMachine) Total() float64 {
	sum := 0.0
	for _, v := range m.Stock {
		sum += v
	}
	return sum
}

func (m *StorageMachine) ready() bool { return false }

func (m *StorageMachine) run(float64) {}

func (m *StorageMachine) deposit(r ResourceType, amount float64) error {
	if !storable[r] {
		return noSlot(Storage, r)
	}
	if total := m.Total(); total+amount > m.Capacity {
		return fmt.Errorf("%w: %.2f + %.2f > %.2f", ErrOverCapacity, total, amount, m.Capacity)
	}
	m.Stock[r] += amount
	return nil
}

func (m *StorageMachine) withdraw(r ResourceType, amount float64) error {
	if !storable[r] {
		return noSlot(Storage, r)
	}
	if have := m.Stock[r]; amount > have {
		return fmt.Errorf("%w: want %.2f, have %.2f", ErrInsufficient, amount, have)
	}
	m.Stock[r] -= amount
	return nil
}

func (m *StorageMachine) clone() Machine {
	cp := StorageMachine{Capacity: m.Capacity, Stock: m.Inputs()}
	return &cp
}

// --- Pipe ---

func (m *PipeMachine) Kind() BuildingType { return Pipe }

func (m *PipeMachine) Inputs() map[ResourceType]float64 { return map[ResourceType]float64{} }

func (m *PipeMachine) Outputs() map[ResourceType]float64 { return map[ResourceType]float64{} }

func (m *PipeMachine) ready() bool { return false }

func (m *PipeMachine) run(float64) {}

func (m *PipeMachine) deposit(r ResourceType, _ float64) error { return noSlot(Pipe, r) }

func (m *PipeMachine) withdraw(r ResourceType, _ float64) error { return noSlot(Pipe, r) }

func (m *PipeMachine) clone() Machine { return &PipeMachine{} }
