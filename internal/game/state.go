/*
Package game
File: state.go
Description:
    Manages the runtime state of the factory floor: which buildings exist,
    where they sit, and which of them are linked.

    A Factory owns its buildings exclusively. Every exported method takes the
    lock itself, and everything handed out is a Snapshot, so callers never
    hold a pointer into live state.
*/

package game

import (
	"fmt"
	"sync"
)

type cell struct{ x, y int }

// Factory is the set of placed buildings plus the tick counter.
type Factory struct {
	mu sync.RWMutex

	catalog   Catalog
	buildings map[string]*Building
	order     []string        // Placement order; Step walks it front to back
	cells     map[cell]string // Grid position -> building ID
	tick      uint64
}

// NewFactory creates an empty floor that builds from the given catalog.
func NewFactory(catalog Catalog) *Factory {
	return &Factory{
		catalog:   catalog,
		buildings: make(map[string]*Building),
		cells:     make(map[cell]string),
	}
}

// Catalog returns the catalog the factory builds from.
func (f *Factory) Catalog() Catalog {
	return f.catalog
}

// Tick is the number of completed steps.
func (f *Factory) Tick() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tick
}

// Place puts a new building of the given kind on a free cell.
func (f *Factory) Place(kind BuildingType, x, y int) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pos := cell{x, y}
	if id, taken := f.cells[pos]; taken {
		return Snapshot{}, fmt.Errorf("%w: (%d,%d) holds %s", ErrOccupied, x, y, id)
	}

	b, err := f.catalog.NewBuilding(kind, x, y)
	if err != nil {
		return Snapshot{}, err
	}

	f.buildings[b.ID] = b
	f.order = append(f.order, b.ID)
	f.cells[pos] = b.ID
	return b.Snapshot(), nil
}

// Remove deletes a building and every link pointing at it.
func (f *Factory) Remove(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := f.lookup(id)
	if err != nil {
		return err
	}

	for _, other := range b.Connected {
		if peer, ok := f.buildings[other]; ok {
			peer.Connected = without(peer.Connected, id)
		}
	}
	delete(f.buildings, id)
	delete(f.cells, cell{b.X, b.Y})
	f.order = without(f.order, id)
	return nil
}

// Get returns a snapshot of one building.
func (f *Factory) Get(id string) (Snapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	b, err := f.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return b.Snapshot(), nil
}

// List returns snapshots of all buildings in placement order.
func (f *Factory) List() []Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Snapshot, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.buildings[id].Snapshot())
	}
	return out
}

// Connect links two buildings both ways. Linking an existing pair is a no-op.
// Links are bookkeeping only; nothing flows along them.
func (f *Factory) Connect(a, b string) error {
	if a == b {
		return ErrSelfLink
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ba, err := f.lookup(a)
	if err != nil {
		return err
	}
	bb, err := f.lookup(b)
	if err != nil {
		return err
	}

	if !contains(ba.Connected, b) {
		ba.Connected = append(ba.Connected, b)
	}
	if !contains(bb.Connected, a) {
		bb.Connected = append(bb.Connected, a)
	}
	return nil
}

// Deposit adds resource to a building's input side.
func (f *Factory) Deposit(id string, r ResourceType, amount float64) (Snapshot, error) {
	if err := validAmount(amount); err != nil {
		return Snapshot{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := f.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := b.Machine.deposit(r, amount); err != nil {
		return Snapshot{}, err
	}
	return b.Snapshot(), nil
}

// Withdraw takes resource from a building's output side.
func (f *Factory) Withdraw(id string, r ResourceType, amount float64) (Snapshot, error) {
	if err := validAmount(amount); err != nil {
		return Snapshot{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := f.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := b.Machine.withdraw(r, amount); err != nil {
		return Snapshot{}, err
	}
	return b.Snapshot(), nil
}

// MaxEfficiency bounds the output multiplier so tank levels stay finite.
const MaxEfficiency = 1000.0

// SetEfficiency changes the output multiplier of a building.
// eff must be in (0, MaxEfficiency].
func (f *Factory) SetEfficiency(id string, eff float64) (Snapshot, error) {
	if err := validAmount(eff); err != nil {
		return Snapshot{}, fmt.Errorf("efficiency: %w", err)
	}
	if eff > MaxEfficiency {
		return Snapshot{}, fmt.Errorf("efficiency: %w: %v > %v", ErrInvalidAmount, eff, MaxEfficiency)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := f.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	b.Efficiency = eff
	return b.Snapshot(), nil
}

// lookup expects the caller to hold the lock.
func (f *Factory) lookup(id string) (*Building, error) {
	b, ok := f.buildings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return b, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
