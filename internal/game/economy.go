/*
Package game
File: economy.go
Description:
    Runs production. Produce drives a single building; Step drives the whole
    floor once, calling Produce on every building exactly one time in
    placement order.

    Both return Reports describing what moved, which the server forwards to
    the ledger, the metrics and the WebSocket hub.
*/

package game

// Report is the outcome of one Produce call on one building.
type Report struct {
	BuildingID string                   `json:"building_id"`
	Type       BuildingType             `json:"type"`
	Working    bool                     `json:"working"`
	Consumed   map[ResourceType]float64 `json:"consumed"`
	Produced   map[ResourceType]float64 `json:"produced"`
}

// TickReport is the outcome of one Step.
type TickReport struct {
	Tick      uint64   `json:"tick"`
	Buildings []Report `json:"buildings"`
}

// Working counts the buildings that ran during the tick.
func (t TickReport) Working() int {
	n := 0
	for _, r := range t.Buildings {
		if r.Working {
			n++
		}
	}
	return n
}

// Produce runs one production call on a single building.
func (f *Factory) Produce(id string) (Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := f.lookup(id)
	if err != nil {
		return Report{}, err
	}
	return produce(b), nil
}

// Step advances the whole floor by one tick.
func (f *Factory) Step() TickReport {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tick++
	report := TickReport{
		Tick:      f.tick,
		Buildings: make([]Report, 0, len(f.order)),
	}
	for _, id := range f.order {
		report.Buildings = append(report.Buildings, produce(f.buildings[id]))
	}
	return report
}

// produce wraps Building.Produce and diffs the tanks around it.
func produce(b *Building) Report {
	inBefore, outBefore := b.Inputs(), b.Outputs()

	b.Produce()

	return Report{
		BuildingID: b.ID,
		Type:       b.Type,
		Working:    b.Working,
		Consumed:   decrease(inBefore, b.Inputs()),
		Produced:   increase(outBefore, b.Outputs()),
	}
}

func decrease(before, after map[ResourceType]float64) map[ResourceType]float64 {
	out := map[ResourceType]float64{}
	for r, v := range before {
		if d := v - after[r]; d > 0 {
			out[r] = d
		}
	}
	return out
}

func increase(before, after map[ResourceType]float64) map[ResourceType]float64 {
	out := map[ResourceType]float64{}
	for r, v := range after {
		if d := v - before[r]; d > 0 {
			out[r] = d
		}
	}
	return out
}
