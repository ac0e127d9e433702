package metrics

import (
	"math"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// Energy is the mean total energy over the observed points.
type Energy struct {
	sys     dynamo.Hamiltonian
	total   units.Quantity[units.Energy]
	samples int
}

func NewEnergy(sys dynamo.Hamiltonian) *Energy {
	return &Energy{sys: sys}
}

// EnergyFactory applies to Hamiltonian systems only.
func EnergyFactory(sys dynamo.System) Metric {
	h, ok := sys.(dynamo.Hamiltonian)
	if !ok {
		return nil
	}
	return NewEnergy(h)
}

func (e *Energy) Name() string { return "energy" }

func (e *Energy) Observe(_ units.Quantity[units.Time], x dynamo.State) {
	e.total = e.total.Add(e.sys.Energy(x))
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total.Scale(1 / float64(e.samples)).Value()
}

func (e *Energy) Reset() {
	e.total = units.Quantity[units.Energy]{}
	e.samples = 0
}

// EnergyDrift is the largest relative departure from the energy at the
// first observed point.
type EnergyDrift struct {
	sys      dynamo.Hamiltonian
	initial  units.Quantity[units.Energy]
	maxDrift float64
	samples  int
}

func NewEnergyDrift(sys dynamo.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{sys: sys}
}

func EnergyDriftFactory(sys dynamo.System) Metric {
	h, ok := sys.(dynamo.Hamiltonian)
	if !ok {
		return nil
	}
	return NewEnergyDrift(h)
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(_ units.Quantity[units.Time], x dynamo.State) {
	energy := e.sys.Energy(x)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if !e.initial.IsZero() {
		drift := math.Abs(units.Ratio(energy.Sub(e.initial), e.initial))
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = units.Quantity[units.Energy]{}
	e.maxDrift = 0
	e.samples = 0
}
