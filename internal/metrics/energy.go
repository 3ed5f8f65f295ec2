package metrics

import (
	"math"

	"github.com/san-kum/atomsim/internal/world"
)

// EnergyDrift tracks the largest relative deviation of the total energy
// from its first sampled value. Samples without energy are skipped.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s world.Sample) {
	if math.IsNaN(s.Energy) {
		return
	}
	if e.samples == 0 {
		e.initialEnergy = s.Energy
	}
	e.currentEnergy = s.Energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(s.Energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	if e.samples == 0 {
		return math.NaN()
	}
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// Mean averages one observable over every sample where it is finite.
type Mean struct {
	name    string
	field   func(world.Sample) float64
	sum     float64
	samples int
}

func NewMean(name string, field func(world.Sample) float64) *Mean {
	return &Mean{name: name, field: field}
}

func NewMeanTemperature() *Mean {
	return NewMean("mean_temperature", func(s world.Sample) float64 { return s.Temperature })
}

// NewMeanPressure ignores samples taken before the first pressure window
// closed, while the pressure still reads zero.
func NewMeanPressure() *Mean {
	return NewMean("mean_pressure", func(s world.Sample) float64 {
		if s.Pressure == 0 {
			return math.NaN()
		}
		return s.Pressure
	})
}

func NewMeanDensity() *Mean {
	return NewMean("mean_density", func(s world.Sample) float64 { return s.Density })
}

func (m *Mean) Name() string { return m.name }

func (m *Mean) Observe(s world.Sample) {
	v := m.field(s)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	m.sum += v
	m.samples++
}

func (m *Mean) Value() float64 {
	if m.samples == 0 {
		return math.NaN()
	}
	return m.sum / float64(m.samples)
}

func (m *Mean) Reset() {
	m.sum = 0
	m.samples = 0
}
