package world

import (
	"math"

	"github.com/san-kum/atomsim/internal/atom"
)

// Sample is a snapshot of the scalar observables after a step.
type Sample struct {
	Iteration    int
	Time         float64
	Atoms        int
	Removed      int
	Temperature  float64
	Pressure     float64
	Area         float64
	Density      float64
	AverageSpeed float64
	Energy       float64
	PistonY      float64

	// Width and Height are the configured box; BoxHeight is the height
	// atoms are confined to, lowered by an active piston.
	Width     float64
	Height    float64
	BoxHeight float64
}

// Frame is a Sample plus the atom positions, for renderers.
type Frame struct {
	Sample
	Atoms      []atom.Atom
	MovingWall bool
}

// Sample collects the current observables. Total energy is O(N^2); it is
// computed only when withEnergy is set and is NaN otherwise.
func (w *World) Sample(withEnergy bool) (Sample, error) {
	s := Sample{
		Iteration:    w.iteration,
		Time:         w.time,
		Atoms:        len(w.atoms),
		Removed:      w.removed,
		Temperature:  w.Temperature(),
		Pressure:     w.pressure,
		Area:         w.Area(),
		Density:      w.Density(),
		AverageSpeed: w.AverageSpeed(),
		Energy:       math.NaN(),
		PistonY:      w.piston.Y,
		Width:        w.cfg.BoxSize.X,
		Height:       w.cfg.BoxSize.Y,
		BoxHeight:    w.BoxHeight(),
	}
	if withEnergy {
		e, err := w.TotalEnergy()
		if err != nil {
			return s, err
		}
		s.Energy = e
	}
	return s, nil
}

func (w *World) Frame(withEnergy bool) (Frame, error) {
	s, err := w.Sample(withEnergy)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Sample:     s,
		Atoms:      w.Atoms(),
		MovingWall: w.cfg.MovingWall,
	}, nil
}
