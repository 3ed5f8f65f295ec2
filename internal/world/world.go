// Package world owns the atoms of a 2-D Lennard-Jones ensemble and advances
// them in time.
//
// A [World] couples every atom and an optional piston (a massive moving
// bottom wall) in one 4th-order Runge-Kutta step. Forces are evaluated in
// parallel on fresh goroutines for every RK4 stage; each goroutine writes
// to private buffers that are summed after the join.
//
// # Example
//
//	w, err := world.New(world.DefaultConfig(), lj.DefaultTable(), atom.Droplet())
//	if err != nil {
//	    return err
//	}
//	for i := 0; i < 1000; i++ {
//	    if err := w.Step(); err != nil {
//	        return err
//	    }
//	}
//	fmt.Println(w.Temperature(), w.Pressure())
//
// # Thread Safety
//
// World is NOT safe for concurrent use. Readers and the stepping goroutine
// must be serialized by the caller.
package world

import (
	"fmt"
	"iter"
	"math"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/diagnostics"
	"github.com/san-kum/atomsim/internal/lj"
	"gonum.org/v1/gonum/spatial/r2"
)

// Piston is the one-dimensional moving wall at the bottom of the box.
type Piston struct {
	Y        float64
	Velocity float64
	Mass     float64
}

type World struct {
	cfg   Config
	table *lj.Table
	atoms []atom.Atom

	piston Piston

	pressure    float64
	impulse     float64
	sampleSteps int

	iteration int
	time      float64
	removed   int

	scratch scratch
}

// New builds a world from a configuration, an interaction table and the
// generator that populates the initial atoms. The piston starts at the top
// of the box height, at rest.
func New(cfg Config, table *lj.Table, gen atom.Generator) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, fmt.Errorf("%w: interaction table is nil", ErrInvalidConfig)
	}

	var atoms []atom.Atom
	if gen != nil {
		atoms = gen()
	}

	w := &World{
		cfg:   cfg,
		table: table,
		piston: Piston{
			Y:    cfg.BoxSize.Y,
			Mass: cfg.PistonMass,
		},
	}

	for i, a := range atoms {
		if err := checkAtom(a); err != nil {
			return nil, fmt.Errorf("atom %d: %w", i, err)
		}
	}
	if err := table.Covers(presentSpecies(atoms), cfg.WallCollision); err != nil {
		return nil, err
	}

	w.atoms = atoms
	return w, nil
}

func checkAtom(a atom.Atom) error {
	if !(a.Mass > 0) || math.IsInf(a.Mass, 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidMass, a.Mass)
	}
	if !a.Species.Real() {
		return fmt.Errorf("%w: got %v", ErrInvalidSpecies, a.Species)
	}
	return nil
}

func presentSpecies(atoms []atom.Atom) []atom.Species {
	var seen [atom.NumSpecies]bool
	var out []atom.Species
	for _, a := range atoms {
		if a.Species.Valid() && !seen[a.Species] {
			seen[a.Species] = true
			out = append(out, a.Species)
		}
	}
	return out
}

// AddAtom appends an atom between steps.
func (w *World) AddAtom(a atom.Atom) error {
	if err := checkAtom(a); err != nil {
		return err
	}
	species := append(presentSpecies(w.atoms), a.Species)
	if err := w.table.Covers(species, w.cfg.WallCollision); err != nil {
		return err
	}
	w.atoms = append(w.atoms, a)
	return nil
}

// IncreaseTemperature rescales every velocity so the temperature changes by
// delta. A negative delta cools the ensemble.
func (w *World) IncreaseTemperature(delta float64) error {
	if len(w.atoms) == 0 {
		return ErrNoAtoms
	}
	t := w.Temperature()
	if t <= 0 || t+delta < 0 {
		return fmt.Errorf("%w: temperature %g cannot change by %g", ErrParameterBounds, t, delta)
	}
	scale := math.Sqrt((t + delta) / t)
	for i := range w.atoms {
		w.atoms[i].Velocity = r2.Scale(scale, w.atoms[i].Velocity)
	}
	return nil
}

// Len returns the current number of atoms.
func (w *World) Len() int { return len(w.atoms) }

// Atoms returns a copy of the current atoms.
func (w *World) Atoms() []atom.Atom {
	out := make([]atom.Atom, len(w.atoms))
	copy(out, w.atoms)
	return out
}

// All iterates over the current atoms without copying the slice.
func (w *World) All() iter.Seq2[int, atom.Atom] {
	return func(yield func(int, atom.Atom) bool) {
		for i, a := range w.atoms {
			if !yield(i, a) {
				return
			}
		}
	}
}

func (w *World) Config() Config      { return w.cfg }
func (w *World) Table() *lj.Table    { return w.table }
func (w *World) Iteration() int      { return w.iteration }
func (w *World) Time() float64       { return w.time }
func (w *World) Removed() int        { return w.removed }
func (w *World) Pressure() float64   { return w.pressure }
func (w *World) BoxSize() r2.Vec     { return w.cfg.BoxSize }
func (w *World) Piston() Piston      { return w.piston }
func (w *World) PistonMass() float64 { return w.piston.Mass }

func (w *World) PistonPosition() float64 { return w.piston.Y }

// BoxHeight is the height atoms are confined to: the box height, lowered to
// the piston when the piston is active. A piston that fell through the floor
// leaves a height of zero.
func (w *World) BoxHeight() float64 {
	return w.heightAt(w.piston.Y)
}

func (w *World) heightAt(pistonY float64) float64 {
	if w.cfg.MovingWall {
		return max(0, math.Min(w.cfg.BoxSize.Y, pistonY))
	}
	return w.cfg.BoxSize.Y
}

func (w *World) Area() float64 {
	return diagnostics.Area(w.cfg.BoxSize.X, w.BoxHeight())
}

func (w *World) Perimeter() float64 {
	return diagnostics.Perimeter(w.cfg.BoxSize.X, w.BoxHeight())
}

// Temperature is NaN when the world is empty.
func (w *World) Temperature() float64 {
	return diagnostics.Temperature(w.atoms)
}

func (w *World) AverageSpeed() float64 {
	return diagnostics.AverageSpeed(w.atoms)
}

func (w *World) Density() float64 {
	return diagnostics.Density(w.atoms, w.cfg.BoxSize.X, w.BoxHeight())
}

// TotalEnergy is kinetic plus pair potential energy. It is O(N^2).
func (w *World) TotalEnergy() (float64, error) {
	return diagnostics.TotalEnergy(w.atoms, w.table)
}

func (w *World) SetTimeDelta(dt float64) error {
	if !positive(dt) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, dt)
	}
	w.cfg.Dt = dt
	return nil
}

func (w *World) SetBoxSize(size r2.Vec) error {
	if !positive(size.X) || !positive(size.Y) {
		return fmt.Errorf("%w: box size must be positive, got %gx%g", ErrInvalidConfig, size.X, size.Y)
	}
	w.cfg.BoxSize = size
	return nil
}

func (w *World) SetPistonMass(mass float64) error {
	if !positive(mass) {
		return fmt.Errorf("%w: piston mass must be positive, got %g", ErrInvalidConfig, mass)
	}
	w.cfg.PistonMass = mass
	w.piston.Mass = mass
	return nil
}

func (w *World) SetGravity(on bool) { w.cfg.Gravity = on }

// SetWallCollision fails if walls are enabled while a present species has no
// wall interaction.
func (w *World) SetWallCollision(on bool) error {
	if on {
		if err := w.table.Covers(presentSpecies(w.atoms), true); err != nil {
			return err
		}
	}
	w.cfg.WallCollision = on
	return nil
}

func (w *World) SetMovingWall(on bool) { w.cfg.MovingWall = on }

// SetPressureInterval changes the sampling window and starts a new one. The
// last pressure value is kept until the new window closes.
func (w *World) SetPressureInterval(steps int) error {
	if steps < 1 {
		return fmt.Errorf("%w: pressure interval must be at least 1, got %d", ErrInvalidConfig, steps)
	}
	w.cfg.PressureInterval = steps
	w.impulse = 0
	w.sampleSteps = 0
	return nil
}

func (w *World) SetWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, n)
	}
	w.cfg.Workers = n
	return nil
}
