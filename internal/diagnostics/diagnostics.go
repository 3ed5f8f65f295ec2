// Package diagnostics derives macroscopic observables from atom state.
//
// All functions are pure and read-only. Averages over an empty atom set are
// undefined and return NaN; use [Mean] where the caller needs an error.
package diagnostics

import (
	"errors"
	"math"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/lj"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

var ErrNoAtoms = errors.New("diagnostics: no atoms")

// KineticEnergy is the total kinetic energy of all atoms.
func KineticEnergy(atoms []atom.Atom) float64 {
	return floats.Sum(collect(atoms, atom.Atom.KineticEnergy))
}

// Temperature is the mean kinetic energy per atom (k_B = 1).
func Temperature(atoms []atom.Atom) float64 {
	t, err := Mean(atoms, atom.Atom.KineticEnergy)
	if err != nil {
		return math.NaN()
	}
	return t
}

func AverageSpeed(atoms []atom.Atom) float64 {
	v, err := Mean(atoms, atom.Atom.Speed)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Mean averages fn over atoms and fails on an empty set.
func Mean(atoms []atom.Atom, fn func(atom.Atom) float64) (float64, error) {
	if len(atoms) == 0 {
		return 0, ErrNoAtoms
	}
	return floats.Sum(collect(atoms, fn)) / float64(len(atoms)), nil
}

func TotalMass(atoms []atom.Atom) float64 {
	return floats.Sum(collect(atoms, func(a atom.Atom) float64 { return a.Mass }))
}

func Area(width, height float64) float64 {
	return width * height
}

func Perimeter(width, height float64) float64 {
	return 2 * (width + height)
}

// Density is total mass per unit area.
func Density(atoms []atom.Atom, width, height float64) float64 {
	return TotalMass(atoms) / Area(width, height)
}

// PotentialEnergy sums the pair potential over every i<j pair. No cutoff is
// applied here; it is O(N^2) and meant for validation, not the step loop.
func PotentialEnergy(atoms []atom.Atom, table *lj.Table) (float64, error) {
	total := 0.0
	for i := range atoms {
		for j := i + 1; j < len(atoms); j++ {
			in, err := table.Lookup(atoms[i].Species, atoms[j].Species)
			if err != nil {
				return 0, err
			}
			d := r2.Norm(r2.Sub(atoms[i].Position, atoms[j].Position))
			total += lj.Potential(d, in)
		}
	}
	return total, nil
}

// TotalEnergy is kinetic plus pairwise potential energy.
func TotalEnergy(atoms []atom.Atom, table *lj.Table) (float64, error) {
	pe, err := PotentialEnergy(atoms, table)
	if err != nil {
		return 0, err
	}
	return KineticEnergy(atoms) + pe, nil
}

func collect(atoms []atom.Atom, fn func(atom.Atom) float64) []float64 {
	out := make([]float64, len(atoms))
	for i, a := range atoms {
		out[i] = fn(a)
	}
	return out
}
