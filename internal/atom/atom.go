// Package atom defines the point particles simulated by the world.
//
// An [Atom] carries position, velocity, mass and a [Species] tag. Species
// select Lennard-Jones parameters from an interaction table; [Wall] is a
// pseudo-species used only to look up wall parameters and is never
// materialized as a real atom.
package atom

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

type Species uint8

const (
	Wall Species = iota
	Water
	Body

	NumSpecies = 3
)

var speciesNames = [NumSpecies]string{"wall", "water", "body"}

func (s Species) String() string {
	if int(s) < len(speciesNames) {
		return speciesNames[s]
	}
	return fmt.Sprintf("species(%d)", uint8(s))
}

// Valid reports whether s is one of the known species.
func (s Species) Valid() bool { return s < NumSpecies }

// Real reports whether atoms of this species may exist in the world.
func (s Species) Real() bool { return s.Valid() && s != Wall }

// ParseSpecies accepts the lower-case species names used in config files.
func ParseSpecies(name string) (Species, error) {
	for i, n := range speciesNames {
		if strings.EqualFold(n, name) {
			return Species(i), nil
		}
	}
	return 0, fmt.Errorf("unknown species: %q", name)
}

func (s Species) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown species: %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Species) UnmarshalText(b []byte) error {
	v, err := ParseSpecies(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type Atom struct {
	Position r2.Vec
	Velocity r2.Vec
	Mass     float64
	Species  Species
}

// New returns a resting atom of unit mass.
func New(species Species, pos r2.Vec) Atom {
	return Atom{Position: pos, Mass: 1, Species: species}
}

func (a Atom) Speed() float64 {
	return r2.Norm(a.Velocity)
}

func (a Atom) KineticEnergy() float64 {
	return 0.5 * a.Mass * r2.Norm2(a.Velocity)
}
