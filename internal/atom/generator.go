package atom

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// Generator produces the initial atom set of a world.
type Generator func() []Atom

// Params configures the named generators in a [Registry].
type Params struct {
	Species     Species `yaml:"species"`
	NX          int     `yaml:"nx"`
	NY          int     `yaml:"ny"`
	Spacing     float64 `yaml:"spacing"`
	Origin      r2.Vec  `yaml:"-"`
	OriginX     float64 `yaml:"origin_x"`
	OriginY     float64 `yaml:"origin_y"`
	Count       int     `yaml:"count"`
	Mass        float64 `yaml:"mass"`
	Temperature float64 `yaml:"temperature"`
	Seed        int64   `yaml:"seed"`
	Box         r2.Vec  `yaml:"-"`
}

// Pair places two resting water atoms at (0,0) and (50,0).
func Pair() Generator {
	return func() []Atom {
		return []Atom{
			New(Water, r2.Vec{X: 0, Y: 0}),
			New(Water, r2.Vec{X: 50, Y: 0}),
		}
	}
}

// Lattice fills an nx by ny hexagonal block starting at origin. Odd rows are
// shifted right by half a spacing.
func Lattice(species Species, origin r2.Vec, nx, ny int, spacing, mass float64) Generator {
	if mass == 0 {
		mass = 1
	}
	return func() []Atom {
		atoms := make([]Atom, 0, nx*ny)
		for x := 0; x < nx; x++ {
			for y := 0; y < ny; y++ {
				pos := r2.Vec{
					X: origin.X + spacing*float64(x) + spacing/2*float64(y%2),
					Y: origin.Y + spacing*float64(y),
				}
				a := New(species, pos)
				a.Mass = mass
				atoms = append(atoms, a)
			}
		}
		return atoms
	}
}

// Droplet is a block of water with a small solid body suspended above it.
func Droplet() Generator {
	return Chain(
		Lattice(Water, r2.Vec{X: 25, Y: 25}, 100, 25, 2.75, 1),
		Lattice(Body, r2.Vec{X: 100, Y: 250}, 20, 20, 1.15, 1),
	)
}

// Gas scatters count atoms uniformly inside box, keeping a margin of one
// tenth of each side from the walls. Velocity components are normally
// distributed with variance temperature/mass.
func Gas(species Species, count int, box r2.Vec, temperature, mass float64, seed int64) Generator {
	if mass == 0 {
		mass = 1
	}
	return func() []Atom {
		rng := rand.New(rand.NewSource(seed))
		sd := math.Sqrt(math.Max(temperature, 0) / mass)
		mx, my := box.X*0.1, box.Y*0.1

		atoms := make([]Atom, count)
		for i := range atoms {
			atoms[i] = Atom{
				Position: r2.Vec{
					X: mx + rng.Float64()*(box.X-2*mx),
					Y: my + rng.Float64()*(box.Y-2*my),
				},
				Velocity: r2.Vec{X: rng.NormFloat64() * sd, Y: rng.NormFloat64() * sd},
				Mass:     mass,
				Species:  species,
			}
		}
		return atoms
	}
}

// Chain concatenates the output of several generators.
func Chain(gens ...Generator) Generator {
	return func() []Atom {
		var atoms []Atom
		for _, g := range gens {
			atoms = append(atoms, g()...)
		}
		return atoms
	}
}

type Registry struct {
	generators map[string]func(Params) Generator
}

func NewRegistry() *Registry {
	r := &Registry{generators: make(map[string]func(Params) Generator)}

	r.generators["pair"] = func(Params) Generator { return Pair() }
	r.generators["droplet"] = func(Params) Generator { return Droplet() }
	r.generators["lattice"] = func(p Params) Generator {
		origin := p.Origin
		if origin == (r2.Vec{}) {
			origin = r2.Vec{X: p.OriginX, Y: p.OriginY}
		}
		return Lattice(p.Species, origin, p.NX, p.NY, p.Spacing, p.Mass)
	}
	r.generators["gas"] = func(p Params) Generator {
		return Gas(p.Species, p.Count, p.Box, p.Temperature, p.Mass, p.Seed)
	}

	return r
}

func (r *Registry) Register(name string, fn func(Params) Generator) {
	r.generators[name] = fn
}

func (r *Registry) Get(name string, p Params) (Generator, error) {
	fn, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("unknown generator: %s", name)
	}
	return fn(p), nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
