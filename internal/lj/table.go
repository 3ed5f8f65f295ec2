package lj

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/atomsim/internal/atom"
)

var ErrMissingInteraction = errors.New("lj: no interaction defined for species pair")

// Pair is an unordered species pair stored in canonical (sorted) order.
type Pair struct {
	A, B atom.Species
}

func Key(a, b atom.Species) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

func (p Pair) String() string {
	return p.A.String() + "-" + p.B.String()
}

// Entry is the user-facing form of one table row.
type Entry struct {
	A       atom.Species `yaml:"a"`
	B       atom.Species `yaml:"b"`
	Sigma   float64      `yaml:"sigma"`
	Epsilon float64      `yaml:"epsilon"`
}

// Table maps unordered species pairs to interaction parameters. It is
// immutable once built and safe for concurrent reads.
type Table struct {
	entries map[Pair]Interaction
	dense   [atom.NumSpecies][atom.NumSpecies]*Interaction
}

func NewTable(entries ...Entry) (*Table, error) {
	t := &Table{entries: make(map[Pair]Interaction, len(entries))}
	for _, e := range entries {
		if !e.A.Valid() || !e.B.Valid() {
			return nil, fmt.Errorf("lj: invalid species in entry %v-%v", e.A, e.B)
		}
		in, err := NewInteraction(e.Sigma, e.Epsilon)
		if err != nil {
			return nil, fmt.Errorf("pair %s: %w", Key(e.A, e.B), err)
		}
		t.entries[Key(e.A, e.B)] = in
	}
	for k, in := range t.entries {
		t.dense[k.A][k.B] = &in
		t.dense[k.B][k.A] = &in
	}
	return t, nil
}

// DefaultEntries are the parameters of the water/body scene.
func DefaultEntries() []Entry {
	return []Entry{
		{A: atom.Water, B: atom.Water, Sigma: 2.725, Epsilon: 4.9115},
		{A: atom.Body, B: atom.Body, Sigma: 1, Epsilon: 100},
		{A: atom.Water, B: atom.Body, Sigma: 2, Epsilon: 0.1},
		{A: atom.Wall, B: atom.Water, Sigma: 10, Epsilon: 5},
		{A: atom.Wall, B: atom.Body, Sigma: 10, Epsilon: 5},
	}
}

func DefaultTable() *Table {
	t, err := NewTable(DefaultEntries()...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the parameters for the pair in either order.
func (t *Table) Lookup(a, b atom.Species) (Interaction, error) {
	if a.Valid() && b.Valid() {
		if in := t.dense[a][b]; in != nil {
			return *in, nil
		}
	}
	return Interaction{}, fmt.Errorf("%w: %s", ErrMissingInteraction, Key(a, b))
}

func (t *Table) Has(a, b atom.Species) bool {
	return a.Valid() && b.Valid() && t.dense[a][b] != nil
}

// Pairs lists the defined pairs in canonical order.
func (t *Table) Pairs() []Pair {
	pairs := make([]Pair, 0, len(t.entries))
	for k := range t.entries {
		pairs = append(pairs, k)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}

func (t *Table) Entries() []Entry {
	pairs := t.Pairs()
	out := make([]Entry, len(pairs))
	for i, p := range pairs {
		in := t.entries[p]
		out[i] = Entry{A: p.A, B: p.B, Sigma: in.Sigma, Epsilon: in.Epsilon}
	}
	return out
}

// Covers checks that every pair among the given species is defined, and
// when walls is set, every species paired with the wall as well.
func (t *Table) Covers(species []atom.Species, walls bool) error {
	for i, a := range species {
		for _, b := range species[i:] {
			if !t.Has(a, b) {
				return fmt.Errorf("%w: %s", ErrMissingInteraction, Key(a, b))
			}
		}
		if walls && !t.Has(a, atom.Wall) {
			return fmt.Errorf("%w: %s", ErrMissingInteraction, Key(a, atom.Wall))
		}
	}
	return nil
}
