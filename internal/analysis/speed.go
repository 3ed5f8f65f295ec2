package analysis

import (
	"sort"

	"github.com/san-kum/atomsim/internal/atom"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SpeedHistogram bins atom speeds into equal-width bins from zero to the
// fastest atom. dividers has bins+1 edges.
func SpeedHistogram(atoms []atom.Atom, bins int) (dividers, counts []float64) {
	if len(atoms) == 0 || bins < 1 {
		return nil, nil
	}
	speeds := make([]float64, len(atoms))
	for i, a := range atoms {
		speeds[i] = a.Speed()
	}
	sort.Float64s(speeds)

	top := speeds[len(speeds)-1]
	if top == 0 {
		top = 1
	}
	dividers = make([]float64, bins+1)
	floats.Span(dividers, 0, top)
	// the last edge is exclusive in stat.Histogram
	dividers[bins] = top * (1 + 1e-9)

	counts = make([]float64, bins)
	return dividers, stat.Histogram(counts, dividers, speeds, nil)
}
