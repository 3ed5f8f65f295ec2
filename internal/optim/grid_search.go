package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"maps"
)

// Evaluate runs one grid point and returns the value to minimize.
type Evaluate func(ctx context.Context, params map[string]float64) (float64, error)

// Point is one evaluated grid point. A failed evaluation keeps its error
// and a NaN value.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// GridSearch evaluates the cartesian product of parameter ranges.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 {
		return nil, errors.New("optim: no parameters")
	}
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: parameter %s has no values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every point in order, the last parameter varying
// fastest, and returns them with the index of the lowest finite value, or
// -1 when no point produced one. It stops early only when ctx is done.
func (g *GridSearch) Search(ctx context.Context, eval Evaluate) ([]Point, int, error) {
	points := make([]Point, 0, g.Size())
	if err := g.searchRecursive(ctx, 0, map[string]float64{}, eval, &points); err != nil {
		return points, bestIndex(points), err
	}
	return points, bestIndex(points), nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, eval Evaluate, points *[]Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		p := Point{Params: maps.Clone(current), Value: math.NaN()}
		v, err := eval(ctx, p.Params)
		if err != nil {
			p.Err = err
		} else {
			p.Value = v
		}
		*points = append(*points, p)
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		if err := g.searchRecursive(ctx, depth+1, current, eval, points); err != nil {
			return err
		}
	}
	delete(current, name)
	return nil
}

func bestIndex(points []Point) int {
	best := -1
	for i, p := range points {
		if p.Err != nil || math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		if best < 0 || p.Value < points[best].Value {
			best = i
		}
	}
	return best
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
