package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/atomsim/internal/world"
	"golang.org/x/sync/errgroup"
)

// Factory builds a fresh world for one ensemble member.
type Factory func(seed int64) (*world.World, error)

// MetricFactory builds fresh metrics for one ensemble member, since metrics
// hold per-run state.
type MetricFactory func() []Metric

// Ensemble runs independent copies of a simulation, one per seed, in
// parallel. Each member owns its world; nothing is shared between them.
type Ensemble struct {
	build     Factory
	metrics   MetricFactory
	numRuns   int
	seedStart int64
}

func NewEnsemble(build Factory, metrics MetricFactory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, metrics: metrics, numRuns: numRuns, seedStart: seedStart}
}

// Run returns one result per member in seed order. The first failure
// cancels the remaining members.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	if e.numRuns < 1 {
		return nil, fmt.Errorf("ensemble needs at least one run, got %d", e.numRuns)
	}

	results := make([]*Result, e.numRuns)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		seed := e.seedStart + int64(i)
		g.Go(func() error {
			w, err := e.build(seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			d := New(w)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					d.AddMetric(m)
				}
			}
			res, err := d.Run(ctx, cfg)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MeanMetrics averages each named metric over the results, skipping NaN.
func MeanMetrics(results []*Result) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range results {
		for name, v := range r.Metrics {
			if math.IsNaN(v) {
				continue
			}
			sums[name] += v
			counts[name]++
		}
	}
	out := make(map[string]float64, len(sums))
	for name, sum := range sums {
		out[name] = sum / float64(counts[name])
	}
	return out
}
