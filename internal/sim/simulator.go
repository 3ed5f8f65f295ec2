package sim

import (
	"context"
	"log/slog"
	"math"

	"github.com/san-kum/atomsim/internal/world"
)

// Driver owns a world for the duration of a run and steps it frame by
// frame. Cancellation is checked between frames; a frame always completes.
type Driver struct {
	world     *world.World
	metrics   []Metric
	observers []Observer
	log       *slog.Logger
}

func New(w *world.World) *Driver {
	return &Driver{
		world:     w,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       slog.New(slog.DiscardHandler),
	}
}

func (d *Driver) AddMetric(m Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }
func (d *Driver) World() *world.World    { return d.world }

func (d *Driver) SetLogger(l *slog.Logger) {
	if l != nil {
		d.log = l
	}
}

func (d *Driver) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Samples: make([]world.Sample, 0, cfg.Frames+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}
	for _, m := range d.metrics {
		m.Reset()
	}

	w := d.world
	removedAtStart := w.Removed()
	d.log.Info("run started",
		"atoms", w.Len(),
		"frames", cfg.Frames,
		"steps_per_frame", cfg.StepsPerFrame,
		"dt", w.Config().Dt)

	if err := d.record(cfg, result); err != nil {
		return result, err
	}

	for frame := 1; frame <= cfg.Frames; frame++ {
		select {
		case <-ctx.Done():
			d.finish(result, removedAtStart)
			return result, ctx.Err()
		default:
		}

		before := w.Removed()
		for i := 0; i < cfg.StepsPerFrame; i++ {
			if err := w.Step(); err != nil {
				d.log.Error("step failed", "frame", frame, "err", err)
				d.finish(result, removedAtStart)
				return result, err
			}
			result.StepsTaken++
		}
		if n := w.Removed() - before; n > 0 {
			d.log.Debug("atoms removed", "frame", frame, "count", n, "left", w.Len())
		}

		if err := d.record(cfg, result); err != nil {
			d.finish(result, removedAtStart)
			return result, err
		}
	}

	d.finish(result, removedAtStart)
	d.log.Info("run finished",
		"steps", result.StepsTaken,
		"atoms", w.Len(),
		"removed", result.Removed)
	return result, nil
}

func (d *Driver) record(cfg Config, result *Result) error {
	if len(d.observers) == 0 {
		s, err := d.world.Sample(cfg.Energy)
		if err != nil {
			return err
		}
		d.observe(s, result)
		return nil
	}

	f, err := d.world.Frame(cfg.Energy)
	if err != nil {
		return err
	}
	d.observe(f.Sample, result)
	for _, obs := range d.observers {
		if err := obs.OnFrame(f); err != nil {
			d.log.Warn("observer failed", "iteration", f.Iteration, "err", err)
			result.Errors = append(result.Errors, err)
		}
	}
	return nil
}

func (d *Driver) observe(s world.Sample, result *Result) {
	result.Samples = append(result.Samples, s)
	for _, m := range d.metrics {
		m.Observe(s)
	}
}

func (d *Driver) finish(result *Result, removedAtStart int) {
	result.Removed = d.world.Removed() - removedAtStart
	result.EnergyDrift = energyDrift(result.Samples)
	for _, m := range d.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// energyDrift is the relative change between the first and last sampled
// energy. It is NaN when energy was not sampled.
func energyDrift(samples []world.Sample) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}
	first, last := samples[0].Energy, samples[len(samples)-1].Energy
	if math.IsNaN(first) || math.IsNaN(last) {
		return math.NaN()
	}
	if first == 0 {
		return math.Abs(last)
	}
	return math.Abs(last-first) / math.Abs(first)
}
