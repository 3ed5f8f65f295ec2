package sim

import (
	"fmt"

	"github.com/san-kum/atomsim/internal/world"
)

// Metric aggregates a scalar over the samples of a run.
type Metric interface {
	Name() string
	Observe(s world.Sample)
	Value() float64
	Reset()
}

// Observer receives a frame after every batch of steps. A failing observer
// is logged and recorded in the result; the run continues.
type Observer interface {
	OnFrame(f world.Frame) error
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(f world.Frame) error

func (fn ObserverFunc) OnFrame(f world.Frame) error { return fn(f) }

type Config struct {
	Frames        int
	StepsPerFrame int

	// Energy samples the O(N^2) total energy on every frame.
	Energy bool
}

func (c Config) Validate() error {
	if c.Frames < 1 {
		return fmt.Errorf("frames must be positive, got %d", c.Frames)
	}
	if c.StepsPerFrame < 1 {
		return fmt.Errorf("steps per frame must be positive, got %d", c.StepsPerFrame)
	}
	return nil
}

// Steps is the total number of integration steps of a run.
func (c Config) Steps() int { return c.Frames * c.StepsPerFrame }

type Result struct {
	Samples     []world.Sample
	Metrics     map[string]float64
	StepsTaken  int
	Removed     int
	EnergyDrift float64
	Errors      []error
}

// Final returns the last sample, or false when nothing was recorded.
func (r *Result) Final() (world.Sample, bool) {
	if len(r.Samples) == 0 {
		return world.Sample{}, false
	}
	return r.Samples[len(r.Samples)-1], true
}
