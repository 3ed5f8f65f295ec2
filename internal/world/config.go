package world

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultDt               = 0.01
	DefaultBoxSize          = 500.0
	DefaultPressureInterval = 500
	DefaultPistonMass       = 10.0

	// Gravity is the uniform downward acceleration applied when enabled.
	Gravity = 0.5
)

// Config holds the parameters the integrator reads on every step. The owning
// driver may change them between steps through the World setters.
type Config struct {
	Dt               float64
	BoxSize          r2.Vec
	Gravity          bool
	WallCollision    bool
	MovingWall       bool
	PressureInterval int
	PistonMass       float64

	// PistonGravityOnce applies gravity to the piston once per force pass
	// instead of once per atom processed.
	PistonGravityOnce bool

	// Workers caps the goroutines of a force pass; 0 uses every CPU.
	Workers int
}

func DefaultConfig() Config {
	return Config{
		Dt:               DefaultDt,
		BoxSize:          r2.Vec{X: DefaultBoxSize, Y: DefaultBoxSize},
		Gravity:          true,
		WallCollision:    true,
		MovingWall:       false,
		PressureInterval: DefaultPressureInterval,
		PistonMass:       DefaultPistonMass,
	}
}

func (c Config) Validate() error {
	if !positive(c.Dt) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if !positive(c.BoxSize.X) || !positive(c.BoxSize.Y) {
		return fmt.Errorf("%w: box size must be positive, got %gx%g", ErrInvalidConfig, c.BoxSize.X, c.BoxSize.Y)
	}
	if c.PressureInterval < 1 {
		return fmt.Errorf("%w: pressure interval must be at least 1, got %d", ErrInvalidConfig, c.PressureInterval)
	}
	if !positive(c.PistonMass) {
		return fmt.Errorf("%w: piston mass must be positive, got %g", ErrInvalidConfig, c.PistonMass)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
