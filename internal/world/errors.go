package world

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a world configuration value out of range.
	ErrInvalidConfig = errors.New("world: invalid configuration")

	// ErrInvalidMass indicates an atom with zero, negative or non-finite mass.
	ErrInvalidMass = errors.New("world: atom mass must be positive")

	// ErrInvalidSpecies indicates an atom tagged with the wall pseudo-species
	// or an unknown species.
	ErrInvalidSpecies = errors.New("world: atom species must be a real species")

	// ErrNoAtoms indicates an operation that needs at least one atom.
	ErrNoAtoms = errors.New("world: no atoms")

	// ErrParameterBounds indicates a requested change outside its valid range.
	ErrParameterBounds = errors.New("world: parameter out of valid bounds")
)

// StepError wraps a failure of a single integration step. The world state
// is left as it was before the step.
type StepError struct {
	Iteration int
	Stage     int
	Wrapped   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (stage %d): %v", e.Iteration, e.Stage, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
