// Package lj implements the Lennard-Jones force kernel and the per-species
// interaction table.
//
// Forces are evaluated from squared distances so the pair loop never takes
// a square root. The cutoff radius is 2.5 sigma:
//
//	in, _ := lj.NewInteraction(2.725, 4.9115)
//	f := lj.PairForce(d2, in) // multiply by (pi - pj) to get the force on i
package lj

import (
	"errors"
	"fmt"
	"math"
)

// CutoffFactor is the cutoff radius in units of sigma.
const CutoffFactor = 2.5

var ErrInvalidParameters = errors.New("lj: sigma and epsilon must be positive and finite")

// Interaction holds the Lennard-Jones parameters of one species pair together
// with the constants the force kernel needs on every call.
type Interaction struct {
	Sigma   float64
	Epsilon float64

	Sigma2 float64
	Sigma6 float64
	Coeff  float64
}

func NewInteraction(sigma, epsilon float64) (Interaction, error) {
	if !(sigma > 0) || !(epsilon > 0) || math.IsInf(sigma, 0) || math.IsInf(epsilon, 0) {
		return Interaction{}, fmt.Errorf("%w: sigma=%g epsilon=%g", ErrInvalidParameters, sigma, epsilon)
	}
	s2 := sigma * sigma
	s6 := s2 * s2 * s2
	return Interaction{
		Sigma:   sigma,
		Epsilon: epsilon,
		Sigma2:  s2,
		Sigma6:  s6,
		Coeff:   -24 * epsilon * s6,
	}, nil
}

// Cutoff returns the interaction range 2.5 sigma.
func (in Interaction) Cutoff() float64 {
	return CutoffFactor * in.Sigma
}

// PairForce returns the scalar that multiplies the separation vector
// (pi - pj) to give the force on i. It is zero at and beyond the cutoff.
func PairForce(distanceSqr float64, in Interaction) float64 {
	if distanceSqr >= CutoffFactor*CutoffFactor*in.Sigma2 {
		return 0
	}
	d6 := distanceSqr * distanceSqr * distanceSqr
	return in.Coeff * (d6 - 2*in.Sigma6) / (d6 * d6 * distanceSqr)
}

// WallForce is the magnitude of the soft repulsion exerted by a flat wall at
// the given distance. It has no cutoff and diverges as distance goes to zero.
func WallForce(distance float64, in Interaction) float64 {
	return 63 * math.Pi * in.Epsilon * in.Sigma6 * in.Sigma6 / 256 / math.Pow(distance, 11)
}

// Potential is the pair energy 4 eps ((s/r)^12 - (s/r)^6).
func Potential(distance float64, in Interaction) float64 {
	sr := in.Sigma / distance
	sr6 := sr * sr * sr * sr * sr * sr
	return 4 * in.Epsilon * (sr6*sr6 - sr6)
}
