package metrics

import (
	"math"

	"github.com/san-kum/atomsim/internal/world"
)

// Stability is the fraction of samples whose temperature stayed finite and
// below a threshold. A blown-up integration drives it toward zero. Samples
// without atoms have no temperature and count as stable.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(sample world.Sample) {
	s.samples++
	t := sample.Temperature
	if math.IsNaN(t) && sample.Atoms == 0 {
		return
	}
	if !(t <= s.threshold) || math.IsInf(t, 0) {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// AtomLoss is the fraction of the first sample's atoms that are gone by the
// latest sample.
type AtomLoss struct {
	initial int
	current int
	samples int
}

func NewAtomLoss() *AtomLoss { return &AtomLoss{} }

func (a *AtomLoss) Name() string { return "atom_loss" }

func (a *AtomLoss) Observe(s world.Sample) {
	if a.samples == 0 {
		a.initial = s.Atoms
	}
	a.current = s.Atoms
	a.samples++
}

func (a *AtomLoss) Value() float64 {
	if a.initial == 0 {
		return 0
	}
	return float64(a.initial-a.current) / float64(a.initial)
}

func (a *AtomLoss) Reset() {
	a.initial = 0
	a.current = 0
	a.samples = 0
}
