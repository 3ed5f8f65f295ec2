package world

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// scratch holds the per-step buffers. They are reused between steps and only
// reallocated when the atom count grows past their capacity.
type scratch struct {
	probe []r2.Vec

	// k are velocity increments, m position increments, one per RK4 stage.
	k, m [4][]r2.Vec

	force   forceBuffer
	workers []forceBuffer
}

func (s *scratch) ensure(n int) {
	s.probe = resize(s.probe, n)
	for i := range s.k {
		s.k[i] = resize(s.k[i], n)
		s.m[i] = resize(s.m[i], n)
	}
}

// stageOffset is the fraction of the previous stage's increment added to the
// state before evaluating a stage.
var stageOffset = [4]float64{0, 0.5, 0.5, 1}

// Step advances atoms, piston and wall impulse by one time step with
// classical RK4. Atoms that end up outside the box are removed when wall
// collisions are on. On error the world is left unchanged.
func (w *World) Step() error {
	n := len(w.atoms)
	dt := w.cfg.Dt
	moving := w.cfg.MovingWall

	w.scratch.ensure(n)
	s := &w.scratch

	var impulse, pk, pm [4]float64

	for stage := 0; stage < 4; stage++ {
		h := stageOffset[stage]

		pistonY := w.piston.Y
		pistonV := w.piston.Velocity
		if stage == 0 {
			for i := range w.atoms {
				s.probe[i] = w.atoms[i].Position
			}
		} else {
			prev := s.m[stage-1]
			for i := range w.atoms {
				s.probe[i] = r2.Add(w.atoms[i].Position, r2.Scale(h, prev[i]))
			}
			pistonY += h * pm[stage-1]
			pistonV += h * pk[stage-1]
		}

		if err := w.computeForces(s.probe, w.heightAt(pistonY), &s.force); err != nil {
			return &StepError{Iteration: w.iteration, Stage: stage + 1, Wrapped: err}
		}

		k, m := s.k[stage], s.m[stage]
		for i := range w.atoms {
			a := &w.atoms[i]
			v := a.Velocity
			if stage > 0 {
				v = r2.Add(v, r2.Scale(h, s.k[stage-1][i]))
			}
			k[i] = r2.Scale(dt/a.Mass, s.force.force(i))
			m[i] = r2.Scale(dt, v)
		}

		impulse[stage] = s.force.impulse * dt
		if moving {
			pk[stage] = s.force.piston * dt / w.piston.Mass
			pm[stage] = pistonV * dt
		}
	}

	for i := range w.atoms {
		a := &w.atoms[i]
		a.Position = r2.Add(a.Position, rk4Sum(s.m[0][i], s.m[1][i], s.m[2][i], s.m[3][i]))
		a.Velocity = r2.Add(a.Velocity, rk4Sum(s.k[0][i], s.k[1][i], s.k[2][i], s.k[3][i]))
	}
	w.impulse += rk4Weight(impulse)
	if moving {
		w.piston.Y += rk4Weight(pm)
		w.piston.Velocity += rk4Weight(pk)
	}

	if w.cfg.WallCollision {
		w.removeEscaped()
	}

	w.iteration++
	w.time += dt
	w.samplePressure()
	return nil
}

// StepN runs count steps, stopping at the first failure.
func (w *World) StepN(count int) error {
	for i := 0; i < count; i++ {
		if err := w.Step(); err != nil {
			return err
		}
	}
	return nil
}

func rk4Sum(a, b, c, d r2.Vec) r2.Vec {
	return r2.Vec{
		X: (a.X + 2*b.X + 2*c.X + d.X) / 6,
		Y: (a.Y + 2*b.Y + 2*c.Y + d.Y) / 6,
	}
}

func rk4Weight(x [4]float64) float64 {
	return (x[0] + 2*x[1] + 2*x[2] + x[3]) / 6
}

// removeEscaped drops atoms strictly outside [0, width] x [0, height]. An
// atom whose position went NaN is dropped as well.
func (w *World) removeEscaped() {
	width, height := w.cfg.BoxSize.X, w.BoxHeight()
	kept := w.atoms[:0]
	for _, a := range w.atoms {
		p := a.Position
		if p.X >= 0 && p.X <= width && p.Y >= 0 && p.Y <= height {
			kept = append(kept, a)
		}
	}
	w.removed += len(w.atoms) - len(kept)
	clear(w.atoms[len(kept):])
	w.atoms = kept
}

func (w *World) samplePressure() {
	w.sampleSteps++
	if w.sampleSteps < w.cfg.PressureInterval {
		return
	}
	w.pressure = w.impulse / (w.cfg.Dt * float64(w.cfg.PressureInterval)) / w.Perimeter()
	w.impulse = 0
	w.sampleSteps = 0
}
