package world

import (
	"math"
	"runtime"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/lj"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// forceBuffer is the output of one force pass, or of one worker within it.
type forceBuffer struct {
	fx, fy  []float64
	impulse float64
	piston  float64
}

func (b *forceBuffer) reset(n int) {
	b.fx = resize(b.fx, n)
	b.fy = resize(b.fy, n)
	clear(b.fx)
	clear(b.fy)
	b.impulse = 0
	b.piston = 0
}

func (b *forceBuffer) force(i int) r2.Vec {
	return r2.Vec{X: b.fx[i], Y: b.fy[i]}
}

func resize[T any](s []T, n int) []T {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]T, n)
}

func (w *World) workerCount(n int) int {
	workers := w.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// computeForces evaluates pair, wall and gravity forces at the probe
// positions. The index range is split into contiguous slices, one goroutine
// each; pair loops run j over the whole range, so writes to j land outside
// the worker's slice and every worker accumulates into a private buffer.
func (w *World) computeForces(pos []r2.Vec, height float64, out *forceBuffer) error {
	n := len(pos)
	out.reset(n)
	if n == 0 {
		return nil
	}

	workers := w.workerCount(n)
	w.scratch.workers = resize(w.scratch.workers, workers)

	var g errgroup.Group
	for k := 0; k < workers; k++ {
		start, end := k*n/workers, (k+1)*n/workers
		buf := &w.scratch.workers[k]
		buf.reset(n)
		g.Go(func() error {
			return w.forcesForInterval(pos, height, buf, start, end)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for k := range w.scratch.workers {
		buf := &w.scratch.workers[k]
		floats.Add(out.fx, buf.fx)
		floats.Add(out.fy, buf.fy)
		out.impulse += buf.impulse
		out.piston += buf.piston
	}

	if w.cfg.Gravity && w.cfg.PistonGravityOnce {
		out.piston -= Gravity * w.piston.Mass
	}
	return nil
}

func (w *World) forcesForInterval(pos []r2.Vec, height float64, buf *forceBuffer, start, end int) error {
	n := len(pos)
	width := w.cfg.BoxSize.X

	for i := start; i < end; i++ {
		si := w.atoms[i].Species
		pi := pos[i]

		for j := i + 1; j < n; j++ {
			in, err := w.table.Lookup(si, w.atoms[j].Species)
			if err != nil {
				return err
			}

			dx := pi.X - pos[j].X
			if math.Abs(dx) > in.Cutoff() {
				continue
			}
			dy := pi.Y - pos[j].Y
			if math.Abs(dy) > in.Cutoff() {
				continue
			}

			f := lj.PairForce(dx*dx+dy*dy, in)

			buf.fx[i] += f * dx
			buf.fy[i] += f * dy
			buf.fx[j] -= f * dx
			buf.fy[j] -= f * dy
		}

		if w.cfg.WallCollision {
			in, err := w.table.Lookup(si, atom.Wall)
			if err != nil {
				return err
			}

			// left
			wf := lj.WallForce(pi.X, in)
			buf.fx[i] += wf
			buf.impulse += wf

			// top
			wf = lj.WallForce(pi.Y, in)
			buf.fy[i] += wf
			buf.impulse += wf

			// right
			wf = lj.WallForce(width-pi.X, in)
			buf.fx[i] -= wf
			buf.impulse += wf

			// bottom, where the piston sits
			wf = lj.WallForce(height-pi.Y, in)
			buf.fy[i] -= wf
			buf.impulse += wf
			buf.piston += wf
		}

		if w.cfg.Gravity {
			buf.fy[i] -= Gravity * w.atoms[i].Mass
			if !w.cfg.PistonGravityOnce {
				buf.piston -= Gravity * w.piston.Mass
			}
		}
	}
	return nil
}
