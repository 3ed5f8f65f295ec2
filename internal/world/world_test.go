package world

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/lj"
	"gonum.org/v1/gonum/spatial/r2"
)

func closedConfig() Config {
	cfg := DefaultConfig()
	cfg.Gravity = false
	cfg.WallCollision = false
	cfg.MovingWall = false
	return cfg
}

func fixed(atoms ...atom.Atom) atom.Generator {
	return func() []atom.Atom { return slices.Clone(atoms) }
}

func newWorld(t *testing.T, cfg Config, gen atom.Generator) *World {
	t.Helper()
	w, err := New(cfg, lj.DefaultTable(), gen)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestPairBeyondCutoffDoesNotMove(t *testing.T) {
	w := newWorld(t, closedConfig(), atom.Pair())

	if err := w.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	atoms := w.Atoms()
	if len(atoms) != 2 {
		t.Fatalf("expected 2 atoms, got %d", len(atoms))
	}
	if atoms[0].Position != (r2.Vec{}) {
		t.Errorf("expected (0,0), got %v", atoms[0].Position)
	}
	if atoms[1].Position != (r2.Vec{X: 50}) {
		t.Errorf("expected (50,0), got %v", atoms[1].Position)
	}
	if w.Iteration() != 1 {
		t.Errorf("expected iteration 1, got %d", w.Iteration())
	}
	if math.Abs(w.Time()-DefaultDt) > 1e-15 {
		t.Errorf("expected time %g, got %g", DefaultDt, w.Time())
	}
}

func TestForceSymmetry(t *testing.T) {
	distances := []float64{2.5, 2.9, 3.06, 3.5, 5, 6.5}
	for _, d := range distances {
		a := atom.New(atom.Water, r2.Vec{X: 100, Y: 100})
		b := atom.New(atom.Water, r2.Vec{X: 100 + d*0.6, Y: 100 + d*0.8})
		w := newWorld(t, closedConfig(), fixed(a, b))

		var out forceBuffer
		pos := []r2.Vec{a.Position, b.Position}
		if err := w.computeForces(pos, w.BoxHeight(), &out); err != nil {
			t.Fatalf("computeForces: %v", err)
		}
		fa, fb := out.force(0), out.force(1)
		if fa != r2.Scale(-1, fb) {
			t.Errorf("d=%g: expected opposite forces, got %v and %v", d, fa, fb)
		}
		if r2.Norm(fa) == 0 {
			t.Errorf("d=%g: expected non-zero force inside cutoff", d)
		}
	}
}

func latticeWorld(t *testing.T, cfg Config) *World {
	t.Helper()
	gen := atom.Chain(
		atom.Lattice(atom.Water, r2.Vec{X: 20, Y: 20}, 8, 8, 3, 1),
		atom.Lattice(atom.Body, r2.Vec{X: 70, Y: 70}, 5, 5, 1.15, 1),
	)
	return newWorld(t, cfg, gen)
}

func forcesOf(t *testing.T, w *World) forceBuffer {
	t.Helper()
	pos := make([]r2.Vec, w.Len())
	for i, a := range w.All() {
		pos[i] = a.Position
	}
	var out forceBuffer
	if err := w.computeForces(pos, w.BoxHeight(), &out); err != nil {
		t.Fatalf("computeForces: %v", err)
	}
	return out
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestForcesIndependentOfWorkerCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BoxSize = r2.Vec{X: 120, Y: 120}
	cfg.Workers = 1
	w := latticeWorld(t, cfg)
	want := forcesOf(t, w)

	for _, workers := range []int{2, 3, 7, 200} {
		if err := w.SetWorkers(workers); err != nil {
			t.Fatal(err)
		}
		got := forcesOf(t, w)
		for i := range want.fx {
			if !near(got.fx[i], want.fx[i], 1e-9) || !near(got.fy[i], want.fy[i], 1e-9) {
				t.Fatalf("workers=%d atom %d: expected %v, got %v", workers, i, want.force(i), got.force(i))
			}
		}
		if !near(got.impulse, want.impulse, 1e-9) {
			t.Errorf("workers=%d: expected impulse %g, got %g", workers, want.impulse, got.impulse)
		}
		if !near(got.piston, want.piston, 1e-9) {
			t.Errorf("workers=%d: expected piston force %g, got %g", workers, want.piston, got.piston)
		}
	}
}

func TestPermutationInvariance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BoxSize = r2.Vec{X: 120, Y: 120}
	w := latticeWorld(t, cfg)
	atoms := w.Atoms()
	forward := forcesOf(t, w)
	e0, err := w.TotalEnergy()
	if err != nil {
		t.Fatal(err)
	}

	reversed := slices.Clone(atoms)
	slices.Reverse(reversed)
	rw := newWorld(t, cfg, fixed(reversed...))
	backward := forcesOf(t, rw)
	e1, err := rw.TotalEnergy()
	if err != nil {
		t.Fatal(err)
	}

	n := len(atoms)
	for i := range atoms {
		j := n - 1 - i
		if !near(forward.fx[i], backward.fx[j], 1e-9) || !near(forward.fy[i], backward.fy[j], 1e-9) {
			t.Fatalf("atom %d: expected %v, got %v", i, forward.force(i), backward.force(j))
		}
	}
	if !near(e0, e1, 1e-9) {
		t.Errorf("expected energy %g, got %g", e0, e1)
	}
}

func TestEnergyConservation(t *testing.T) {
	tests := []struct {
		name  string
		gen   atom.Generator
		steps int
	}{
		{
			name: "dimer",
			gen: fixed(
				atom.New(atom.Water, r2.Vec{X: 100, Y: 100}),
				atom.New(atom.Water, r2.Vec{X: 103.5, Y: 100}),
			),
			steps: 10000,
		},
		{
			name:  "lattice",
			gen:   atom.Lattice(atom.Water, r2.Vec{X: 100, Y: 100}, 3, 3, 3.2, 1),
			steps: 2000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := closedConfig()
			cfg.Dt = 1e-3
			w := newWorld(t, cfg, tt.gen)

			e0, err := w.TotalEnergy()
			if err != nil {
				t.Fatal(err)
			}
			if err := w.StepN(tt.steps); err != nil {
				t.Fatalf("StepN: %v", err)
			}
			e1, err := w.TotalEnergy()
			if err != nil {
				t.Fatal(err)
			}

			drift := math.Abs(e1-e0) / math.Abs(e0)
			if drift >= 0.01 {
				t.Errorf("expected relative drift < 1%%, got %g (%g -> %g)", drift, e0, e1)
			}
		})
	}
}

func TestBoundaryRemoval(t *testing.T) {
	tests := []struct {
		walls bool
		want  int
	}{
		{walls: true, want: 1},
		{walls: false, want: 2},
	}

	for _, tt := range tests {
		cfg := closedConfig()
		cfg.WallCollision = tt.walls
		inside := atom.New(atom.Water, r2.Vec{X: 250, Y: 250})
		outside := atom.New(atom.Water, r2.Vec{X: DefaultBoxSize + 1, Y: 250})
		w := newWorld(t, cfg, fixed(inside, outside))

		if err := w.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
		if w.Len() != tt.want {
			t.Errorf("walls=%v: expected %d atoms, got %d", tt.walls, tt.want, w.Len())
		}
		if got := 2 - tt.want; w.Removed() != got {
			t.Errorf("walls=%v: expected %d removed, got %d", tt.walls, got, w.Removed())
		}
	}
}

func TestRemoveEscapedKeepsBoundary(t *testing.T) {
	w := newWorld(t, DefaultConfig(), nil)
	w.atoms = []atom.Atom{
		atom.New(atom.Water, r2.Vec{X: 0, Y: 0}),
		atom.New(atom.Water, r2.Vec{X: DefaultBoxSize, Y: DefaultBoxSize}),
		atom.New(atom.Water, r2.Vec{X: -1e-9, Y: 10}),
		atom.New(atom.Water, r2.Vec{X: 10, Y: DefaultBoxSize + 1e-9}),
		atom.New(atom.Water, r2.Vec{X: math.NaN(), Y: 10}),
	}

	w.removeEscaped()

	if w.Len() != 2 {
		t.Fatalf("expected 2 atoms, got %d", w.Len())
	}
	if w.Removed() != 3 {
		t.Errorf("expected 3 removed, got %d", w.Removed())
	}
}

func TestNewValidation(t *testing.T) {
	badDt := DefaultConfig()
	badDt.Dt = 0

	tests := []struct {
		name    string
		cfg     Config
		table   *lj.Table
		gen     atom.Generator
		wantErr error
	}{
		{"zero dt", badDt, lj.DefaultTable(), nil, ErrInvalidConfig},
		{"nil table", DefaultConfig(), nil, nil, ErrInvalidConfig},
		{
			"zero mass", DefaultConfig(), lj.DefaultTable(),
			fixed(atom.Atom{Species: atom.Water, Mass: 0}), ErrInvalidMass,
		},
		{
			"wall species", DefaultConfig(), lj.DefaultTable(),
			fixed(atom.New(atom.Wall, r2.Vec{X: 1, Y: 1})), ErrInvalidSpecies,
		},
		{
			"missing pair", DefaultConfig(), waterOnlyTable(t, true),
			fixed(atom.New(atom.Body, r2.Vec{X: 1, Y: 1})), lj.ErrMissingInteraction,
		},
		{
			"missing wall pair", DefaultConfig(), waterOnlyTable(t, false),
			fixed(atom.New(atom.Water, r2.Vec{X: 1, Y: 1})), lj.ErrMissingInteraction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, tt.table, tt.gen)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func waterOnlyTable(t *testing.T, walls bool) *lj.Table {
	t.Helper()
	entries := []lj.Entry{{A: atom.Water, B: atom.Water, Sigma: 2.725, Epsilon: 4.9115}}
	if walls {
		entries = append(entries, lj.Entry{A: atom.Wall, B: atom.Water, Sigma: 10, Epsilon: 5})
	}
	table, err := lj.NewTable(entries...)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestWallsWithoutWallPairs(t *testing.T) {
	cfg := closedConfig()
	w, err := New(cfg, waterOnlyTable(t, false), fixed(atom.New(atom.Water, r2.Vec{X: 1, Y: 1})))
	if err != nil {
		t.Fatalf("expected walls-off world to build, got %v", err)
	}
	if err := w.SetWallCollision(true); !errors.Is(err, lj.ErrMissingInteraction) {
		t.Errorf("expected ErrMissingInteraction, got %v", err)
	}
	if w.Config().WallCollision {
		t.Error("expected wall collision to stay off")
	}
}

func TestAddAtom(t *testing.T) {
	w := newWorld(t, closedConfig(), atom.Pair())

	if err := w.AddAtom(atom.New(atom.Body, r2.Vec{X: 20, Y: 20})); err != nil {
		t.Fatalf("AddAtom: %v", err)
	}
	if w.Len() != 3 {
		t.Errorf("expected 3 atoms, got %d", w.Len())
	}
	if err := w.AddAtom(atom.Atom{Species: atom.Body, Mass: -1}); !errors.Is(err, ErrInvalidMass) {
		t.Errorf("expected ErrInvalidMass, got %v", err)
	}
	if w.Len() != 3 {
		t.Errorf("expected rejected atom to be dropped, got %d atoms", w.Len())
	}
}

func TestIncreaseTemperature(t *testing.T) {
	gen := atom.Gas(atom.Water, 50, r2.Vec{X: 200, Y: 200}, 2, 1, 3)
	w := newWorld(t, closedConfig(), gen)
	t0 := w.Temperature()

	if err := w.IncreaseTemperature(1.5); err != nil {
		t.Fatalf("IncreaseTemperature: %v", err)
	}
	if got := w.Temperature(); !near(got, t0+1.5, 1e-12) {
		t.Errorf("expected %g, got %g", t0+1.5, got)
	}
	if err := w.IncreaseTemperature(-2 * w.Temperature()); !errors.Is(err, ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}

	empty := newWorld(t, closedConfig(), nil)
	if err := empty.IncreaseTemperature(1); !errors.Is(err, ErrNoAtoms) {
		t.Errorf("expected ErrNoAtoms, got %v", err)
	}

	resting := newWorld(t, closedConfig(), atom.Pair())
	if err := resting.IncreaseTemperature(1); !errors.Is(err, ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds at zero temperature, got %v", err)
	}
}

func TestSetters(t *testing.T) {
	w := newWorld(t, DefaultConfig(), nil)

	if err := w.SetTimeDelta(-1); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for dt, got %v", err)
	}
	if err := w.SetBoxSize(r2.Vec{X: 10, Y: 0}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for box, got %v", err)
	}
	if err := w.SetPressureInterval(0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for interval, got %v", err)
	}
	if err := w.SetPistonMass(25); err != nil {
		t.Fatal(err)
	}
	if w.PistonMass() != 25 || w.Config().PistonMass != 25 {
		t.Errorf("expected piston mass 25, got %g", w.PistonMass())
	}

	w.SetMovingWall(true)
	w.piston.Y = 300
	if w.BoxHeight() != 300 {
		t.Errorf("expected box height 300, got %g", w.BoxHeight())
	}
	if w.Area() != DefaultBoxSize*300 {
		t.Errorf("expected area %g, got %g", DefaultBoxSize*300, w.Area())
	}
	w.SetMovingWall(false)
	if w.BoxHeight() != DefaultBoxSize {
		t.Errorf("expected box height %g, got %g", DefaultBoxSize, w.BoxHeight())
	}
}

func TestPressureIntervalChangeStartsNewWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = false
	cfg.PressureInterval = 10

	changed := latticeWorld(t, cfg)
	if err := changed.StepN(8); err != nil {
		t.Fatal(err)
	}
	if err := changed.SetPressureInterval(2); err != nil {
		t.Fatal(err)
	}
	if err := changed.Step(); err != nil {
		t.Fatal(err)
	}
	if changed.Pressure() != 0 {
		t.Fatalf("expected no sample one step into the new window, got %g", changed.Pressure())
	}
	if err := changed.Step(); err != nil {
		t.Fatal(err)
	}

	cfg.PressureInterval = 2
	steady := latticeWorld(t, cfg)
	if err := steady.StepN(10); err != nil {
		t.Fatal(err)
	}

	if steady.Pressure() <= 0 {
		t.Fatalf("expected positive wall pressure, got %g", steady.Pressure())
	}
	if changed.Pressure() != steady.Pressure() {
		t.Errorf("expected pressure of steps 9-10 %g, got %g", steady.Pressure(), changed.Pressure())
	}
}

func TestFallenPistonLeavesZeroHeight(t *testing.T) {
	cfg := closedConfig()
	cfg.Gravity = true
	cfg.MovingWall = true
	w := newWorld(t, cfg, atom.Pair())
	w.piston.Y = 0.5

	if err := w.StepN(200); err != nil {
		t.Fatal(err)
	}
	if w.PistonPosition() >= 0 {
		t.Fatalf("expected piston below the floor, got %g", w.PistonPosition())
	}
	if w.BoxHeight() != 0 || w.Area() != 0 {
		t.Errorf("expected zero height and area, got %g and %g", w.BoxHeight(), w.Area())
	}
	if w.Perimeter() != 2*DefaultBoxSize {
		t.Errorf("expected perimeter %g, got %g", 2*DefaultBoxSize, w.Perimeter())
	}
}

func TestSampleEnergyOptional(t *testing.T) {
	w := newWorld(t, closedConfig(), atom.Pair())

	s, err := w.Sample(false)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(s.Energy) {
		t.Errorf("expected NaN energy, got %g", s.Energy)
	}

	f, err := w.Frame(true)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(f.Energy) || len(f.Atoms) != 2 {
		t.Errorf("expected energy and 2 atoms, got %g and %d", f.Energy, len(f.Atoms))
	}
}

func TestStepError(t *testing.T) {
	err := error(&StepError{Iteration: 4, Stage: 2, Wrapped: lj.ErrMissingInteraction})
	if !errors.Is(err, lj.ErrMissingInteraction) {
		t.Error("expected StepError to unwrap")
	}
	var se *StepError
	if !errors.As(err, &se) || se.Iteration != 4 {
		t.Errorf("expected StepError at iteration 4, got %v", err)
	}
}

func BenchmarkStep(b *testing.B) {
	w, err := New(DefaultConfig(), lj.DefaultTable(), atom.Droplet())
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := w.Step(); err != nil {
			b.Fatal(err)
		}
	}
}
