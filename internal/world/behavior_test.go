package world_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/lj"
	"github.com/san-kum/atomsim/internal/world"
	"gonum.org/v1/gonum/spatial/r2"
)

func resting(points ...r2.Vec) atom.Generator {
	return func() []atom.Atom {
		atoms := make([]atom.Atom, len(points))
		for i, p := range points {
			atoms[i] = atom.New(atom.Water, p)
		}
		return atoms
	}
}

var _ = Describe("World", func() {
	var cfg world.Config

	BeforeEach(func() {
		cfg = world.DefaultConfig()
	})

	Describe("pressure sampling", func() {
		var w *world.World

		BeforeEach(func() {
			cfg.PressureInterval = 5
			var err error
			w, err = world.New(cfg, lj.DefaultTable(), atom.Lattice(atom.Water, r2.Vec{X: 30, Y: 30}, 4, 4, 3, 1))
			Expect(err).NotTo(HaveOccurred())
		})

		It("stays at zero until the first interval has elapsed", func() {
			for i := 0; i < 4; i++ {
				Expect(w.Step()).To(Succeed())
				Expect(w.Pressure()).To(BeZero())
			}
			Expect(w.Step()).To(Succeed())
			Expect(w.Pressure()).To(BeNumerically(">", 0))
		})

		It("updates exactly once per interval", func() {
			Expect(w.StepN(5)).To(Succeed())
			first := w.Pressure()

			for i := 0; i < 4; i++ {
				Expect(w.Step()).To(Succeed())
				Expect(w.Pressure()).To(Equal(first))
			}
			Expect(w.Step()).To(Succeed())
			Expect(w.Pressure()).NotTo(Equal(first))
		})
	})

	Describe("boundary removal", func() {
		escaped := r2.Vec{X: -1, Y: 100}

		It("removes atoms outside the box when walls are on", func() {
			cfg.Gravity = false
			w, err := world.New(cfg, lj.DefaultTable(), resting(r2.Vec{X: 100, Y: 100}, escaped))
			Expect(err).NotTo(HaveOccurred())

			Expect(w.Step()).To(Succeed())
			Expect(w.Len()).To(Equal(1))
			Expect(w.Removed()).To(Equal(1))
		})

		It("keeps every atom when walls are off", func() {
			cfg.Gravity = false
			cfg.WallCollision = false
			w, err := world.New(cfg, lj.DefaultTable(), resting(r2.Vec{X: 100, Y: 100}, escaped))
			Expect(err).NotTo(HaveOccurred())

			Expect(w.Step()).To(Succeed())
			Expect(w.Len()).To(Equal(2))
			Expect(w.Atoms()[1].Position).To(Equal(escaped))
		})
	})

	Describe("piston", func() {
		atoms := []r2.Vec{{X: 100, Y: 100}, {X: 200, Y: 100}}

		BeforeEach(func() {
			cfg.MovingWall = true
		})

		It("starts at rest at the top of the box height", func() {
			w, err := world.New(cfg, lj.DefaultTable(), resting(atoms...))
			Expect(err).NotTo(HaveOccurred())

			Expect(w.PistonPosition()).To(Equal(world.DefaultBoxSize))
			Expect(w.Piston().Velocity).To(BeZero())
			Expect(w.PistonMass()).To(Equal(world.DefaultPistonMass))
		})

		It("falls under gravity applied once per atom", func() {
			w, err := world.New(cfg, lj.DefaultTable(), resting(atoms...))
			Expect(err).NotTo(HaveOccurred())

			Expect(w.Step()).To(Succeed())
			Expect(w.Piston().Velocity).To(BeNumerically("~", -world.Gravity*2*cfg.Dt, 1e-9))
			Expect(w.PistonPosition()).To(BeNumerically("<", world.DefaultBoxSize))
			Expect(w.BoxHeight()).To(Equal(w.PistonPosition()))
		})

		It("falls under gravity applied once per pass when corrected", func() {
			cfg.PistonGravityOnce = true
			w, err := world.New(cfg, lj.DefaultTable(), resting(atoms...))
			Expect(err).NotTo(HaveOccurred())

			Expect(w.Step()).To(Succeed())
			Expect(w.Piston().Velocity).To(BeNumerically("~", -world.Gravity*cfg.Dt, 1e-9))
		})

		It("stays put when the moving wall is off", func() {
			cfg.MovingWall = false
			w, err := world.New(cfg, lj.DefaultTable(), resting(atoms...))
			Expect(err).NotTo(HaveOccurred())

			Expect(w.StepN(10)).To(Succeed())
			Expect(w.PistonPosition()).To(Equal(world.DefaultBoxSize))
			Expect(w.BoxHeight()).To(Equal(world.DefaultBoxSize))
		})

		It("removes atoms left outside a shrunken box", func() {
			cfg.Gravity = false
			w, err := world.New(cfg, lj.DefaultTable(), resting(r2.Vec{X: 100, Y: 100}, r2.Vec{X: 100, Y: 400}))
			Expect(err).NotTo(HaveOccurred())
			Expect(w.SetBoxSize(r2.Vec{X: 500, Y: 300})).To(Succeed())

			Expect(w.Step()).To(Succeed())
			Expect(w.Len()).To(Equal(1))
		})
	})
})
