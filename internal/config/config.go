package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/lj"
	"github.com/san-kum/atomsim/internal/world"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFrames        = 200
	DefaultStepsPerFrame = 50
	DefaultScene         = "droplet"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Dt               float64       `yaml:"dt"`
	Box              BoxConfig     `yaml:"box"`
	Gravity          bool          `yaml:"gravity"`
	Walls            bool          `yaml:"walls"`
	Piston           PistonConfig  `yaml:"piston"`
	PressureInterval int           `yaml:"pressure_interval"`
	Workers          int           `yaml:"workers"`
	Frames           int           `yaml:"frames"`
	StepsPerFrame    int           `yaml:"steps_per_frame"`
	Energy           bool          `yaml:"energy"`
	Seed             int64         `yaml:"seed"`
	Scene            []SceneConfig `yaml:"scene"`
	Interactions     []lj.Entry    `yaml:"interactions,omitempty"`
}

type BoxConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type PistonConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Mass        float64 `yaml:"mass"`
	GravityOnce bool    `yaml:"gravity_once"`
}

// SceneConfig names one generator from the atom registry and its
// parameters. The scene is the concatenation of every entry.
type SceneConfig struct {
	Generator   string `yaml:"generator"`
	atom.Params `yaml:",inline"`
}

func DefaultConfig() *Config {
	wc := world.DefaultConfig()
	return &Config{
		Dt:               wc.Dt,
		Box:              BoxConfig{Width: wc.BoxSize.X, Height: wc.BoxSize.Y},
		Gravity:          wc.Gravity,
		Walls:            wc.WallCollision,
		Piston:           PistonConfig{Enabled: wc.MovingWall, Mass: wc.PistonMass},
		PressureInterval: wc.PressureInterval,
		Frames:           DefaultFrames,
		StepsPerFrame:    DefaultStepsPerFrame,
		Scene:            []SceneConfig{{Generator: DefaultScene}},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values; a scene or interaction list in the file replaces
// the default one.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so presets can be modified by callers.
func (c *Config) Clone() *Config {
	out := *c
	out.Scene = append([]SceneConfig(nil), c.Scene...)
	out.Interactions = append([]lj.Entry(nil), c.Interactions...)
	return &out
}

func (c *Config) Validate() error {
	if err := c.WorldConfig().Validate(); err != nil {
		return err
	}
	if c.Frames < 1 {
		return fmt.Errorf("%w: frames must be positive, got %d", ErrInvalid, c.Frames)
	}
	if c.StepsPerFrame < 1 {
		return fmt.Errorf("%w: steps_per_frame must be positive, got %d", ErrInvalid, c.StepsPerFrame)
	}
	if len(c.Scene) == 0 {
		return fmt.Errorf("%w: scene is empty", ErrInvalid)
	}
	registry := atom.NewRegistry()
	for i, s := range c.Scene {
		if _, err := registry.Get(s.Generator, s.Params); err != nil {
			return fmt.Errorf("%w: scene %d: %v", ErrInvalid, i, err)
		}
		if needsSpecies(s.Generator) && !s.Species.Real() {
			return fmt.Errorf("%w: scene %d: species must be water or body, got %v", ErrInvalid, i, s.Species)
		}
	}
	if _, err := c.Table(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func needsSpecies(generator string) bool {
	return generator == "lattice" || generator == "gas"
}

func (c *Config) WorldConfig() world.Config {
	return world.Config{
		Dt:                c.Dt,
		BoxSize:           r2.Vec{X: c.Box.Width, Y: c.Box.Height},
		Gravity:           c.Gravity,
		WallCollision:     c.Walls,
		MovingWall:        c.Piston.Enabled,
		PressureInterval:  c.PressureInterval,
		PistonMass:        c.Piston.Mass,
		PistonGravityOnce: c.Piston.GravityOnce,
		Workers:           c.Workers,
	}
}

// Table builds the interaction table. An empty list selects the default
// water/body parameters.
func (c *Config) Table() (*lj.Table, error) {
	if len(c.Interactions) == 0 {
		return lj.DefaultTable(), nil
	}
	return lj.NewTable(c.Interactions...)
}

// Generator chains the scene entries. Gas entries without a box fill the
// simulation box, and entries without a seed use the run seed offset by
// their index.
func (c *Config) Generator() (atom.Generator, error) {
	registry := atom.NewRegistry()
	gens := make([]atom.Generator, 0, len(c.Scene))
	for i, s := range c.Scene {
		p := s.Params
		if p.Box == (r2.Vec{}) {
			p.Box = r2.Vec{X: c.Box.Width, Y: c.Box.Height}
		}
		if p.Seed == 0 {
			p.Seed = c.Seed + int64(i)
		}
		g, err := registry.Get(s.Generator, p)
		if err != nil {
			return nil, fmt.Errorf("scene %d: %w", i, err)
		}
		gens = append(gens, g)
	}
	return atom.Chain(gens...), nil
}

// Build constructs the world described by the configuration.
func (c *Config) Build() (*world.World, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	table, err := c.Table()
	if err != nil {
		return nil, err
	}
	gen, err := c.Generator()
	if err != nil {
		return nil, err
	}
	return world.New(c.WorldConfig(), table, gen)
}
