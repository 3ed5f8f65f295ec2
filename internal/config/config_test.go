package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/lj"
	"github.com/san-kum/atomsim/internal/world"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt != world.DefaultDt {
		t.Errorf("expected dt %g, got %g", world.DefaultDt, cfg.Dt)
	}
	if !cfg.Gravity || !cfg.Walls || cfg.Piston.Enabled {
		t.Errorf("expected gravity and walls on, piston off, got %+v", cfg)
	}
	if cfg.PressureInterval != world.DefaultPressureInterval {
		t.Errorf("expected pressure interval %d, got %d", world.DefaultPressureInterval, cfg.PressureInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("gas")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Scene[0].Count != 300 {
		t.Errorf("expected 300 atoms, got %d", cfg.Scene[0].Count)
	}

	cfg.Scene[0].Count = 1
	if Presets["gas"].Scene[0].Count != 300 {
		t.Error("expected GetPreset to return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset %s: %v", name, err)
			}
			if Describe(cfg) == "" {
				t.Error("expected description")
			}
		})
	}
}

func TestBuildPair(t *testing.T) {
	w, err := GetPreset("pair").Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if w.Len() != 2 {
		t.Errorf("expected 2 atoms, got %d", w.Len())
	}
	if w.Config().Gravity || w.Config().WallCollision {
		t.Error("expected a closed pair world")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"zero width", func(c *Config) { c.Box.Width = 0 }},
		{"zero interval", func(c *Config) { c.PressureInterval = 0 }},
		{"zero frames", func(c *Config) { c.Frames = 0 }},
		{"zero steps per frame", func(c *Config) { c.StepsPerFrame = 0 }},
		{"empty scene", func(c *Config) { c.Scene = nil }},
		{"unknown generator", func(c *Config) { c.Scene = []SceneConfig{{Generator: "nope"}} }},
		{"wall species", func(c *Config) { c.Scene = []SceneConfig{{Generator: "gas"}} }},
		{"bad interaction", func(c *Config) {
			c.Interactions = []lj.Entry{{A: atom.Water, B: atom.Water, Sigma: -1, Epsilon: 1}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `
dt: 0.002
gravity: false
piston:
  enabled: true
scene:
  - generator: lattice
    species: body
    nx: 4
    ny: 3
    spacing: 1.2
    origin_x: 50
    origin_y: 50
interactions:
  - {a: body, b: body, sigma: 1, epsilon: 100}
  - {a: wall, b: body, sigma: 10, epsilon: 5}
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Dt != 0.002 {
		t.Errorf("expected dt 0.002, got %g", cfg.Dt)
	}
	if cfg.Gravity {
		t.Error("expected gravity off")
	}
	if !cfg.Walls {
		t.Error("expected walls to keep their default")
	}
	if !cfg.Piston.Enabled || cfg.Piston.Mass != world.DefaultPistonMass {
		t.Errorf("expected piston on with default mass, got %+v", cfg.Piston)
	}
	if len(cfg.Scene) != 1 || cfg.Scene[0].Species != atom.Body {
		t.Fatalf("expected one body lattice, got %+v", cfg.Scene)
	}

	w, err := cfg.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if w.Len() != 12 {
		t.Errorf("expected 12 atoms, got %d", w.Len())
	}
	if _, err := w.Table().Lookup(atom.Water, atom.Water); !errors.Is(err, lj.ErrMissingInteraction) {
		t.Errorf("expected custom table without water, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preset.yaml")
	want := GetPreset("crystal")

	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.Scene[0].Species != atom.Water || got.Scene[0].NX != 10 {
		t.Errorf("expected water lattice, got %+v", got.Scene[0])
	}
	if got.Energy != want.Energy || got.Dt != want.Dt {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSetParam(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.SetParams(map[string]float64{
		"dt":                0.002,
		"piston":            1,
		"piston_mass":       25,
		"pressure_interval": 100,
		"gravity":           0,
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dt != 0.002 || !cfg.Piston.Enabled || cfg.Piston.Mass != 25 || cfg.PressureInterval != 100 || cfg.Gravity {
		t.Errorf("unexpected config %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	tests := []struct {
		name  string
		param string
		value float64
	}{
		{"unknown", "viscosity", 1},
		{"fractional int", "frames", 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cfg.SetParam(tt.param, tt.value); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
