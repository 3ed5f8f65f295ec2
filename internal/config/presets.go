package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/atomsim/internal/atom"
)

var Presets = map[string]*Config{
	"pair": {
		Dt: 0.01, Box: BoxConfig{Width: 500, Height: 500},
		PressureInterval: 500, Piston: PistonConfig{Mass: 10},
		Frames: 10, StepsPerFrame: 1,
		Scene: []SceneConfig{{Generator: "pair"}},
	},
	"droplet": {
		Dt: 0.01, Box: BoxConfig{Width: 500, Height: 500},
		Gravity: true, Walls: true,
		PressureInterval: 500, Piston: PistonConfig{Mass: 10},
		Frames: 200, StepsPerFrame: 50,
		Scene: []SceneConfig{{Generator: "droplet"}},
	},
	"piston": {
		Dt: 0.01, Box: BoxConfig{Width: 500, Height: 500},
		Gravity: true, Walls: true,
		PressureInterval: 500, Piston: PistonConfig{Enabled: true, Mass: 10},
		Frames: 200, StepsPerFrame: 50,
		Scene: []SceneConfig{{Generator: "droplet"}},
	},
	"gas": {
		Dt: 0.005, Box: BoxConfig{Width: 200, Height: 200},
		Walls: true,
		PressureInterval: 200, Piston: PistonConfig{Mass: 10},
		Frames: 100, StepsPerFrame: 20, Seed: 1,
		Scene: []SceneConfig{{
			Generator: "gas",
			Params:    atom.Params{Species: atom.Water, Count: 300, Temperature: 2, Mass: 1},
		}},
	},
	"crystal": {
		Dt: 0.005, Box: BoxConfig{Width: 100, Height: 100},
		Walls: true,
		PressureInterval: 200, Piston: PistonConfig{Mass: 10},
		Frames: 100, StepsPerFrame: 20,
		Energy: true,
		Scene: []SceneConfig{{
			Generator: "lattice",
			Params: atom.Params{
				Species: atom.Water, NX: 10, NY: 10, Spacing: 3.06,
				OriginX: 35, OriginY: 35, Mass: 1,
			},
		}},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe is a one-line summary of a preset for listings.
func Describe(cfg *Config) string {
	scene := make([]string, len(cfg.Scene))
	for i, s := range cfg.Scene {
		scene[i] = s.Generator
	}

	var flags []string
	if cfg.Gravity {
		flags = append(flags, "gravity")
	}
	if cfg.Walls {
		flags = append(flags, "walls")
	}
	if cfg.Piston.Enabled {
		flags = append(flags, "piston")
	}
	if len(flags) == 0 {
		flags = append(flags, "closed")
	}

	return fmt.Sprintf("%s, box %gx%g, dt %g, %s",
		strings.Join(scene, "+"), cfg.Box.Width, cfg.Box.Height, cfg.Dt, strings.Join(flags, " "))
}
