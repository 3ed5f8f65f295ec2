package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/atomsim/internal/config"
	"github.com/san-kum/atomsim/internal/metrics"
	"github.com/san-kum/atomsim/internal/sim"
	"github.com/san-kum/atomsim/internal/storage"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scenario.yaml", `
name: closed pair
steps:
  - preset: pair
    params:
      frames: 3
    save_as: short
  - config: pair.yaml
`)

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "closed pair" || len(s.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", s)
	}
	if s.Steps[1].Config != filepath.Join(dir, "pair.yaml") {
		t.Errorf("expected config path relative to scenario, got %s", s.Steps[1].Config)
	}
	if s.Steps[0].Name() != "short" || s.Steps[1].Name() != "pair" {
		t.Errorf("unexpected names %q %q", s.Steps[0].Name(), s.Steps[1].Name())
	}
}

func TestLoadScenarioInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"no steps", "name: empty\n"},
		{"both sources", "steps:\n  - preset: pair\n    config: x.yaml\n"},
		{"no source", "steps:\n  - save_as: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "s.yaml", tt.content)
			if _, err := LoadScenario(path); !errors.Is(err, ErrInvalidScenario) {
				t.Errorf("expected ErrInvalidScenario, got %v", err)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	cfg, err := ScenarioStep{Preset: "pair", Params: map[string]float64{"frames": 4, "dt": 0.02}}.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Frames != 4 || cfg.Dt != 0.02 {
		t.Errorf("expected overrides applied, got frames=%d dt=%g", cfg.Frames, cfg.Dt)
	}

	if _, err := (ScenarioStep{Preset: "nope"}).Resolve(); !errors.Is(err, ErrInvalidScenario) {
		t.Errorf("expected ErrInvalidScenario, got %v", err)
	}
	if _, err := (ScenarioStep{Preset: "pair", Params: map[string]float64{"dt": -1}}).Resolve(); err == nil {
		t.Error("expected validation error for negative dt")
	}
}

func TestRunScenario(t *testing.T) {
	dir := t.TempDir()
	if err := config.Save(filepath.Join(dir, "pair.yaml"), config.GetPreset("pair")); err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, dir, "scenario.yaml", `
name: pairs
steps:
  - preset: pair
    params: {frames: 2, steps_per_frame: 3}
  - config: pair.yaml
    save_as: from_file
`)
	scenario, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}

	store := storage.New(filepath.Join(dir, "runs"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	runner := &Runner{
		Store:   store,
		Metrics: func() []sim.Metric { return []sim.Metric{metrics.NewAtomLoss()} },
	}

	results, err := runner.RunScenario(context.Background(), scenario)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Result.StepsTaken != 6 {
		t.Errorf("expected 6 steps, got %d", results[0].Result.StepsTaken)
	}
	if results[1].Name != "from_file" {
		t.Errorf("expected from_file, got %s", results[1].Name)
	}

	meta, err := store.Load(results[0].RunID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Atoms != 2 || meta.Steps != 6 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if _, ok := meta.Metrics["atom_loss"]; !ok {
		t.Error("expected atom_loss metric in metadata")
	}
}
