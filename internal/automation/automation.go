package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/san-kum/atomsim/internal/config"
	"github.com/san-kum/atomsim/internal/sim"
	"github.com/san-kum/atomsim/internal/storage"
	"gopkg.in/yaml.v3"
)

var ErrInvalidScenario = errors.New("automation: invalid scenario")

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset or a config file and overrides
// parameters by name (see config.SetParam).
type ScenarioStep struct {
	Preset string             `yaml:"preset"`
	Config string             `yaml:"config"`
	Params map[string]float64 `yaml:"params"`
	SaveAs string             `yaml:"save_as"`
}

// LoadScenario reads a scenario file. Config paths in steps are relative to
// the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: %s has no steps", ErrInvalidScenario, path)
	}

	dir := filepath.Dir(path)
	for i := range scenario.Steps {
		step := &scenario.Steps[i]
		if (step.Preset == "") == (step.Config == "") {
			return nil, fmt.Errorf("%w: step %d needs exactly one of preset or config", ErrInvalidScenario, i+1)
		}
		if step.Config != "" && !filepath.IsAbs(step.Config) {
			step.Config = filepath.Join(dir, step.Config)
		}
	}
	return &scenario, nil
}

// Resolve builds the step's configuration and validates it.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	var cfg *config.Config
	if s.Config != "" {
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidScenario, s.Preset)
		}
	}
	if err := cfg.SetParams(s.Params); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Name is the label the step's run is stored under.
func (s ScenarioStep) Name() string {
	switch {
	case s.SaveAs != "":
		return s.SaveAs
	case s.Preset != "":
		return s.Preset
	}
	base := filepath.Base(s.Config)
	return base[:len(base)-len(filepath.Ext(base))]
}

// RunConfig builds the world described by cfg and runs it to completion.
func RunConfig(ctx context.Context, cfg *config.Config, metrics sim.MetricFactory, logger *slog.Logger) (*sim.Result, error) {
	w, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	d := sim.New(w)
	if logger != nil {
		d.SetLogger(logger)
	}
	if metrics != nil {
		for _, m := range metrics() {
			d.AddMetric(m)
		}
	}
	return d.Run(ctx, sim.Config{Frames: cfg.Frames, StepsPerFrame: cfg.StepsPerFrame, Energy: cfg.Energy})
}

type StepResult struct {
	Name   string
	RunID  string
	Result *sim.Result
}

// Runner executes scenarios, saving each run when a store is set.
type Runner struct {
	Store   *storage.Store
	Metrics sim.MetricFactory
	Logger  *slog.Logger
}

// RunScenario runs the steps in order and stops at the first failure,
// returning the results completed so far.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name()
		logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", name)

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		result, err := RunConfig(ctx, cfg, r.Metrics, logger.With("step", name))
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: name, Result: result}
		if r.Store != nil {
			id, err := r.Store.Save(Metadata(name, cfg, result), result.Samples)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			sr.RunID = id
		}
		results = append(results, sr)
	}
	return results, nil
}

// Metadata describes a finished run for the store.
func Metadata(name string, cfg *config.Config, result *sim.Result) storage.RunMetadata {
	meta := storage.RunMetadata{
		Preset:        name,
		Seed:          cfg.Seed,
		Dt:            cfg.Dt,
		Frames:        cfg.Frames,
		StepsPerFrame: cfg.StepsPerFrame,
		Steps:         result.StepsTaken,
		Removed:       result.Removed,
		Gravity:       cfg.Gravity,
		Walls:         cfg.Walls,
		Piston:        cfg.Piston.Enabled,
		Metrics:       result.Metrics,
	}
	if final, ok := result.Final(); ok {
		meta.Atoms = final.Atoms
	}
	return meta
}
