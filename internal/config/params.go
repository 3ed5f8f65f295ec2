package config

import (
	"fmt"
	"math"
	"sort"
)

// params maps the names accepted by SetParam onto configuration fields.
// Booleans take 0 for off and anything else for on.
var params = map[string]func(c *Config, v float64) error{
	"dt":                func(c *Config, v float64) error { c.Dt = v; return nil },
	"box_width":         func(c *Config, v float64) error { c.Box.Width = v; return nil },
	"box_height":        func(c *Config, v float64) error { c.Box.Height = v; return nil },
	"piston_mass":       func(c *Config, v float64) error { c.Piston.Mass = v; return nil },
	"pressure_interval": intParam(func(c *Config, n int) { c.PressureInterval = n }),
	"workers":           intParam(func(c *Config, n int) { c.Workers = n }),
	"frames":            intParam(func(c *Config, n int) { c.Frames = n }),
	"steps_per_frame":   intParam(func(c *Config, n int) { c.StepsPerFrame = n }),
	"seed":              intParam(func(c *Config, n int) { c.Seed = int64(n) }),
	"gravity":           func(c *Config, v float64) error { c.Gravity = v != 0; return nil },
	"walls":             func(c *Config, v float64) error { c.Walls = v != 0; return nil },
	"piston":            func(c *Config, v float64) error { c.Piston.Enabled = v != 0; return nil },
}

func intParam(set func(c *Config, n int)) func(c *Config, v float64) error {
	return func(c *Config, v float64) error {
		if v != math.Trunc(v) {
			return fmt.Errorf("%w: expected an integer, got %g", ErrInvalid, v)
		}
		set(c, int(v))
		return nil
	}
}

// SetParam sets a numeric configuration field by name. The result is not
// validated; call Validate once all parameters are applied.
func (c *Config) SetParam(name string, v float64) error {
	set, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q (available: %v)", ErrInvalid, name, ParamNames())
	}
	if err := set(c, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// SetParams applies SetParam for every entry in name order.
func (c *Config) SetParams(values map[string]float64) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.SetParam(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
