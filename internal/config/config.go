// Package config reads and writes run configurations. Quantities are kept
// as strings with units ("10 s", "1e-8 mol") and parsed on demand.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/finfoot/internal/integrators"
	"github.com/san-kum/finfoot/internal/units"
)

// ErrInvalid indicates a configuration that cannot describe a run.
var ErrInvalid = errors.New("config: invalid configuration")

// EnvPrefix prefixes environment overrides, e.g. FINFOOT_TOLERANCE_REL.
const EnvPrefix = "FINFOOT"

// Auto asks the driver to estimate the initial step.
const Auto = "auto"

const (
	DefaultProblem  = "exponential"
	DefaultRelTol   = 1e-6
	DefaultAbsTol   = 1e-9
	DefaultMaxSteps = 100000
)

type Config struct {
	Problem string `yaml:"problem" mapstructure:"problem"`
	Method  string `yaml:"method" mapstructure:"method"`
	// Start and End override the problem's default span when set.
	Start string `yaml:"start,omitempty" mapstructure:"start"`
	End   string `yaml:"end,omitempty" mapstructure:"end"`
	// InitialStep is "auto", a time, or a dimensionless fraction of the
	// span ("1 %").
	InitialStep string `yaml:"initial_step" mapstructure:"initial_step"`

	Tolerance ToleranceConfig `yaml:"tolerance" mapstructure:"tolerance"`
	Step      StepConfig      `yaml:"step" mapstructure:"step"`
	MaxSteps  int             `yaml:"max_steps" mapstructure:"max_steps"`

	Params  map[string]string `yaml:"params,omitempty" mapstructure:"params"`
	Initial map[string]string `yaml:"initial,omitempty" mapstructure:"initial"`
}

type ToleranceConfig struct {
	Rel float64 `yaml:"rel" mapstructure:"rel"`
	Abs float64 `yaml:"abs" mapstructure:"abs"`
	// Components overrides Abs per state component, in that component's
	// unit.
	Components map[string]string `yaml:"components,omitempty" mapstructure:"components"`
}

type StepConfig struct {
	Min           string  `yaml:"min,omitempty" mapstructure:"min"`
	Max           string  `yaml:"max,omitempty" mapstructure:"max"`
	Safety        float64 `yaml:"safety" mapstructure:"safety"`
	MaxGrowth     float64 `yaml:"max_growth" mapstructure:"max_growth"`
	MinShrink     float64 `yaml:"min_shrink" mapstructure:"min_shrink"`
	MaxRejections int     `yaml:"max_rejections" mapstructure:"max_rejections"`
}

func DefaultConfig() *Config {
	step := integrators.DefaultStepConfig()
	return &Config{
		Problem:     DefaultProblem,
		Method:      integrators.DefaultMethod,
		InitialStep: Auto,
		Tolerance: ToleranceConfig{
			Rel: DefaultRelTol,
			Abs: DefaultAbsTol,
		},
		Step: StepConfig{
			Safety:        step.Safety,
			MaxGrowth:     step.MaxGrowth,
			MinShrink:     step.MinShrink,
			MaxRejections: step.MaxRejections,
		},
		MaxSteps: DefaultMaxSteps,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Tolerance.Components = cloneMap(c.Tolerance.Components)
	out.Params = cloneMap(c.Params)
	out.Initial = cloneMap(c.Initial)
	return &out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("problem", def.Problem)
	v.SetDefault("method", def.Method)
	v.SetDefault("start", def.Start)
	v.SetDefault("end", def.End)
	v.SetDefault("initial_step", def.InitialStep)
	v.SetDefault("tolerance.rel", def.Tolerance.Rel)
	v.SetDefault("tolerance.abs", def.Tolerance.Abs)
	v.SetDefault("step.min", def.Step.Min)
	v.SetDefault("step.max", def.Step.Max)
	v.SetDefault("step.safety", def.Step.Safety)
	v.SetDefault("step.max_growth", def.Step.MaxGrowth)
	v.SetDefault("step.min_shrink", def.Step.MinShrink)
	v.SetDefault("step.max_rejections", def.Step.MaxRejections)
	v.SetDefault("max_steps", def.MaxSteps)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads a YAML file over the defaults and applies FINFOOT_*
// environment overrides. An empty path loads defaults and environment
// only. Map keys (params, initial, tolerance components) are lower-cased.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate parses every quantity so malformed values fail before a run.
func (c *Config) Validate() error {
	if c.Problem == "" {
		return fmt.Errorf("%w: no problem", ErrInvalid)
	}
	if _, err := integrators.Lookup(c.method()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, _, err := c.Span(units.Seconds(0), units.Seconds(1)); err != nil {
		return err
	}
	if _, err := c.InitialStepFor(units.Seconds(1)); err != nil {
		return err
	}
	if _, err := c.Driver(nil); err != nil {
		return err
	}
	for _, m := range []map[string]string{c.Params, c.Initial} {
		if _, err := parseValues(m); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) method() string {
	if c.Method == "" {
		return integrators.DefaultMethod
	}
	return c.Method
}

// Span resolves start and end against the problem's defaults.
func (c *Config) Span(t0, tEnd units.Quantity[units.Time]) (units.Quantity[units.Time], units.Quantity[units.Time], error) {
	var err error
	if t0, err = timeOr(c.Start, "start", t0); err != nil {
		return t0, tEnd, err
	}
	if tEnd, err = timeOr(c.End, "end", tEnd); err != nil {
		return t0, tEnd, err
	}
	return t0, tEnd, nil
}

// InitialStepFor resolves the initial step for a span; zero means auto.
func (c *Config) InitialStepFor(span units.Quantity[units.Time]) (units.Quantity[units.Time], error) {
	s := strings.TrimSpace(c.InitialStep)
	if s == "" || strings.EqualFold(s, Auto) {
		return units.Quantity[units.Time]{}, nil
	}
	v, err := units.Parse(s)
	if err != nil {
		return units.Quantity[units.Time]{}, fmt.Errorf("%w: initial_step: %w", ErrInvalid, err)
	}
	var h units.Quantity[units.Time]
	if v.Dim.IsZero() {
		h = span.Abs().Scale(v.Mag)
	} else if h, err = units.As[units.Time](v); err != nil {
		return h, fmt.Errorf("%w: initial_step: %w", ErrInvalid, err)
	}
	if !(h.Value() > 0) || !h.IsFinite() {
		return h, fmt.Errorf("%w: initial_step %q must be positive", ErrInvalid, c.InitialStep)
	}
	return h, nil
}

// Driver builds the integrator configuration.
func (c *Config) Driver(logger *slog.Logger) (integrators.Config, error) {
	cfg := integrators.DefaultConfig()
	cfg.Method = c.method()
	cfg.RelTol = c.Tolerance.Rel
	cfg.AbsTol = c.Tolerance.Abs
	cfg.MaxSteps = c.MaxSteps
	cfg.Logger = logger

	per, err := parseValues(c.Tolerance.Components)
	if err != nil {
		return cfg, err
	}
	cfg.AbsTolPerComponent = per

	step := integrators.StepConfig{
		Safety:        c.Step.Safety,
		MaxGrowth:     c.Step.MaxGrowth,
		MinShrink:     c.Step.MinShrink,
		MaxRejections: c.Step.MaxRejections,
	}
	if step.MinStep, err = timeOr(c.Step.Min, "step.min", step.MinStep); err != nil {
		return cfg, err
	}
	if step.MaxStep, err = timeOr(c.Step.Max, "step.max", step.MaxStep); err != nil {
		return cfg, err
	}
	if err := step.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	cfg.Step = step

	if c.Tolerance.Rel < 0 || c.Tolerance.Abs < 0 {
		return cfg, fmt.Errorf("%w: negative tolerance", ErrInvalid)
	}
	if c.MaxSteps < 0 {
		return cfg, fmt.Errorf("%w: max_steps %d", ErrInvalid, c.MaxSteps)
	}
	return cfg, nil
}

// ParamValues parses the parameter overrides.
func (c *Config) ParamValues() (map[string]units.Value, error) { return parseValues(c.Params) }

// InitialValues parses the initial state overrides.
func (c *Config) InitialValues() (map[string]units.Value, error) { return parseValues(c.Initial) }

func timeOr(s, field string, def units.Quantity[units.Time]) (units.Quantity[units.Time], error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	q, err := units.ParseAs[units.Time](s)
	if err != nil {
		return def, fmt.Errorf("%w: %s: %w", ErrInvalid, field, err)
	}
	if !q.IsFinite() {
		return def, fmt.Errorf("%w: %s is not finite", ErrInvalid, field)
	}
	return q, nil
}

func parseValues(m map[string]string) (map[string]units.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]units.Value, len(m))
	for name, s := range m {
		v, err := units.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, name, err)
		}
		out[name] = v
	}
	return out, nil
}
