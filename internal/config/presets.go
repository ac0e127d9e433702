package config

import "sort"

type Preset struct {
	Summary string
	apply   func(*Config)
}

// Presets are tolerance and step settings applied over a configuration.
var Presets = map[string]Preset{
	"default": {
		Summary: "rtol 1e-6, atol 1e-9, estimated initial step",
		apply:   func(*Config) {},
	},
	"bench": {
		Summary: "rtol 1e-4, atol 1e-6, initial step 1% of the span",
		apply: func(c *Config) {
			c.Tolerance.Rel, c.Tolerance.Abs = 1e-4, 1e-6
			c.InitialStep = "1 %"
		},
	},
	"tight": {
		Summary: "rtol 1e-10, atol 1e-12",
		apply: func(c *Config) {
			c.Tolerance.Rel, c.Tolerance.Abs = 1e-10, 1e-12
			c.MaxSteps = 1000000
		},
	},
	"loose": {
		Summary: "rtol 1e-3, atol 1e-5",
		apply: func(c *Config) {
			c.Tolerance.Rel, c.Tolerance.Abs = 1e-3, 1e-5
		},
	},
}

// GetPreset returns the defaults with the named preset applied, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg
}

// ApplyPreset applies the named preset to cfg in place.
func ApplyPreset(cfg *Config, name string) bool {
	p, ok := Presets[name]
	if ok {
		p.apply(cfg)
	}
	return ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
