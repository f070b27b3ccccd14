package config

import "sort"

// Presets are named loop setups for quick experimentation. Each starts from
// DefaultConfig and overrides the interesting knobs.
var presets = map[string]func(*Config){
	"baseline": func(c *Config) {
		// The stock lab loop: gentle PI on a 10s lag with 2s dead time.
	},
	"sluggish": func(c *Config) {
		c.Plant.TimeConstant = 40.0
		c.Plant.DeadTime = 5.0
		c.Controller.Kp = 0.4
		c.Controller.Ti = 45.0
	},
	"deadtime": func(c *Config) {
		c.Plant.TimeConstant = 8.0
		c.Plant.DeadTime = 6.0
		c.Controller.Kp = 0.3
		c.Controller.Ti = 14.0
		c.Controller.Algorithm = "i-pd"
	},
	"noisy": func(c *Config) {
		c.Plant.DisturbanceAmp = 0.5
		c.Plant.NoiseAmp = 0.03
		c.Controller.Kp = 0.5
		c.Controller.Ti = 15.0
	},
	"aggressive": func(c *Config) {
		c.Controller.Kp = 2.5
		c.Controller.Ti = 5.0
		c.Controller.Td = 1.0
		c.Controller.Algorithm = "pi-d"
		c.Controller.AntiWindup = "backcalc"
	},
}

func GetPreset(name string) *Config {
	apply, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
