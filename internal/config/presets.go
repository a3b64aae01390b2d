package config

// Presets are ready-made run configurations per model kind, tuned for the
// traveling-wave benchmark.
var Presets = map[string]map[string]*Config{
	"gan": {
		"quick": preset(func(c *Config) {
			c.Model = "gan"
			c.Physics = "advection"
			c.Training.Epochs = 200
			c.Data.Boundary = 50
			c.Data.Collocation = 200
		}),
		"burgers": preset(func(c *Config) {
			c.Model = "gan"
			c.Physics = "burgers"
			c.Training.Epochs = 50000
			c.Training.DSkip = 5
			c.Data.Boundary = 200
			c.Data.Collocation = 10000
		}),
		"entropy-sweep": preset(func(c *Config) {
			c.Model = "gan"
			c.Physics = "burgers"
			c.Training.EntropyReg = 2.0
			c.Training.Epochs = 20000
		}),
	},
	"pinn": {
		"quick": preset(func(c *Config) {
			c.Model = "pinn"
			c.Physics = "advection"
			c.Training.Epochs = 500
			c.Data.Boundary = 50
			c.Data.Collocation = 500
		}),
		"burgers": preset(func(c *Config) {
			c.Model = "pinn"
			c.Physics = "burgers"
			c.Training.Epochs = 10000
			c.Data.Boundary = 100
			c.Data.Collocation = 10000
		}),
	},
	"deephpm": {
		"quick": preset(func(c *Config) {
			c.Model = "deephpm"
			c.Networks.Solution = []int{3, 50, 50, 1}
			c.Networks.PDE = []int{8, 50, 1}
			c.Networks.Derivatives = []string{"x", "y", "xx", "xy", "yy"}
			c.Networks.Lower = []float64{-1.0, -1.0, 0.0}
			c.Networks.Upper = []float64{1.0, 1.0, 1.0}
			c.Training.Epochs = 500
		}),
		"vorticity": preset(func(c *Config) {
			c.Model = "deephpm"
			c.Networks.Solution = []int{3, 100, 100, 100, 1}
			c.Networks.PDE = []int{8, 100, 100, 1}
			c.Networks.Derivatives = []string{"x", "y", "xx", "xy", "yy"}
			c.Networks.Lower = []float64{0.0, -2.0, 0.0}
			c.Networks.Upper = []float64{8.0, 2.0, 20.0}
			c.Training.Epochs = 50000
		}),
	},
}

func preset(mut func(*Config)) *Config {
	c := DefaultConfig()
	mut(c)
	return c
}

func GetPreset(model, name string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	return names
}
