package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLearningRate = 0.001
	DefaultEntropyReg   = 1.5
	DefaultPDEBeta      = 1.0
	DefaultBatchSize    = 100
	DefaultEpochs       = 1000
	DefaultDSkip        = 1
	DefaultBoundary     = 100
	DefaultCollocation  = 1000
)

var (
	ErrUnknownModel    = errors.New("config: unknown model kind")
	ErrBadLayers       = errors.New("config: layer widths must be positive")
	ErrBadBounds       = errors.New("config: lower and upper bounds must pair up")
	ErrBadLearningRate = errors.New("config: learning rates must be positive")
	ErrBadBatchSize    = errors.New("config: batch size must be >= 1")
	ErrBadEpochs       = errors.New("config: epochs must be >= 1")
	ErrBadDSkip        = errors.New("config: dskip must be >= 1")
	ErrBadDataCounts   = errors.New("config: point counts must be >= 1")
)

// Config describes one training run: which model to assemble, its network
// architectures, the loss weights, and the optimization schedule.
type Config struct {
	Model   string `yaml:"model"`
	Physics string `yaml:"physics"`
	Seed    uint64 `yaml:"seed"`
	Threads int    `yaml:"threads"`

	Networks NetworkConfig  `yaml:"networks"`
	Training TrainingConfig `yaml:"training"`
	Data     DataConfig     `yaml:"data"`
}

// NetworkConfig holds per-network layer widths, including the input width,
// plus the domain bounds the solution network normalizes against and the
// derivative features the residual network consumes.
type NetworkConfig struct {
	Solution      []int     `yaml:"solution"`
	PDE           []int     `yaml:"pde"`
	Generator     []int     `yaml:"generator"`
	Discriminator []int     `yaml:"discriminator"`
	Encoder       []int     `yaml:"encoder"`
	Derivatives   []string  `yaml:"derivatives"`
	Lower         []float64 `yaml:"lower"`
	Upper         []float64 `yaml:"upper"`
}

type TrainingConfig struct {
	LearningRate     float64 `yaml:"learning_rate"`
	GenLearningRate  float64 `yaml:"gen_learning_rate"`
	DiscLearningRate float64 `yaml:"disc_learning_rate"`
	EntropyReg       float64 `yaml:"entropy_reg"`
	PDEBeta          float64 `yaml:"pde_beta"`
	BatchSize        int     `yaml:"batch_size"`
	Epochs           int     `yaml:"epochs"`
	DSkip            int     `yaml:"dskip"`
}

// DataConfig sizes the synthetic training sets and the traveling-wave
// speed used to generate boundary values.
type DataConfig struct {
	Boundary    int     `yaml:"boundary"`
	Collocation int     `yaml:"collocation"`
	WaveSpeed   float64 `yaml:"wave_speed"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:   "gan",
		Physics: "burgers",
		Networks: NetworkConfig{
			Solution:      []int{2, 50, 50, 50, 1},
			PDE:           []int{3, 50, 50, 1},
			Generator:     []int{3, 50, 50, 50, 1},
			Discriminator: []int{3, 50, 50, 1},
			Encoder:       []int{3, 50, 50, 2},
			Derivatives:   []string{"x", "xx"},
			Lower:         []float64{-1.0, 0.0},
			Upper:         []float64{1.0, 1.0},
		},
		Training: TrainingConfig{
			LearningRate:     DefaultLearningRate,
			GenLearningRate:  DefaultLearningRate,
			DiscLearningRate: DefaultLearningRate,
			EntropyReg:       DefaultEntropyReg,
			PDEBeta:          DefaultPDEBeta,
			BatchSize:        DefaultBatchSize,
			Epochs:           DefaultEpochs,
			DSkip:            DefaultDSkip,
		},
		Data: DataConfig{
			Boundary:    DefaultBoundary,
			Collocation: DefaultCollocation,
			WaveSpeed:   1.0,
		},
	}
}

// DefaultConfigFor returns the defaults adjusted for a model kind. The
// hidden-physics model works over (x, y, t) with auxiliary velocity
// observations, so it needs wider networks and 3-D bounds than the
// single-coordinate defaults.
func DefaultConfigFor(model string) *Config {
	cfg := DefaultConfig()
	cfg.Model = model
	if model == "deephpm" {
		cfg.Networks.Solution = []int{3, 50, 50, 50, 1}
		cfg.Networks.PDE = []int{8, 50, 50, 1}
		cfg.Networks.Derivatives = []string{"x", "y", "xx", "xy", "yy"}
		cfg.Networks.Lower = []float64{-1.0, -1.0, 0.0}
		cfg.Networks.Upper = []float64{1.0, 1.0, 1.0}
	}
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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

// Validate checks the fields the selected model will actually consume.
func (c *Config) Validate() error {
	switch c.Model {
	case "deephpm":
		if err := checkLayers(c.Networks.Solution, c.Networks.PDE); err != nil {
			return err
		}
		// Residual features: two auxiliary fields, the field itself, and
		// one column per requested derivative.
		if c.Networks.PDE[0] != len(c.Networks.Derivatives)+3 {
			return ErrBadLayers
		}
	case "pinn":
		if err := checkLayers(c.Networks.Solution); err != nil {
			return err
		}
	case "gan":
		if err := checkLayers(c.Networks.Generator, c.Networks.Discriminator, c.Networks.Encoder); err != nil {
			return err
		}
	default:
		return ErrUnknownModel
	}

	if c.Model != "gan" {
		if len(c.Networks.Lower) == 0 || len(c.Networks.Lower) != len(c.Networks.Upper) {
			return ErrBadBounds
		}
		if len(c.Networks.Lower) != c.Networks.Solution[0] {
			return ErrBadBounds
		}
	}

	t := c.Training
	if t.LearningRate <= 0 || t.GenLearningRate <= 0 || t.DiscLearningRate <= 0 {
		return ErrBadLearningRate
	}
	if t.BatchSize < 1 {
		return ErrBadBatchSize
	}
	if t.Epochs < 1 {
		return ErrBadEpochs
	}
	if t.DSkip < 1 {
		return ErrBadDSkip
	}
	if c.Data.Boundary < 1 || c.Data.Collocation < 1 {
		return ErrBadDataCounts
	}
	return nil
}

func checkLayers(nets ...[]int) error {
	for _, layers := range nets {
		if len(layers) < 2 {
			return ErrBadLayers
		}
		for _, w := range layers {
			if w < 1 {
				return ErrBadLayers
			}
		}
	}
	return nil
}

// Hyperparams flattens the tunable training knobs for run metadata.
func (c *Config) Hyperparams() map[string]float64 {
	return map[string]float64{
		"learning_rate":      c.Training.LearningRate,
		"gen_learning_rate":  c.Training.GenLearningRate,
		"disc_learning_rate": c.Training.DiscLearningRate,
		"entropy_reg":        c.Training.EntropyReg,
		"pde_beta":           c.Training.PDEBeta,
		"dskip":              float64(c.Training.DSkip),
	}
}
