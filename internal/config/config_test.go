package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "gan" {
		t.Errorf("expected model gan, got %s", cfg.Model)
	}
	if cfg.Training.LearningRate <= 0 {
		t.Error("learning rate should be positive")
	}
	if cfg.Training.BatchSize < 1 {
		t.Error("batch size should be at least 1")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDefaultConfigFor(t *testing.T) {
	for _, model := range []string{"gan", "pinn", "deephpm"} {
		cfg := DefaultConfigFor(model)
		if cfg.Model != model {
			t.Errorf("expected model %s, got %s", model, cfg.Model)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s defaults should validate: %v", model, err)
		}
	}

	cfg := DefaultConfigFor("deephpm")
	if cfg.Networks.Solution[0] != 3 {
		t.Errorf("expected 3 solution inputs, got %d", cfg.Networks.Solution[0])
	}
	if got, want := cfg.Networks.PDE[0], len(cfg.Networks.Derivatives)+3; got != want {
		t.Errorf("expected %d residual inputs, got %d", want, got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
		want error
	}{
		{"unknown model", func(c *Config) { c.Model = "svm" }, ErrUnknownModel},
		{"short layers", func(c *Config) { c.Networks.Generator = []int{3} }, ErrBadLayers},
		{"zero width", func(c *Config) { c.Networks.Encoder = []int{3, 0, 2} }, ErrBadLayers},
		{"bad bounds", func(c *Config) {
			c.Model = "pinn"
			c.Networks.Lower = []float64{-1}
		}, ErrBadBounds},
		{"bounds vs solution width", func(c *Config) {
			c.Model = "pinn"
			c.Networks.Solution = []int{3, 50, 1}
		}, ErrBadBounds},
		{"residual width", func(c *Config) {
			c.Model = "deephpm"
			c.Networks.Solution = []int{2, 50, 1}
			c.Networks.PDE = []int{4, 50, 1}
			c.Networks.Derivatives = []string{"x", "xx"}
		}, ErrBadLayers},
		{"zero lr", func(c *Config) { c.Training.GenLearningRate = 0 }, ErrBadLearningRate},
		{"zero batch", func(c *Config) { c.Training.BatchSize = 0 }, ErrBadBatchSize},
		{"zero epochs", func(c *Config) { c.Training.Epochs = 0 }, ErrBadEpochs},
		{"zero dskip", func(c *Config) { c.Training.DSkip = 0 }, ErrBadDSkip},
		{"zero boundary", func(c *Config) { c.Data.Boundary = 0 }, ErrBadDataCounts},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mut(cfg)
		if err := cfg.Validate(); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")

	cfg := DefaultConfig()
	cfg.Model = "pinn"
	cfg.Physics = "advection"
	cfg.Training.EntropyReg = 2.5
	cfg.Seed = 42

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Model != "pinn" {
		t.Errorf("expected model pinn, got %s", loaded.Model)
	}
	if loaded.Physics != "advection" {
		t.Errorf("expected physics advection, got %s", loaded.Physics)
	}
	if loaded.Training.EntropyReg != 2.5 {
		t.Errorf("expected entropy_reg 2.5, got %f", loaded.Training.EntropyReg)
	}
	if loaded.Seed != 42 {
		t.Errorf("expected seed 42, got %d", loaded.Seed)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	if err := os.WriteFile(path, []byte("model: pinn\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Model != "pinn" {
		t.Errorf("expected model pinn, got %s", cfg.Model)
	}
	if cfg.Training.BatchSize != DefaultBatchSize {
		t.Errorf("expected default batch size, got %d", cfg.Training.BatchSize)
	}
	if cfg.Training.EntropyReg != DefaultEntropyReg {
		t.Errorf("expected default entropy_reg, got %f", cfg.Training.EntropyReg)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("gan", "burgers")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Training.DSkip != 5 {
		t.Errorf("expected dskip 5, got %d", cfg.Training.DSkip)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset should validate: %v", err)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("gan", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "quick"); cfg != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	if presets := ListPresets("pinn"); len(presets) == 0 {
		t.Error("expected presets for pinn")
	}
	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestPresetsValidate(t *testing.T) {
	for model, named := range Presets {
		for name, cfg := range named {
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", model, name, err)
			}
		}
	}
}
