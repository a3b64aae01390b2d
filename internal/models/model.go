package models

import (
	"log"
	"os"

	"gorgonia.org/gorgonia"

	"github.com/kmaitland/pgan/internal/graph"
	"github.com/kmaitland/pgan/internal/nets"
)

// Model is the shared lifecycle of every orchestrator: constructed once,
// Build materializes parameters and optimizers against a session, training
// may then run repeatedly. Train and Predict signatures differ per variant
// (each consumes its own dataset shape), so they live on the concrete
// types.
type Model interface {
	Kind() string
	Build(sess *graph.Session, cfg BuildConfig) error

	// Networks exposes the named parameters of every sub-network for
	// checkpointing.
	Networks() map[string][]nets.Param
}

// BuildConfig carries graph-build options. LearningRate drives
// single-objective models; the GAN reads the split generator and
// discriminator rates instead.
type BuildConfig struct {
	LearningRate     float64
	GenLearningRate  float64
	DiscLearningRate float64
}

func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		LearningRate:     0.001,
		GenLearningRate:  0.001,
		DiscLearningRate: 0.001,
	}
}

// EpochStats reports one epoch's mean losses to an observer.
type EpochStats struct {
	Epoch  int
	Losses map[string]float64
}

// TrainConfig carries per-call training options.
type TrainConfig struct {
	BatchSize int
	Epochs    int
	Verbose   bool

	// DSkip is the discriminator update skip interval (GAN only): the
	// discriminator steps on epochs where epoch % DSkip == 0.
	DSkip int

	// CheckpointDir is the base directory for periodic checkpoints_<epoch>
	// snapshots. Empty means the working directory.
	CheckpointDir string

	// Logger receives the per-epoch line; nil falls back to stderr.
	Logger *log.Logger

	// OnEpoch, when set, observes every epoch's mean losses.
	OnEpoch func(EpochStats)
}

func (c TrainConfig) check() error {
	if c.BatchSize < 1 {
		return ErrInvalidBatchSize
	}
	if c.Epochs < 1 {
		return ErrInvalidEpochs
	}
	return nil
}

func (c TrainConfig) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.New(os.Stderr, "", log.LstdFlags)
}

// mse builds mean((pred - target)²).
func mse(pred, target *gorgonia.Node) (*gorgonia.Node, error) {
	diff, err := gorgonia.Sub(pred, target)
	if err != nil {
		return nil, err
	}
	return meanSquare(diff)
}

func meanSquare(n *gorgonia.Node) (*gorgonia.Node, error) {
	sq, err := gorgonia.Square(n)
	if err != nil {
		return nil, err
	}
	return gorgonia.Mean(sq)
}

func scale(c float64, n *gorgonia.Node) (*gorgonia.Node, error) {
	return gorgonia.Mul(gorgonia.NewConstant(c), n)
}

// sigmoidCE builds the mean sigmoid cross entropy of logits against a
// constant label: mean(softplus(l) - label·l).
func sigmoidCE(logits *gorgonia.Node, label float64) (*gorgonia.Node, error) {
	sp, err := gorgonia.Softplus(logits)
	if err != nil {
		return nil, err
	}
	if label != 0 {
		scaled, err := gorgonia.Mul(gorgonia.NewConstant(label), logits)
		if err != nil {
			return nil, err
		}
		if sp, err = gorgonia.Sub(sp, scaled); err != nil {
			return nil, err
		}
	}
	return gorgonia.Mean(sp)
}
