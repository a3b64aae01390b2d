package models

import "errors"

// Domain errors for model lifecycle and training configuration.
var (
	// ErrNotBuilt indicates Train or Predict before Build.
	ErrNotBuilt = errors.New("models: model not built")

	// ErrAlreadyBuilt indicates a second Build on the same model.
	ErrAlreadyBuilt = errors.New("models: model already built")

	// ErrInvalidBatchSize indicates a batch size < 1.
	ErrInvalidBatchSize = errors.New("models: batch size must be >= 1")

	// ErrInvalidEpochs indicates an epoch count < 1.
	ErrInvalidEpochs = errors.New("models: epoch count must be >= 1")

	// ErrInvalidLearningRate indicates a learning rate <= 0.
	ErrInvalidLearningRate = errors.New("models: learning rate must be positive")

	// ErrInvalidSampleCount indicates a prediction sample count < 1.
	ErrInvalidSampleCount = errors.New("models: sample count must be >= 1")
)
