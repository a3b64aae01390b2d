package data

import "errors"

// Domain errors for dataset and normalization preconditions.
var (
	// ErrDegenerateRange indicates a normalizer with max <= min.
	ErrDegenerateRange = errors.New("data: degenerate normalization range (max <= min)")

	// ErrUnknownVariable indicates a variable name with no registered normalizer.
	ErrUnknownVariable = errors.New("data: unknown variable name")

	// ErrLengthMismatch indicates coupled arrays with different leading dimensions.
	ErrLengthMismatch = errors.New("data: coupled arrays have mismatched lengths")

	// ErrEmptyDataset indicates a dataset with no points.
	ErrEmptyDataset = errors.New("data: empty dataset")
)
