package nets

import "errors"

// Domain errors for network construction and parameter loading.
var (
	// ErrBadLayers indicates a layer-width list with fewer than two entries.
	ErrBadLayers = errors.New("nets: layer list needs at least input and output widths")

	// ErrBadBounds indicates domain bounds that do not match the input width.
	ErrBadBounds = errors.New("nets: domain bounds do not match input width")

	// ErrOddEncoderOutput indicates an encoder output width that is not 2*latent_dim.
	ErrOddEncoderOutput = errors.New("nets: encoder output width must be even (mean and scale halves)")

	// ErrUnknownDerivative indicates a derivative spec naming an unknown coordinate.
	ErrUnknownDerivative = errors.New("nets: derivative spec names an unknown coordinate")

	// ErrCoordMismatch indicates coordinate names that do not pair up with
	// the coordinate nodes.
	ErrCoordMismatch = errors.New("nets: coordinate names do not match inputs")

	// ErrUnknownParam indicates a checkpoint parameter with no matching network weight.
	ErrUnknownParam = errors.New("nets: unknown parameter name")

	// ErrShapeMismatch indicates a checkpoint parameter with the wrong shape.
	ErrShapeMismatch = errors.New("nets: parameter shape mismatch")
)
