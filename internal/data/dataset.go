package data

// FieldSet holds labeled collocation samples of a scalar field over two
// spatial coordinates and time, plus two auxiliary observed fields. It is
// the training input for the hidden-physics model: (X, Y, T) are the
// coordinates, W the observed field, (U, V) the auxiliary observations
// (e.g. velocity components for a vorticity field).
type FieldSet struct {
	X []float64
	Y []float64
	T []float64
	U []float64
	V []float64
	W []float64
}

func (s *FieldSet) Len() int { return len(s.X) }

func (s *FieldSet) Check() error {
	n := len(s.X)
	if n == 0 {
		return ErrEmptyDataset
	}
	for _, a := range [][]float64{s.Y, s.T, s.U, s.V, s.W} {
		if len(a) != n {
			return ErrLengthMismatch
		}
	}
	return nil
}

// BoundarySet holds supervised boundary/initial-condition samples of a
// one-dimensional field: observed values U at coordinates (X, T).
type BoundarySet struct {
	X []float64
	T []float64
	U []float64
}

func (s *BoundarySet) Len() int { return len(s.X) }

func (s *BoundarySet) Check() error {
	if len(s.X) == 0 {
		return ErrEmptyDataset
	}
	if len(s.T) != len(s.X) || len(s.U) != len(s.X) {
		return ErrLengthMismatch
	}
	return nil
}

// CollocationSet holds unlabeled points where the PDE residual is enforced.
type CollocationSet struct {
	X []float64
	T []float64
}

func (s *CollocationSet) Len() int { return len(s.X) }

func (s *CollocationSet) Check() error {
	if len(s.X) == 0 {
		return ErrEmptyDataset
	}
	if len(s.T) != len(s.X) {
		return ErrLengthMismatch
	}
	return nil
}
