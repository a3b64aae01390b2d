package data

// Normalizer performs affine scaling of a scalar variable to a bounded
// interval and back: [min, max] -> [0, 1] when pos is true, [-1, 1]
// otherwise. The transform is a pure bijection; Inverse(Forward(x)) == x up
// to floating-point error.
//
// The denominator is max - min; a Normalizer built by struct literal with
// max == min divides by zero, matching the fail-fast behavior of the rest
// of the package. NewNormalizer checks the range explicitly.
type Normalizer struct {
	Min float64
	Max float64
	Pos bool
}

func NewNormalizer(min, max float64, pos bool) (Normalizer, error) {
	if max <= min {
		return Normalizer{}, ErrDegenerateRange
	}
	return Normalizer{Min: min, Max: max, Pos: pos}, nil
}

func (n Normalizer) Forward(x float64) float64 {
	if n.Pos {
		return (x - n.Min) / (n.Max - n.Min)
	}
	return 2.0*(x-n.Min)/(n.Max-n.Min) - 1.0
}

func (n Normalizer) Inverse(xn float64) float64 {
	if n.Pos {
		return (n.Max-n.Min)*xn + n.Min
	}
	return 0.5*(n.Max-n.Min)*(xn+1.0) + n.Min
}

// ForwardSlice applies Forward elementwise, returning a new array.
func (n Normalizer) ForwardSlice(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = n.Forward(x)
	}
	return out
}

// InverseSlice applies Inverse elementwise, returning a new array.
func (n Normalizer) InverseSlice(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = n.Inverse(x)
	}
	return out
}

// MultiNormalizer applies one Normalizer per variable name, structurally:
// the output MultiVariable has exactly the registered names. Both Forward
// and Inverse read from the argument actually passed.
type MultiNormalizer struct {
	names []string
	norms map[string]Normalizer
}

func NewMultiNormalizer() *MultiNormalizer {
	return &MultiNormalizer{norms: make(map[string]Normalizer)}
}

// Register binds a normalizer to a variable name. Registration rejects a
// degenerate range; re-registering a name replaces its normalizer without
// changing the variable order.
func (m *MultiNormalizer) Register(name string, n Normalizer) error {
	if n.Max <= n.Min {
		return ErrDegenerateRange
	}
	if _, ok := m.norms[name]; !ok {
		m.names = append(m.names, name)
	}
	m.norms[name] = n
	return nil
}

func (m *MultiNormalizer) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

func (m *MultiNormalizer) Forward(mv *MultiVariable) (*MultiVariable, error) {
	return m.apply(mv, Normalizer.ForwardSlice)
}

func (m *MultiNormalizer) Inverse(mv *MultiVariable) (*MultiVariable, error) {
	return m.apply(mv, Normalizer.InverseSlice)
}

func (m *MultiNormalizer) apply(mv *MultiVariable, f func(Normalizer, []float64) []float64) (*MultiVariable, error) {
	out := NewMultiVariable()
	for _, name := range m.names {
		if !mv.Has(name) {
			return nil, ErrUnknownVariable
		}
		out.Set(name, f(m.norms[name], mv.Get(name)))
	}
	return out, nil
}
