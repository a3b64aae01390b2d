package data

// MultiVariable is an ordered mapping from variable name to a flat sample
// array. Insertion order is preserved so that structural operations
// (normalization, serialization) always iterate variables deterministically.
type MultiVariable struct {
	names  []string
	values map[string][]float64
}

func NewMultiVariable() *MultiVariable {
	return &MultiVariable{values: make(map[string][]float64)}
}

// Set stores an array under name, appending the name on first insertion.
func (m *MultiVariable) Set(name string, vals []float64) {
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = vals
}

// Get returns the array stored under name, or nil.
func (m *MultiVariable) Get(name string) []float64 {
	return m.values[name]
}

// Has reports whether name is present.
func (m *MultiVariable) Has(name string) bool {
	_, ok := m.values[name]
	return ok
}

// Names returns the variable names in insertion order.
func (m *MultiVariable) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Len returns the number of variables.
func (m *MultiVariable) Len() int { return len(m.names) }
