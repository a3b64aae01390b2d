package metrics

// LossMeter accumulates a running mean of one loss component over the
// minibatches of an epoch.
type LossMeter struct {
	name    string
	total   float64
	samples int
}

func NewLossMeter(name string) *LossMeter {
	return &LossMeter{name: name}
}

func (m *LossMeter) Name() string { return m.name }

func (m *LossMeter) Observe(v float64) {
	m.total += v
	m.samples++
}

func (m *LossMeter) Mean() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *LossMeter) Count() int { return m.samples }

func (m *LossMeter) Reset() {
	m.total = 0
	m.samples = 0
}
