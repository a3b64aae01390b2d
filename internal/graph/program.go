package graph

import (
	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Program is one compiled computation graph: named input nodes standing in
// for placeholders, named fetch nodes for losses and predictions, and the
// tape machine that executes the graph.
type Program struct {
	Graph  *gorgonia.ExprGraph
	VM     gorgonia.VM
	inputs map[string]*gorgonia.Node
	fetch  map[string]*gorgonia.Node
}

func NewProgram() *Program {
	return &Program{
		Graph:  gorgonia.NewGraph(),
		inputs: make(map[string]*gorgonia.Node),
		fetch:  make(map[string]*gorgonia.Node),
	}
}

// Placeholder creates a named (rows, cols) input matrix node.
func (p *Program) Placeholder(name string, rows, cols int) *gorgonia.Node {
	n := gorgonia.NewMatrix(p.Graph, tensor.Float64,
		gorgonia.WithShape(rows, cols), gorgonia.WithName(name))
	p.inputs[name] = n
	return n
}

// Fetch registers a node whose value is read back after Run.
func (p *Program) Fetch(name string, n *gorgonia.Node) { p.fetch[name] = n }

// Compile finalizes the program. When trainables are given their gradient
// nodes must already exist (via gorgonia.Grad) and dual values are bound so
// a solver can step them.
func (p *Program) Compile(sess *Session, trainables gorgonia.Nodes) {
	if len(trainables) > 0 {
		p.VM = gorgonia.NewTapeMachine(p.Graph, gorgonia.BindDualValues(trainables...))
	} else {
		p.VM = gorgonia.NewTapeMachine(p.Graph)
	}
	sess.Register(p.VM)
}

// Feed binds a (rows, cols) value to a named placeholder.
func (p *Program) Feed(name string, vals []float64, rows, cols int) error {
	node, ok := p.inputs[name]
	if !ok {
		return errors.Errorf("graph: no placeholder %q", name)
	}
	t := tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(vals))
	if err := gorgonia.Let(node, t); err != nil {
		return errors.Wrapf(err, "feeding %q", name)
	}
	return nil
}

// FeedColumn binds a column vector (n, 1) to a named placeholder.
func (p *Program) FeedColumn(name string, vals []float64) error {
	return p.Feed(name, vals, len(vals), 1)
}

// Run executes the graph once. The caller reads fetches before Reset.
func (p *Program) Run() error {
	if err := p.VM.RunAll(); err != nil {
		return errors.Wrap(err, "graph: run")
	}
	return nil
}

func (p *Program) Reset() { p.VM.Reset() }

// Scalar reads a registered scalar fetch.
func (p *Program) Scalar(name string) (float64, error) {
	node, ok := p.fetch[name]
	if !ok {
		return 0, errors.Errorf("graph: no fetch %q", name)
	}
	v := node.Value()
	if v == nil {
		return 0, errors.Errorf("graph: fetch %q has no value (run first)", name)
	}
	f, ok := v.Data().(float64)
	if !ok {
		return 0, errors.Errorf("graph: fetch %q is not a scalar", name)
	}
	return f, nil
}

// Column reads a registered fetch as a flattened copy of its backing data.
func (p *Program) Column(name string) ([]float64, error) {
	node, ok := p.fetch[name]
	if !ok {
		return nil, errors.Errorf("graph: no fetch %q", name)
	}
	v := node.Value()
	if v == nil {
		return nil, errors.Errorf("graph: fetch %q has no value (run first)", name)
	}
	backing, ok := v.Data().([]float64)
	if !ok {
		return nil, errors.Errorf("graph: fetch %q is not a float64 tensor", name)
	}
	out := make([]float64, len(backing))
	copy(out, backing)
	return out, nil
}
