package nets

import (
	"golang.org/x/exp/rand"
	"gorgonia.org/gorgonia"
)

// PDENet learns the right-hand side of an evolution equation from data.
// Given a predicted field w with its coordinate derivatives, it feeds the
// auxiliary observations, the field, and the derivative tensors through a
// dense stack with a linear output and returns the residual
//
//	f = ∂w/∂t − net(aux…, w, derivatives…)
//
// Derivs configures which derivatives enter per physical system, e.g.
// ["x", "y", "xx", "xy", "yy"] for a 2-D vorticity equation.
type PDENet struct {
	Dense  *DenseNet
	Derivs []string
}

func NewPDENet(name string, layers []int, derivs []string, rng *rand.Rand) (*PDENet, error) {
	d, err := NewDenseNet(name, layers, rng)
	if err != nil {
		return nil, err
	}
	for _, spec := range derivs {
		if len(spec) < 1 || len(spec) > 2 {
			return nil, ErrUnknownDerivative
		}
	}
	return &PDENet{Dense: d, Derivs: append([]string(nil), derivs...)}, nil
}

type AttachedPDE struct {
	net   *PDENet
	dense *Attached
}

func (p *PDENet) Attach(g *gorgonia.ExprGraph) *AttachedPDE {
	return &AttachedPDE{net: p, dense: p.Dense.Attach(g)}
}

func (a *AttachedPDE) Trainables() gorgonia.Nodes { return a.dense.Trainables() }

// Residual builds the residual for a field whose "t" derivative and every
// configured spatial derivative were propagated by the producing network.
func (a *AttachedPDE) Residual(f FieldValues, aux []*gorgonia.Node) (*gorgonia.Node, error) {
	wt, err := f.Deriv("t")
	if err != nil {
		return nil, err
	}

	features := make(gorgonia.Nodes, 0, len(aux)+1+len(a.net.Derivs))
	features = append(features, aux...)
	features = append(features, f.Value())
	for _, spec := range a.net.Derivs {
		d, err := f.Deriv(spec)
		if err != nil {
			return nil, err
		}
		features = append(features, d)
	}

	cat, err := gorgonia.Concat(1, features...)
	if err != nil {
		return nil, err
	}
	rhs, err := a.dense.Fwd(cat, false)
	if err != nil {
		return nil, err
	}
	return gorgonia.Sub(wt, rhs)
}
