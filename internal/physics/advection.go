package physics

import (
	"gorgonia.org/gorgonia"

	"github.com/kmaitland/pgan/internal/nets"
)

// Advection implements the linear advection equation residual.
// Field: u(x, t)
// Equation:
//
//	u_t + c·u_x = 0
type Advection struct {
	c float64 // Transport speed
}

func NewAdvection() *Advection {
	return &Advection{c: 1.0}
}

func (a *Advection) Name() string { return "advection" }

func (a *Advection) Derivs() []string { return []string{"t", "x"} }

func (a *Advection) Loss(f nets.FieldValues) (*gorgonia.Node, error) {
	ut, err := f.Deriv("t")
	if err != nil {
		return nil, err
	}
	ux, err := f.Deriv("x")
	if err != nil {
		return nil, err
	}
	transport, err := gorgonia.Mul(gorgonia.NewConstant(a.c), ux)
	if err != nil {
		return nil, err
	}
	res, err := gorgonia.Add(ut, transport)
	if err != nil {
		return nil, err
	}
	return meanSquare(res)
}

// GetParams implements Configurable
func (a *Advection) GetParams() map[string]float64 {
	return map[string]float64{"c": a.c}
}

// SetParam implements Configurable
func (a *Advection) SetParam(name string, value float64) error {
	if name != "c" {
		return ErrUnknownParam
	}
	a.c = value
	return nil
}
