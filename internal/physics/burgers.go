package physics

import (
	"math"

	"gorgonia.org/gorgonia"

	"github.com/kmaitland/pgan/internal/nets"
)

// Burgers implements the viscous Burgers equation residual.
// Field: u(x, t)
// Equation:
//
//	u_t + u·u_x - ν·u_xx = 0
type Burgers struct {
	nu float64 // Viscosity
}

func NewBurgers() *Burgers {
	return &Burgers{
		nu: 0.01 / math.Pi, // Common benchmark value ν = 0.01/π
	}
}

func (b *Burgers) Name() string { return "burgers" }

func (b *Burgers) Derivs() []string { return []string{"t", "x", "xx"} }

func (b *Burgers) Loss(f nets.FieldValues) (*gorgonia.Node, error) {
	ut, err := f.Deriv("t")
	if err != nil {
		return nil, err
	}
	ux, err := f.Deriv("x")
	if err != nil {
		return nil, err
	}
	uxx, err := f.Deriv("xx")
	if err != nil {
		return nil, err
	}
	adv, err := gorgonia.HadamardProd(f.Value(), ux)
	if err != nil {
		return nil, err
	}
	visc, err := gorgonia.Mul(gorgonia.NewConstant(b.nu), uxx)
	if err != nil {
		return nil, err
	}
	res, err := gorgonia.Add(ut, adv)
	if err != nil {
		return nil, err
	}
	if res, err = gorgonia.Sub(res, visc); err != nil {
		return nil, err
	}
	return meanSquare(res)
}

// GetParams implements Configurable
func (b *Burgers) GetParams() map[string]float64 {
	return map[string]float64{"nu": b.nu}
}

// SetParam implements Configurable
func (b *Burgers) SetParam(name string, value float64) error {
	if name != "nu" {
		return ErrUnknownParam
	}
	b.nu = value
	return nil
}
