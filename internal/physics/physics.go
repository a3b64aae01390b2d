package physics

import (
	"errors"

	"gorgonia.org/gorgonia"

	"github.com/kmaitland/pgan/internal/nets"
)

// ErrUnknownParam indicates a parameter name no system recognizes.
var ErrUnknownParam = errors.New("physics: unknown parameter")

// Model scores how well a predicted field satisfies a known governing
// equation. Derivs lists the coordinate derivatives the residual consumes,
// so the caller can propagate exactly those alongside its forward pass;
// Loss combines them into the mean squared residual over the batch as a
// scalar graph node. Implementations carry no trainable parameters, so a
// model using them as collaborators keeps them frozen by construction.
type Model interface {
	Name() string
	Derivs() []string
	Loss(f nets.FieldValues) (*gorgonia.Node, error)
}

// Configurable exposes a system's physical coefficients by name so they
// can be overridden at run configuration time.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

func meanSquare(res *gorgonia.Node) (*gorgonia.Node, error) {
	sq, err := gorgonia.Square(res)
	if err != nil {
		return nil, err
	}
	return gorgonia.Mean(sq)
}
