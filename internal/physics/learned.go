package physics

import (
	"gorgonia.org/gorgonia"

	"github.com/kmaitland/pgan/internal/nets"
)

// Learned wraps a trained PDE residual network as a residual model, so a
// solution model can be fit against dynamics discovered from data. The
// wrapped network's parameters are attached to the consumer's graph but
// never handed to its optimizer, which keeps them frozen.
type Learned struct {
	pde *nets.PDENet
}

func NewLearned(pde *nets.PDENet) *Learned {
	return &Learned{pde: pde}
}

func (l *Learned) Name() string { return "learned" }

func (l *Learned) Derivs() []string {
	return append([]string{"t"}, l.pde.Derivs...)
}

func (l *Learned) Loss(f nets.FieldValues) (*gorgonia.Node, error) {
	att := l.pde.Attach(f.Value().Graph())
	res, err := att.Residual(f, nil)
	if err != nil {
		return nil, err
	}
	return meanSquare(res)
}
