package nets

import (
	"golang.org/x/exp/rand"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/kmaitland/pgan/internal/graph"
)

// SolutionNet maps coordinates to a predicted field value. Inputs are
// normalized against fixed domain bounds before the dense stack; the
// output is a linear regression head.
type SolutionNet struct {
	Dense *DenseNet
	Lower []float64
	Upper []float64
}

func NewSolutionNet(name string, layers []int, lower, upper []float64, rng *rand.Rand) (*SolutionNet, error) {
	if len(layers) < 2 {
		return nil, ErrBadLayers
	}
	if len(lower) != layers[0] || len(upper) != layers[0] {
		return nil, ErrBadBounds
	}
	d, err := NewDenseNet(name, layers, rng)
	if err != nil {
		return nil, err
	}
	return &SolutionNet{Dense: d, Lower: lower, Upper: upper}, nil
}

type AttachedSolution struct {
	dense  *Attached
	lower  *gorgonia.Node
	span   *gorgonia.Node
	scales []float64
}

func (s *SolutionNet) Attach(g *gorgonia.ExprGraph) *AttachedSolution {
	dim := len(s.Lower)
	lb := make([]float64, dim)
	span := make([]float64, dim)
	scales := make([]float64, dim)
	for i := range s.Lower {
		lb[i] = s.Lower[i]
		span[i] = s.Upper[i] - s.Lower[i]
		scales[i] = 2 / span[i]
	}
	return &AttachedSolution{
		scales: scales,
		dense:  s.Dense.Attach(g),
		lower: gorgonia.NodeFromAny(g,
			tensor.New(tensor.WithShape(1, dim), tensor.WithBacking(lb)),
			gorgonia.WithName(s.Dense.Name()+"_lower")),
		span: gorgonia.NodeFromAny(g,
			tensor.New(tensor.WithShape(1, dim), tensor.WithBacking(span)),
			gorgonia.WithName(s.Dense.Name()+"_span")),
	}
}

func (a *AttachedSolution) Trainables() gorgonia.Nodes { return a.dense.Trainables() }

// normalize concatenates the coordinates and rescales them to [-1, 1] by
// the domain bounds: 2*(x-lower)/(upper-lower) - 1.
func (a *AttachedSolution) normalize(coords ...*gorgonia.Node) (*gorgonia.Node, error) {
	x, err := gorgonia.Concat(1, coords...)
	if err != nil {
		return nil, err
	}
	shifted, err := gorgonia.BroadcastSub(x, a.lower, nil, []byte{0})
	if err != nil {
		return nil, err
	}
	unit, err := gorgonia.BroadcastHadamardDiv(shifted, a.span, nil, []byte{0})
	if err != nil {
		return nil, err
	}
	doubled, err := gorgonia.Mul(gorgonia.NewConstant(2.0), unit)
	if err != nil {
		return nil, err
	}
	return gorgonia.Sub(doubled, gorgonia.NewConstant(1.0))
}

// Fwd rescales the coordinates by the domain bounds and applies the dense
// stack.
func (a *AttachedSolution) Fwd(coords ...*gorgonia.Node) (*gorgonia.Node, error) {
	xn, err := a.normalize(coords...)
	if err != nil {
		return nil, err
	}
	return a.dense.Fwd(xn, false)
}

// FwdGrads predicts the field and its derivatives against the named raw
// coordinates, chaining each seed through the domain rescaling. names pair
// up with coords positionally.
func (a *AttachedSolution) FwdGrads(names []string, specs []string, coords ...*gorgonia.Node) (*Field, error) {
	if len(names) != len(coords) {
		return nil, ErrCoordMismatch
	}
	xn, err := a.normalize(coords...)
	if err != nil {
		return nil, err
	}
	cs := make([]CoordSpec, len(names))
	for i, name := range names {
		cs[i] = CoordSpec{Name: name, Col: i, Scale: a.scales[i]}
	}
	return a.dense.FwdGrads(xn, cs, specs)
}

// Generator maps coordinates plus a latent code to a candidate solution.
type Generator struct {
	Dense *DenseNet
}

func NewGenerator(name string, layers []int, rng *rand.Rand) (*Generator, error) {
	d, err := NewDenseNet(name, layers, rng)
	if err != nil {
		return nil, err
	}
	return &Generator{Dense: d}, nil
}

type AttachedGenerator struct {
	dense *Attached
}

func (g *Generator) Attach(eg *gorgonia.ExprGraph) *AttachedGenerator {
	return &AttachedGenerator{dense: g.Dense.Attach(eg)}
}

func (a *AttachedGenerator) Trainables() gorgonia.Nodes { return a.dense.Trainables() }

func (a *AttachedGenerator) Fwd(x, t, z *gorgonia.Node) (*gorgonia.Node, error) {
	cat, err := gorgonia.Concat(1, x, t, z)
	if err != nil {
		return nil, err
	}
	return a.dense.Fwd(cat, false)
}

// FwdGrads samples the generator and propagates derivatives of the field
// against the coordinates; the latent columns are not differentiated.
func (a *AttachedGenerator) FwdGrads(specs []string, x, t, z *gorgonia.Node) (*Field, error) {
	cat, err := gorgonia.Concat(1, x, t, z)
	if err != nil {
		return nil, err
	}
	cs := []CoordSpec{
		{Name: "x", Col: 0, Scale: 1},
		{Name: "t", Col: 1, Scale: 1},
	}
	return a.dense.FwdGrads(cat, cs, specs)
}

// Discriminator scores a (coordinates, value) pair with a single unbounded
// logit; the sigmoid lives in the loss, not here.
type Discriminator struct {
	Dense *DenseNet
}

func NewDiscriminator(name string, layers []int, rng *rand.Rand) (*Discriminator, error) {
	d, err := NewDenseNet(name, layers, rng)
	if err != nil {
		return nil, err
	}
	return &Discriminator{Dense: d}, nil
}

type AttachedDiscriminator struct {
	dense *Attached
}

func (d *Discriminator) Attach(eg *gorgonia.ExprGraph) *AttachedDiscriminator {
	return &AttachedDiscriminator{dense: d.Dense.Attach(eg)}
}

func (a *AttachedDiscriminator) Trainables() gorgonia.Nodes { return a.dense.Trainables() }

func (a *AttachedDiscriminator) Fwd(x, t, u *gorgonia.Node) (*gorgonia.Node, error) {
	cat, err := gorgonia.Concat(1, x, t, u)
	if err != nil {
		return nil, err
	}
	return a.dense.Fwd(cat, false)
}

// Encoder infers an approximate posterior over the latent code given
// coordinates and an observed value. Its dense output width is
// 2*LatentDim: the first half is the mean, the second half passes through
// softplus to give a strictly positive scale.
type Encoder struct {
	Dense     *DenseNet
	LatentDim int
}

func NewEncoder(name string, layers []int, rng *rand.Rand) (*Encoder, error) {
	if len(layers) < 2 {
		return nil, ErrBadLayers
	}
	width := layers[len(layers)-1]
	if width%2 != 0 {
		return nil, ErrOddEncoderOutput
	}
	d, err := NewDenseNet(name, layers, rng)
	if err != nil {
		return nil, err
	}
	return &Encoder{Dense: d, LatentDim: width / 2}, nil
}

type AttachedEncoder struct {
	dense  *Attached
	latent int
}

func (e *Encoder) Attach(eg *gorgonia.ExprGraph) *AttachedEncoder {
	return &AttachedEncoder{dense: e.Dense.Attach(eg), latent: e.LatentDim}
}

func (a *AttachedEncoder) Trainables() gorgonia.Nodes { return a.dense.Trainables() }

// Fwd returns the posterior distribution and its mean for point estimates.
func (a *AttachedEncoder) Fwd(x, t, u *gorgonia.Node) (graph.Gaussian, *gorgonia.Node, error) {
	cat, err := gorgonia.Concat(1, x, t, u)
	if err != nil {
		return graph.Gaussian{}, nil, err
	}
	params, err := a.dense.Fwd(cat, false)
	if err != nil {
		return graph.Gaussian{}, nil, err
	}
	mean, err := gorgonia.Slice(params, nil, gorgonia.S(0, a.latent))
	if err != nil {
		return graph.Gaussian{}, nil, err
	}
	rawStd, err := gorgonia.Slice(params, nil, gorgonia.S(a.latent, 2*a.latent))
	if err != nil {
		return graph.Gaussian{}, nil, err
	}
	std, err := gorgonia.Softplus(rawStd)
	if err != nil {
		return graph.Gaussian{}, nil, err
	}
	return graph.Gaussian{Mean: mean, Std: std}, mean, nil
}
