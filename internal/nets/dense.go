package nets

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Param is one named trainable tensor, exposed for checkpointing and for
// loading saved weights back into a network.
type Param struct {
	Name  string
	Value *tensor.Dense
}

// DenseNet is a stack of fully-connected layers with tanh hidden
// activations. The network owns its parameters as host tensors; Attach
// creates graph nodes that share the same backing storage, so any number
// of compiled programs see one parameter set and a solver step through one
// program updates them all.
//
// sizes lists every layer width including the input, e.g. [3, 50, 50, 1].
type DenseNet struct {
	name  string
	sizes []int
	ws    []*tensor.Dense
	bs    []*tensor.Dense
}

func NewDenseNet(name string, sizes []int, rng *rand.Rand) (*DenseNet, error) {
	if len(sizes) < 2 {
		return nil, ErrBadLayers
	}
	d := &DenseNet{name: name, sizes: append([]int(nil), sizes...)}
	for i := 0; i < len(sizes)-1; i++ {
		in, out := sizes[i], sizes[i+1]
		// Glorot uniform.
		limit := math.Sqrt(6.0 / float64(in+out))
		u := distuv.Uniform{Min: -limit, Max: limit, Src: rng}
		wb := make([]float64, in*out)
		for j := range wb {
			wb[j] = u.Rand()
		}
		d.ws = append(d.ws, tensor.New(tensor.WithShape(in, out), tensor.WithBacking(wb)))
		d.bs = append(d.bs, tensor.New(tensor.WithShape(1, out), tensor.WithBacking(make([]float64, out))))
	}
	return d, nil
}

func (d *DenseNet) Name() string   { return d.name }
func (d *DenseNet) InputDim() int  { return d.sizes[0] }
func (d *DenseNet) OutputDim() int { return d.sizes[len(d.sizes)-1] }

// Params returns the named parameters in a stable order.
func (d *DenseNet) Params() []Param {
	out := make([]Param, 0, 2*len(d.ws))
	for i := range d.ws {
		out = append(out, Param{Name: fmt.Sprintf("%s_w%d", d.name, i), Value: d.ws[i]})
		out = append(out, Param{Name: fmt.Sprintf("%s_b%d", d.name, i), Value: d.bs[i]})
	}
	return out
}

// SetParams copies checkpointed values into the matching parameters.
func (d *DenseNet) SetParams(params []Param) error {
	own := make(map[string]*tensor.Dense, 2*len(d.ws))
	for _, p := range d.Params() {
		own[p.Name] = p.Value
	}
	for _, p := range params {
		dst, ok := own[p.Name]
		if !ok {
			return ErrUnknownParam
		}
		if !dst.Shape().Eq(p.Value.Shape()) {
			return ErrShapeMismatch
		}
		copy(dst.Data().([]float64), p.Value.Data().([]float64))
	}
	return nil
}

// Attached is a DenseNet bound to one expression graph.
type Attached struct {
	net *DenseNet
	ws  []*gorgonia.Node
	bs  []*gorgonia.Node
}

// Attach creates weight and bias nodes in g backed by the network's own
// tensors.
func (d *DenseNet) Attach(g *gorgonia.ExprGraph) *Attached {
	a := &Attached{net: d}
	for i := range d.ws {
		in, out := d.sizes[i], d.sizes[i+1]
		a.ws = append(a.ws, gorgonia.NewMatrix(g, tensor.Float64,
			gorgonia.WithShape(in, out),
			gorgonia.WithName(fmt.Sprintf("%s_w%d", d.name, i)),
			gorgonia.WithValue(d.ws[i])))
		a.bs = append(a.bs, gorgonia.NewMatrix(g, tensor.Float64,
			gorgonia.WithShape(1, out),
			gorgonia.WithName(fmt.Sprintf("%s_b%d", d.name, i)),
			gorgonia.WithValue(d.bs[i])))
	}
	return a
}

// Trainables returns the attached parameter nodes for optimizer scoping.
func (a *Attached) Trainables() gorgonia.Nodes {
	out := make(gorgonia.Nodes, 0, 2*len(a.ws))
	for i := range a.ws {
		out = append(out, a.ws[i], a.bs[i])
	}
	return out
}

// Fwd runs the dense stack on x. Hidden layers use tanh; the output layer
// is linear unless activateOutput is set.
func (a *Attached) Fwd(x *gorgonia.Node, activateOutput bool) (*gorgonia.Node, error) {
	out := x
	last := len(a.ws) - 1
	for i := range a.ws {
		xw, err := gorgonia.Mul(out, a.ws[i])
		if err != nil {
			return nil, err
		}
		h, err := gorgonia.BroadcastAdd(xw, a.bs[i], nil, []byte{0})
		if err != nil {
			return nil, err
		}
		if i < last || activateOutput {
			if out, err = gorgonia.Tanh(h); err != nil {
				return nil, err
			}
		} else {
			out = h
		}
	}
	return out, nil
}
