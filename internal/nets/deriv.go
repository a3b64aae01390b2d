package nets

import (
	"sort"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// FieldValues exposes a predicted field together with its derivatives
// against the coordinates that produced it. Specs are coordinate names:
// "t" or "x" for first order, "xx" or "xy" for second order.
type FieldValues interface {
	Value() *gorgonia.Node
	Deriv(spec string) (*gorgonia.Node, error)
}

// Field is the result of a forward pass with derivative propagation.
type Field struct {
	out    *gorgonia.Node
	derivs map[string]*gorgonia.Node
}

func (f *Field) Value() *gorgonia.Node { return f.out }

// Deriv returns the derivative node for a spec such as "t", "x" or "xx".
func (f *Field) Deriv(spec string) (*gorgonia.Node, error) {
	d, ok := f.derivs[spec]
	if !ok {
		return nil, ErrUnknownDerivative
	}
	return d, nil
}

// CoordSpec marks one input column as a differentiable coordinate. Scale
// is the chain-rule factor of any affine rescaling applied to the column
// before the dense stack; 1 when the column is fed raw.
type CoordSpec struct {
	Name  string
	Col   int
	Scale float64
}

type derivPair struct {
	spec, a, b string
}

// FwdGrads runs the dense stack on x and propagates derivatives of the
// output with respect to the requested coordinates forward through the
// layers, alongside the activations. The derivatives come out as ordinary
// expressions in the parameters, so a residual loss built from them is
// reachable by one reverse pass.
//
// Per hidden layer h = tanh(z), z = p·W + b with previous activation p:
//
//	z'  = p'·W     h'  = (1 − h²) ⊙ z'
//	z'' = p''·W    h'' = (1 − h²) ⊙ z'' − 2·h ⊙ h'_a ⊙ z'_b
//
// seeded at the input with each coordinate's scaled one-hot row. The
// output layer must be linear, and at least one hidden layer is required
// when any derivative is requested.
func (a *Attached) FwdGrads(x *gorgonia.Node, coords []CoordSpec, specs []string) (*Field, error) {
	byName := make(map[string]CoordSpec, len(coords))
	for _, c := range coords {
		byName[c.Name] = c
	}

	firstNeeded := make(map[string]bool)
	var pairs []derivPair
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if seen[spec] {
			continue
		}
		seen[spec] = true
		switch len(spec) {
		case 1:
			if _, ok := byName[spec]; !ok {
				return nil, ErrUnknownDerivative
			}
			firstNeeded[spec] = true
		case 2:
			pa, pb := spec[:1], spec[1:]
			if _, ok := byName[pa]; !ok {
				return nil, ErrUnknownDerivative
			}
			if _, ok := byName[pb]; !ok {
				return nil, ErrUnknownDerivative
			}
			firstNeeded[pa] = true
			firstNeeded[pb] = true
			pairs = append(pairs, derivPair{spec: spec, a: pa, b: pb})
		default:
			return nil, ErrUnknownDerivative
		}
	}
	if len(firstNeeded) == 0 {
		out, err := a.Fwd(x, false)
		if err != nil {
			return nil, err
		}
		return &Field{out: out}, nil
	}
	if len(a.ws) < 2 {
		return nil, ErrBadLayers
	}

	names := make([]string, 0, len(firstNeeded))
	for name := range firstNeeded {
		names = append(names, name)
	}
	sort.Strings(names)

	g := x.Graph()
	rows := x.Shape()[0]
	din := a.net.sizes[0]
	onesB := make([]float64, rows)
	for i := range onesB {
		onesB[i] = 1
	}
	// Column of ones lifts the (1, width) input seeds to full batch rows,
	// so every later op is a plain same-shape product.
	ones := gorgonia.NodeFromAny(g,
		tensor.New(tensor.WithShape(rows, 1), tensor.WithBacking(onesB)),
		gorgonia.WithName(a.net.name+"_dones"))

	zp := make(map[string]*gorgonia.Node, len(names))
	zpp := make(map[string]*gorgonia.Node, len(pairs))
	dh := make(map[string]*gorgonia.Node, len(names))
	d2h := make(map[string]*gorgonia.Node, len(pairs))

	out := x
	last := len(a.ws) - 1
	for i := range a.ws {
		xw, err := gorgonia.Mul(out, a.ws[i])
		if err != nil {
			return nil, err
		}
		z, err := gorgonia.BroadcastAdd(xw, a.bs[i], nil, []byte{0})
		if err != nil {
			return nil, err
		}

		if i == 0 {
			for _, name := range names {
				c := byName[name]
				seedB := make([]float64, din)
				seedB[c.Col] = c.Scale
				seed := gorgonia.NodeFromAny(g,
					tensor.New(tensor.WithShape(1, din), tensor.WithBacking(seedB)),
					gorgonia.WithName(a.net.name+"_dseed_"+name))
				row, err := gorgonia.Mul(seed, a.ws[0])
				if err != nil {
					return nil, err
				}
				if zp[name], err = gorgonia.Mul(ones, row); err != nil {
					return nil, err
				}
			}
		} else {
			for _, name := range names {
				if zp[name], err = gorgonia.Mul(dh[name], a.ws[i]); err != nil {
					return nil, err
				}
			}
			for _, pr := range pairs {
				if zpp[pr.spec], err = gorgonia.Mul(d2h[pr.spec], a.ws[i]); err != nil {
					return nil, err
				}
			}
		}

		if i == last {
			out = z
			continue
		}

		h, err := gorgonia.Tanh(z)
		if err != nil {
			return nil, err
		}
		sq, err := gorgonia.Square(h)
		if err != nil {
			return nil, err
		}
		gain, err := gorgonia.Sub(gorgonia.NewConstant(1.0), sq)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if dh[name], err = gorgonia.HadamardProd(gain, zp[name]); err != nil {
				return nil, err
			}
		}
		for _, pr := range pairs {
			cross, err := gorgonia.HadamardProd(h, dh[pr.a])
			if err != nil {
				return nil, err
			}
			if cross, err = gorgonia.HadamardProd(cross, zp[pr.b]); err != nil {
				return nil, err
			}
			if cross, err = gorgonia.Mul(gorgonia.NewConstant(-2.0), cross); err != nil {
				return nil, err
			}
			if prev := zpp[pr.spec]; prev != nil {
				chain, err := gorgonia.HadamardProd(gain, prev)
				if err != nil {
					return nil, err
				}
				if d2h[pr.spec], err = gorgonia.Add(chain, cross); err != nil {
					return nil, err
				}
			} else {
				// Seeds are constant in the input, so the curvature term
				// alone enters at the first hidden layer.
				d2h[pr.spec] = cross
			}
		}
		out = h
	}

	derivs := make(map[string]*gorgonia.Node, len(names)+len(pairs))
	for _, name := range names {
		derivs[name] = zp[name]
	}
	for _, pr := range pairs {
		derivs[pr.spec] = zpp[pr.spec]
	}
	return &Field{out: out, derivs: derivs}, nil
}
