package graph

import (
	"math"

	"gorgonia.org/gorgonia"
)

// Gaussian is a diagonal Gaussian over graph nodes, represented as a plain
// (mean, scale) value pair. Std must be strictly positive; the encoder
// guarantees this by passing its raw scale output through softplus before
// construction. Sample and LogProb are free functions over the pair so the
// engine differentiates through them like any other op.
type Gaussian struct {
	Mean *gorgonia.Node
	Std  *gorgonia.Node
}

// Sample draws via the reparameterization trick: mean + std ⊙ eps, where
// eps is standard-normal noise fed by the host.
func Sample(d Gaussian, eps *gorgonia.Node) (*gorgonia.Node, error) {
	scaled, err := gorgonia.HadamardProd(d.Std, eps)
	if err != nil {
		return nil, err
	}
	return gorgonia.Add(d.Mean, scaled)
}

// LogProb returns the elementwise log density of z under d:
// -log(std) - log(2π)/2 - ((z - mean)/std)² / 2.
func LogProb(d Gaussian, z *gorgonia.Node) (*gorgonia.Node, error) {
	diff, err := gorgonia.Sub(z, d.Mean)
	if err != nil {
		return nil, err
	}
	unit, err := gorgonia.HadamardDiv(diff, d.Std)
	if err != nil {
		return nil, err
	}
	sq, err := gorgonia.Square(unit)
	if err != nil {
		return nil, err
	}
	quad, err := gorgonia.Mul(gorgonia.NewConstant(0.5), sq)
	if err != nil {
		return nil, err
	}
	logStd, err := gorgonia.Log(d.Std)
	if err != nil {
		return nil, err
	}
	partial, err := gorgonia.Add(logStd, quad)
	if err != nil {
		return nil, err
	}
	full, err := gorgonia.Add(partial, gorgonia.NewConstant(0.5*math.Log(2*math.Pi)))
	if err != nil {
		return nil, err
	}
	return gorgonia.Neg(full)
}
