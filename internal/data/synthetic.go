package data

import (
	"math"

	"golang.org/x/exp/rand"
)

// TravelingWave samples u(x,t) = sin(2π(x - c t)) on [0,1]×[0,1], an exact
// solution of the advection equation u_t + c u_x = 0. Used by the CLI
// quickstart and by tests that need a well-posed boundary/collocation pair.
type TravelingWave struct {
	C float64
}

func (w TravelingWave) Eval(x, t float64) float64 {
	return math.Sin(2 * math.Pi * (x - w.C*t))
}

// Boundary draws n supervised samples of the wave at random coordinates.
func (w TravelingWave) Boundary(rng *rand.Rand, n int) *BoundarySet {
	s := &BoundarySet{
		X: make([]float64, n),
		T: make([]float64, n),
		U: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.X[i] = rng.Float64()
		s.T[i] = rng.Float64()
		s.U[i] = w.Eval(s.X[i], s.T[i])
	}
	return s
}

// Collocation draws n unlabeled residual points in the domain interior.
func (w TravelingWave) Collocation(rng *rand.Rand, n int) *CollocationSet {
	s := &CollocationSet{
		X: make([]float64, n),
		T: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.X[i] = rng.Float64()
		s.T[i] = rng.Float64()
	}
	return s
}

// RotatingField is a scalar blob advected by rigid rotation on
// [-1,1]²×[0,1]: a Gaussian bump centered at radius 0.5 circles the
// origin at angular velocity Omega, carried by the velocity field
// u = -Ω·y, v = Ω·x. Its transport equation w_t + u·w_x + v·w_y = 0
// gives the hidden-dynamics benchmark a known ground truth.
type RotatingField struct {
	Omega float64
}

func (f RotatingField) Eval(x, y, t float64) (w, u, v float64) {
	cx := 0.5 * math.Cos(f.Omega*t)
	cy := 0.5 * math.Sin(f.Omega*t)
	dx := x - cx
	dy := y - cy
	w = math.Exp(-(dx*dx + dy*dy) / 0.1)
	return w, -f.Omega * y, f.Omega * x
}

// Sample draws n labeled field observations at random coordinates.
func (f RotatingField) Sample(rng *rand.Rand, n int) *FieldSet {
	s := &FieldSet{
		X: make([]float64, n),
		Y: make([]float64, n),
		T: make([]float64, n),
		U: make([]float64, n),
		V: make([]float64, n),
		W: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.X[i] = 2*rng.Float64() - 1
		s.Y[i] = 2*rng.Float64() - 1
		s.T[i] = rng.Float64()
		s.W[i], s.U[i], s.V[i] = f.Eval(s.X[i], s.Y[i], s.T[i])
	}
	return s
}
