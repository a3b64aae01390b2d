package models

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"

	"github.com/kmaitland/pgan/internal/data"
	"github.com/kmaitland/pgan/internal/graph"
	"github.com/kmaitland/pgan/internal/metrics"
	"github.com/kmaitland/pgan/internal/nets"
)

// DeepHPM learns hidden dynamics from data: a solution network fits the
// observed field over (x, y, t) while a PDE residual network discovers the
// right-hand side of the governing evolution equation. Both are trained
// jointly under one Adam objective.
type DeepHPM struct {
	solutionLayers []int
	pdeLayers      []int
	derivs         []string
	lower, upper   []float64

	sol *nets.SolutionNet
	pde *nets.PDENet

	sess   *graph.Session
	solver gorgonia.Solver
	built  bool

	trainProgs map[int]*boundProgram
	evalProgs  map[int]*graph.Program
	predProgs  map[int]*graph.Program
}

// boundProgram pairs a compiled program with the parameter nodes its
// solver steps.
type boundProgram struct {
	prog       *graph.Program
	trainables gorgonia.Nodes
}

func NewDeepHPM(solutionLayers, pdeLayers []int, derivs []string, lower, upper []float64) *DeepHPM {
	return &DeepHPM{
		solutionLayers: append([]int(nil), solutionLayers...),
		pdeLayers:      append([]int(nil), pdeLayers...),
		derivs:         append([]string(nil), derivs...),
		lower:          append([]float64(nil), lower...),
		upper:          append([]float64(nil), upper...),
		trainProgs:     make(map[int]*boundProgram),
		evalProgs:      make(map[int]*graph.Program),
		predProgs:      make(map[int]*graph.Program),
	}
}

func (m *DeepHPM) Kind() string { return "deephpm" }

// Build materializes sub-network parameters and the optimizer. Programs
// compile lazily per batch size on first use; they all share the
// parameters created here.
func (m *DeepHPM) Build(sess *graph.Session, cfg BuildConfig) error {
	if m.built {
		return ErrAlreadyBuilt
	}
	if cfg.LearningRate <= 0 {
		return ErrInvalidLearningRate
	}

	var err error
	if m.sol, err = nets.NewSolutionNet("solution", m.solutionLayers, m.lower, m.upper, sess.RNG()); err != nil {
		return errors.Wrap(err, "building solution network")
	}
	if m.pde, err = nets.NewPDENet("pde", m.pdeLayers, m.derivs, sess.RNG()); err != nil {
		return errors.Wrap(err, "building pde network")
	}

	m.solver = gorgonia.NewAdamSolver(gorgonia.WithLearnRate(cfg.LearningRate))
	m.sess = sess
	m.built = true
	return nil
}

func (m *DeepHPM) Networks() map[string][]nets.Param {
	if !m.built {
		return nil
	}
	return map[string][]nets.Param{
		"solution": m.sol.Dense.Params(),
		"pde":      m.pde.Dense.Params(),
	}
}

// SetParams loads checkpointed weights into the sub-networks.
func (m *DeepHPM) SetParams(networks map[string][]nets.Param) error {
	if !m.built {
		return ErrNotBuilt
	}
	if p, ok := networks["solution"]; ok {
		if err := m.sol.Dense.SetParams(p); err != nil {
			return err
		}
	}
	if p, ok := networks["pde"]; ok {
		if err := m.pde.Dense.SetParams(p); err != nil {
			return err
		}
	}
	return nil
}

// PDE exposes the trained residual network for reuse as frozen physics.
func (m *DeepHPM) PDE() *nets.PDENet { return m.pde }

// forward wires the solution and residual branches on one program,
// returning the predicted field, the residual, and the parameter nodes.
func (m *DeepHPM) forward(p *graph.Program, n int) (wPred, fPred *gorgonia.Node, trainables gorgonia.Nodes, err error) {
	x := p.Placeholder("x", n, 1)
	y := p.Placeholder("y", n, 1)
	t := p.Placeholder("t", n, 1)
	u := p.Placeholder("u", n, 1)
	v := p.Placeholder("v", n, 1)

	sol := m.sol.Attach(p.Graph)
	pde := m.pde.Attach(p.Graph)

	specs := append([]string{"t"}, m.derivs...)
	field, err := sol.FwdGrads([]string{"x", "y", "t"}, specs, x, y, t)
	if err != nil {
		return nil, nil, nil, err
	}
	wPred = field.Value()
	if fPred, err = pde.Residual(field, []*gorgonia.Node{u, v}); err != nil {
		return nil, nil, nil, err
	}
	trainables = append(sol.Trainables(), pde.Trainables()...)
	return wPred, fPred, trainables, nil
}

func (m *DeepHPM) losses(p *graph.Program, n int) (gorgonia.Nodes, gorgonia.Nodes, error) {
	wPred, fPred, trainables, err := m.forward(p, n)
	if err != nil {
		return nil, nil, err
	}
	w := p.Placeholder("w", n, 1)

	fit, err := mse(wPred, w)
	if err != nil {
		return nil, nil, err
	}
	if fit, err = scale(1000.0, fit); err != nil {
		return nil, nil, err
	}
	res, err := meanSquare(fPred)
	if err != nil {
		return nil, nil, err
	}
	if res, err = scale(1000.0, res); err != nil {
		return nil, nil, err
	}
	total, err := gorgonia.Add(fit, res)
	if err != nil {
		return nil, nil, err
	}

	p.Fetch("solution_loss", fit)
	p.Fetch("pde_loss", res)
	return gorgonia.Nodes{fit, res, total}, trainables, nil
}

func (m *DeepHPM) trainProgram(n int) (*boundProgram, error) {
	if bp, ok := m.trainProgs[n]; ok {
		return bp, nil
	}
	p := graph.NewProgram()
	nodes, trainables, err := m.losses(p, n)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling training graph for batch %d", n)
	}
	total := nodes[2]

	if _, err := gorgonia.Grad(total, trainables...); err != nil {
		return nil, errors.Wrap(err, "differentiating total loss")
	}
	p.Compile(m.sess, trainables)

	bp := &boundProgram{prog: p, trainables: trainables}
	m.trainProgs[n] = bp
	return bp, nil
}

func (m *DeepHPM) evalProgram(n int) (*graph.Program, error) {
	if p, ok := m.evalProgs[n]; ok {
		return p, nil
	}
	p := graph.NewProgram()
	if _, _, err := m.losses(p, n); err != nil {
		return nil, errors.Wrapf(err, "compiling evaluation graph for %d points", n)
	}
	p.Compile(m.sess, nil)
	m.evalProgs[n] = p
	return p, nil
}

// Train runs minibatch optimization. Every epoch shuffles all coupled
// arrays with one shared permutation, slices them into ceil(n/batch)
// minibatches, and runs one optimizer step per minibatch. When a held-out
// set is given it is evaluated whole once per epoch, without stepping.
func (m *DeepHPM) Train(train, test *data.FieldSet, cfg TrainConfig) (*metrics.History, error) {
	if !m.built {
		return nil, ErrNotBuilt
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if err := train.Check(); err != nil {
		return nil, errors.Wrap(err, "training set")
	}
	if test != nil {
		if err := test.Check(); err != nil {
			return nil, errors.Wrap(err, "held-out set")
		}
	}

	names := []string{"solution_loss", "pde_loss"}
	if test != nil {
		names = append(names, "test_solution_loss", "test_pde_loss")
	}
	hist := metrics.NewHistory(names...)
	logger := cfg.logger()

	n := train.Len()
	fitMeter := metrics.NewLossMeter("solution_loss")
	resMeter := metrics.NewLossMeter("pde_loss")

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		shuffled, err := data.Shuffle(m.sess.RNG(), train.X, train.Y, train.T, train.U, train.V, train.W)
		if err != nil {
			return nil, errors.Wrapf(err, "shuffling on epoch %d", epoch)
		}
		X, Y, T, U, V, W := shuffled[0], shuffled[1], shuffled[2], shuffled[3], shuffled[4], shuffled[5]

		fitMeter.Reset()
		resMeter.Reset()

		for _, b := range data.Batches(n, cfg.BatchSize) {
			bp, err := m.trainProgram(b.Len())
			if err != nil {
				return nil, err
			}
			feeds := map[string][]float64{
				"x": X[b.Start:b.End], "y": Y[b.Start:b.End], "t": T[b.Start:b.End],
				"u": U[b.Start:b.End], "v": V[b.Start:b.End], "w": W[b.Start:b.End],
			}
			for name, vals := range feeds {
				if err := bp.prog.FeedColumn(name, vals); err != nil {
					return nil, err
				}
			}

			if err := bp.prog.Run(); err != nil {
				return nil, errors.Wrapf(err, "optimizer step on epoch %d", epoch)
			}
			fit, err := bp.prog.Scalar("solution_loss")
			if err != nil {
				return nil, err
			}
			res, err := bp.prog.Scalar("pde_loss")
			if err != nil {
				return nil, err
			}
			if err := m.solver.Step(gorgonia.NodesToValueGrads(bp.trainables)); err != nil {
				return nil, errors.Wrapf(err, "solver step on epoch %d", epoch)
			}
			bp.prog.Reset()

			fitMeter.Observe(fit)
			resMeter.Observe(res)
		}

		row := []float64{fitMeter.Mean(), resMeter.Mean()}
		msg := fmt.Sprintf("%06d %f %f", epoch, row[0], row[1])

		if test != nil {
			testFit, testRes, err := m.evaluate(test)
			if err != nil {
				return nil, errors.Wrapf(err, "held-out evaluation on epoch %d", epoch)
			}
			row = append(row, testFit, testRes)
			msg += fmt.Sprintf(" %f %f", testFit, testRes)
		}

		if cfg.Verbose {
			logger.Print(msg)
		}
		hist.Append(epoch, row...)
		if cfg.OnEpoch != nil {
			losses := make(map[string]float64, len(names))
			for i, name := range names {
				losses[name] = row[i]
			}
			cfg.OnEpoch(EpochStats{Epoch: epoch, Losses: losses})
		}
	}

	return hist, nil
}

func (m *DeepHPM) evaluate(test *data.FieldSet) (fit, res float64, err error) {
	p, err := m.evalProgram(test.Len())
	if err != nil {
		return 0, 0, err
	}
	feeds := map[string][]float64{
		"x": test.X, "y": test.Y, "t": test.T,
		"u": test.U, "v": test.V, "w": test.W,
	}
	for name, vals := range feeds {
		if err := p.FeedColumn(name, vals); err != nil {
			return 0, 0, err
		}
	}
	if err := p.Run(); err != nil {
		return 0, 0, err
	}
	defer p.Reset()
	if fit, err = p.Scalar("solution_loss"); err != nil {
		return 0, 0, err
	}
	if res, err = p.Scalar("pde_loss"); err != nil {
		return 0, 0, err
	}
	return fit, res, nil
}

// Predict runs the solution branch on raw coordinates.
func (m *DeepHPM) Predict(x, y, t []float64) ([]float64, error) {
	if !m.built {
		return nil, ErrNotBuilt
	}
	if len(y) != len(x) || len(t) != len(x) {
		return nil, errors.Wrap(data.ErrLengthMismatch, "prediction coordinates")
	}
	n := len(x)

	p, ok := m.predProgs[n]
	if !ok {
		p = graph.NewProgram()
		xn := p.Placeholder("x", n, 1)
		yn := p.Placeholder("y", n, 1)
		tn := p.Placeholder("t", n, 1)
		wPred, err := m.sol.Attach(p.Graph).Fwd(xn, yn, tn)
		if err != nil {
			return nil, errors.Wrap(err, "compiling prediction graph")
		}
		p.Fetch("w", wPred)
		p.Compile(m.sess, nil)
		m.predProgs[n] = p
	}

	for name, vals := range map[string][]float64{"x": x, "y": y, "t": t} {
		if err := p.FeedColumn(name, vals); err != nil {
			return nil, err
		}
	}
	if err := p.Run(); err != nil {
		return nil, err
	}
	defer p.Reset()
	return p.Column("w")
}
