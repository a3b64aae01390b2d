package models

import (
	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"

	"github.com/kmaitland/pgan/internal/data"
	"github.com/kmaitland/pgan/internal/graph"
	"github.com/kmaitland/pgan/internal/metrics"
	"github.com/kmaitland/pgan/internal/nets"
	"github.com/kmaitland/pgan/internal/physics"
)

// PINN fits a solution network to boundary observations while penalizing
// the residual of a known (or previously learned) governing equation on
// collocation points. Only the solution network's parameters are
// optimized; a learned residual network stays frozen.
type PINN struct {
	solutionLayers []int
	lower, upper   []float64
	phys           physics.Model

	sol *nets.SolutionNet

	sess   *graph.Session
	solver gorgonia.Solver
	built  bool

	trainProgs map[[2]int]*boundProgram
	predProgs  map[int]*graph.Program
}

func NewPINN(solutionLayers []int, lower, upper []float64, phys physics.Model) *PINN {
	return &PINN{
		solutionLayers: append([]int(nil), solutionLayers...),
		lower:          append([]float64(nil), lower...),
		upper:          append([]float64(nil), upper...),
		phys:           phys,
		trainProgs:     make(map[[2]int]*boundProgram),
		predProgs:      make(map[int]*graph.Program),
	}
}

func (m *PINN) Kind() string { return "pinn" }

func (m *PINN) Build(sess *graph.Session, cfg BuildConfig) error {
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

	m.solver = gorgonia.NewAdamSolver(gorgonia.WithLearnRate(cfg.LearningRate))
	m.sess = sess
	m.built = true
	return nil
}

func (m *PINN) Networks() map[string][]nets.Param {
	if !m.built {
		return nil
	}
	return map[string][]nets.Param{"solution": m.sol.Dense.Params()}
}

func (m *PINN) SetParams(networks map[string][]nets.Param) error {
	if !m.built {
		return ErrNotBuilt
	}
	if p, ok := networks["solution"]; ok {
		return m.sol.Dense.SetParams(p)
	}
	return nil
}

// trainProgram compiles the joint objective for a (boundary, collocation)
// batch-size pair. The residual model may attach its own parameter nodes
// to the graph; only the solution network's nodes are handed to the
// optimizer.
func (m *PINN) trainProgram(nb, nc int) (*boundProgram, error) {
	key := [2]int{nb, nc}
	if bp, ok := m.trainProgs[key]; ok {
		return bp, nil
	}

	p := graph.NewProgram()
	xb := p.Placeholder("xb", nb, 1)
	tb := p.Placeholder("tb", nb, 1)
	ub := p.Placeholder("ub", nb, 1)
	xc := p.Placeholder("xc", nc, 1)
	tc := p.Placeholder("tc", nc, 1)

	sol := m.sol.Attach(p.Graph)

	uPredB, err := sol.Fwd(xb, tb)
	if err != nil {
		return nil, errors.Wrap(err, "boundary branch")
	}
	bndLoss, err := mse(uPredB, ub)
	if err != nil {
		return nil, err
	}
	if bndLoss, err = scale(1000.0, bndLoss); err != nil {
		return nil, err
	}

	field, err := sol.FwdGrads([]string{"x", "t"}, m.phys.Derivs(), xc, tc)
	if err != nil {
		return nil, errors.Wrap(err, "collocation branch")
	}
	resLoss, err := m.phys.Loss(field)
	if err != nil {
		return nil, errors.Wrapf(err, "%s residual", m.phys.Name())
	}
	if resLoss, err = scale(1000.0, resLoss); err != nil {
		return nil, err
	}

	total, err := gorgonia.Add(bndLoss, resLoss)
	if err != nil {
		return nil, err
	}

	p.Fetch("boundary_loss", bndLoss)
	p.Fetch("residual_loss", resLoss)

	trainables := sol.Trainables()
	if _, err := gorgonia.Grad(total, trainables...); err != nil {
		return nil, errors.Wrap(err, "differentiating total loss")
	}
	p.Compile(m.sess, trainables)

	bp := &boundProgram{prog: p, trainables: trainables}
	m.trainProgs[key] = bp
	return bp, nil
}

// Train pairs boundary and collocation minibatches: the collocation set
// is partitioned by the configured batch size, and the boundary set into
// the same number of batches. Each pair feeds one optimizer step. Both
// sets are shuffled independently every epoch.
func (m *PINN) Train(bnd *data.BoundarySet, coll *data.CollocationSet, cfg TrainConfig) (*metrics.History, error) {
	if !m.built {
		return nil, ErrNotBuilt
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if err := bnd.Check(); err != nil {
		return nil, errors.Wrap(err, "boundary set")
	}
	if err := coll.Check(); err != nil {
		return nil, errors.Wrap(err, "collocation set")
	}

	hist := metrics.NewHistory("boundary_loss", "residual_loss")
	logger := cfg.logger()

	nc := coll.Len()
	nb := bnd.Len()
	collBatches := data.Batches(nc, cfg.BatchSize)
	bndBatches := pairedBatches(nb, len(collBatches))

	bndMeter := metrics.NewLossMeter("boundary_loss")
	resMeter := metrics.NewLossMeter("residual_loss")

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		sb, err := data.Shuffle(m.sess.RNG(), bnd.X, bnd.T, bnd.U)
		if err != nil {
			return nil, errors.Wrapf(err, "shuffling boundary set on epoch %d", epoch)
		}
		sc, err := data.Shuffle(m.sess.RNG(), coll.X, coll.T)
		if err != nil {
			return nil, errors.Wrapf(err, "shuffling collocation set on epoch %d", epoch)
		}
		XB, TB, UB := sb[0], sb[1], sb[2]
		XC, TC := sc[0], sc[1]

		bndMeter.Reset()
		resMeter.Reset()

		for i, cb := range collBatches {
			bb := bndBatches[i]
			bp, err := m.trainProgram(bb.Len(), cb.Len())
			if err != nil {
				return nil, err
			}

			feeds := map[string][]float64{
				"xb": XB[bb.Start:bb.End], "tb": TB[bb.Start:bb.End], "ub": UB[bb.Start:bb.End],
				"xc": XC[cb.Start:cb.End], "tc": TC[cb.Start:cb.End],
			}
			for name, vals := range feeds {
				if err := bp.prog.FeedColumn(name, vals); err != nil {
					return nil, err
				}
			}

			if err := bp.prog.Run(); err != nil {
				return nil, errors.Wrapf(err, "optimizer step on epoch %d", epoch)
			}
			bl, err := bp.prog.Scalar("boundary_loss")
			if err != nil {
				return nil, err
			}
			rl, err := bp.prog.Scalar("residual_loss")
			if err != nil {
				return nil, err
			}
			if err := m.solver.Step(gorgonia.NodesToValueGrads(bp.trainables)); err != nil {
				return nil, errors.Wrapf(err, "solver step on epoch %d", epoch)
			}
			bp.prog.Reset()

			bndMeter.Observe(bl)
			resMeter.Observe(rl)
		}

		if cfg.Verbose {
			logger.Printf("%06d %f %f", epoch, bndMeter.Mean(), resMeter.Mean())
		}
		hist.Append(epoch, bndMeter.Mean(), resMeter.Mean())
		if cfg.OnEpoch != nil {
			cfg.OnEpoch(EpochStats{Epoch: epoch, Losses: map[string]float64{
				"boundary_loss": bndMeter.Mean(),
				"residual_loss": resMeter.Mean(),
			}})
		}
	}

	return hist, nil
}

// pairedBatches partitions n boundary points into exactly count batches.
// The boundary batch size is ceil(n/count); when that leaves fewer than
// count non-empty ranges, the last range repeats so every collocation
// batch has a boundary partner.
func pairedBatches(n, count int) []data.Range {
	bb := (n + count - 1) / count
	ranges := data.Batches(n, bb)
	for len(ranges) < count {
		ranges = append(ranges, ranges[len(ranges)-1])
	}
	return ranges
}

// Predict runs the solution network on raw coordinates.
func (m *PINN) Predict(x, t []float64) ([]float64, error) {
	if !m.built {
		return nil, ErrNotBuilt
	}
	if len(t) != len(x) {
		return nil, errors.Wrap(data.ErrLengthMismatch, "prediction coordinates")
	}
	n := len(x)

	p, ok := m.predProgs[n]
	if !ok {
		p = graph.NewProgram()
		xn := p.Placeholder("x", n, 1)
		tn := p.Placeholder("t", n, 1)
		uPred, err := m.sol.Attach(p.Graph).Fwd(xn, tn)
		if err != nil {
			return nil, errors.Wrap(err, "compiling prediction graph")
		}
		p.Fetch("u", uPred)
		p.Compile(m.sess, nil)
		m.predProgs[n] = p
	}

	for name, vals := range map[string][]float64{"x": x, "t": t} {
		if err := p.FeedColumn(name, vals); err != nil {
			return nil, err
		}
	}
	if err := p.Run(); err != nil {
		return nil, err
	}
	defer p.Reset()
	return p.Column("u")
}
