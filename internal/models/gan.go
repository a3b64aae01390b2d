package models

import (
	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"

	"github.com/kmaitland/pgan/internal/data"
	"github.com/kmaitland/pgan/internal/graph"
	"github.com/kmaitland/pgan/internal/metrics"
	"github.com/kmaitland/pgan/internal/nets"
	"github.com/kmaitland/pgan/internal/physics"
	"github.com/kmaitland/pgan/internal/storage"
)

// GAN learns a stochastic solution u(x, t, z) of a governing equation from
// boundary observations. A generator proposes field values from coordinates
// plus a latent code, a discriminator scores (coordinates, value) pairs,
// and a variational encoder keeps the latent code informative by inferring
// it back from generated samples. The equation residual on collocation
// points regularizes the generator toward physical solutions.
//
// Label convention: real pairs carry label 0 and generated pairs label 1,
// so the generator's adversarial objective drives its samples toward
// label 0.
type GAN struct {
	genLayers  []int
	discLayers []int
	encLayers  []int
	phys       physics.Model

	// entropyReg weights the variational penalty as (1 - entropyReg);
	// pdeBeta weights the residual penalty.
	entropyReg float64
	pdeBeta    float64

	gen  *nets.Generator
	disc *nets.Discriminator
	enc  *nets.Encoder

	sess       *graph.Session
	genSolver  gorgonia.Solver
	discSolver gorgonia.Solver
	built      bool

	genProgs  map[[2]int]*boundProgram
	discProgs map[int]*boundProgram
	predProgs map[int]*graph.Program
}

func NewGAN(genLayers, discLayers, encLayers []int, phys physics.Model, entropyReg, pdeBeta float64) *GAN {
	return &GAN{
		genLayers:  append([]int(nil), genLayers...),
		discLayers: append([]int(nil), discLayers...),
		encLayers:  append([]int(nil), encLayers...),
		phys:       phys,
		entropyReg: entropyReg,
		pdeBeta:    pdeBeta,
		genProgs:   make(map[[2]int]*boundProgram),
		discProgs:  make(map[int]*boundProgram),
		predProgs:  make(map[int]*graph.Program),
	}
}

func (m *GAN) Kind() string { return "gan" }

// LatentDim is the width of the generator's latent input, derived from the
// encoder's output width.
func (m *GAN) LatentDim() int {
	if m.enc == nil {
		return m.encLayers[len(m.encLayers)-1] / 2
	}
	return m.enc.LatentDim
}

func (m *GAN) Build(sess *graph.Session, cfg BuildConfig) error {
	if m.built {
		return ErrAlreadyBuilt
	}
	if cfg.GenLearningRate <= 0 || cfg.DiscLearningRate <= 0 {
		return ErrInvalidLearningRate
	}

	var err error
	if m.enc, err = nets.NewEncoder("encoder", m.encLayers, sess.RNG()); err != nil {
		return errors.Wrap(err, "building encoder")
	}
	if m.gen, err = nets.NewGenerator("generator", m.genLayers, sess.RNG()); err != nil {
		return errors.Wrap(err, "building generator")
	}
	if m.disc, err = nets.NewDiscriminator("discriminator", m.discLayers, sess.RNG()); err != nil {
		return errors.Wrap(err, "building discriminator")
	}

	m.genSolver = gorgonia.NewAdamSolver(gorgonia.WithLearnRate(cfg.GenLearningRate))
	m.discSolver = gorgonia.NewAdamSolver(gorgonia.WithLearnRate(cfg.DiscLearningRate))
	m.sess = sess
	m.built = true
	return nil
}

func (m *GAN) Networks() map[string][]nets.Param {
	if !m.built {
		return nil
	}
	return map[string][]nets.Param{
		"generator":     m.gen.Dense.Params(),
		"discriminator": m.disc.Dense.Params(),
		"encoder":       m.enc.Dense.Params(),
	}
}

func (m *GAN) SetParams(networks map[string][]nets.Param) error {
	if !m.built {
		return ErrNotBuilt
	}
	targets := map[string]*nets.DenseNet{
		"generator":     m.gen.Dense,
		"discriminator": m.disc.Dense,
		"encoder":       m.enc.Dense,
	}
	for name, dense := range targets {
		if p, ok := networks[name]; ok {
			if err := dense.SetParams(p); err != nil {
				return errors.Wrapf(err, "loading %s", name)
			}
		}
	}
	return nil
}

// genProgram compiles the generator objective for a (boundary,
// collocation) batch-size pair: adversarial term on generated boundary
// samples, variational term tying the latent prior draw to the encoder's
// posterior, and the weighted equation residual on collocation points.
// The discriminator's nodes attach but stay out of the optimizer.
func (m *GAN) genProgram(nb, nc int) (*boundProgram, error) {
	key := [2]int{nb, nc}
	if bp, ok := m.genProgs[key]; ok {
		return bp, nil
	}

	L := m.LatentDim()
	p := graph.NewProgram()
	xb := p.Placeholder("xb", nb, 1)
	tb := p.Placeholder("tb", nb, 1)
	zb := p.Placeholder("zb", nb, L)
	xc := p.Placeholder("xc", nc, 1)
	tc := p.Placeholder("tc", nc, 1)
	zc := p.Placeholder("zc", nc, L)

	gen := m.gen.Attach(p.Graph)
	enc := m.enc.Attach(p.Graph)
	disc := m.disc.Attach(p.Graph)

	ubSol, err := gen.Fwd(xb, tb, zb)
	if err != nil {
		return nil, errors.Wrap(err, "generator boundary branch")
	}
	q, _, err := enc.Fwd(xb, tb, ubSol)
	if err != nil {
		return nil, errors.Wrap(err, "encoder branch")
	}
	dFake, err := disc.Fwd(xb, tb, ubSol)
	if err != nil {
		return nil, errors.Wrap(err, "discriminator branch")
	}

	adv, err := sigmoidCE(dFake, 0)
	if err != nil {
		return nil, err
	}

	logq, err := graph.LogProb(q, zb)
	if err != nil {
		return nil, err
	}
	meanLogq, err := gorgonia.Mean(logq)
	if err != nil {
		return nil, err
	}
	varLoss, err := scale(1.0-m.entropyReg, meanLogq)
	if err != nil {
		return nil, err
	}

	field, err := gen.FwdGrads(m.phys.Derivs(), xc, tc, zc)
	if err != nil {
		return nil, errors.Wrap(err, "generator collocation branch")
	}
	pdeLoss, err := m.phys.Loss(field)
	if err != nil {
		return nil, errors.Wrapf(err, "%s residual", m.phys.Name())
	}
	if pdeLoss, err = scale(m.pdeBeta, pdeLoss); err != nil {
		return nil, err
	}

	total, err := gorgonia.Add(adv, varLoss)
	if err != nil {
		return nil, err
	}
	if total, err = gorgonia.Add(total, pdeLoss); err != nil {
		return nil, err
	}

	p.Fetch("gen_loss", adv)
	p.Fetch("var_loss", varLoss)
	p.Fetch("pde_loss", pdeLoss)

	trainables := append(gen.Trainables(), enc.Trainables()...)
	if _, err := gorgonia.Grad(total, trainables...); err != nil {
		return nil, errors.Wrap(err, "differentiating generator loss")
	}
	p.Compile(m.sess, trainables)

	bp := &boundProgram{prog: p, trainables: trainables}
	m.genProgs[key] = bp
	return bp, nil
}

// discProgram compiles the discriminator objective over the full boundary
// set: mean cross entropy of real pairs against label 0 and generated
// pairs against label 1. The generator attaches but stays frozen.
func (m *GAN) discProgram(nb int) (*boundProgram, error) {
	if bp, ok := m.discProgs[nb]; ok {
		return bp, nil
	}

	L := m.LatentDim()
	p := graph.NewProgram()
	xb := p.Placeholder("xb", nb, 1)
	tb := p.Placeholder("tb", nb, 1)
	ub := p.Placeholder("ub", nb, 1)
	zb := p.Placeholder("zb", nb, L)

	gen := m.gen.Attach(p.Graph)
	disc := m.disc.Attach(p.Graph)

	ubSol, err := gen.Fwd(xb, tb, zb)
	if err != nil {
		return nil, errors.Wrap(err, "generator branch")
	}
	dReal, err := disc.Fwd(xb, tb, ub)
	if err != nil {
		return nil, errors.Wrap(err, "real branch")
	}
	dFake, err := disc.Fwd(xb, tb, ubSol)
	if err != nil {
		return nil, errors.Wrap(err, "fake branch")
	}

	realCE, err := sigmoidCE(dReal, 0)
	if err != nil {
		return nil, err
	}
	fakeCE, err := sigmoidCE(dFake, 1)
	if err != nil {
		return nil, err
	}
	sum, err := gorgonia.Add(realCE, fakeCE)
	if err != nil {
		return nil, err
	}
	loss, err := scale(0.5, sum)
	if err != nil {
		return nil, err
	}
	p.Fetch("disc_loss", loss)

	trainables := disc.Trainables()
	if _, err := gorgonia.Grad(loss, trainables...); err != nil {
		return nil, errors.Wrap(err, "differentiating discriminator loss")
	}
	p.Compile(m.sess, trainables)

	bp := &boundProgram{prog: p, trainables: trainables}
	m.discProgs[nb] = bp
	return bp, nil
}

// Train alternates discriminator and generator updates. The step count
// per epoch comes from the collocation set: it reshuffles every epoch and
// is sliced by the batch size, while the whole boundary set is fed at
// every step. Latent codes are fresh standard-normal draws on every step.
// The discriminator only steps on epochs divisible by DSkip; its last
// observed loss carries through the log on the epochs it sits out.
// Parameters snapshot to checkpoints_<epoch> every 10000 epochs.
func (m *GAN) Train(bnd *data.BoundarySet, coll *data.CollocationSet, cfg TrainConfig) (*metrics.History, error) {
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
	dskip := cfg.DSkip
	if dskip < 1 {
		dskip = 1
	}

	hist := metrics.NewHistory("disc_loss", "gen_loss", "var_loss", "pde_loss")
	logger := cfg.logger()

	L := m.LatentDim()
	nb := bnd.Len()
	nc := coll.Len()
	collBatches := data.Batches(nc, cfg.BatchSize)

	discMeter := metrics.NewLossMeter("disc_loss")
	genMeter := metrics.NewLossMeter("gen_loss")
	varMeter := metrics.NewLossMeter("var_loss")
	pdeMeter := metrics.NewLossMeter("pde_loss")

	discLast := 0.0

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		sc, err := data.Shuffle(m.sess.RNG(), coll.X, coll.T)
		if err != nil {
			return nil, errors.Wrapf(err, "shuffling collocation set on epoch %d", epoch)
		}
		XC, TC := sc[0], sc[1]

		discStep := epoch%dskip == 0
		if discStep {
			discMeter.Reset()
		}
		genMeter.Reset()
		varMeter.Reset()
		pdeMeter.Reset()

		for _, cb := range collBatches {
			if discStep {
				dp, err := m.discProgram(nb)
				if err != nil {
					return nil, err
				}
				feeds := map[string][]float64{
					"xb": bnd.X,
					"tb": bnd.T,
					"ub": bnd.U,
				}
				for name, vals := range feeds {
					if err := dp.prog.FeedColumn(name, vals); err != nil {
						return nil, err
					}
				}
				if err := dp.prog.Feed("zb", m.sess.Normal(nb*L), nb, L); err != nil {
					return nil, err
				}
				if err := dp.prog.Run(); err != nil {
					return nil, errors.Wrapf(err, "discriminator step on epoch %d", epoch)
				}
				dl, err := dp.prog.Scalar("disc_loss")
				if err != nil {
					return nil, err
				}
				if err := m.discSolver.Step(gorgonia.NodesToValueGrads(dp.trainables)); err != nil {
					return nil, errors.Wrapf(err, "discriminator solver step on epoch %d", epoch)
				}
				dp.prog.Reset()
				discMeter.Observe(dl)
			}

			gp, err := m.genProgram(nb, cb.Len())
			if err != nil {
				return nil, err
			}
			feeds := map[string][]float64{
				"xb": bnd.X,
				"tb": bnd.T,
				"xc": XC[cb.Start:cb.End],
				"tc": TC[cb.Start:cb.End],
			}
			for name, vals := range feeds {
				if err := gp.prog.FeedColumn(name, vals); err != nil {
					return nil, err
				}
			}
			if err := gp.prog.Feed("zb", m.sess.Normal(nb*L), nb, L); err != nil {
				return nil, err
			}
			if err := gp.prog.Feed("zc", m.sess.Normal(cb.Len()*L), cb.Len(), L); err != nil {
				return nil, err
			}
			if err := gp.prog.Run(); err != nil {
				return nil, errors.Wrapf(err, "generator step on epoch %d", epoch)
			}
			gl, err := gp.prog.Scalar("gen_loss")
			if err != nil {
				return nil, err
			}
			vl, err := gp.prog.Scalar("var_loss")
			if err != nil {
				return nil, err
			}
			pl, err := gp.prog.Scalar("pde_loss")
			if err != nil {
				return nil, err
			}
			if err := m.genSolver.Step(gorgonia.NodesToValueGrads(gp.trainables)); err != nil {
				return nil, errors.Wrapf(err, "generator solver step on epoch %d", epoch)
			}
			gp.prog.Reset()

			genMeter.Observe(gl)
			varMeter.Observe(vl)
			pdeMeter.Observe(pl)
		}

		if discStep {
			discLast = discMeter.Mean()
		}

		if cfg.Verbose {
			logger.Printf("%06d %f %f %f %f",
				epoch, discLast, genMeter.Mean(), varMeter.Mean(), pdeMeter.Mean())
		}
		hist.Append(epoch, discLast, genMeter.Mean(), varMeter.Mean(), pdeMeter.Mean())
		if cfg.OnEpoch != nil {
			cfg.OnEpoch(EpochStats{Epoch: epoch, Losses: map[string]float64{
				"disc_loss": discLast,
				"gen_loss":  genMeter.Mean(),
				"var_loss":  varMeter.Mean(),
				"pde_loss":  pdeMeter.Mean(),
			}})
		}

		if epoch != 0 && epoch%10000 == 0 {
			dir := storage.CheckpointDir(cfg.CheckpointDir, epoch)
			if err := storage.SaveCheckpoint(dir, m.Networks()); err != nil {
				return nil, errors.Wrapf(err, "checkpointing on epoch %d", epoch)
			}
		}
	}

	return hist, nil
}

// Predict draws nSamples stochastic realizations of the field at the given
// coordinates. It returns the sampled fields and the latent draws that
// produced them, one row per sample.
func (m *GAN) Predict(x, t []float64, nSamples int) (u, z [][]float64, err error) {
	if !m.built {
		return nil, nil, ErrNotBuilt
	}
	if nSamples < 1 {
		return nil, nil, ErrInvalidSampleCount
	}
	if len(t) != len(x) {
		return nil, nil, errors.Wrap(data.ErrLengthMismatch, "prediction coordinates")
	}
	n := len(x)
	L := m.LatentDim()

	p, ok := m.predProgs[n]
	if !ok {
		p = graph.NewProgram()
		xn := p.Placeholder("x", n, 1)
		tn := p.Placeholder("t", n, 1)
		zn := p.Placeholder("z", n, L)
		uPred, err := m.gen.Attach(p.Graph).Fwd(xn, tn, zn)
		if err != nil {
			return nil, nil, errors.Wrap(err, "compiling sampling graph")
		}
		p.Fetch("u", uPred)
		p.Compile(m.sess, nil)
		m.predProgs[n] = p
	}

	u = make([][]float64, nSamples)
	z = make([][]float64, nSamples)
	for s := 0; s < nSamples; s++ {
		draw := m.sess.Normal(n * L)
		if err := p.FeedColumn("x", x); err != nil {
			return nil, nil, err
		}
		if err := p.FeedColumn("t", t); err != nil {
			return nil, nil, err
		}
		if err := p.Feed("z", draw, n, L); err != nil {
			return nil, nil, err
		}
		if err := p.Run(); err != nil {
			return nil, nil, err
		}
		sample, err := p.Column("u")
		if err != nil {
			return nil, nil, err
		}
		p.Reset()
		u[s] = sample
		z[s] = draw
	}
	return u, z, nil
}
