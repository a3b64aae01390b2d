package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/kmaitland/pgan/internal/analysis"
	"github.com/kmaitland/pgan/internal/config"
	"github.com/kmaitland/pgan/internal/data"
	"github.com/kmaitland/pgan/internal/export"
	"github.com/kmaitland/pgan/internal/graph"
	"github.com/kmaitland/pgan/internal/metrics"
	"github.com/kmaitland/pgan/internal/models"
	"github.com/kmaitland/pgan/internal/optim"
	"github.com/kmaitland/pgan/internal/physics"
	"github.com/kmaitland/pgan/internal/storage"
	"github.com/kmaitland/pgan/internal/tui"
)

var (
	dataDir       string
	configFile    string
	preset        string
	physicsName   string
	epochs        int
	batchSize     int
	lr            float64
	genLR         float64
	discLR        float64
	entropyReg    float64
	pdeBeta       float64
	dskip         int
	seed          uint64
	threads       int
	boundaryN     int
	collocationN  int
	waveSpeed     float64
	live          bool
	checkpointDir string
	// Prediction parameters
	samples int
	gridN   int
	atTime  float64
	// Search parameters
	workers      int
	searchEpochs int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pgan",
		Short: "physics-informed deep learning lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pgan", "data directory")

	trainCmd := &cobra.Command{
		Use:   "train [model]",
		Short: "train a model (gan, pinn, deephpm)",
		Args:  cobra.ExactArgs(1),
		RunE:  trainModel,
	}
	trainCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	trainCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	trainCmd.Flags().StringVar(&physicsName, "physics", "burgers", "residual model")
	trainCmd.Flags().IntVar(&epochs, "epochs", config.DefaultEpochs, "training epochs")
	trainCmd.Flags().IntVar(&batchSize, "batch", config.DefaultBatchSize, "minibatch size")
	trainCmd.Flags().Float64Var(&lr, "lr", config.DefaultLearningRate, "learning rate")
	trainCmd.Flags().Float64Var(&genLR, "gen-lr", config.DefaultLearningRate, "generator learning rate")
	trainCmd.Flags().Float64Var(&discLR, "disc-lr", config.DefaultLearningRate, "discriminator learning rate")
	trainCmd.Flags().Float64Var(&entropyReg, "entropy-reg", config.DefaultEntropyReg, "variational entropy weight")
	trainCmd.Flags().Float64Var(&pdeBeta, "pde-beta", config.DefaultPDEBeta, "residual loss weight")
	trainCmd.Flags().IntVar(&dskip, "dskip", config.DefaultDSkip, "discriminator update interval (epochs)")
	trainCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 = time)")
	trainCmd.Flags().IntVar(&threads, "threads", 0, "worker thread cap (0 = all cores)")
	trainCmd.Flags().IntVar(&boundaryN, "boundary", config.DefaultBoundary, "boundary points")
	trainCmd.Flags().IntVar(&collocationN, "collocation", config.DefaultCollocation, "collocation points")
	trainCmd.Flags().Float64Var(&waveSpeed, "wave-speed", 1.0, "synthetic wave speed")
	trainCmd.Flags().BoolVar(&live, "live", false, "live loss view")
	trainCmd.Flags().StringVar(&checkpointDir, "checkpoints", "", "checkpoint base directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run loss curves",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export run loss curves as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id] [loss]",
		Short: "spectral analysis of a loss series",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  analyzeRun,
	}

	predictCmd := &cobra.Command{
		Use:   "predict [checkpoint_dir]",
		Short: "sample a trained generator from a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE:  predictRun,
	}
	predictCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	predictCmd.Flags().StringVar(&physicsName, "physics", "burgers", "residual model")
	predictCmd.Flags().IntVar(&samples, "samples", 100, "stochastic samples per point")
	predictCmd.Flags().IntVar(&gridN, "grid", 80, "spatial grid points")
	predictCmd.Flags().Float64Var(&atTime, "at", 0.5, "time slice")
	predictCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 = time)")

	searchCmd := &cobra.Command{
		Use:   "search [model]",
		Short: "grid search over loss weights",
		Args:  cobra.ExactArgs(1),
		RunE:  searchModel,
	}
	searchCmd.Flags().StringVar(&physicsName, "physics", "advection", "residual model")
	searchCmd.Flags().IntVar(&searchEpochs, "epochs", 200, "epochs per trial")
	searchCmd.Flags().IntVar(&workers, "workers", 1, "concurrent trials")
	searchCmd.Flags().Uint64Var(&seed, "seed", 42, "random seed shared across trials")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(trainCmd, listCmd, plotCmd, exportCmd, exportSVGCmd, analyzeCmd, predictCmd, searchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig assembles the run configuration: defaults, then preset, then
// config file, then explicitly set flags.
func buildConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfigFor(model)

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		loaded.Model = model
		cfg = loaded
	}

	if cmd.Flags().Changed("physics") {
		cfg.Physics = physicsName
	}
	if cmd.Flags().Changed("epochs") {
		cfg.Training.Epochs = epochs
	}
	if cmd.Flags().Changed("batch") {
		cfg.Training.BatchSize = batchSize
	}
	if cmd.Flags().Changed("lr") {
		cfg.Training.LearningRate = lr
	}
	if cmd.Flags().Changed("gen-lr") {
		cfg.Training.GenLearningRate = genLR
	}
	if cmd.Flags().Changed("disc-lr") {
		cfg.Training.DiscLearningRate = discLR
	}
	if cmd.Flags().Changed("entropy-reg") {
		cfg.Training.EntropyReg = entropyReg
	}
	if cmd.Flags().Changed("pde-beta") {
		cfg.Training.PDEBeta = pdeBeta
	}
	if cmd.Flags().Changed("dskip") {
		cfg.Training.DSkip = dskip
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("threads") {
		cfg.Threads = threads
	}
	if cmd.Flags().Changed("boundary") {
		cfg.Data.Boundary = boundaryN
	}
	if cmd.Flags().Changed("collocation") {
		cfg.Data.Collocation = collocationN
	}
	if cmd.Flags().Changed("wave-speed") {
		cfg.Data.WaveSpeed = waveSpeed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func trainModel(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	sess := graph.Open(graph.Config{Seed: cfg.Seed, Threads: cfg.Threads})
	defer sess.Close()

	trainCfg := models.TrainConfig{
		BatchSize:     cfg.Training.BatchSize,
		Epochs:        cfg.Training.Epochs,
		Verbose:       !live,
		DSkip:         cfg.Training.DSkip,
		CheckpointDir: checkpointDir,
	}

	run, err := assembleRun(cfg, sess)
	if err != nil {
		return err
	}

	fmt.Printf("training %s (%s)...\n", cfg.Model, cfg.Physics)
	start := time.Now()

	var hist *metrics.History
	if live {
		err = tui.Run(cfg.Model, cfg.Training.Epochs, func(onEpoch func(models.EpochStats)) error {
			trainCfg.OnEpoch = onEpoch
			var trainErr error
			hist, trainErr = run(trainCfg)
			return trainErr
		})
	} else {
		hist, err = run(trainCfg)
	}
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg.Model, cfg.Seed, cfg.Training.BatchSize, cfg.Hyperparams(), hist)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Println("\nfinal losses:")
	for _, name := range hist.Names {
		fmt.Printf("  %s: %.6f\n", name, hist.Last(name))
	}

	return nil
}

// assembleRun builds the model and its synthetic datasets, returning a
// closure that runs training to completion.
func assembleRun(cfg *config.Config, sess *graph.Session) (func(models.TrainConfig) (*metrics.History, error), error) {
	switch cfg.Model {
	case "gan":
		phys, err := physics.FromName(cfg.Physics)
		if err != nil {
			return nil, err
		}
		m := models.NewGAN(cfg.Networks.Generator, cfg.Networks.Discriminator, cfg.Networks.Encoder,
			phys, cfg.Training.EntropyReg, cfg.Training.PDEBeta)
		if err := m.Build(sess, models.BuildConfig{
			GenLearningRate:  cfg.Training.GenLearningRate,
			DiscLearningRate: cfg.Training.DiscLearningRate,
		}); err != nil {
			return nil, err
		}
		wave := data.TravelingWave{C: cfg.Data.WaveSpeed}
		bnd := wave.Boundary(sess.RNG(), cfg.Data.Boundary)
		coll := wave.Collocation(sess.RNG(), cfg.Data.Collocation)
		return func(tc models.TrainConfig) (*metrics.History, error) {
			return m.Train(bnd, coll, tc)
		}, nil

	case "pinn":
		phys, err := physics.FromName(cfg.Physics)
		if err != nil {
			return nil, err
		}
		m := models.NewPINN(cfg.Networks.Solution, cfg.Networks.Lower, cfg.Networks.Upper, phys)
		if err := m.Build(sess, models.BuildConfig{LearningRate: cfg.Training.LearningRate}); err != nil {
			return nil, err
		}
		wave := data.TravelingWave{C: cfg.Data.WaveSpeed}
		bnd := wave.Boundary(sess.RNG(), cfg.Data.Boundary)
		coll := wave.Collocation(sess.RNG(), cfg.Data.Collocation)
		return func(tc models.TrainConfig) (*metrics.History, error) {
			return m.Train(bnd, coll, tc)
		}, nil

	case "deephpm":
		m := models.NewDeepHPM(cfg.Networks.Solution, cfg.Networks.PDE, cfg.Networks.Derivatives,
			cfg.Networks.Lower, cfg.Networks.Upper)
		if err := m.Build(sess, models.BuildConfig{LearningRate: cfg.Training.LearningRate}); err != nil {
			return nil, err
		}
		field := data.RotatingField{Omega: 2 * math.Pi * cfg.Data.WaveSpeed}
		train := field.Sample(sess.RNG(), cfg.Data.Collocation)
		test := field.Sample(sess.RNG(), cfg.Data.Collocation/5+1)
		return func(tc models.TrainConfig) (*metrics.History, error) {
			return m.Train(train, test, tc)
		}, nil

	default:
		return nil, config.ErrUnknownModel
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tEPOCHS\tBATCH\tSEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Epochs,
			run.BatchSize,
			run.Seed,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	hist, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}
	if hist.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("epochs: %d\n\n", hist.Len())

	for _, name := range hist.Names {
		series := hist.Series(name)
		graph := asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	hist, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}
	if hist.Len() < 2 {
		return fmt.Errorf("not enough data to plot")
	}

	fmt.Println(export.HistoryToSVG(hist, 960, 480))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	hist, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}
	if hist.Len() == 0 {
		return fmt.Errorf("no data")
	}

	name := hist.Names[0]
	if len(args) > 1 {
		name = args[1]
	}
	series := hist.Series(name)
	if series == nil {
		return fmt.Errorf("unknown loss %q (available: %v)", name, hist.Names)
	}

	padded := analysis.Pad(series)
	ps := analysis.PowerSpectrum(padded)
	plotData := ps
	if len(plotData) > len(series)/2 {
		plotData = plotData[:len(series)/2]
	}

	fmt.Printf("spectral analysis: %s / %s\n\n", runID, name)
	fmt.Println(asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum"),
	))
	fmt.Println()

	bin, power := analysis.Dominant(ps)
	if power == 0 || bin == 0 {
		fmt.Println("no dominant oscillation")
		return nil
	}
	period := float64(len(padded)) / float64(bin)
	fmt.Printf("dominant oscillation: every %.1f epochs\n", period)
	return nil
}

func predictRun(cmd *cobra.Command, args []string) error {
	ckptDir := args[0]

	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("physics") {
		cfg.Physics = physicsName
	}

	phys, err := physics.FromName(cfg.Physics)
	if err != nil {
		return err
	}

	sess := graph.Open(graph.Config{Seed: seed})
	defer sess.Close()

	m := models.NewGAN(cfg.Networks.Generator, cfg.Networks.Discriminator, cfg.Networks.Encoder,
		phys, cfg.Training.EntropyReg, cfg.Training.PDEBeta)
	if err := m.Build(sess, models.DefaultBuildConfig()); err != nil {
		return err
	}

	networks, err := storage.LoadCheckpoint(ckptDir)
	if err != nil {
		return err
	}
	if err := m.SetParams(networks); err != nil {
		return err
	}

	x := make([]float64, gridN)
	t := make([]float64, gridN)
	for i := range x {
		x[i] = float64(i) / float64(gridN-1)
		t[i] = atTime
	}

	u, _, err := m.Predict(x, t, samples)
	if err != nil {
		return err
	}

	mean := make([]float64, gridN)
	std := make([]float64, gridN)
	for i := 0; i < gridN; i++ {
		sum := 0.0
		for s := 0; s < samples; s++ {
			sum += u[s][i]
		}
		mean[i] = sum / float64(samples)
		varSum := 0.0
		for s := 0; s < samples; s++ {
			d := u[s][i] - mean[i]
			varSum += d * d
		}
		std[i] = math.Sqrt(varSum / float64(samples))
	}

	fmt.Printf("u(x, t=%.2f) over %d samples\n\n", atTime, samples)
	fmt.Println(asciigraph.Plot(mean,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("mean"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(std,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("std"),
	))

	return nil
}

func searchModel(cmd *cobra.Command, args []string) error {
	model := args[0]
	if model != "gan" && model != "pinn" {
		return fmt.Errorf("search supports gan and pinn, got %s", model)
	}

	var names []string
	var ranges [][]float64
	if model == "gan" {
		names = []string{"entropy_reg", "pde_beta"}
		ranges = [][]float64{{1.0, 1.5, 2.0}, {0.1, 1.0, 10.0}}
	} else {
		names = []string{"learning_rate"}
		ranges = [][]float64{{0.0001, 0.001, 0.01}}
	}

	objective := func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg := config.DefaultConfig()
		cfg.Model = model
		cfg.Physics = physicsName
		cfg.Seed = seed
		cfg.Training.Epochs = searchEpochs
		cfg.Data.Boundary = 50
		cfg.Data.Collocation = 200
		if v, ok := params["entropy_reg"]; ok {
			cfg.Training.EntropyReg = v
		}
		if v, ok := params["pde_beta"]; ok {
			cfg.Training.PDEBeta = v
		}
		if v, ok := params["learning_rate"]; ok {
			cfg.Training.LearningRate = v
		}

		sess := graph.Open(graph.Config{Seed: cfg.Seed})
		defer sess.Close()

		run, err := assembleRun(cfg, sess)
		if err != nil {
			return 0, err
		}
		hist, err := run(models.TrainConfig{
			BatchSize: cfg.Training.BatchSize,
			Epochs:    cfg.Training.Epochs,
			DSkip:     cfg.Training.DSkip,
		})
		if err != nil {
			return 0, err
		}

		if model == "gan" {
			return hist.Last("pde_loss"), nil
		}
		return hist.Last("boundary_loss") + hist.Last("residual_loss"), nil
	}

	fmt.Printf("searching %s over %v (%d epochs per trial)\n\n", model, names, searchEpochs)
	start := time.Now()

	search := optim.NewGridSearch(names, ranges).WithWorkers(workers)
	best, all, err := search.Search(context.Background(), objective)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "SCORE"
	for _, name := range names {
		header += "\t" + name
	}
	fmt.Fprintln(w, header)
	for _, r := range all {
		row := fmt.Sprintf("%.6f", r.Score)
		for _, name := range names {
			row += fmt.Sprintf("\t%g", r.Params[name])
		}
		fmt.Fprintln(w, row)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest: %v (score %.6f)\n", best.Params, best.Score)
	fmt.Printf("elapsed: %v\n", time.Since(start))
	return nil
}
