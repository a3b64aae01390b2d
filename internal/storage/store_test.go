package storage

import (
	"testing"

	"github.com/kmaitland/pgan/internal/metrics"
)

func sampleHistory() *metrics.History {
	hist := metrics.NewHistory("gen_loss", "disc_loss")
	hist.Append(0, 1.5, 0.7)
	hist.Append(1, 1.2, 0.69)
	hist.Append(2, 0.9, 0.71)
	return hist
}

func TestStore_SaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	hyper := map[string]float64{"entropy_reg": 1.5, "pde_beta": 1.0}
	runID, err := st.Save("gan", 42, 100, hyper, sampleHistory())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Model != "gan" {
		t.Errorf("expected model gan, got %s", meta.Model)
	}
	if meta.Seed != 42 || meta.BatchSize != 100 || meta.Epochs != 3 {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if meta.Hyperparams["entropy_reg"] != 1.5 {
		t.Errorf("expected entropy_reg 1.5, got %f", meta.Hyperparams["entropy_reg"])
	}
	if meta.FinalLosses["gen_loss"] != 0.9 {
		t.Errorf("expected final gen_loss 0.9, got %f", meta.FinalLosses["gen_loss"])
	}
}

func TestStore_List(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	if _, err := st.Save("pinn", 1, 10, nil, sampleHistory()); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Model != "pinn" {
		t.Errorf("expected model pinn, got %s", runs[0].Model)
	}
}

func TestStore_List_MissingDir(t *testing.T) {
	st := New(t.TempDir() + "/nope")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStore_LoadHistory(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	runID, err := st.Save("gan", 0, 50, nil, sampleHistory())
	if err != nil {
		t.Fatal(err)
	}

	hist, err := st.LoadHistory(runID)
	if err != nil {
		t.Fatalf("load history failed: %v", err)
	}
	if hist.Len() != 3 {
		t.Fatalf("expected 3 epochs, got %d", hist.Len())
	}
	if len(hist.Names) != 2 || hist.Names[0] != "gen_loss" {
		t.Errorf("unexpected names: %v", hist.Names)
	}
	series := hist.Series("disc_loss")
	if series[2] != 0.71 {
		t.Errorf("expected 0.71, got %f", series[2])
	}
	if hist.Epochs[1] != 1 {
		t.Errorf("expected epoch 1, got %d", hist.Epochs[1])
	}
}
