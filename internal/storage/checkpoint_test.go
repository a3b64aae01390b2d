package storage

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/kmaitland/pgan/internal/nets"
)

func sampleNetworks(t *testing.T, seed uint64) map[string][]nets.Param {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	gen, err := nets.NewDenseNet("generator", []int{3, 5, 1}, rng)
	if err != nil {
		t.Fatal(err)
	}
	disc, err := nets.NewDenseNet("discriminator", []int{3, 5, 1}, rng)
	if err != nil {
		t.Fatal(err)
	}
	return map[string][]nets.Param{
		"generator":     gen.Params(),
		"discriminator": disc.Params(),
	}
}

func TestCheckpointDir(t *testing.T) {
	got := CheckpointDir("out", 20000)
	want := filepath.Join("out", "checkpoints_20000")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	dir := CheckpointDir(t.TempDir(), 10000)

	saved := sampleNetworks(t, 1)
	if err := SaveCheckpoint(dir, saved); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"generator.gob", "discriminator.gob"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}

	loaded, err := LoadCheckpoint(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 networks, got %d", len(loaded))
	}

	for netName, params := range saved {
		got, ok := loaded[netName]
		if !ok {
			t.Fatalf("missing network %s", netName)
		}
		if len(got) != len(params) {
			t.Fatalf("%s: expected %d params, got %d", netName, len(params), len(got))
		}
		for i, p := range params {
			if got[i].Name != p.Name {
				t.Errorf("%s: expected name %s, got %s", netName, p.Name, got[i].Name)
			}
			want := p.Value.Data().([]float64)
			have := got[i].Value.Data().([]float64)
			if len(want) != len(have) {
				t.Fatalf("%s/%s: length mismatch", netName, p.Name)
			}
			for j := range want {
				if want[j] != have[j] {
					t.Fatalf("%s/%s: value mismatch at %d", netName, p.Name, j)
				}
			}
		}
	}
}

func TestCheckpoint_LoadIntoNetwork(t *testing.T) {
	dir := CheckpointDir(t.TempDir(), 10000)
	if err := SaveCheckpoint(dir, sampleNetworks(t, 1)); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadCheckpoint(dir)
	if err != nil {
		t.Fatal(err)
	}

	fresh, err := nets.NewDenseNet("generator", []int{3, 5, 1}, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatal(err)
	}
	if err := fresh.SetParams(loaded["generator"]); err != nil {
		t.Fatalf("loading checkpoint into network failed: %v", err)
	}

	want := sampleNetworks(t, 1)["generator"]
	got := fresh.Params()
	for i := range want {
		a := want[i].Value.Data().([]float64)
		b := got[i].Value.Data().([]float64)
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("%s: restored weights differ at %d", want[i].Name, j)
			}
		}
	}
}

func TestLoadCheckpoint_MissingDir(t *testing.T) {
	if _, err := LoadCheckpoint(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
