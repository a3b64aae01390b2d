package graph

import "testing"

func TestSession_SeededNormal(t *testing.T) {
	a := Open(Config{Seed: 5})
	defer a.Close()
	b := Open(Config{Seed: 5})
	defer b.Close()

	da := a.Normal(32)
	db := b.Normal(32)
	for i := range da {
		if da[i] != db[i] {
			t.Fatal("same seed should give the same draws")
		}
	}

	c := Open(Config{Seed: 6})
	defer c.Close()
	dc := c.Normal(32)
	same := true
	for i := range da {
		if da[i] != dc[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds should give different draws")
	}
}

func TestSession_NormalMoments(t *testing.T) {
	s := Open(Config{Seed: 1})
	defer s.Close()

	n := 20000
	draws := s.Normal(n)
	mean := 0.0
	for _, v := range draws {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range draws {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)

	if mean < -0.05 || mean > 0.05 {
		t.Errorf("expected mean near 0, got %f", mean)
	}
	if variance < 0.9 || variance > 1.1 {
		t.Errorf("expected unit variance, got %f", variance)
	}
}

func TestSession_Close(t *testing.T) {
	s := Open(Config{Seed: 1})
	if s.Closed() {
		t.Error("fresh session should be open")
	}
	if err := s.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
	if !s.Closed() {
		t.Error("session should report closed")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close should be a no-op: %v", err)
	}
}
