package metrics

import "testing"

func TestLossMeter(t *testing.T) {
	m := NewLossMeter("gen_loss")
	if m.Name() != "gen_loss" {
		t.Errorf("expected name gen_loss, got %s", m.Name())
	}
	if m.Mean() != 0 {
		t.Error("empty meter should report 0")
	}

	m.Observe(1.0)
	m.Observe(2.0)
	m.Observe(3.0)

	if m.Count() != 3 {
		t.Errorf("expected 3 observations, got %d", m.Count())
	}
	if m.Mean() != 2.0 {
		t.Errorf("expected mean 2.0, got %f", m.Mean())
	}

	m.Reset()
	if m.Count() != 0 || m.Mean() != 0 {
		t.Error("reset should clear the meter")
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory("a", "b")
	h.Append(0, 1.0, 10.0)
	h.Append(1, 2.0, 20.0)

	if h.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", h.Len())
	}

	a := h.Series("a")
	if len(a) != 2 || a[0] != 1.0 || a[1] != 2.0 {
		t.Errorf("unexpected series a: %v", a)
	}
	if h.Last("b") != 20.0 {
		t.Errorf("expected last b 20.0, got %f", h.Last("b"))
	}

	if h.Series("c") != nil {
		t.Error("unknown series should be nil")
	}
	if h.Last("c") != 0 {
		t.Error("unknown series should report 0")
	}
}

func TestHistory_CopiesValues(t *testing.T) {
	h := NewHistory("a")
	row := []float64{1.0}
	h.Append(0, row...)
	row[0] = 99.0

	if h.Series("a")[0] != 1.0 {
		t.Error("history must copy appended values")
	}
}
