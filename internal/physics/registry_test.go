package physics

import (
	"errors"
	"math"
	"testing"
)

func TestFromName(t *testing.T) {
	for _, name := range []string{"burgers", "advection"} {
		m, err := FromName(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if m.Name() != name {
			t.Errorf("expected name %s, got %s", name, m.Name())
		}
	}

	if _, err := FromName("navier-stokes"); err == nil {
		t.Error("expected an error for an unknown system")
	}
}

func TestBurgers_DefaultViscosity(t *testing.T) {
	if got, want := NewBurgers().GetParams()["nu"], 0.01/math.Pi; got != want {
		t.Errorf("expected nu = %g, got %g", want, got)
	}
}

func TestDerivs(t *testing.T) {
	tests := []struct {
		m    Model
		want []string
	}{
		{NewBurgers(), []string{"t", "x", "xx"}},
		{NewAdvection(), []string{"t", "x"}},
	}
	for _, tt := range tests {
		got := tt.m.Derivs()
		if len(got) != len(tt.want) {
			t.Errorf("%s: expected derivs %v, got %v", tt.m.Name(), tt.want, got)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: expected derivs %v, got %v", tt.m.Name(), tt.want, got)
				break
			}
		}
	}
}

func TestConfigurable(t *testing.T) {
	tests := []struct {
		m     Configurable
		param string
	}{
		{NewBurgers(), "nu"},
		{NewAdvection(), "c"},
	}

	for _, tt := range tests {
		params := tt.m.GetParams()
		if _, ok := params[tt.param]; !ok {
			t.Errorf("expected parameter %q in %v", tt.param, params)
			continue
		}

		if err := tt.m.SetParam(tt.param, 2.5); err != nil {
			t.Errorf("setting %q failed: %v", tt.param, err)
		}
		if got := tt.m.GetParams()[tt.param]; got != 2.5 {
			t.Errorf("expected %q = 2.5, got %f", tt.param, got)
		}

		if err := tt.m.SetParam("bogus", 1.0); !errors.Is(err, ErrUnknownParam) {
			t.Errorf("expected ErrUnknownParam, got %v", err)
		}
	}
}
