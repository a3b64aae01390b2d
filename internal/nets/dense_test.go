package nets_test

import (
	"errors"
	"math"
	"testing"

	"github.com/onsi/gomega"
	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"

	"github.com/kmaitland/pgan/internal/nets"
)

func newRNG() *rand.Rand { return rand.New(rand.NewSource(42)) }

func TestNewDenseNet_Shapes(t *testing.T) {
	d, err := nets.NewDenseNet("net", []int{3, 50, 20, 1}, newRNG())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	params := d.Params()
	if len(params) != 6 {
		t.Fatalf("expected 6 params (3 layers x w,b), got %d", len(params))
	}

	wantShapes := map[string][]int{
		"net_w0": {3, 50}, "net_b0": {1, 50},
		"net_w1": {50, 20}, "net_b1": {1, 20},
		"net_w2": {20, 1}, "net_b2": {1, 1},
	}
	for _, p := range params {
		want, ok := wantShapes[p.Name]
		if !ok {
			t.Fatalf("unexpected param %q", p.Name)
		}
		got := p.Value.Shape()
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("%s: expected shape %v, got %v", p.Name, want, got)
		}
	}

	if d.InputDim() != 3 || d.OutputDim() != 1 {
		t.Errorf("expected dims (3, 1), got (%d, %d)", d.InputDim(), d.OutputDim())
	}
}

func TestNewDenseNet_TooFewLayers(t *testing.T) {
	if _, err := nets.NewDenseNet("net", []int{3}, newRNG()); !errors.Is(err, nets.ErrBadLayers) {
		t.Errorf("expected ErrBadLayers, got %v", err)
	}
}

func TestNewDenseNet_GlorotInit(t *testing.T) {
	d, err := nets.NewDenseNet("net", []int{10, 30, 1}, newRNG())
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range d.Params() {
		vals := p.Value.Data().([]float64)
		if p.Name[len(p.Name)-2] == 'b' {
			for _, v := range vals {
				if v != 0 {
					t.Errorf("%s: biases should start at zero, got %f", p.Name, v)
				}
			}
			continue
		}

		shape := p.Value.Shape()
		limit := math.Sqrt(6.0 / float64(shape[0]+shape[1]))
		allZero := true
		for _, v := range vals {
			if math.Abs(v) > limit {
				t.Errorf("%s: weight %f outside Glorot bound %f", p.Name, v, limit)
			}
			if v != 0 {
				allZero = false
			}
		}
		if allZero {
			t.Errorf("%s: weights were not initialized", p.Name)
		}
	}
}

func TestNewDenseNet_SeededReproducibility(t *testing.T) {
	a, err := nets.NewDenseNet("net", []int{2, 10, 1}, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	b, err := nets.NewDenseNet("net", []int{2, 10, 1}, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}

	pa, pb := a.Params(), b.Params()
	for i := range pa {
		va := pa[i].Value.Data().([]float64)
		vb := pb[i].Value.Data().([]float64)
		for j := range va {
			if va[j] != vb[j] {
				t.Fatal("same seed should give the same initialization")
			}
		}
	}
}

func TestSetParams_RoundTrip(t *testing.T) {
	g := gomega.NewWithT(t)

	src, err := nets.NewDenseNet("net", []int{2, 5, 1}, rand.New(rand.NewSource(1)))
	g.Expect(err).NotTo(gomega.HaveOccurred())
	dst, err := nets.NewDenseNet("net", []int{2, 5, 1}, rand.New(rand.NewSource(2)))
	g.Expect(err).NotTo(gomega.HaveOccurred())

	g.Expect(dst.SetParams(src.Params())).To(gomega.Succeed())

	sp, dp := src.Params(), dst.Params()
	for i := range sp {
		g.Expect(dp[i].Value.Data()).To(gomega.Equal(sp[i].Value.Data()), sp[i].Name)
	}
}

func TestSetParams_Errors(t *testing.T) {
	d, err := nets.NewDenseNet("net", []int{2, 5, 1}, newRNG())
	if err != nil {
		t.Fatal(err)
	}

	unknown := []nets.Param{{
		Name:  "other_w0",
		Value: tensor.New(tensor.WithShape(2, 5), tensor.WithBacking(make([]float64, 10))),
	}}
	if err := d.SetParams(unknown); !errors.Is(err, nets.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}

	misshapen := []nets.Param{{
		Name:  "net_w0",
		Value: tensor.New(tensor.WithShape(5, 2), tensor.WithBacking(make([]float64, 10))),
	}}
	if err := d.SetParams(misshapen); !errors.Is(err, nets.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestSolutionNet_BoundsValidation(t *testing.T) {
	if _, err := nets.NewSolutionNet("sol", []int{2, 10, 1}, []float64{0}, []float64{1, 1}, newRNG()); !errors.Is(err, nets.ErrBadBounds) {
		t.Errorf("expected ErrBadBounds, got %v", err)
	}
	if _, err := nets.NewSolutionNet("sol", []int{2, 10, 1}, []float64{0, 0}, []float64{1, 1}, newRNG()); err != nil {
		t.Errorf("expected valid bounds to pass, got %v", err)
	}
}

func TestEncoder_LatentDim(t *testing.T) {
	e, err := nets.NewEncoder("enc", []int{3, 20, 4}, newRNG())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if e.LatentDim != 2 {
		t.Errorf("expected latent dim 2, got %d", e.LatentDim)
	}

	if _, err := nets.NewEncoder("enc", []int{3, 20, 3}, newRNG()); !errors.Is(err, nets.ErrOddEncoderOutput) {
		t.Errorf("expected ErrOddEncoderOutput, got %v", err)
	}
}

func TestPDENet_DerivativeSpecs(t *testing.T) {
	if _, err := nets.NewPDENet("pde", []int{3, 10, 1}, []string{"x", "xx"}, newRNG()); err != nil {
		t.Errorf("valid specs rejected: %v", err)
	}
	if _, err := nets.NewPDENet("pde", []int{3, 10, 1}, []string{"xxx"}, newRNG()); !errors.Is(err, nets.ErrUnknownDerivative) {
		t.Errorf("expected ErrUnknownDerivative, got %v", err)
	}
}
