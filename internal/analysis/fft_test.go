package analysis

import (
	"math"
	"testing"
)

func TestPowerSpectrum_PureTone(t *testing.T) {
	n := 256
	cycles := 8
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * float64(cycles) * float64(i) / float64(n))
	}

	ps := PowerSpectrum(data)
	bin, _ := Dominant(ps)
	if bin != cycles {
		t.Errorf("expected dominant bin %d, got %d", cycles, bin)
	}
}

func TestPad(t *testing.T) {
	data := []float64{5, 5, 5, 5, 5}
	padded := Pad(data)

	if len(padded) != 8 {
		t.Errorf("expected length 8, got %d", len(padded))
	}
	for i, v := range padded {
		if v != 0 {
			t.Errorf("padded[%d]: expected 0 after mean removal, got %f", i, v)
		}
	}
}

func TestPad_PreservesOscillation(t *testing.T) {
	// Two full cycles over eight samples, offset so the mean is nonzero.
	data := make([]float64, 8)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*2*float64(i)/8)
	}
	padded := Pad(data)

	ps := PowerSpectrum(padded)
	bin, power := Dominant(ps)
	if power == 0 {
		t.Fatal("expected a nonzero peak")
	}
	if bin != 2 {
		t.Errorf("expected dominant bin 2, got %d", bin)
	}
}

func TestFFT_Linearity(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	b := []float64{4, 3, 2, 1}
	sum := make([]float64, len(a))
	for i := range a {
		sum[i] = a[i] + b[i]
	}

	fa := FFT(a)
	fb := FFT(b)
	fsum := FFT(sum)

	for i := range fsum {
		diff := fsum[i] - (fa[i] + fb[i])
		if math.Hypot(real(diff), imag(diff)) > 1e-9 {
			t.Errorf("bin %d: FFT(a+b) != FFT(a)+FFT(b)", i)
		}
	}
}
