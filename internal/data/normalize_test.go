package data_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kmaitland/pgan/internal/data"
)

var _ = Describe("Normalizer", func() {
	It("rejects a degenerate range", func() {
		_, err := data.NewNormalizer(1.0, 1.0, false)
		Expect(err).To(MatchError(data.ErrDegenerateRange))

		_, err = data.NewNormalizer(2.0, 1.0, true)
		Expect(err).To(MatchError(data.ErrDegenerateRange))
	})

	It("maps the bounds to [-1, 1] in symmetric mode", func() {
		n, err := data.NewNormalizer(-2.0, 6.0, false)
		Expect(err).NotTo(HaveOccurred())

		Expect(n.Forward(-2.0)).To(Equal(-1.0))
		Expect(n.Forward(6.0)).To(Equal(1.0))
		Expect(n.Forward(2.0)).To(Equal(0.0))
	})

	It("maps the bounds to [0, 1] in positive mode", func() {
		n, err := data.NewNormalizer(0.0, 10.0, true)
		Expect(err).NotTo(HaveOccurred())

		Expect(n.Forward(0.0)).To(Equal(0.0))
		Expect(n.Forward(10.0)).To(Equal(1.0))
		Expect(n.Forward(5.0)).To(Equal(0.5))
	})

	It("inverts the forward transform", func() {
		for _, pos := range []bool{true, false} {
			n, err := data.NewNormalizer(-1.3, 4.7, pos)
			Expect(err).NotTo(HaveOccurred())

			for _, x := range []float64{-1.3, -0.5, 0.0, 2.71, 4.7} {
				Expect(n.Inverse(n.Forward(x))).To(BeNumerically("~", x, 1e-12))
			}
		}
	})

	It("applies elementwise over slices", func() {
		n, err := data.NewNormalizer(0.0, 2.0, true)
		Expect(err).NotTo(HaveOccurred())

		xs := []float64{0.0, 1.0, 2.0}
		Expect(n.ForwardSlice(xs)).To(Equal([]float64{0.0, 0.5, 1.0}))
		Expect(n.InverseSlice([]float64{0.0, 0.5, 1.0})).To(Equal(xs))
		Expect(xs).To(Equal([]float64{0.0, 1.0, 2.0}), "input must not be mutated")
	})
})

var _ = Describe("MultiNormalizer", func() {
	var (
		mn *data.MultiNormalizer
		x  data.Normalizer
		u  data.Normalizer
	)

	BeforeEach(func() {
		mn = data.NewMultiNormalizer()
		var err error
		x, err = data.NewNormalizer(-1.0, 1.0, false)
		Expect(err).NotTo(HaveOccurred())
		u, err = data.NewNormalizer(0.0, 4.0, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(mn.Register("x", x)).To(Succeed())
		Expect(mn.Register("u", u)).To(Succeed())
	})

	It("rejects a degenerate range at registration", func() {
		Expect(mn.Register("t", data.Normalizer{Min: 1, Max: 1})).To(MatchError(data.ErrDegenerateRange))
	})

	It("keeps registration order", func() {
		Expect(mn.Names()).To(Equal([]string{"x", "u"}))
	})

	It("transforms every registered variable", func() {
		mv := data.NewMultiVariable()
		mv.Set("x", []float64{-1.0, 0.0, 1.0})
		mv.Set("u", []float64{0.0, 2.0, 4.0})

		fwd, err := mn.Forward(mv)
		Expect(err).NotTo(HaveOccurred())
		Expect(fwd.Get("x")).To(Equal([]float64{-1.0, 0.0, 1.0}))
		Expect(fwd.Get("u")).To(Equal([]float64{0.0, 0.5, 1.0}))
	})

	It("inverts the argument it is given, not the last forward input", func() {
		normalized := data.NewMultiVariable()
		normalized.Set("x", []float64{0.0})
		normalized.Set("u", []float64{0.5})

		inv, err := mn.Inverse(normalized)
		Expect(err).NotTo(HaveOccurred())
		Expect(inv.Get("x")).To(Equal([]float64{0.0}))
		Expect(inv.Get("u")).To(Equal([]float64{2.0}))
	})

	It("fails on a missing variable", func() {
		mv := data.NewMultiVariable()
		mv.Set("x", []float64{0.0})

		_, err := mn.Forward(mv)
		Expect(err).To(MatchError(data.ErrUnknownVariable))
	})

	It("round trips through forward and inverse", func() {
		mv := data.NewMultiVariable()
		mv.Set("x", []float64{-0.9, 0.1, 0.77})
		mv.Set("u", []float64{0.4, 3.3, 1.1})

		fwd, err := mn.Forward(mv)
		Expect(err).NotTo(HaveOccurred())
		inv, err := mn.Inverse(fwd)
		Expect(err).NotTo(HaveOccurred())

		for _, name := range mv.Names() {
			orig := mv.Get(name)
			got := inv.Get(name)
			Expect(got).To(HaveLen(len(orig)))
			for i := range orig {
				Expect(got[i]).To(BeNumerically("~", orig[i], 1e-12))
			}
		}
	})
})
