package data

import "golang.org/x/exp/rand"

// Range is a half-open index interval [Start, End) into a shuffled array.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start }

// Batches partitions n items into ceil(n/batchSize) contiguous ranges.
// Every range has batchSize items except possibly the last, which holds
// the remainder.
func Batches(n, batchSize int) []Range {
	if n <= 0 || batchSize < 1 {
		return nil
	}
	nb := (n + batchSize - 1) / batchSize
	out := make([]Range, 0, nb)
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		out = append(out, Range{Start: start, End: end})
	}
	return out
}

// NumBatches returns ceil(n / batchSize).
func NumBatches(n, batchSize int) int {
	return (n + batchSize - 1) / batchSize
}

// Take gathers arr by the given permutation: out[i] = arr[perm[i]].
// Coupled arrays stay aligned as long as each is gathered by the same
// permutation.
func Take(arr []float64, perm []int) []float64 {
	out := make([]float64, len(perm))
	for i, p := range perm {
		out[i] = arr[p]
	}
	return out
}

// Shuffle draws one permutation from rng and applies it to every array.
// All arrays must share the same length; alignment across them is the
// caller's invariant and is preserved here by construction.
func Shuffle(rng *rand.Rand, arrs ...[]float64) ([][]float64, error) {
	if len(arrs) == 0 {
		return nil, nil
	}
	n := len(arrs[0])
	for _, a := range arrs[1:] {
		if len(a) != n {
			return nil, ErrLengthMismatch
		}
	}
	perm := rng.Perm(n)
	out := make([][]float64, len(arrs))
	for i, a := range arrs {
		out[i] = Take(a, perm)
	}
	return out, nil
}
