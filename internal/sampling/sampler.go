package sampling

import (
	"math/rand/v2"
	"slices"
)

// unknownWeight is assigned to candidates missing from the weight map.
const unknownWeight = 0.1

// Sample draws k distinct candidates without replacement, each pick
// proportional to its weight among those remaining. An empty weight map, or
// one with no positive weight, degrades to a uniform shuffle-then-take. The
// result is sorted ascending and has min(k, len(candidates)) items.
func Sample(rng *rand.Rand, candidates []int, weights map[int]float64, k int) []int {
	if k > len(candidates) {
		k = len(candidates)
	}
	if k <= 0 {
		return nil
	}

	if !hasPositive(weights) {
		out := Shuffled(rng, candidates)[:k]
		slices.Sort(out)
		return out
	}

	remaining := slices.Clone(candidates)
	w := make([]float64, len(remaining))
	for i, c := range remaining {
		if v, ok := weights[c]; ok {
			w[i] = max(v, 0)
		} else {
			w[i] = unknownWeight
		}
	}

	out := make([]int, 0, k)
	for len(out) < k {
		total := 0.0
		for _, v := range w {
			total += v
		}

		var idx int
		if total <= 0 {
			// Only zero-weight candidates left.
			idx = rng.IntN(len(remaining))
		} else {
			idx = pick(w, rng.Float64()*total)
		}

		out = append(out, remaining[idx])
		remaining = slices.Delete(remaining, idx, idx+1)
		w = slices.Delete(w, idx, idx+1)
	}

	slices.Sort(out)
	return out
}

// pick walks cumulative weights and returns the index hit by target.
func pick(w []float64, target float64) int {
	cum := 0.0
	last := -1
	for i, v := range w {
		if v <= 0 {
			continue
		}
		cum += v
		last = i
		if target < cum {
			return i
		}
	}
	// Floating point drift past the final boundary.
	return last
}

func hasPositive(weights map[int]float64) bool {
	for _, v := range weights {
		if v > 0 {
			return true
		}
	}
	return false
}
