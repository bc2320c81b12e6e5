package sampling

import (
	"math/rand/v2"
	"slices"

	"github.com/rickgao/lotto-engine/internal/model"
)

// FilterPool returns the candidate pool for a request: [1,45] minus the
// excluded numbers. Include numbers are never removed. When fewer than six
// candidates remain the full pool is returned so generation never blocks.
func FilterPool(c model.Constraints) []int {
	full := model.FullPool()
	if len(c.Exclude) == 0 {
		return full
	}

	pool := make([]int, 0, len(full))
	for _, n := range full {
		if slices.Contains(c.Exclude, n) && !slices.Contains(c.Include, n) {
			continue
		}
		pool = append(pool, n)
	}

	if len(pool) < model.PickSize {
		return full
	}
	return pool
}

// ApplyIncludes forces every valid include number into combo, replacing
// randomly chosen non-included numbers. At most six includes are honored.
// The result is sorted and distinct.
func ApplyIncludes(rng *rand.Rand, combo [6]int, include []int) ([6]int, bool) {
	wanted := validIncludes(include)
	if len(wanted) == 0 {
		return combo, false
	}

	missing := make([]int, 0, len(wanted))
	for _, n := range wanted {
		if !slices.Contains(combo[:], n) {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return combo, false
	}

	// Slots that may be overwritten: numbers not requested.
	replaceable := make([]int, 0, model.PickSize)
	for i, n := range combo {
		if !slices.Contains(wanted, n) {
			replaceable = append(replaceable, i)
		}
	}
	rng.Shuffle(len(replaceable), func(i, j int) {
		replaceable[i], replaceable[j] = replaceable[j], replaceable[i]
	})

	for i, n := range missing {
		combo[replaceable[i]] = n
	}
	slices.Sort(combo[:])
	return combo, true
}

// HasIncludes reports whether include names at least one usable number.
func HasIncludes(include []int) bool {
	return len(validIncludes(include)) > 0
}

// validIncludes returns the distinct in-range include numbers, capped at six.
func validIncludes(include []int) []int {
	out := make([]int, 0, len(include))
	for _, n := range include {
		if n < model.MinNumber || n > model.MaxNumber || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
		if len(out) == model.PickSize {
			break
		}
	}
	return out
}

// ToCombo copies the first six numbers of nums into a sorted array.
func ToCombo(nums []int) [6]int {
	var c [6]int
	copy(c[:], nums)
	slices.Sort(c[:])
	return c
}

// Shuffled returns a shuffled copy of pool.
func Shuffled(rng *rand.Rand, pool []int) []int {
	out := slices.Clone(pool)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// RandomCombo is a uniform 6-of-pool pick.
func RandomCombo(rng *rand.Rand, pool []int) [6]int {
	return ToCombo(Shuffled(rng, pool)[:model.PickSize])
}
