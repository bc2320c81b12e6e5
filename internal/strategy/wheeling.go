package strategy

import (
	"cmp"
	"slices"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/sampling"
)

const (
	// wheelSize is how many numbers the wheel keeps.
	wheelSize = 36

	// DefaultWheelCount is the batch size when none is given.
	DefaultWheelCount = 14
)

// Wheeling spreads a reduced pool evenly across a batch of combinations.
type Wheeling struct{}

func (Wheeling) ID() model.StrategyID { return model.StrategyWheelingSystem }

func (w Wheeling) Generate(in Input) [6]int {
	return w.GenerateBatch(in, 1)[0]
}

// GenerateBatch keeps the 36 most frequent numbers and deals them from a
// stream of reshuffled passes, six distinct per combination. Every kept
// number appears floor or ceil of 6*count/36 times.
func (Wheeling) GenerateBatch(in Input, count int) [][6]int {
	if count <= 0 {
		count = DefaultWheelCount
	}
	kept := retain(in)

	out := make([][6]int, 0, count)
	var stream []int
	for len(out) < count {
		combo := make([]int, 0, model.PickSize)
		var deferred []int
		i := 0
		for len(combo) < model.PickSize {
			if i == len(stream) {
				stream = append(stream, sampling.Shuffled(in.Rand, kept)...)
			}
			n := stream[i]
			i++
			if slices.Contains(combo, n) {
				// Same number from the next pass; hand it to the next combination.
				deferred = append(deferred, n)
				continue
			}
			combo = append(combo, n)
		}
		stream = append(deferred, stream[i:]...)
		out = append(out, sampling.ToCombo(combo))
	}
	return out
}

// retain returns the wheel's numbers, sorted. Without metrics the excluded
// numbers are chosen at random.
func retain(in Input) []int {
	pool := in.pool()
	if len(pool) <= wheelSize {
		return pool
	}

	var kept []int
	if len(in.Metrics) == 0 {
		kept = sampling.Shuffled(in.Rand, pool)[:wheelSize]
	} else {
		ranked := slices.Clone(pool)
		slices.SortFunc(ranked, func(a, b int) int {
			if c := cmp.Compare(in.Metrics[b].Frequency, in.Metrics[a].Frequency); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		kept = ranked[:wheelSize]
	}
	slices.Sort(kept)
	return kept
}
