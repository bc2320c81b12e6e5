package pattern

import (
	"math"

	"github.com/rickgao/lotto-engine/internal/model"
)

// Score weights.
const (
	weightSum         = 0.30
	weightOdd         = 0.25
	weightHigh        = 0.25
	weightConsecutive = 0.20
)

// AcceptScore is the threshold the pattern matcher accepts at.
const AcceptScore = 0.60

// Score rates how well combo fits the window's shape. The result is in [0,1].
func Score(combo [6]int, st model.PatternStats) float64 {
	sh := Describe(combo)

	score := weightSum*rangeScore(float64(sh.Sum), st.MinSum, st.MaxSum, st.AvgSum) +
		weightOdd*rangeScore(float64(sh.Odd), st.MinOdd, st.MaxOdd, st.AvgOdd) +
		weightHigh*rangeScore(float64(sh.High), st.MinHigh, st.MaxHigh, st.AvgHigh) +
		weightConsecutive*consecutiveScore(sh.LongestRun, st.ConsecutiveRatio)

	return math.Min(1, math.Max(0, score))
}

// rangeScore is 1 at the average, falling linearly to 0 at one full range
// away, and 0 outside [lo,hi].
func rangeScore(v float64, lo, hi int, avg float64) float64 {
	if v < float64(lo) || v > float64(hi) {
		return 0
	}
	span := float64(hi - lo)
	if span == 0 {
		return 1
	}
	return math.Max(0, 1-math.Abs(v-avg)/span)
}

// consecutiveScore rewards a short run when most historical draws had one,
// and no run otherwise.
func consecutiveScore(longestRun int, ratio float64) float64 {
	if ratio > 0.5 {
		switch {
		case longestRun >= 4:
			return 0.5
		case longestRun >= 2:
			return 1
		default:
			return 0
		}
	}
	switch {
	case longestRun <= 1:
		return 1
	case longestRun == 2:
		return 0.5
	default:
		return 0
	}
}
