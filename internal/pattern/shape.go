package pattern

import (
	"math"

	"github.com/rickgao/lotto-engine/internal/model"
)

// Shape describes one combination.
type Shape struct {
	Sum        int
	Odd        int
	High       int
	LongestRun int // 1 when no two numbers are consecutive
	Span       int // max - min
}

// Describe computes the shape of a sorted combination.
func Describe(combo [6]int) Shape {
	s := Shape{LongestRun: 1, Span: combo[5] - combo[0]}
	run := 1
	for i, n := range combo {
		s.Sum += n
		if n%2 == 1 {
			s.Odd++
		}
		if n > model.HighThreshold {
			s.High++
		}
		if i > 0 {
			if n == combo[i-1]+1 {
				run++
				s.LongestRun = max(s.LongestRun, run)
			} else {
				run = 1
			}
		}
	}
	return s
}

// HasConsecutive reports whether at least two numbers are adjacent.
func (s Shape) HasConsecutive() bool {
	return s.LongestRun >= 2
}

// Compute aggregates the shapes of draws into PatternStats. Draws may be in
// any order. With no draws the defaults are returned.
func Compute(draws []model.Draw, window int) model.PatternStats {
	if len(draws) == 0 {
		return model.DefaultPatternStats(window)
	}

	st := model.PatternStats{
		Window:     window,
		MinSum:     math.MaxInt,
		MinOdd:     math.MaxInt,
		MinHigh:    math.MaxInt,
		SampleSize: len(draws),
	}

	var sumTotal, oddTotal, highTotal, consecutive int
	for _, d := range draws {
		sh := Describe(d.Numbers)

		st.MinSum = min(st.MinSum, sh.Sum)
		st.MaxSum = max(st.MaxSum, sh.Sum)
		st.MinOdd = min(st.MinOdd, sh.Odd)
		st.MaxOdd = max(st.MaxOdd, sh.Odd)
		st.MinHigh = min(st.MinHigh, sh.High)
		st.MaxHigh = max(st.MaxHigh, sh.High)

		sumTotal += sh.Sum
		oddTotal += sh.Odd
		highTotal += sh.High
		if sh.HasConsecutive() {
			consecutive++
		}
		st.AsOfDrawNo = max(st.AsOfDrawNo, d.No)
	}

	n := float64(len(draws))
	st.AvgSum = float64(sumTotal) / n
	st.AvgOdd = float64(oddTotal) / n
	st.AvgHigh = float64(highTotal) / n
	st.ConsecutiveRatio = float64(consecutive) / n
	return st
}
