package strategy

import (
	"cmp"
	"math"
	"slices"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/pattern"
	"github.com/rickgao/lotto-engine/internal/sampling"
)

// scoreWeights blend the four heuristic terms.
type scoreWeights struct {
	Pattern float64
	Freq    float64
	Overdue float64
	Spacing float64
}

// Heuristic is the shared shape of the AI_* strategies: sample candidates,
// score, sort, and choose uniformly among the top.
type Heuristic struct {
	id         model.StrategyID
	candidates int
	top        int
	weights    scoreWeights
	blend      func(model.PatternStats) sampling.Blend

	// reject, when set, replaces scoring: candidates it rejects are dropped
	// and the choice is uniform among the rest.
	reject func([6]int) bool
}

// AISimulation scores 500 evenly blended candidates and picks among the top 50.
func AISimulation() Heuristic {
	return Heuristic{
		id:         model.StrategyAISimulation,
		candidates: 500,
		top:        50,
		weights:    scoreWeights{Pattern: 0.4, Freq: 0.25, Overdue: 0.25, Spacing: 0.1},
		blend:      fixedBlend(sampling.BlendEven),
	}
}

// AIPatternReasoner leans on pattern fit: 300 frequency-heavy candidates, top 20.
func AIPatternReasoner() Heuristic {
	return Heuristic{
		id:         model.StrategyAIPatternReasoner,
		candidates: 300,
		top:        20,
		weights:    scoreWeights{Pattern: 0.6, Freq: 0.2, Overdue: 0.1, Spacing: 0.1},
		blend:      fixedBlend(sampling.BlendFreqHeavy),
	}
}

// AIDecisionFilter drops implausible shapes from 400 overdue-heavy candidates.
func AIDecisionFilter() Heuristic {
	return Heuristic{
		id:         model.StrategyAIDecisionFilter,
		candidates: 400,
		blend:      fixedBlend(sampling.BlendOverdueHeavy),
		reject:     implausible,
	}
}

// AIWeightEvolution picks its blend from the window's average sum: frequency
// heavy above the midpoint, overdue heavy otherwise.
func AIWeightEvolution() Heuristic {
	return Heuristic{
		id:         model.StrategyAIWeightEvolution,
		candidates: 200,
		top:        10,
		weights:    scoreWeights{Pattern: 0.35, Freq: 0.3, Overdue: 0.25, Spacing: 0.1},
		blend: func(st model.PatternStats) sampling.Blend {
			if st.AvgSum > sumMidpoint {
				return sampling.BlendFreqHeavy
			}
			return sampling.BlendOverdueHeavy
		},
	}
}

// sumMidpoint splits low-sum windows from high-sum ones.
const sumMidpoint = 135

func fixedBlend(b sampling.Blend) func(model.PatternStats) sampling.Blend {
	return func(model.PatternStats) sampling.Blend { return b }
}

func (h Heuristic) ID() model.StrategyID { return h.id }

func (h Heuristic) Generate(in Input) [6]int {
	pool := in.pool()
	weights := sampling.CombinedWeights(in.Metrics, h.blend(in.Stats))

	cands := make([][6]int, h.candidates)
	for i := range cands {
		cands[i] = sampling.ToCombo(sampling.Sample(in.Rand, pool, weights, model.PickSize))
	}

	if h.reject != nil {
		kept := slices.DeleteFunc(slices.Clone(cands), h.reject)
		if len(kept) == 0 {
			kept = cands
		}
		return kept[in.Rand.IntN(len(kept))]
	}

	freq := sampling.FrequencyWeights(in.Metrics)
	over := sampling.OverdueWeights(in.Metrics)

	type scored struct {
		combo [6]int
		score float64
	}
	ranked := make([]scored, len(cands))
	for i, c := range cands {
		ranked[i] = scored{c, h.score(c, in.Stats, freq, over)}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int { return cmp.Compare(b.score, a.score) })

	top := min(h.top, len(ranked))
	return ranked[in.Rand.IntN(top)].combo
}

func (h Heuristic) score(c [6]int, st model.PatternStats, freq, over map[int]float64) float64 {
	w := h.weights
	return w.Pattern*pattern.Score(c, st) +
		w.Freq*mean(c, freq) +
		w.Overdue*mean(c, over) +
		w.Spacing*spacing(c)
}

// mean averages a normalized weight over the combination; missing numbers count as 0.
func mean(c [6]int, weights map[int]float64) float64 {
	total := 0.0
	for _, n := range c {
		total += weights[n]
	}
	return total / model.PickSize
}

// spacing is 1 for evenly spread numbers, falling with the stdev of the gaps.
func spacing(c [6]int) float64 {
	var gaps [model.PickSize - 1]float64
	avg := 0.0
	for i := 1; i < len(c); i++ {
		gaps[i-1] = float64(c[i] - c[i-1])
		avg += gaps[i-1]
	}
	avg /= float64(len(gaps))

	variance := 0.0
	for _, g := range gaps {
		variance += (g - avg) * (g - avg)
	}
	stdev := math.Sqrt(variance / float64(len(gaps)))
	return math.Max(0, 1-stdev/10)
}

// Decision rule bounds.
const (
	decisionMinSum   = 60
	decisionMaxSum   = 200
	decisionMaxRun   = 4  // runs this long are rejected
	decisionMinSpan  = 10 // spans shorter than this are rejected
	decisionHighFrom = 23 // split point for the all-high/all-low rule
)

// implausible reports whether c breaks any decision rule.
func implausible(c [6]int) bool {
	sh := pattern.Describe(c)
	if sh.Sum < decisionMinSum || sh.Sum > decisionMaxSum {
		return true
	}
	if sh.LongestRun >= decisionMaxRun {
		return true
	}
	if sh.Span < decisionMinSpan {
		return true
	}
	if sh.Odd == 0 || sh.Odd == model.PickSize {
		return true
	}
	high := 0
	for _, n := range c {
		if n >= decisionHighFrom {
			high++
		}
	}
	return high == 0 || high == model.PickSize
}
