package strategy

import (
	"cmp"
	"slices"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/sampling"
)

// RankedTop takes the six highest-ranked numbers of the pool.
type RankedTop struct {
	id    model.StrategyID
	value func(model.NumberMetric) int
}

// FrequentTop ranks by frequency within the window.
func FrequentTop() RankedTop {
	return RankedTop{
		id:    model.StrategyFrequentTop,
		value: func(m model.NumberMetric) int { return m.Frequency },
	}
}

// OverdueTop ranks by draws since last appearance.
func OverdueTop() RankedTop {
	return RankedTop{
		id:    model.StrategyOverdueTop,
		value: func(m model.NumberMetric) int { return m.Overdue },
	}
}

func (s RankedTop) ID() model.StrategyID { return s.id }

// Generate ranks by value+1 descending, ties by number ascending. Without
// metrics the pick is uniform.
func (s RankedTop) Generate(in Input) [6]int {
	pool := in.pool()
	if len(in.Metrics) == 0 {
		return sampling.RandomCombo(in.Rand, pool)
	}

	rank := func(n int) int { return s.value(in.Metrics[n]) + 1 }
	ranked := slices.Clone(pool)
	slices.SortFunc(ranked, func(a, b int) int {
		if c := cmp.Compare(rank(b), rank(a)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return sampling.ToCombo(ranked[:model.PickSize])
}
