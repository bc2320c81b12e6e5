package strategy

import (
	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/pattern"
	"github.com/rickgao/lotto-engine/internal/sampling"
)

// Balanced shuffles until the odd count and sum fall in the requested ranges.
// Includes are forced into each candidate before it is checked.
type Balanced struct{}

func (Balanced) ID() model.StrategyID { return model.StrategyBalanced }

func (Balanced) Generate(in Input) [6]int {
	pool := in.pool()
	oddLo, oddHi := in.Constraints.OddRange()
	sumLo, sumHi := in.Constraints.SumRange()

	for range maxAttempts {
		c := in.withIncludes(sampling.RandomCombo(in.Rand, pool))
		sh := pattern.Describe(c)
		if sh.Odd >= oddLo && sh.Odd <= oddHi && sh.Sum >= sumLo && sh.Sum <= sumHi {
			return c
		}
	}
	return in.withIncludes(sampling.RandomCombo(in.Rand, pool))
}
