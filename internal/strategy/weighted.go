package strategy

import (
	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/pattern"
	"github.com/rickgao/lotto-engine/internal/sampling"
)

// WeightedRandom samples with an even frequency/overdue blend.
type WeightedRandom struct{}

func (WeightedRandom) ID() model.StrategyID { return model.StrategyWeightedRandom }

func (WeightedRandom) Generate(in Input) [6]int {
	weights := sampling.CombinedWeights(in.Metrics, sampling.BlendEven)
	return sampling.ToCombo(sampling.Sample(in.Rand, in.pool(), weights, model.PickSize))
}

// PatternMatcher samples like WeightedRandom until a combination scores at
// least pattern.AcceptScore against the window's stats.
type PatternMatcher struct{}

func (PatternMatcher) ID() model.StrategyID { return model.StrategyPatternMatcher }

func (PatternMatcher) Generate(in Input) [6]int {
	pool := in.pool()
	weights := sampling.CombinedWeights(in.Metrics, sampling.BlendEven)

	var last [6]int
	for range maxAttempts {
		last = in.withIncludes(sampling.ToCombo(sampling.Sample(in.Rand, pool, weights, model.PickSize)))
		if pattern.Score(last, in.Stats) >= pattern.AcceptScore {
			return last
		}
	}
	return last
}
