package strategy

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/sampling"
)

// ErrUnknownStrategy is returned by Lookup for ids outside the closed set.
var ErrUnknownStrategy = errors.New("unknown strategy")

// maxAttempts bounds the rejection loops of Balanced and PatternMatcher.
const maxAttempts = 1000

// Input carries everything a strategy may read.
type Input struct {
	Rand        *rand.Rand
	Constraints model.Constraints
	Window      int
	Metrics     map[int]model.NumberMetric // empty when no history exists
	Stats       model.PatternStats
}

// pool returns the constraint-filtered candidate pool.
func (in Input) pool() []int {
	return sampling.FilterPool(in.Constraints)
}

// withIncludes returns c with the requested include numbers forced in.
func (in Input) withIncludes(c [6]int) [6]int {
	fc, _ := sampling.ApplyIncludes(in.Rand, c, in.Constraints.Include)
	return fc
}

// Strategy produces one combination per call.
type Strategy interface {
	ID() model.StrategyID
	Generate(in Input) [6]int
}

// BatchGenerator is implemented by strategies whose combinations depend on
// each other within one request.
type BatchGenerator interface {
	GenerateBatch(in Input, count int) [][6]int
}

// Registry returns every strategy keyed by id.
func Registry() map[model.StrategyID]Strategy {
	return map[model.StrategyID]Strategy{
		model.StrategyFrequentTop:       FrequentTop(),
		model.StrategyOverdueTop:        OverdueTop(),
		model.StrategyBalanced:          Balanced{},
		model.StrategyWeightedRandom:    WeightedRandom{},
		model.StrategyWheelingSystem:    Wheeling{},
		model.StrategyPatternMatcher:    PatternMatcher{},
		model.StrategyAISimulation:      AISimulation(),
		model.StrategyAIPatternReasoner: AIPatternReasoner(),
		model.StrategyAIDecisionFilter:  AIDecisionFilter(),
		model.StrategyAIWeightEvolution: AIWeightEvolution(),
	}
}

var registry = Registry()

// Lookup returns the strategy for id.
func Lookup(id model.StrategyID) (Strategy, error) {
	s, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, id)
	}
	return s, nil
}
