package model

// StrategyID names a generation strategy.
type StrategyID string

// Strategy identifiers. The set is closed.
const (
	StrategyFrequentTop       StrategyID = "FREQUENT_TOP"
	StrategyOverdueTop        StrategyID = "OVERDUE_TOP"
	StrategyBalanced          StrategyID = "BALANCED"
	StrategyWeightedRandom    StrategyID = "WEIGHTED_RANDOM"
	StrategyWheelingSystem    StrategyID = "WHEELING_SYSTEM"
	StrategyPatternMatcher    StrategyID = "PATTERN_MATCHER"
	StrategyAISimulation      StrategyID = "AI_SIMULATION"
	StrategyAIPatternReasoner StrategyID = "AI_PATTERN_REASONER"
	StrategyAIDecisionFilter  StrategyID = "AI_DECISION_FILTER"
	StrategyAIWeightEvolution StrategyID = "AI_WEIGHT_EVOLUTION"
)

// StrategyIDs lists every strategy in display order.
var StrategyIDs = []StrategyID{
	StrategyFrequentTop,
	StrategyOverdueTop,
	StrategyBalanced,
	StrategyWeightedRandom,
	StrategyWheelingSystem,
	StrategyPatternMatcher,
	StrategyAISimulation,
	StrategyAIPatternReasoner,
	StrategyAIDecisionFilter,
	StrategyAIWeightEvolution,
}

// Valid reports whether id is a known strategy.
func (id StrategyID) Valid() bool {
	for _, s := range StrategyIDs {
		if s == id {
			return true
		}
	}
	return false
}

// IsHeuristic reports whether the strategy belongs to the AI_* family:
// fixed heuristic scoring plus stochastic top-K sampling.
func (id StrategyID) IsHeuristic() bool {
	switch id {
	case StrategyAISimulation, StrategyAIPatternReasoner, StrategyAIDecisionFilter, StrategyAIWeightEvolution:
		return true
	}
	return false
}

// UsesPatternStats reports whether the strategy consumes pattern statistics.
func (id StrategyID) UsesPatternStats() bool {
	return id == StrategyPatternMatcher || id == StrategyWheelingSystem || id.IsHeuristic()
}
