// Package strategy implements the number-selection strategies.
//
// Every strategy returns six distinct numbers in [1,45], sorted ascending,
// drawn from the constraint-filtered pool. Strategies hold no state between
// calls; all randomness comes from Input.Rand.
//
// The AI_* strategies are fixed heuristics: they sample candidates with the
// weighted sampler, score them with a blend of pattern fit, frequency,
// overdue and spacing, and pick uniformly among the best. Nothing is learned.
package strategy
