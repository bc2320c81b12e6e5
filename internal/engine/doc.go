// Package engine turns a recommendation request into a batch of distinct
// combinations.
//
// Generate resolves the strategy, loads pattern stats for the strategies
// that use them, generates, forces the requested include numbers in, drops
// combinations too similar to ones already accepted, removes exact
// duplicates and tags each survivor. Calls share nothing: each one gets its
// own PCG source.
package engine
