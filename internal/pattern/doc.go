// Package pattern derives shape descriptors from historical draws and scores
// candidate combinations against them.
//
// A combination's shape is its sum, odd count, high count (numbers above 30)
// and longest consecutive run. PatternStats aggregates those over a window of
// draws; Score rates how typical a combination looks for that window. The
// Cache keeps one PatternStats per window and recomputes it when the latest
// stored draw changes.
package pattern
