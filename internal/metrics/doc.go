// Package metrics derives per-number statistics from historical draws.
//
// For each supported window (the 20, 50 and 100 most recent draws) and each
// number in [1,45]:
//   - Frequency: appearances of the number within the window
//   - Overdue: draws since the number last appeared (sample size if unseen)
//   - LastSeenDrawNo: draw number of the most recent appearance
//
// Metrics are fully derived; the Recomputer replaces every window wholesale
// after a sync adds draws.
package metrics
