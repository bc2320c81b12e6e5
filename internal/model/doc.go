// Package model defines shared data types used across the lotto engine.
//
// Conventions:
//   - Numbers: ints in [1,45]; combinations are [6]int sorted ascending
//   - Draw numbers: strictly increasing ints starting at 1
//   - Window sizes: 20, 50 or 100 most recent draws
//   - IDs: uuid.UUID strings for persisted generated sets
package model
