// Package sampling provides the pool-level primitives every strategy builds on:
// constraint filtering, forced includes, weight construction and weighted
// draw-without-replacement.
package sampling
