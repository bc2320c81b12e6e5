// Package store defines the persistence ports consumed by the engine and the
// draw synchronizer.
//
// Adapters:
//   - postgres: pgxpool-backed production store
//   - sqlite: database/sql + modernc.org/sqlite for single-node deployments
//   - memory: in-process maps for tests and demos
//
// Draws are append-only: Insert never overwrites an existing draw number.
package store
