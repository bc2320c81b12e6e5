// Package database opens the configured persistence backend and manages its
// schema.
//
// Two drivers are supported:
//   - postgres: a pgx connection pool, for shared deployments where several
//     instances coordinate through the sync lease
//   - sqlite: a local file through modernc.org/sqlite, for single-node setups
//
// Schema migrations for both live under migrations/ and are embedded into the
// binary; golang-migrate applies them.
package database
