// Package persistence stores the fragment record under a fixed key.
//
// Backends:
//
//   - File: one document on disk; the extension picks the codec (.json,
//     .yaml/.yml, .toml).
//   - SQLite: a single-table database, one row per key.
//   - Redis: one string value per key.
//   - Memory: process-local, for tests and ephemeral servers.
//
// Every backend reports an absent record as (nil, nil) from Load. Guard
// wraps a backend with a circuit breaker so a failing store is not retried
// on every edit.
package persistence
