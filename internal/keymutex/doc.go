// Package keymutex provides a sharded table of per-key exclusive locks with
// context-aware acquisition.
//
// The engine keys the table by principal: two admission attempts for the
// same principal serialize, while attempts for distinct principals proceed
// independently (they share nothing beyond a brief shard-map access). Locks
// are allocated on first use and freed when the last waiter releases, so an
// idle table holds no per-principal state.
//
// # What this package must NOT do
//
//   - Import any sessiongate package.
//   - Block ignoring context cancellation during acquisition.
package keymutex
