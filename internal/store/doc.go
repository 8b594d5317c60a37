// Package store provides SQLite-backed run history.
//
// Every run is appended once:
//   - runs: the report summary plus the canonical JSON report
//   - mismatches: one row per recorded failure, keyed by content-addressed
//     transaction ID
//   - coverage_bins: the final hit count of every coverage class
//
// # Ordering
//
// Runs are listed by the seq column (insertion order), never by wall time.
// Run IDs are UUIDv7, so the start time shown by history is recovered from
// the ID itself.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
