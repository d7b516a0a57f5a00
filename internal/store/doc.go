// Package store provides the SQLite archive of trial data.
//
// The archive holds two tables:
//   - sessions: one row per archived session, either a live run or an
//     imported data folder
//   - trials: one row per saved trial, linked to its session
//
// # Idempotency
//
// Trials are unique on (subject, source_file, source_row). Re-importing a
// folder or re-archiving a session inserts nothing new. Imported sessions are
// unique on (source, subject).
//
// # Ordering
//
// Trial reads are ordered by subject, block, trial and row id, so analysis
// over the archive sees the same sequence as analysis over the folder.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
