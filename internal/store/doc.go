// Package store provides SQLite-backed durable storage for checkout audit
// trails.
//
// The store is an append-only log with two tables:
//   - Sessions: one row per checkout, keyed by session token, carrying the
//     fingerprint of the scheme the session ran under
//   - Events: scan, firing, and unknown records, ordered by the session's
//     logical clock
//
// Ordering always uses seq (the logical clock), never timestamps, so a
// recorded session replays identically regardless of wall time.
//
// Database configuration:
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: events must belong to a session
package store
