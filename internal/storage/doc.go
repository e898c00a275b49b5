// Package storage persists engine state that must survive process
// restarts: priority profiles with their score events, cooldown
// records, and the digest log.
//
// Backed by a single sqlite database (modernc.org/sqlite, pure Go).
// All writes are single-row upserts or appends; no multi-step
// transactions are required, so a skipped write never corrupts state.
// The hot path never reads from here directly; callers hydrate
// in-memory caches asynchronously.
package storage
