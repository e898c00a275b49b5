// Package island selects at most one rendered island from all live
// feature states and governs its lifecycle.
//
// The arbiter ranks candidates under the configured limit mode. The
// activity state machine owns the single ActiveIsland slot and walks
// it through CREATED, UPDATED and COMPLETED while enforcing the
// minimum-visible window and the same-content dedupe window. All
// timing is timestamp comparison against a caller-supplied now, never
// a sleep. Every transition lands in a bounded in-memory dump ring
// that carries keys, ids and reasons but never notification text.
package island
