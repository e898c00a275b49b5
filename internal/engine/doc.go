// Package engine runs the single serialized pipeline loop.
//
// Notification events, context flips, user actions and preference
// changes all funnel into one buffered channel consumed by one
// goroutine, so no two pipeline runs ever race over the arbitration
// state. The hot path never blocks on storage: digest rows and score
// updates are written behind, and the priority cache hydrates
// asynchronously at start.
package engine
