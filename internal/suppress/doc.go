// Package suppress implements the ordered veto chain every ingested
// event must clear before it can compete for the island slot.
//
// Filters run in a fixed order (blocked, muted, cooldown, context,
// focus, preset, throttle, spoiler) and short-circuit on the first
// deny. Every denial is reason-coded, counted, and written to the
// digest before the event drops; suppression is silent to the user
// but never to the system.
package suppress
