// Package route maps the arbitrated island to a rendering target and
// dispatches the side effects around it.
//
// Three targets exist: the in-process overlay, the native OS island
// bridge, and nothing at all (log-only, used by the music
// BLOCK_SYSTEM mode, which cancels the underlying notification
// instead of rendering). Haptic pulses and user-initiated action
// dispatch also flow through here. A failed side effect degrades to a
// logged no-op, never a crash.
package route
