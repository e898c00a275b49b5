// Package resilience provides a circuit breaker for the native bridge.
//
// The bridge process can die or hang with the engine still running.
// Instead of paying a timeout on every render while it is down, the
// breaker trips after consecutive failures and fails calls instantly
// until a probe succeeds. Render failures are already no-ops upstream,
// so tripping never loses pipeline state.
package resilience
