// Package middleware provides HTTP middleware for the ingest surface.
//
// The notification listener can flood the engine during app-driven
// bursts; the rate limiter caps what reaches the pipeline queue so a
// misbehaving forwarder degrades to 429s instead of backpressure on
// the loop. Suppression-level burst control still applies per app
// behind it.
package middleware
