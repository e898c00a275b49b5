// Command engined runs the island decision engine.
//
// It exposes the ingest and companion REST API, the overlay websocket
// and Prometheus metrics on a single port. Configuration comes from
// environment variables; see internal/infrastructure/config.
package main
