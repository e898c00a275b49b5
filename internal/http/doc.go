// Package http provides the REST surface of the island engine.
//
// The listener plumbing posts raw notification payloads and context
// flips here; companion tooling reads the live island, the digest and
// the debug dump. All endpoints use the Gin framework.
//
// Endpoints:
//   - Health: / and /health
//   - Ingest: POST /events, POST /context
//   - Actions: POST /actions
//   - Island: GET /island
//   - Digest: GET /digest, GET /digest/export
//   - Prefs: GET /prefs, POST /prefs/mute, POST /prefs/block
//   - Debug: GET /debug/dump (only with ENGINE_DEBUG)
package http
