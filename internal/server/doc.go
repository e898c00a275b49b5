// Package server assembles the island pipeline and its HTTP surface.
//
// Lifecycle:
//  1. Open sqlite storage and the preference file
//  2. Start the digest recorder and priority engine hydration
//  3. Wire the suppression pipeline, arbitration and route dispatch
//  4. Mount the REST routes, Prometheus metrics and the overlay socket
//  5. Serve until signaled, then drain and flush
package server
