// Package ws is the overlay render bridge.
//
// The on-device overlay connects over a websocket, receives island
// snapshots as they are created, updated and torn down, and forwards
// user gestures (dismiss, accept, reply, expand) back into the
// pipeline. Rendering is a pure read of the pushed state; the overlay
// never mutates engine state except through actions.
//
// Message Types (Client -> Server):
//   - action: a user gesture on the rendered island
//   - ping: keep-alive ping
//
// Message Types (Server -> Client):
//   - island: the island to render (create or update)
//   - teardown: remove the island with the given id
//   - pong: keep-alive reply
//   - error: malformed or unknown client message
package ws
