package types

import "time"

// ActionKind is a discrete user gesture forwarded by the overlay or
// the native bridge
type ActionKind string

const (
	ActionAccept  ActionKind = "accept"
	ActionDecline ActionKind = "decline"
	ActionDismiss ActionKind = "dismiss"
	ActionReply   ActionKind = "reply"
	ActionOpen    ActionKind = "open"
	ActionMute    ActionKind = "mute"
	ActionBlock   ActionKind = "block"
	ActionExpand  ActionKind = "expand"
)

// UserAction arrives as a callback with an optional reply payload
type UserAction struct {
	Kind      ActionKind `json:"kind"`
	IslandKey string     `json:"island_key"`
	Package   string     `json:"package"`
	ReplyText string     `json:"reply_text,omitempty"`
	At        time.Time  `json:"at"`
}

// HapticKind selects the pulse dispatched with a render transition
type HapticKind string

const (
	HapticShown   HapticKind = "shown"
	HapticSuccess HapticKind = "success"
)

// ActionRef abstracts a platform pending-intent or remote-input target.
// The core never imports a platform intent type; the excluded
// integration layer resolves refs to real intents.
type ActionRef struct {
	IslandKey string     `json:"island_key"`
	Package   string     `json:"package"`
	Kind      ActionKind `json:"kind"`
	ReplyText string     `json:"reply_text,omitempty"`
}
