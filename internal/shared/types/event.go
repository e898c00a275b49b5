package types

import "time"

// Origin identifies how a notification event entered the pipeline
type Origin string

const (
	OriginPost   Origin = "post"
	OriginUpdate Origin = "update"
	OriginRemove Origin = "remove"
)

// Category classifies a notification by kind
type Category string

const (
	CategoryCall       Category = "call"
	CategoryAlarm      Category = "alarm"
	CategoryTimer      Category = "timer"
	CategoryNavigation Category = "navigation"
	CategoryMedia      Category = "media"
	CategoryProgress   Category = "progress"
	CategoryMessage    Category = "message"
	CategoryStandard   Category = "standard"
)

// NotificationEvent is the canonical form of one ingested notification.
// Immutable; updates to the same logical notification reuse MessageID
// or ConversationID.
type NotificationEvent struct {
	SourceApp      string    `json:"source_app"`
	Title          string    `json:"title"`
	Text           string    `json:"text"`
	BigText        string    `json:"big_text,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id,omitempty"`
	MessageID      string    `json:"message_id,omitempty"`
	CanReply       bool      `json:"can_reply"`
	HasActions     bool      `json:"has_actions"`
	Importance     int       `json:"importance"`
	Category       Category  `json:"category"`
	IsGroup        bool      `json:"is_group"`
	GroupKey       string    `json:"group_key,omitempty"`
	RouteHint      Route     `json:"route_hint,omitempty"`
	Origin         Origin    `json:"origin"`

	// Progress fields; MaxProgress == 0 means indeterminate
	Progress    int  `json:"progress,omitempty"`
	MaxProgress int  `json:"max_progress,omitempty"`
	Ongoing     bool `json:"ongoing,omitempty"`
}

// Key returns the logical island key for this event. Updates of the
// same conversation or message map to the same key.
func (e NotificationEvent) Key() string {
	switch {
	case e.ConversationID != "":
		return e.SourceApp + "/" + e.ConversationID
	case e.MessageID != "":
		return e.SourceApp + "/" + e.MessageID
	case e.GroupKey != "":
		return e.SourceApp + "/" + e.GroupKey
	default:
		return e.SourceApp
	}
}

// ContextState mirrors the latest broadcast-receiver signals.
// Flags flip on discrete events; they are never polled.
type ContextState struct {
	ScreenOn bool `json:"screen_on"`
	Charging bool `json:"charging"`
	DND      bool `json:"dnd"`
}
