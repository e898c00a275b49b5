package types

import "time"

// Route selects the rendering target for an arbitrated island
type Route string

const (
	RouteOverlay Route = "overlay"
	RouteNative  Route = "native"
	RouteNone    Route = "none"
)

// LimitMode configures how arbitration resolves competing live islands
type LimitMode string

const (
	LimitFirstCome  LimitMode = "FIRST_COME"
	LimitMostRecent LimitMode = "MOST_RECENT"
	LimitPriority   LimitMode = "PRIORITY"
)

// Phase is the island lifecycle state
type Phase string

const (
	PhaseCreated   Phase = "CREATED"
	PhaseUpdated   Phase = "UPDATED"
	PhaseCompleted Phase = "COMPLETED"
)

// FeatureState is one live variant produced by a feature reducer.
// Implementations are plain value types; every transition derives
// purely from (prev, event, now).
type FeatureState interface {
	// NotificationKey identifies the logical island this state renders
	NotificationKey() string
	// ContentSignature is the rendered-content identity used by the
	// same-content dedupe window
	ContentSignature() string
}

// IslandPolicy is the declarative per-feature render contract
type IslandPolicy struct {
	Dismissible  bool          `json:"dismissible"`
	Modal        bool          `json:"modal"`
	MinVisible   time.Duration `json:"min_visible"`
	DedupeWindow time.Duration `json:"dedupe_window"`
}

// ActiveIsland is the single arbitration winner. At most one instance
// exists at any time; it is created or replaced only by the activity
// state machine.
type ActiveIsland struct {
	ID           string       `json:"id"`
	FeatureID    string       `json:"feature_id"`
	State        FeatureState `json:"-"`
	Route        Route        `json:"route"`
	Policy       IslandPolicy `json:"policy"`
	Priority     int          `json:"priority"`
	FirstShownAt time.Time    `json:"first_shown_at"`
	EventAt      time.Time    `json:"event_at"`
	Expanded     bool         `json:"expanded"`
	Replying     bool         `json:"replying"`
}

// TransitionRecord is one debug dump row. PII-free: keys, ids, phases
// and reasons only, never notification text.
type TransitionRecord struct {
	At        time.Time `json:"at"`
	IslandKey string    `json:"island_key"`
	FeatureID string    `json:"feature_id"`
	From      Phase     `json:"from,omitempty"`
	To        Phase     `json:"to"`
	Note      string    `json:"note,omitempty"`
}
